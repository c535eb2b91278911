package notifications

// GroupBySeller splits items by seller in first-seen order. Items without a
// seller are dropped. Quantities below one count as one.
func GroupBySeller(items []Item) []SellerGroup {
	var groups []SellerGroup
	index := make(map[string]int)
	for _, item := range items {
		if item.SellerID == "" {
			continue
		}
		i, ok := index[item.SellerID]
		if !ok {
			i = len(groups)
			index[item.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: item.SellerID})
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		g := &groups[i]
		g.Items = append(g.Items, item)
		g.Subtotal += item.Price * int64(qty)
		g.ProductNames = append(g.ProductNames, item.ProductName)
	}
	return groups
}
