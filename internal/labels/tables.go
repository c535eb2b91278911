package labels

// ProductStatus maps inventory status labels.
var ProductStatus = NewDictionary("product status",
	Entry{Value: "inbound", Label: "入庫", Aliases: []string{"入荷待ち"}},
	Entry{Value: "inspection", Label: "検品中", Aliases: []string{"検品"}},
	Entry{Value: "storage", Label: "保管中", Aliases: []string{"保管"}},
	Entry{Value: "listing", Label: "出品中", Aliases: []string{"出品"}},
	Entry{Value: "ordered", Label: "受注済み", Aliases: []string{"受注"}},
	Entry{Value: "shipping", Label: "出荷中", Aliases: []string{"出荷"}},
	Entry{Value: "delivery", Label: "配送"},
	Entry{Value: "sold", Label: "売約済み"},
	Entry{Value: "returned", Label: "返品"},
)

// TransitionStatus holds the labels shown by the manual transition tool.
var TransitionStatus = NewDictionary("transition status",
	Entry{Value: "listing", Label: "出品中"},
	Entry{Value: "sold", Label: "購入者決定"},
	Entry{Value: "storage", Label: "保管中"},
	Entry{Value: "inspection", Label: "検品中"},
	Entry{Value: "shipped", Label: "出荷済み"},
	Entry{Value: "delivered", Label: "到着済み"},
)

// OrderStatus maps order status labels.
var OrderStatus = NewDictionary("order status",
	Entry{Value: "pending", Label: "保留中"},
	Entry{Value: "confirmed", Label: "確認済み"},
	Entry{Value: "processing", Label: "処理中"},
	Entry{Value: "shipped", Label: "出荷済み"},
	Entry{Value: "delivered", Label: "配送完了"},
	Entry{Value: "cancelled", Label: "キャンセル"},
	Entry{Value: "returned", Label: "返品"},
)

// Category maps product category labels.
var Category = NewDictionary("category",
	Entry{Value: "camera_body", Label: "カメラ本体"},
	Entry{Value: "lens", Label: "レンズ"},
	Entry{Value: "camera", Label: "カメラ"},
	Entry{Value: "watch", Label: "腕時計", Aliases: []string{"時計"}},
	Entry{Value: "accessory", Label: "アクセサリ", Aliases: []string{"アクセサリー"}},
	Entry{Value: "other", Label: "その他"},
)

// Condition maps product condition grades.
var Condition = NewDictionary("condition",
	Entry{Value: "new", Label: "新品"},
	Entry{Value: "like_new", Label: "新品同様"},
	Entry{Value: "excellent", Label: "極美品"},
	Entry{Value: "very_good", Label: "美品"},
	Entry{Value: "good", Label: "良品"},
	Entry{Value: "fair", Label: "中古美品"},
	Entry{Value: "poor", Label: "中古"},
)
