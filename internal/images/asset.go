// Package images resolves product images and packages them for download.
package images

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/worlddoor/fulfillment/internal/products"
)

// Source tells who supplied an image.
type Source string

const (
	SourceSeller Source = "seller"
	SourceStaff  Source = "staff"
)

const (
	staffPrefix      = "staff_"
	defaultMimeType  = "image/jpeg"
	defaultStaffName = "staff_photo.jpg"
)

// Asset is a downloadable image of a product.
type Asset struct {
	ID       string
	Filename string
	URL      string
	MimeType string
	Category string
	Source   Source
}

// Resolve finds imageID among the product_images rows and then among the
// staff photos in metadata, where staff_{n} addresses photo n.
func Resolve(p products.Product, stored []products.Image, imageID string) (Asset, error) {
	for _, img := range stored {
		if img.ID == imageID {
			return sellerAsset(p, img), nil
		}
	}
	n, ok := staffIndex(imageID)
	if !ok {
		return Asset{}, ErrImageNotFound
	}
	photos := products.Photos(p.Metadata)
	if n >= len(photos) {
		return Asset{}, ErrImageNotFound
	}
	return staffAsset(photos[n], n, defaultStaffName), nil
}

// Assets lists every image of a product, seller images first.
func Assets(p products.Product, stored []products.Image) []Asset {
	photos := products.Photos(p.Metadata)
	out := make([]Asset, 0, len(stored)+len(photos))
	for _, img := range stored {
		out = append(out, sellerAsset(p, img))
	}
	for i, photo := range photos {
		out = append(out, staffAsset(photo, i, fmt.Sprintf("staff_photo_%d.jpg", i+1)))
	}
	return out
}

func sellerAsset(p products.Product, img products.Image) Asset {
	filename := img.Filename
	if filename == "" {
		filename = fmt.Sprintf("%s_seller_%s.jpg", p.Name, img.ID)
	}
	category := img.Category
	if category == "" {
		category = string(SourceSeller)
	}
	return Asset{
		ID:       img.ID,
		Filename: filename,
		URL:      img.URL,
		MimeType: defaultMimeType,
		Category: category,
		Source:   SourceSeller,
	}
}

func staffAsset(photo products.Photo, i int, fallbackName string) Asset {
	a := Asset{
		ID:       staffPrefix + strconv.Itoa(i),
		Filename: photo.Filename,
		URL:      photo.DataURL,
		MimeType: photo.MimeType,
		Category: "photography",
		Source:   SourceStaff,
	}
	if a.Filename == "" {
		a.Filename = fallbackName
	}
	if a.MimeType == "" {
		a.MimeType = defaultMimeType
	}
	return a
}

func staffIndex(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, staffPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
