package products

import "fmt"

// Photo is a staff photo kept in metadata.photos.
type Photo struct {
	DataURL  string
	Filename string
	MimeType string
}

// Photos reads metadata.photos. Entries are either a bare data URL or an
// object with dataUrl, filename and mimeType.
func Photos(metadata map[string]any) []Photo {
	raw, ok := metadata["photos"].([]any)
	if !ok {
		return nil
	}
	photos := make([]Photo, 0, len(raw))
	for _, entry := range raw {
		switch v := entry.(type) {
		case string:
			photos = append(photos, Photo{DataURL: v})
		case map[string]any:
			photo := Photo{}
			photo.DataURL, _ = v["dataUrl"].(string)
			photo.Filename, _ = v["filename"].(string)
			photo.MimeType, _ = v["mimeType"].(string)
			photos = append(photos, photo)
		default:
			photos = append(photos, Photo{})
		}
	}
	return photos
}

// MergeImages combines product_images rows with the photos and delivery plan
// images stored in metadata.
func MergeImages(stored []Image, metadata map[string]any) []Image {
	merged := make([]Image, 0, len(stored))
	for _, img := range stored {
		img.Source = SourceProductTable
		if img.ThumbnailURL == "" {
			img.ThumbnailURL = img.URL
		}
		merged = append(merged, img)
	}
	for i, photo := range Photos(metadata) {
		filename := photo.Filename
		if filename == "" {
			filename = fmt.Sprintf("photo_%d.jpg", i)
		}
		merged = append(merged, Image{
			ID:           fmt.Sprintf("metadata_%d", i),
			URL:          photo.DataURL,
			ThumbnailURL: photo.DataURL,
			Filename:     filename,
			SortOrder:    len(merged),
			Source:       SourceMetadata,
		})
	}
	if planned, ok := metadata["images"].([]any); ok {
		for i, entry := range planned {
			img := Image{
				ID:        fmt.Sprintf("delivery_%d", i),
				Filename:  fmt.Sprintf("delivery_%d.jpg", i),
				SortOrder: len(merged),
				Source:    SourceDeliveryPlan,
			}
			switch v := entry.(type) {
			case string:
				img.URL = v
			case map[string]any:
				img.URL, _ = v["url"].(string)
				img.Category, _ = v["category"].(string)
				if name, _ := v["filename"].(string); name != "" {
					img.Filename = name
				}
			}
			img.ThumbnailURL = img.URL
			merged = append(merged, img)
		}
	}
	return merged
}
