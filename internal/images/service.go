package images

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// ArchiveName is the file name of multi-product downloads.
const ArchiveName = "product_images.zip"

// Catalog loads products and their stored images.
type Catalog interface {
	Get(ctx context.Context, id string) (products.Product, error)
	GetMany(ctx context.Context, ids []string) ([]products.Product, error)
	Images(ctx context.Context, productIDs []string) (map[string][]products.Image, error)
}

// BlobLoader reads image bytes.
type BlobLoader interface {
	Load(url, filename string) (Blob, error)
}

// File is a single downloadable image.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Summary describes one image in a listing.
type Summary struct {
	ID         string  `json:"id"`
	Filename   string  `json:"filename"`
	Category   string  `json:"category"`
	HasData    bool    `json:"hasData"`
	PreviewURL *string `json:"previewUrl"`
	Size       int     `json:"size"`
	MimeType   string  `json:"mimeType"`
	Source     Source  `json:"source"`
}

// Listing is the image inventory of a product.
type Listing struct {
	Success         bool      `json:"success"`
	Images          []Summary `json:"images"`
	TotalImages     int       `json:"totalImages"`
	AvailableImages int       `json:"availableImages"`
}

// Service serves product image downloads.
type Service struct {
	catalog Catalog
	loader  BlobLoader
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(catalog Catalog, loader BlobLoader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, loader: loader, logger: logger}
}

func visible(ctx context.Context, p products.Product) bool {
	principal := shared.PrincipalFromContext(ctx)
	return principal == nil || !principal.IsSeller() || p.SellerID == principal.UserID
}

func (s *Service) product(ctx context.Context, id string) (products.Product, []products.Image, error) {
	p, err := s.catalog.Get(ctx, id)
	if err != nil {
		return products.Product{}, nil, err
	}
	if !visible(ctx, p) {
		return products.Product{}, nil, ErrProductNotFound
	}
	stored, err := s.catalog.Images(ctx, []string{id})
	if err != nil {
		return products.Product{}, nil, fmt.Errorf("load images: %w", err)
	}
	return p, stored[id], nil
}

// Download returns one image of a product.
func (s *Service) Download(ctx context.Context, productID, imageID string) (File, error) {
	p, stored, err := s.product(ctx, productID)
	if err != nil {
		return File{}, err
	}
	asset, err := Resolve(p, stored, imageID)
	if err != nil {
		return File{}, err
	}
	blob, err := s.loader.Load(asset.URL, asset.Filename)
	if err != nil {
		return File{}, err
	}
	return File{Filename: asset.Filename, ContentType: blob.ContentType, Data: blob.Data}, nil
}

// Archive packs the images of the given products into a zip. When imageIDs
// is non-empty only those images are included. Images that cannot be read
// are logged and skipped.
func (s *Service) Archive(ctx context.Context, productIDs, imageIDs []string) ([]byte, error) {
	list, err := s.catalog.GetMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	visibleList := list[:0]
	for _, p := range list {
		if visible(ctx, p) {
			visibleList = append(visibleList, p)
		}
	}
	if len(visibleList) == 0 {
		return nil, ErrProductNotFound
	}
	ids := make([]string, len(visibleList))
	for i, p := range visibleList {
		ids[i] = p.ID
	}
	stored, err := s.catalog.Images(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}

	selected := make(map[string]bool, len(imageIDs))
	for _, id := range imageIDs {
		selected[id] = true
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	packed := 0
	for _, p := range visibleList {
		for _, asset := range Assets(p, stored[p.ID]) {
			if len(selected) > 0 && !selected[asset.ID] {
				continue
			}
			blob, err := s.loader.Load(asset.URL, asset.Filename)
			if err != nil {
				s.logger.Warn("skip image", slog.String("product_id", p.ID), slog.String("image_id", asset.ID), slog.Any("error", err))
				continue
			}
			folder := entrySegment(p.Name)
			if folder == "_" {
				folder = entrySegment(p.ID)
			}
			w, err := zw.Create(fmt.Sprintf("%s/%s/%s", folder, asset.Source, entrySegment(asset.Filename)))
			if err != nil {
				return nil, err
			}
			if _, err := w.Write(blob.Data); err != nil {
				return nil, err
			}
			packed++
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if packed == 0 {
		return nil, ErrNoImages
	}
	return buf.Bytes(), nil
}

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// entrySegment turns a product name or file name into a single zip path
// element.
func entrySegment(name string) string {
	name = strings.TrimSpace(separatorReplacer.Replace(name))
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// List describes every image of a product and whether it can be downloaded.
func (s *Service) List(ctx context.Context, productID string) (Listing, error) {
	if productID == "" {
		return Listing{}, fmt.Errorf("%w: 商品IDが必要です", httpx.ErrValidation)
	}
	p, stored, err := s.product(ctx, productID)
	if err != nil {
		return Listing{}, err
	}
	assets := Assets(p, stored)
	out := Listing{Success: true, Images: make([]Summary, 0, len(assets)), TotalImages: len(assets)}
	for _, a := range assets {
		sum := Summary{ID: a.ID, Filename: a.Filename, Category: a.Category, MimeType: a.MimeType, Source: a.Source}
		isData := strings.HasPrefix(a.URL, "data:")
		isUpload := a.Source == SourceSeller && strings.HasPrefix(a.URL, UploadsPrefix)
		if isData || isUpload {
			url := a.URL
			sum.HasData = true
			sum.PreviewURL = &url
			out.AvailableImages++
		}
		if isData {
			if data, _, err := DecodeDataURL(a.URL); err == nil {
				sum.Size = len(data)
			}
		}
		out.Images = append(out.Images, sum)
	}
	return out, nil
}
