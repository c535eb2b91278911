package images

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryCatalog struct {
	products map[string]products.Product
	images   map[string][]products.Image
}

func (m *memoryCatalog) Get(_ context.Context, id string) (products.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (m *memoryCatalog) GetMany(_ context.Context, ids []string) ([]products.Product, error) {
	var out []products.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryCatalog) Images(_ context.Context, ids []string) (map[string][]products.Image, error) {
	out := map[string][]products.Image{}
	for _, id := range ids {
		out[id] = m.images[id]
	}
	return out, nil
}

var pixel = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func fixture(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "product-1", "general"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "product-1", "general", "front.jpg"), []byte("jpeg-bytes"), 0o644))

	catalog := &memoryCatalog{
		products: map[string]products.Product{
			"p1": {ID: "p1", Name: "Canon AE-1", SellerID: "s1", Metadata: map[string]any{
				"photos": []any{
					dataURL("image/png", pixel),
					map[string]any{"dataUrl": dataURL("image/webp", []byte("webp")), "filename": "top.webp", "mimeType": "image/webp"},
				},
			}},
			"p2": {ID: "p2", Name: "Seiko 5", SellerID: "s2"},
		},
		images: map[string][]products.Image{
			"p1": {
				{ID: "img-1", URL: "/api/images/product-1/general/front.jpg", Filename: "front.jpg"},
				{ID: "img-2", URL: "/api/images/product-1/general/missing.jpg", Filename: "missing.jpg"},
			},
			"p2": {{ID: "img-3", URL: "/api/images/product-2/absent.png"}},
		},
	}
	return NewService(catalog, NewLoader(dir), nil), dir
}

func TestDecodeDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pixel)
	data, mime, err := DecodeDataURL("data:image/png;base64," + payload)
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, pixel, data)
	require.Equal(t, base64.StdEncoding.DecodedLen(len(payload))-strings.Count(payload, "="), len(data))

	_, _, err = DecodeDataURL("data:image/png;base64")
	require.ErrorIs(t, err, ErrInvalidDataURL)
	_, _, err = DecodeDataURL("data:image/png;base64,@@@")
	require.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestContentTypeFor(t *testing.T) {
	require.Equal(t, "image/jpeg", ContentTypeFor("a.JPG"))
	require.Equal(t, "image/jpeg", ContentTypeFor("a.jpeg"))
	require.Equal(t, "image/png", ContentTypeFor("a.png"))
	require.Equal(t, "image/gif", ContentTypeFor("a.gif"))
	require.Equal(t, "image/webp", ContentTypeFor("a.webp"))
	require.Equal(t, "application/octet-stream", ContentTypeFor("a.tiff"))
}

func TestLoaderUploads(t *testing.T) {
	_, dir := fixture(t)
	loader := NewLoader(dir)

	blob, err := loader.Load("/api/images/product-1/general/front.jpg", "front.jpg")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", blob.ContentType)
	require.Equal(t, []byte("jpeg-bytes"), blob.Data)

	_, err = loader.Load("/api/images/product-1/general/missing.jpg", "")
	require.ErrorIs(t, err, ErrImageNotFound)

	_, err = loader.Load("/api/images/../../etc/passwd", "")
	require.ErrorIs(t, err, ErrOutsideUploads)

	_, err = loader.Load("https://cdn.example.com/a.jpg", "")
	require.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestDownloadSingle(t *testing.T) {
	svc, _ := fixture(t)
	ctx := context.Background()

	file, err := svc.Download(ctx, "p1", "img-1")
	require.NoError(t, err)
	require.Equal(t, "front.jpg", file.Filename)

	file, err = svc.Download(ctx, "p1", "staff_0")
	require.NoError(t, err)
	require.Equal(t, "staff_photo.jpg", file.Filename)
	require.Equal(t, "image/png", file.ContentType)
	require.Equal(t, pixel, file.Data)

	file, err = svc.Download(ctx, "p1", "staff_1")
	require.NoError(t, err)
	require.Equal(t, "top.webp", file.Filename)

	_, err = svc.Download(ctx, "p1", "staff_9")
	require.ErrorIs(t, err, ErrImageNotFound)
	_, err = svc.Download(ctx, "p1", "img-2")
	require.ErrorIs(t, err, ErrImageNotFound)
}

func zipNames(t *testing.T, body []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		_, err = io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestArchiveSkipsUnreadable(t *testing.T) {
	svc, _ := fixture(t)

	body, err := svc.Archive(context.Background(), []string{"p1", "p2"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Canon AE-1/seller/front.jpg",
		"Canon AE-1/staff/staff_photo_1.jpg",
		"Canon AE-1/staff/top.webp",
	}, zipNames(t, body))

	body, err = svc.Archive(context.Background(), []string{"p1"}, []string{"staff_1"})
	require.NoError(t, err)
	require.Equal(t, []string{"Canon AE-1/staff/top.webp"}, zipNames(t, body))

	_, err = svc.Archive(context.Background(), []string{"p2"}, nil)
	require.ErrorIs(t, err, ErrNoImages)

	_, err = svc.Archive(context.Background(), []string{"nope"}, nil)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestArchiveFlattensEntryNames(t *testing.T) {
	photo := func(name string) map[string]any {
		return map[string]any{"photos": []any{
			map[string]any{"dataUrl": dataURL("image/png", pixel), "filename": name, "mimeType": "image/png"},
		}}
	}
	catalog := &memoryCatalog{
		products: map[string]products.Product{
			"p1": {ID: "p1", Name: "../etc/cron.d", Metadata: photo("../../evil.png")},
			"p2": {ID: "p2", Name: "..", Metadata: photo(`sub\shot.png`)},
		},
		images: map[string][]products.Image{},
	}
	svc := NewService(catalog, NewLoader(t.TempDir()), nil)

	body, err := svc.Archive(context.Background(), []string{"p1", "p2"}, nil)
	require.NoError(t, err)
	names := zipNames(t, body)
	require.Equal(t, []string{
		".._etc_cron.d/staff/.._.._evil.png",
		"p2/staff/sub_shot.png",
	}, names)
	for _, name := range names {
		require.Len(t, strings.Split(name, "/"), 3, name)
	}
}

func TestArchiveHidesOtherSellers(t *testing.T) {
	svc, _ := fixture(t)
	ctx := shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: "s2", Role: shared.RoleSeller})

	_, err := svc.Archive(ctx, []string{"p1"}, nil)
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = svc.Download(ctx, "p1", "img-1")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListImages(t *testing.T) {
	svc, _ := fixture(t)

	listing, err := svc.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 4, listing.TotalImages)
	require.Equal(t, 4, listing.AvailableImages)
	require.Equal(t, SourceSeller, listing.Images[0].Source)
	require.Equal(t, "staff_0", listing.Images[2].ID)
	require.Equal(t, len(pixel), listing.Images[2].Size)
	require.Equal(t, "photography", listing.Images[2].Category)

	_, err = svc.List(context.Background(), "")
	require.Error(t, err)
}

func TestHandlerDownload(t *testing.T) {
	svc, _ := fixture(t)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := &shared.Principal{UserID: "staff", Role: shared.RoleStaff}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), p)))
		})
	})
	NewHandler(nil, svc).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/download?productIds=p1,p2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), ArchiveName)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/download?productId=p1&imageId=img-2", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/download", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/images/download", strings.NewReader(`{"productId":"p1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalImages":4`)
}
