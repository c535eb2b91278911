package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// UploadsPrefix is the URL prefix of files stored under the uploads root.
const UploadsPrefix = "/api/images/"

// Blob is loaded image content.
type Blob struct {
	Data        []byte
	ContentType string
}

// Loader reads image bytes from data URLs and the uploads directory.
type Loader struct {
	dir string
}

// NewLoader constructs a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns the bytes behind an image URL. filename decides the content
// type of uploaded files.
func (l *Loader) Load(url, filename string) (Blob, error) {
	switch {
	case strings.HasPrefix(url, "data:"):
		data, mime, err := DecodeDataURL(url)
		if err != nil {
			return Blob{}, err
		}
		return Blob{Data: data, ContentType: mime}, nil
	case strings.HasPrefix(url, UploadsPrefix):
		data, err := l.readUpload(strings.TrimPrefix(url, UploadsPrefix))
		if err != nil {
			return Blob{}, err
		}
		name := filename
		if name == "" {
			name = url
		}
		return Blob{Data: data, ContentType: ContentTypeFor(name)}, nil
	case url == "":
		return Blob{}, ErrImageNotFound
	default:
		return Blob{}, ErrUnsupportedURL
	}
}

func (l *Loader) readUpload(rel string) ([]byte, error) {
	clean := path.Clean(rel)
	if clean == "." || !fs.ValidPath(clean) {
		return nil, ErrOutsideUploads
	}
	root, err := os.OpenRoot(l.dir)
	if err != nil {
		return nil, fmt.Errorf("open uploads dir: %w", err)
	}
	defer root.Close()

	f, err := root.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrOutsideUploads, rel, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// DecodeDataURL decodes a base64 data URL and returns its bytes and mime type.
func DecodeDataURL(url string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(url, "data:"), ",")
	if !ok || payload == "" {
		return nil, "", ErrInvalidDataURL
	}
	mime, _, _ := strings.Cut(header, ";")
	if mime == "" {
		mime = defaultMimeType
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return data, mime, nil
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ContentTypeFor maps a file name extension to a content type.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
