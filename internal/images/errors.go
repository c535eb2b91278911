package images

import (
	"fmt"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

var (
	// ErrImageNotFound indicates the image id or its stored file is unknown.
	ErrImageNotFound = fmt.Errorf("画像が見つかりません: %w", httpx.ErrNotFound)
	// ErrProductNotFound indicates none of the requested products exist.
	ErrProductNotFound = fmt.Errorf("商品が見つかりません: %w", httpx.ErrNotFound)
	// ErrNoImages indicates nothing could be packed into an archive.
	ErrNoImages = fmt.Errorf("ダウンロード可能な画像データがありません: %w", httpx.ErrNotFound)
	// ErrInvalidDataURL indicates a malformed data URL.
	ErrInvalidDataURL = fmt.Errorf("Base64データが無効です: %w", httpx.ErrValidation)
	// ErrUnsupportedURL indicates an image URL that is neither data nor upload.
	ErrUnsupportedURL = fmt.Errorf("サポートされていない画像形式です: %w", httpx.ErrValidation)
	// ErrOutsideUploads indicates an upload path that escapes the uploads root.
	ErrOutsideUploads = fmt.Errorf("invalid upload path: %w", httpx.ErrValidation)
)
