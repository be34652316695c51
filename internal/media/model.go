package media

import (
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "media not found")
	ErrEmptyUpload = apperror.New(http.StatusBadRequest, "uploaded file is empty")
)

// Media is a tenant-owned uploaded file, typically an offering photo or a
// storefront image.
type Media struct {
	ID            string
	TenantID      string
	UploadedBy    string
	Filename      string
	StoragePath   string  // internal, never exposed
	ThumbnailPath *string // internal, never exposed
	ContentType   string
	Size          int64
	CreatedAt     time.Time
}

// URL returns the public download path for a media ID.
func URL(id string) string {
	return "/media/" + id + "/content"
}

// ThumbnailURL returns the public thumbnail path for a media ID.
func ThumbnailURL(id string) string {
	return "/media/" + id + "/thumbnail"
}
