package catalog

import (
	"errors"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
)

// ErrNoPhotoURL means neither an absolute URL nor a storage path is recorded.
var ErrNoPhotoURL = errors.New("photo has no resolvable url")

// ObjectURLResolver turns a bucket object path into a download URL.
type ObjectURLResolver interface {
	ObjectURL(object string) (string, error)
}

// ResolvePhotoURL prefers an absolute image URL, then treats image_url as an
// object path, then falls back to storage_path.
func ResolvePhotoURL(resolver ObjectURLResolver, photo models.Photo) (string, error) {
	imageURL := trimmed(photo.ImageURL)
	if isAbsoluteURL(imageURL) {
		return imageURL, nil
	}

	for _, path := range []string{imageURL, trimmed(photo.StoragePath)} {
		if path == "" {
			continue
		}
		if isAbsoluteURL(path) {
			return path, nil
		}
		if resolver == nil {
			return "", ErrNoPhotoURL
		}
		return resolver.ObjectURL(path)
	}
	return "", ErrNoPhotoURL
}

func isAbsoluteURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
