package admin

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
)

const (
	// matches the gcs attachment fetch limit so every upload can be mailed
	maxPhotoBytes     = 25 << 20
	maxWatermarkBytes = 2 << 20
	maxFileNameLen    = 200
)

// extensions keyed by the image types accepted for photos and watermarks.
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// PresignInput describes a file the admin is about to upload.
type PresignInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// PresignOutput tells the client where to PUT the file. StoragePath is what
// gets registered afterwards.
type PresignOutput struct {
	Bucket       string    `json:"bucket"`
	StoragePath  string    `json:"storagePath"`
	SignedPUTURL string    `json:"signedPutUrl"`
	ContentType  string    `json:"contentType"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func validateUpload(input PresignInput, maxBytes int64) (string, error) {
	if input.SizeBytes <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sizeBytes must be positive")
	}
	if input.SizeBytes > maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"maxBytes": maxBytes})
	}
	mimeType, err := parseMimeType(input.MimeType)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mimeType")
	}
	if _, ok := imageExtensions[mimeType]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png or webp images are accepted").
			WithDetails(map[string]any{"mimeType": mimeType})
	}
	return mimeType, nil
}

func parseMimeType(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", err
	}
	return strings.ToLower(mediaType), nil
}

// photoObjectPath places uploads under the gallery id, prefixed with the
// upload time so repeated file names never overwrite each other.
func photoObjectPath(galleryID string, now time.Time, fileName string) (string, error) {
	clean := sanitizeFileName(fileName)
	if clean == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "fileName is required")
	}
	return fmt.Sprintf("%s/%d_%s", galleryID, now.UnixMilli(), clean), nil
}

func watermarkObjectPath(now time.Time, mimeType string) string {
	return fmt.Sprintf("watermark_%d.%s", now.UnixMilli(), imageExtensions[mimeType])
}

// validWatermarkPath accepts only names minted by watermarkObjectPath.
func validWatermarkPath(p string) bool {
	return strings.HasPrefix(p, "watermark_") && !strings.ContainsAny(p, `/\`) && !strings.Contains(p, "..")
}

// photoPathInGallery rejects registrations pointing outside the gallery prefix.
func photoPathInGallery(galleryID, storagePath string) bool {
	if strings.Contains(storagePath, "..") || strings.HasPrefix(storagePath, "/") {
		return false
	}
	rest, ok := strings.CutPrefix(storagePath, galleryID+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}

func sanitizeFileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsControl(r):
		case unicode.IsSpace(r):
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "-_.")
	if len(out) > maxFileNameLen {
		out = out[len(out)-maxFileNameLen:]
	}
	return out
}
