package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/api/validators"
	"github.com/onetwoclick/rinkshots-backend/internal/admin"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

const maxAdminFieldLen = 256

type galleryRequest struct {
	Name      string `json:"name" validate:"required"`
	EventDate string `json:"eventDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type presignRequest struct {
	FileName  string `json:"fileName" validate:"required"`
	MimeType  string `json:"mimeType" validate:"required"`
	SizeBytes int64  `json:"sizeBytes" validate:"required,gt=0"`
}

func (p presignRequest) toInput() admin.PresignInput {
	return admin.PresignInput{
		FileName:  validators.SanitizeString(p.FileName, maxAdminFieldLen),
		MimeType:  validators.SanitizeString(p.MimeType, maxAdminFieldLen),
		SizeBytes: p.SizeBytes,
	}
}

type registerPhotosRequest struct {
	Photos []registerPhotoPayload `json:"photos" validate:"required,min=1,dive"`
}

type registerPhotoPayload struct {
	Filename    string `json:"filename" validate:"required"`
	StoragePath string `json:"storagePath" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

type watermarkRequest struct {
	Path string `json:"path" validate:"required"`
}

func AdminCreateGallery(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminAvailable(w, r, svc, logg) {
			return
		}
		var payload galleryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := admin.GalleryInput{Name: validators.SanitizeString(payload.Name, maxAdminFieldLen)}
		if payload.EventDate != "" {
			date, err := time.Parse(time.DateOnly, payload.EventDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid eventDate"))
				return
			}
			input.EventDate = &date
		}

		id, _ := identity.FromContext(r.Context())
		gallery, err := svc.CreateGallery(r.Context(), id.UserID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, gallery)
	}
}

func AdminRenameGallery(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		galleryID, ok := adminGalleryID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload galleryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gallery, err := svc.RenameGallery(r.Context(), galleryID, validators.SanitizeString(payload.Name, maxAdminFieldLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, gallery)
	}
}

// AdminDeleteGallery removes the gallery and its photo rows.
func AdminDeleteGallery(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		galleryID, ok := adminGalleryID(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.DeleteGallery(r.Context(), galleryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AdminPresignPhotoUpload returns a signed PUT URL for one photo file.
func AdminPresignPhotoUpload(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		galleryID, ok := adminGalleryID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload presignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.PresignPhotoUpload(r.Context(), galleryID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminRegisterPhotos records uploaded objects as sellable photos.
func AdminRegisterPhotos(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		galleryID, ok := adminGalleryID(w, r, svc, logg)
		if !ok {
			return
		}
		var payload registerPhotosRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]admin.PhotoInput, 0, len(payload.Photos))
		for _, p := range payload.Photos {
			inputs = append(inputs, admin.PhotoInput{
				Filename:    validators.SanitizeString(p.Filename, maxAdminFieldLen),
				StoragePath: strings.TrimSpace(p.StoragePath),
				DisplayName: validators.SanitizeString(p.DisplayName, maxAdminFieldLen),
			})
		}
		photos, err := svc.RegisterPhotos(r.Context(), galleryID, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, photos)
	}
}

// GetWatermark is public: gallery pages overlay it on previews. Data is null
// when none is configured.
func GetWatermark(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminAvailable(w, r, svc, logg) {
			return
		}
		wm, err := svc.Watermark(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wm)
	}
}

func AdminPresignWatermarkUpload(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminAvailable(w, r, svc, logg) {
			return
		}
		var payload presignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.PresignWatermarkUpload(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminSetWatermark(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminAvailable(w, r, svc, logg) {
			return
		}
		var payload watermarkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wm, err := svc.SetWatermark(r.Context(), strings.TrimSpace(payload.Path))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wm)
	}
}

func AdminRemoveWatermark(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminAvailable(w, r, svc, logg) {
			return
		}
		if err := svc.RemoveWatermark(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

func adminAvailable(w http.ResponseWriter, r *http.Request, svc admin.Service, logg *logger.Logger) bool {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
		return false
	}
	return true
}

func adminGalleryID(w http.ResponseWriter, r *http.Request, svc admin.Service, logg *logger.Logger) (string, bool) {
	if !adminAvailable(w, r, svc, logg) {
		return "", false
	}
	galleryID := strings.TrimSpace(chi.URLParam(r, "galleryId"))
	if galleryID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "galleryId is required"))
		return "", false
	}
	return galleryID, true
}
