package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/api/validators"
	"github.com/onetwoclick/rinkshots-backend/internal/catalog"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// ListGalleries returns every gallery, newest event first.
func ListGalleries(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		galleries, err := svc.ListGalleries(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, galleries)
	}
}

const maxPhotoPage = 500

// ListGalleryPhotos returns a gallery's photos oldest first; ?limit= caps the count.
func ListGalleryPhotos(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		galleryID := strings.TrimSpace(chi.URLParam(r, "galleryId"))
		if galleryID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "galleryId is required"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxPhotoPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		photos, err := svc.ListPhotos(r.Context(), galleryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if limit > 0 && len(photos) > limit {
			photos = photos[:limit]
		}
		responses.WriteSuccess(w, photos)
	}
}

func GetPhoto(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		photoID := strings.TrimSpace(chi.URLParam(r, "photoId"))
		if photoID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "photoId is required"))
			return
		}
		photo, err := svc.GetPhoto(r.Context(), photoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, photo)
	}
}
