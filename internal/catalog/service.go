package catalog

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// Service is the photo/gallery store used by the HTTP layer, the cart and
// order finalization.
type Service interface {
	ListGalleries(ctx context.Context) ([]GalleryDTO, error)
	ListPhotos(ctx context.Context, galleryID string) ([]PhotoDTO, error)
	// GetPhoto returns the photo with ImageURL left empty when no URL can
	// be resolved.
	GetPhoto(ctx context.Context, id string) (*PhotoDTO, error)
}

type service struct {
	repo     Repository
	resolver ObjectURLResolver
	logg     *logger.Logger
}

func NewService(repo Repository, resolver ObjectURLResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository required")
	}
	return &service{repo: repo, resolver: resolver, logg: logg}, nil
}

func (s *service) ListGalleries(ctx context.Context) ([]GalleryDTO, error) {
	galleries, err := s.repo.ListGalleries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list galleries")
	}
	out := make([]GalleryDTO, 0, len(galleries))
	for _, g := range galleries {
		out = append(out, galleryDTO(g))
	}
	return out, nil
}

func (s *service) ListPhotos(ctx context.Context, galleryID string) ([]PhotoDTO, error) {
	galleryID = strings.TrimSpace(galleryID)
	if galleryID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gallery id is required")
	}
	if _, err := s.repo.GetGallery(ctx, galleryID); err != nil {
		return nil, s.mapErr(err, "gallery not found", "load gallery")
	}
	photos, err := s.repo.ListPhotos(ctx, galleryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}
	out := make([]PhotoDTO, 0, len(photos))
	for _, p := range photos {
		url, err := ResolvePhotoURL(s.resolver, p)
		if err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "photo_id", p.ID), "catalog.photo_url_unresolved: "+err.Error())
		}
		out = append(out, photoDTO(p, url))
	}
	return out, nil
}

func (s *service) GetPhoto(ctx context.Context, id string) (*PhotoDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo id is required")
	}
	photo, err := s.repo.GetPhoto(ctx, id)
	if err != nil {
		return nil, s.mapErr(err, "photo not found", "load photo")
	}
	url, err := ResolvePhotoURL(s.resolver, *photo)
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "photo_id", photo.ID), "catalog.photo_url_unresolved: "+err.Error())
	}
	dto := photoDTO(*photo, url)
	return &dto, nil
}

func (s *service) mapErr(err error, notFoundMsg, dependencyMsg string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependencyMsg)
}
