package catalog

import (
	"time"

	"github.com/onetwoclick/rinkshots-backend/pkg/db/models"
)

type GalleryDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	EventDate *time.Time `json:"eventDate,omitempty"`
	CoverURL  string     `json:"coverUrl,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PhotoDTO exposes a photo with its download URL already resolved.
type PhotoDTO struct {
	ID          string    `json:"id"`
	GalleryID   string    `json:"galleryId"`
	Filename    string    `json:"filename"`
	DisplayName string    `json:"displayName"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func galleryDTO(g models.Gallery) GalleryDTO {
	return GalleryDTO{
		ID:        g.ID,
		Name:      g.Name,
		EventDate: g.EventDate,
		CoverURL:  trimmed(g.CoverURL),
		CreatedAt: g.CreatedAt,
	}
}

func photoDTO(p models.Photo, imageURL string) PhotoDTO {
	name := trimmed(p.DisplayName)
	if name == "" {
		name = p.Filename
	}
	return PhotoDTO{
		ID:          p.ID,
		GalleryID:   p.GalleryID,
		Filename:    p.Filename,
		DisplayName: name,
		ImageURL:    imageURL,
		CreatedAt:   p.CreatedAt,
	}
}
