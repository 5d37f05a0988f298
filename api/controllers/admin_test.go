package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onetwoclick/rinkshots-backend/internal/admin"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
)

type stubAdminService struct {
	admin.Service

	actorID   string
	gallery   admin.GalleryInput
	renamed   [2]string
	presign   admin.PresignInput
	photos    []admin.PhotoInput
	watermark *admin.Watermark
}

func (s *stubAdminService) CreateGallery(_ context.Context, actorID string, input admin.GalleryInput) (*admin.Gallery, error) {
	s.actorID, s.gallery = actorID, input
	return &admin.Gallery{ID: "g1", Name: input.Name, EventDate: input.EventDate, CreatedBy: actorID}, nil
}

func (s *stubAdminService) RenameGallery(_ context.Context, id, name string) (*admin.Gallery, error) {
	s.renamed = [2]string{id, name}
	if id == "missing" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gallery not found")
	}
	return &admin.Gallery{ID: id, Name: name}, nil
}

func (s *stubAdminService) PresignPhotoUpload(_ context.Context, galleryID string, input admin.PresignInput) (*admin.PresignOutput, error) {
	s.presign = input
	return &admin.PresignOutput{Bucket: "photos", StoragePath: galleryID + "/1_" + input.FileName, ContentType: input.MimeType}, nil
}

func (s *stubAdminService) RegisterPhotos(_ context.Context, galleryID string, inputs []admin.PhotoInput) ([]admin.Photo, error) {
	s.photos = inputs
	out := make([]admin.Photo, 0, len(inputs))
	for i, in := range inputs {
		out = append(out, admin.Photo{ID: string(rune('a' + i)), GalleryID: galleryID, Filename: in.Filename, StoragePath: in.StoragePath})
	}
	return out, nil
}

func (s *stubAdminService) Watermark(context.Context) (*admin.Watermark, error) {
	return s.watermark, nil
}

func serveAdminRoute(method, pattern, target, body string, handler http.HandlerFunc, id identity.Identity) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	req := withIdentity(httptest.NewRequest(method, target, strings.NewReader(body)), id)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var adminIdentity = identity.Identity{UserID: "u-admin", Email: "admin@example.com"}

func TestAdminCreateGallery(t *testing.T) {
	t.Parallel()
	svc := &stubAdminService{}

	rec := serveAdminRoute(http.MethodPost, "/admin/galleries", "/admin/galleries",
		`{"name":"  Kometa vs Sparta ","eventDate":"2026-03-14"}`, AdminCreateGallery(svc, nil), adminIdentity)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.actorID != "u-admin" || svc.gallery.Name != "Kometa vs Sparta" {
		t.Fatalf("unexpected service input %q %+v", svc.actorID, svc.gallery)
	}
	if svc.gallery.EventDate == nil || !svc.gallery.EventDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected event date %v", svc.gallery.EventDate)
	}

	for _, body := range []string{`{"name":"x","eventDate":"14.3.2026"}`, `{"eventDate":"2026-03-14"}`, `{"name":"x","createdBy":"u2"}`} {
		rec := serveAdminRoute(http.MethodPost, "/admin/galleries", "/admin/galleries", body, AdminCreateGallery(svc, nil), adminIdentity)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAdminRenameGallery(t *testing.T) {
	t.Parallel()
	svc := &stubAdminService{}

	rec := serveAdminRoute(http.MethodPatch, "/admin/galleries/{galleryId}", "/admin/galleries/g7",
		`{"name":"Playoffs"}`, AdminRenameGallery(svc, nil), adminIdentity)
	if rec.Code != http.StatusOK || svc.renamed != [2]string{"g7", "Playoffs"} {
		t.Fatalf("unexpected rename %d %v", rec.Code, svc.renamed)
	}

	rec = serveAdminRoute(http.MethodPatch, "/admin/galleries/{galleryId}", "/admin/galleries/missing",
		`{"name":"Playoffs"}`, AdminRenameGallery(svc, nil), adminIdentity)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminUploadFlow(t *testing.T) {
	t.Parallel()
	svc := &stubAdminService{}

	rec := serveAdminRoute(http.MethodPost, "/admin/galleries/{galleryId}/uploads", "/admin/galleries/g1/uploads",
		`{"fileName":"goal.jpg","mimeType":"image/jpeg","sizeBytes":2048}`, AdminPresignPhotoUpload(svc, nil), adminIdentity)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.presign != (admin.PresignInput{FileName: "goal.jpg", MimeType: "image/jpeg", SizeBytes: 2048}) {
		t.Fatalf("unexpected presign input %+v", svc.presign)
	}
	var out admin.PresignOutput
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &out); err != nil || out.StoragePath != "g1/1_goal.jpg" {
		t.Fatalf("unexpected presign output %+v %v", out, err)
	}

	rec = serveAdminRoute(http.MethodPost, "/admin/galleries/{galleryId}/uploads", "/admin/galleries/g1/uploads",
		`{"fileName":"goal.jpg","mimeType":"image/jpeg","sizeBytes":0}`, AdminPresignPhotoUpload(svc, nil), adminIdentity)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero size, got %d", rec.Code)
	}

	rec = serveAdminRoute(http.MethodPost, "/admin/galleries/{galleryId}/photos", "/admin/galleries/g1/photos",
		`{"photos":[{"filename":"goal.jpg","storagePath":"g1/1_goal.jpg","displayName":"Goal"}]}`, AdminRegisterPhotos(svc, nil), adminIdentity)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.photos) != 1 || svc.photos[0].StoragePath != "g1/1_goal.jpg" || svc.photos[0].DisplayName != "Goal" {
		t.Fatalf("unexpected photo inputs %+v", svc.photos)
	}

	rec = serveAdminRoute(http.MethodPost, "/admin/galleries/{galleryId}/photos", "/admin/galleries/g1/photos",
		`{"photos":[]}`, AdminRegisterPhotos(svc, nil), adminIdentity)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
}

func TestGetWatermark(t *testing.T) {
	t.Parallel()
	svc := &stubAdminService{}

	rec := serveAdminRoute(http.MethodGet, "/watermark", "/watermark", "", GetWatermark(svc, nil), identity.Identity{GuestID: "g"})
	if rec.Code != http.StatusOK || string(decodeEnvelope(t, rec).Data) != "null" {
		t.Fatalf("expected null watermark, got %d %s", rec.Code, rec.Body.String())
	}

	svc.watermark = &admin.Watermark{Path: "watermark_1.png", URL: "https://cdn.example.com/watermarks/watermark_1.png"}
	rec = serveAdminRoute(http.MethodGet, "/watermark", "/watermark", "", GetWatermark(svc, nil), identity.Identity{GuestID: "g"})
	var wm admin.Watermark
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &wm); err != nil || wm != *svc.watermark {
		t.Fatalf("unexpected watermark %+v %v", wm, err)
	}

	if rec := serveAdminRoute(http.MethodGet, "/watermark", "/watermark", "", GetWatermark(nil, nil), adminIdentity); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without service, got %d", rec.Code)
	}
}
