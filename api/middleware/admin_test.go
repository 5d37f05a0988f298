package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onetwoclick/rinkshots-backend/internal/identity"
)

type stubAdminChecker struct {
	admins map[string]bool
	err    error
	asked  []string
}

func (s *stubAdminChecker) IsAdmin(_ context.Context, userID string) (bool, error) {
	s.asked = append(s.asked, userID)
	return s.admins[userID], s.err
}

func serveAdmin(checker AdminChecker, id *identity.Identity) (*httptest.ResponseRecorder, bool) {
	called := false
	handler := RequireAdmin(checker, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/galleries", nil)
	if id != nil {
		req = req.WithContext(identity.WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, called
}

func TestRequireAdmin(t *testing.T) {
	checker := &stubAdminChecker{admins: map[string]bool{"u-admin": true}}
	admin := identity.Identity{UserID: "u-admin", Email: "admin@example.com"}
	fan := identity.Identity{UserID: "u-fan", Email: "fan@example.com"}
	guest := identity.Identity{GuestID: identity.NewGuestID()}

	if rec, called := serveAdmin(checker, &admin); !called || rec.Code != http.StatusOK {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}
	if rec, called := serveAdmin(checker, &fan); called || rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	if rec, called := serveAdmin(checker, &guest); called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest, got %d", rec.Code)
	}
	if rec, called := serveAdmin(checker, nil); called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
	if len(checker.asked) != 2 {
		t.Fatalf("guests should not reach the checker, asked %v", checker.asked)
	}

	failing := &stubAdminChecker{err: errors.New("db down")}
	if rec, called := serveAdmin(failing, &admin); called || rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the check fails, got %d", rec.Code)
	}
	if rec, _ := serveAdmin(nil, &admin); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without checker, got %d", rec.Code)
	}
}
