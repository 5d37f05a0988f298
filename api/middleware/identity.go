package middleware

import (
	"net/http"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// GuestIDHeader carries the anonymous browsing id. It is echoed on every
// response so a client without one can adopt the minted value.
const GuestIDHeader = "X-Guest-Id"

type tokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

// Identity resolves the caller: a bearer token identifies a signed-in user,
// otherwise X-Guest-Id (minted when absent or malformed) identifies a guest.
// A presented token that fails verification is rejected.
func Identity(verifier tokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			guestID := strings.TrimSpace(r.Header.Get(GuestIDHeader))
			if !identity.ValidGuestID(guestID) {
				guestID = identity.NewGuestID()
			}
			w.Header().Set(GuestIDHeader, guestID)

			id := identity.Identity{GuestID: guestID}
			if token := bearerToken(r.Header.Get("Authorization")); token != "" {
				if verifier == nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in is not configured"))
					return
				}
				user, err := verifier.Verify(token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				user.GuestID = guestID
				id = user
			}

			ctx = identity.WithIdentity(ctx, id)
			if logg != nil {
				ctx = logg.WithOwnerKey(ctx, id.OwnerKey())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
