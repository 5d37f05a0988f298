package middleware

import (
	"context"
	"net/http"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// RequireAdmin admits signed-in users whose users.is_admin flag is set. It
// runs after Identity.
func RequireAdmin(checker AdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if checker == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin checker unavailable"))
				return
			}

			id, ok := identity.FromContext(ctx)
			if !ok || !id.Authenticated() || id.UserID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required"))
				return
			}

			isAdmin, err := checker.IsAdmin(ctx, id.UserID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin flag"))
				return
			}
			if !isAdmin {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required"))
				return
			}
			if logg != nil {
				ctx = logg.WithField(ctx, "admin_user_id", id.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
