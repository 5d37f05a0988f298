package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

const (
	userKeyPrefix  = "user:"
	guestKeyPrefix = "guest:"
)

// Identity is the browsing identity a cart is scoped to: a signed-in user or
// an anonymous guest.
type Identity struct {
	UserID  string
	Email   string
	GuestID string
}

// Authenticated reports whether the identity came from a verified access token.
func (i Identity) Authenticated() bool {
	return strings.TrimSpace(i.Email) != ""
}

// OwnerKey namespaces persisted carts: user:<email> for signed-in users,
// guest:<id> otherwise. Empty when neither is known.
func (i Identity) OwnerKey() string {
	if i.Authenticated() {
		return UserOwnerKey(i.Email)
	}
	if id := strings.TrimSpace(i.GuestID); id != "" {
		return GuestOwnerKey(id)
	}
	return ""
}

func UserOwnerKey(email string) string {
	return userKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func GuestOwnerKey(guestID string) string {
	return guestKeyPrefix + strings.TrimSpace(guestID)
}

// IsGuestOwnerKey reports whether key belongs to an anonymous guest.
func IsGuestOwnerKey(key string) bool {
	return strings.HasPrefix(key, guestKeyPrefix)
}

// NewGuestID mints a random guest identifier.
func NewGuestID() string {
	return uuid.NewString()
}

// ValidGuestID accepts only identifiers minted by NewGuestID.
func ValidGuestID(raw string) bool {
	_, err := uuid.Parse(strings.TrimSpace(raw))
	return err == nil
}

type ctxKey struct{}

// WithIdentity stores the resolved identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity resolved for the request, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
