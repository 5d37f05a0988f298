package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/api/validators"
	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

const maxOptionLen = 64

type cartResponse struct {
	Cart   *cart.Snapshot `json:"cart"`
	Notice *cart.Notice   `json:"notice,omitempty"`
}

func newCartResponse(snapshot *cart.Snapshot, notice cart.Notice) cartResponse {
	resp := cartResponse{Cart: snapshot}
	if !notice.Empty() {
		resp.Notice = &notice
	}
	return resp
}

type addCartItemRequest struct {
	PhotoID      string              `json:"photoId" validate:"required"`
	PurchaseType string              `json:"purchaseType" validate:"required"`
	Options      *cartOptionsPayload `json:"options,omitempty"`
}

type cartOptionsPayload struct {
	Size string `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}

func (p *cartOptionsPayload) toOptions() *cart.Options {
	if p == nil {
		return nil
	}
	return &cart.Options{
		Size: validators.SanitizeString(p.Size, maxOptionLen),
		Type: validators.SanitizeString(p.Type, maxOptionLen),
	}
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, svc != nil, logg)
		if !ok {
			return
		}
		snapshot, err := svc.Get(r.Context(), ownerKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, cart.Notice{}))
	}
}

// AddCartItem adds a photo at the configured price; clients never send prices.
func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, svc != nil, logg)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, notice, err := svc.AddItem(r.Context(), ownerKey, cart.AddItemInput{
			PhotoID:      strings.TrimSpace(payload.PhotoID),
			PurchaseType: payload.PurchaseType,
			Options:      payload.Options.toOptions(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, notice))
	}
}

// UpdateCartItem sets the quantity of a row; zero or less removes it.
func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, svc != nil, logg)
		if !ok {
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, notice, err := svc.UpdateQuantity(r.Context(), ownerKey, chi.URLParam(r, "cartItemId"), *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, notice))
	}
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, svc != nil, logg)
		if !ok {
			return
		}
		snapshot, notice, err := svc.RemoveItem(r.Context(), ownerKey, chi.URLParam(r, "cartItemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, notice))
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, svc != nil, logg)
		if !ok {
			return
		}
		snapshot, notice, err := svc.Clear(r.Context(), ownerKey, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, notice))
	}
}

// MergeCart folds the caller's guest cart (X-Guest-Id) into the signed-in cart.
func MergeCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		id, _ := identity.FromContext(r.Context())
		if !id.Authenticated() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to merge carts"))
			return
		}
		if strings.TrimSpace(id.GuestID) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest id is required"))
			return
		}

		snapshot, notice, err := svc.MergeGuest(r.Context(), identity.GuestOwnerKey(id.GuestID), id.OwnerKey())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(snapshot, notice))
	}
}

func requireOwner(w http.ResponseWriter, r *http.Request, available bool, logg *logger.Logger) (string, bool) {
	if !available {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	id, _ := identity.FromContext(r.Context())
	ownerKey := id.OwnerKey()
	if ownerKey == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart identity missing"))
		return "", false
	}
	return ownerKey, true
}
