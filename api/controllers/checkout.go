package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/onetwoclick/rinkshots-backend/api/responses"
	"github.com/onetwoclick/rinkshots-backend/api/validators"
	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/checkout"
	"github.com/onetwoclick/rinkshots-backend/internal/identity"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
)

// checkoutRequest carries the client's cart rows. Omitting items checks out
// the caller's saved cart instead.
type checkoutRequest struct {
	Items *[]checkoutItemPayload `json:"items"`
}

type checkoutItemPayload struct {
	CartItemID   string              `json:"cartItemId"`
	PhotoID      string              `json:"photoId"`
	PurchaseType string              `json:"purchaseType"`
	Price        decimal.Decimal     `json:"price"`
	Quantity     int                 `json:"quantity"`
	ImageURL     string              `json:"imageUrl"`
	DisplayName  string              `json:"displayName"`
	Options      *cartOptionsPayload `json:"options,omitempty"`
}

func (p checkoutItemPayload) toItem() cart.Item {
	purchaseType, _ := enums.ParsePurchaseType(p.PurchaseType)
	opts := p.Options.toOptions()
	item := cart.Item{
		ID:           strings.TrimSpace(p.CartItemID),
		PhotoID:      strings.TrimSpace(p.PhotoID),
		PurchaseType: purchaseType,
		Price:        p.Price,
		Quantity:     p.Quantity,
		ImageURL:     strings.TrimSpace(p.ImageURL),
		DisplayName:  strings.TrimSpace(p.DisplayName),
		Options:      opts,
	}
	if item.ID == "" && item.PhotoID != "" && purchaseType.IsValid() {
		item.ID = cart.ItemID(item.PhotoID, purchaseType, opts)
	}
	return item
}

// CreateCheckoutSession opens a hosted payment session and returns its id and URL.
func CreateCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, _ := identity.FromContext(r.Context())
		opts := checkout.SessionOptions{
			OwnerKey:       id.OwnerKey(),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
		}
		if id.Authenticated() {
			opts.CustomerEmail = id.Email
		}

		var (
			session *checkout.Session
			err     error
		)
		if payload.Items == nil {
			if opts.OwnerKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "items are required"))
				return
			}
			session, err = svc.CreateSessionFromCart(r.Context(), opts.OwnerKey, opts)
		} else {
			items := make([]cart.Item, 0, len(*payload.Items))
			for _, p := range *payload.Items {
				items = append(items, p.toItem())
			}
			session, err = svc.CreateSession(r.Context(), checkout.SessionInput{Items: items, SessionOptions: opts})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}
