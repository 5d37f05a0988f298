package checkout

import (
	"context"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/internal/checkout/helpers"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/onetwoclick/rinkshots-backend/pkg/logger"
	pkgstripe "github.com/onetwoclick/rinkshots-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// MetadataOwnerKey is stored on the session so finalization can clear the
// server-side cart it was created from.
const MetadataOwnerKey = "owner_key"

var paymentMethodTypes = []string{"card", "ideal", "bancontact"}

type cartReader interface {
	Get(ctx context.Context, ownerKey string) (*cart.Snapshot, error)
}

// Service creates hosted payment sessions.
type Service interface {
	CreateSession(ctx context.Context, input SessionInput) (*Session, error)
	CreateSessionFromCart(ctx context.Context, ownerKey string, opts SessionOptions) (*Session, error)
}

// SessionOptions are optional attributes of a new session.
type SessionOptions struct {
	CustomerEmail  string
	OwnerKey       string
	IdempotencyKey string
}

type SessionInput struct {
	Items []cart.Item
	SessionOptions
}

// Session is what the client needs to redirect to the hosted payment page.
type Session struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type ServiceParams struct {
	Sessions   pkgstripe.CheckoutSessions
	Carts      cartReader
	Prices     *cart.PriceList
	Currency   string
	SuccessURL string
	CancelURL  string
	Logger     *logger.Logger
}

type service struct {
	sessions   pkgstripe.CheckoutSessions
	carts      cartReader
	prices     *cart.PriceList
	currency   string
	successURL string
	cancelURL  string
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout sessions client required")
	}
	if strings.TrimSpace(params.SuccessURL) == "" || strings.TrimSpace(params.CancelURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "success and cancel urls required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyEUR)
	}
	return &service{
		sessions:   params.Sessions,
		carts:      params.Carts,
		prices:     params.Prices,
		currency:   currency,
		successURL: params.SuccessURL,
		cancelURL:  params.CancelURL,
		logg:       params.Logger,
	}, nil
}

// CreateSession validates the items and opens a Stripe Checkout Session for them.
// Nothing is sent to Stripe when validation fails.
func (s *service) CreateSession(ctx context.Context, input SessionInput) (*Session, error) {
	if err := helpers.ValidateItems(input.Items); err != nil {
		return nil, err
	}
	if s.prices != nil {
		if err := helpers.ValidatePrices(input.Items, *s.prices); err != nil {
			return nil, err
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice(paymentMethodTypes),
		LineItems:          helpers.BuildLineItems(input.Items, s.currency),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if owner := strings.TrimSpace(input.OwnerKey); owner != "" {
		params.AddMetadata(MetadataOwnerKey, owner)
	}
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	created, err := s.sessions.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if created == nil || created.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session missing id")
	}

	if s.logg != nil {
		logCtx := s.logg.WithSessionID(ctx, created.ID)
		logCtx = s.logg.WithField(logCtx, "line_items", len(input.Items))
		s.logg.Info(logCtx, "checkout session created")
	}
	return &Session{SessionID: created.ID, URL: created.URL}, nil
}

// CreateSessionFromCart reads the owner's saved cart instead of trusting client rows.
func (s *service) CreateSessionFromCart(ctx context.Context, ownerKey string, opts SessionOptions) (*Session, error) {
	if s.carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart reader not configured")
	}
	snapshot, err := s.carts.Get(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	opts.OwnerKey = snapshot.OwnerKey
	return s.CreateSession(ctx, SessionInput{Items: snapshot.Items, SessionOptions: opts})
}
