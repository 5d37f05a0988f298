package orders

import (
	"context"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/internal/checkout"
	pkgstripe "github.com/onetwoclick/rinkshots-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// OrderSession is the paid session as needed by finalization.
type OrderSession struct {
	ID            string
	AmountTotal   int64
	CustomerEmail string
	PaymentStatus string
	OwnerKey      string
	LineItems     []LineItem
}

// LineItem mirrors one purchased entry of the session. Metadata is the
// product metadata written at checkout.
type LineItem struct {
	Description string
	ProductName string
	Quantity    int64
	AmountTotal int64
	Metadata    map[string]string
}

// Unpaid reports whether the provider explicitly says the buyer has not paid.
func (s *OrderSession) Unpaid() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusUnpaid)
}

// PaymentProvider retrieves a session with its line items.
type PaymentProvider interface {
	Session(ctx context.Context, sessionID string) (*OrderSession, error)
}

type stripeProvider struct {
	sessions pkgstripe.CheckoutSessions
}

// NewStripeProvider reads sessions through the Checkout Session API.
func NewStripeProvider(sessions pkgstripe.CheckoutSessions) PaymentProvider {
	return &stripeProvider{sessions: sessions}
}

func (p *stripeProvider) Session(ctx context.Context, sessionID string) (*OrderSession, error) {
	cs, err := p.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := p.sessions.ListLineItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return orderSessionFromStripe(cs, items), nil
}

func orderSessionFromStripe(cs *stripe.CheckoutSession, items []*stripe.LineItem) *OrderSession {
	out := &OrderSession{
		ID:            cs.ID,
		AmountTotal:   cs.AmountTotal,
		PaymentStatus: string(cs.PaymentStatus),
		OwnerKey:      strings.TrimSpace(cs.Metadata[checkout.MetadataOwnerKey]),
	}
	if cs.CustomerDetails != nil && strings.TrimSpace(cs.CustomerDetails.Email) != "" {
		out.CustomerEmail = strings.TrimSpace(cs.CustomerDetails.Email)
	} else {
		out.CustomerEmail = strings.TrimSpace(cs.CustomerEmail)
	}

	out.LineItems = make([]LineItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		line := LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			AmountTotal: item.AmountTotal,
		}
		if item.Price != nil && item.Price.Product != nil {
			line.ProductName = item.Price.Product.Name
			line.Metadata = item.Price.Product.Metadata
		}
		out.LineItems = append(out.LineItems, line)
	}
	return out
}

func metadataValue(meta map[string]string, key string) string {
	if meta == nil {
		return ""
	}
	return strings.TrimSpace(meta[key])
}
