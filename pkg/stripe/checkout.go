package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutSessions exposes the Checkout Session calls used by checkout and
// order finalization. Tests substitute fakes.
type CheckoutSessions interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	ListLineItems(ctx context.Context, id string) ([]*stripe.LineItem, error)
}

var errSessionIDRequired = errors.New("checkout session id is required")

type checkoutSessions struct{}

// NewCheckoutSessions returns the live Checkout Session API bound to the
// globally configured key. A nil client yields nil.
func NewCheckoutSessions(c *Client) CheckoutSessions {
	if c == nil {
		return nil
	}
	return checkoutSessions{}
}

func (checkoutSessions) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

func (checkoutSessions) Get(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errSessionIDRequired
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return session.Get(id, params)
}

// ListLineItems pages through every line item of the session with the price's
// product expanded so product metadata is available.
func (checkoutSessions) ListLineItems(ctx context.Context, id string) ([]*stripe.LineItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errSessionIDRequired
	}
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(id),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	iter := session.ListLineItems(params)
	items := []*stripe.LineItem{}
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
