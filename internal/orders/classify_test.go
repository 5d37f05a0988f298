package orders

import (
	"testing"

	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		line LineItem
		want enums.OrderItemKind
	}{
		{"digital description", LineItem{Description: "Photo 12 - digital"}, enums.OrderItemKindDigital},
		{"print description", LineItem{Description: "Photo 12 - print (standard_print)"}, enums.OrderItemKindPrint},
		{"mixed case", LineItem{Description: "Photo 3 - DIGITAL"}, enums.OrderItemKindDigital},
		{"no description", LineItem{}, enums.OrderItemKindPrint},
		{
			"metadata wins over description",
			LineItem{Description: "Digital wall print", Metadata: map[string]string{"purchase_type": "print"}},
			enums.OrderItemKindPrint,
		},
		{
			"unknown metadata falls back",
			LineItem{Description: "Photo 1 - digital", Metadata: map[string]string{"purchase_type": "poster"}},
			enums.OrderItemKindDigital,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.line))
		})
	}
}

func TestToOrderItems(t *testing.T) {
	t.Parallel()

	items := ToOrderItems([]LineItem{
		{Description: "Photo 12 - digital", Quantity: 2, AmountTotal: 800, Metadata: map[string]string{"photo_id": " p12 "}},
		{ProductName: "Photo 9 - print", Quantity: 1, AmountTotal: 800},
		{Quantity: 1, AmountTotal: 50},
	})
	require.Len(t, items, 3)

	require.Equal(t, "Photo 12 - digital", items[0].Name)
	require.Equal(t, "p12", items[0].PhotoID)
	require.Equal(t, "8.00", items[0].Price())
	require.EqualValues(t, 2, items[0].Quantity)

	require.Equal(t, "Photo 9 - print", items[1].Name)
	require.Equal(t, enums.OrderItemKindPrint, items[1].Kind)

	require.Equal(t, "Photo", items[2].Name)
	require.Equal(t, "0.50", items[2].Price())

	require.True(t, hasKind(items, enums.OrderItemKindDigital))
	require.True(t, hasKind(items, enums.OrderItemKindPrint))
	require.False(t, hasKind(items[:1], enums.OrderItemKindPrint))
}

func TestOrderSessionFromStripe(t *testing.T) {
	t.Parallel()

	cs := &stripe.CheckoutSession{
		ID:              "cs_test",
		AmountTotal:     1200,
		CustomerEmail:   "fallback@example.com",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: " buyer@example.com "},
		PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:        map[string]string{"owner_key": "user:buyer@example.com"},
	}
	lines := []*stripe.LineItem{
		{
			Description: "Photo 12 - digital",
			Quantity:    1,
			AmountTotal: 400,
			Price: &stripe.Price{Product: &stripe.Product{
				Name:     "Photo 12 - digital",
				Metadata: map[string]string{"photo_id": "p12", "purchase_type": "digital"},
			}},
		},
		nil,
	}

	session := orderSessionFromStripe(cs, lines)
	require.Equal(t, "cs_test", session.ID)
	require.Equal(t, "buyer@example.com", session.CustomerEmail)
	require.Equal(t, "user:buyer@example.com", session.OwnerKey)
	require.False(t, session.Unpaid())
	require.Len(t, session.LineItems, 1)
	require.Equal(t, "p12", session.LineItems[0].Metadata["photo_id"])

	cs.CustomerDetails = nil
	cs.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	session = orderSessionFromStripe(cs, nil)
	require.Equal(t, "fallback@example.com", session.CustomerEmail)
	require.True(t, session.Unpaid())
	require.Empty(t, session.LineItems)
}
