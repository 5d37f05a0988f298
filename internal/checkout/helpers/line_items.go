package helpers

import (
	"strings"

	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	"github.com/onetwoclick/rinkshots-backend/pkg/types"
	"github.com/stripe/stripe-go/v84"
)

// Product metadata keys read back during order finalization.
const (
	MetadataPhotoID      = "photo_id"
	MetadataPurchaseType = "purchase_type"
)

const defaultDisplayName = "Photo"

// LineItemName renders "<displayName> - <purchaseType>[ (<options.type>)]".
func LineItemName(item cart.Item) string {
	name := strings.TrimSpace(item.DisplayName)
	if name == "" {
		name = defaultDisplayName
	}
	name += " - " + item.PurchaseType.String()
	if item.Options != nil && strings.TrimSpace(item.Options.Type) != "" {
		name += " (" + strings.TrimSpace(item.Options.Type) + ")"
	}
	return name
}

// BuildLineItems converts validated cart rows into Stripe price_data line items.
func BuildLineItems(items []cart.Item, currency string) []*stripe.CheckoutSessionLineItemParams {
	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		line := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(currency)),
				UnitAmount: stripe.Int64(types.ToMinorUnits(item.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(LineItemName(item)),
					Metadata: map[string]string{
						MetadataPhotoID:      item.PhotoID,
						MetadataPurchaseType: item.PurchaseType.String(),
					},
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		}
		if imageURL := strings.TrimSpace(item.ImageURL); imageURL != "" {
			line.PriceData.ProductData.Images = []*string{stripe.String(imageURL)}
		}
		out = append(out, line)
	}
	return out
}
