package helpers

import (
	"fmt"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/internal/cart"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
)

// ValidateItems rejects an empty cart and any row Stripe would refuse or
// that would be charged wrongly.
func ValidateItems(items []cart.Item) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, item := range items {
		if err := validateItem(item); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, err.Error()).
				WithDetails(map[string]any{"index": i, "cartItemId": item.ID})
		}
	}
	return nil
}

// ValidatePrices rejects rows whose price differs from the price list, so a
// client cannot name its own price.
func ValidatePrices(items []cart.Item, prices cart.PriceList) error {
	for i, item := range items {
		want, err := prices.PriceFor(item.PurchaseType)
		if err != nil {
			return err
		}
		if !item.Price.Equal(want) {
			return pkgerrors.New(pkgerrors.CodeValidation, "price does not match catalog").
				WithDetails(map[string]any{
					"index":    i,
					"expected": want.StringFixed(2),
					"actual":   item.Price.StringFixed(2),
				})
		}
	}
	return nil
}

func validateItem(item cart.Item) error {
	if strings.TrimSpace(item.PhotoID) == "" {
		return fmt.Errorf("photoId is required")
	}
	if !item.PurchaseType.IsValid() {
		return fmt.Errorf("invalid purchase type %q", item.PurchaseType)
	}
	if !item.Price.IsPositive() {
		return fmt.Errorf("price must be positive")
	}
	if item.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}
	return item.Options.Validate()
}
