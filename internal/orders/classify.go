package orders

import (
	"strings"

	"github.com/onetwoclick/rinkshots-backend/internal/checkout/helpers"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	"github.com/onetwoclick/rinkshots-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// OrderItem is a classified line item.
type OrderItem struct {
	Name     string
	Quantity int64
	Amount   decimal.Decimal
	Kind     enums.OrderItemKind
	PhotoID  string
}

// Price renders the paid amount with two decimals.
func (i OrderItem) Price() string {
	return types.FormatAmount(i.Amount)
}

// Classify decides Digital or Print. An explicit purchase_type tag in the
// product metadata wins; otherwise a description containing "digital"
// (any case) is Digital and everything else is Print.
func Classify(line LineItem) enums.OrderItemKind {
	if tagged, err := enums.ParsePurchaseType(metadataValue(line.Metadata, helpers.MetadataPurchaseType)); err == nil {
		return enums.KindForPurchaseType(tagged)
	}
	if strings.Contains(strings.ToLower(line.Description), "digital") {
		return enums.OrderItemKindDigital
	}
	return enums.OrderItemKindPrint
}

// ToOrderItems classifies every line item of the session.
func ToOrderItems(lines []LineItem) []OrderItem {
	out := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderItem{
			Name:     lineName(line),
			Quantity: line.Quantity,
			Amount:   types.FromMinorUnits(line.AmountTotal),
			Kind:     Classify(line),
			PhotoID:  metadataValue(line.Metadata, helpers.MetadataPhotoID),
		})
	}
	return out
}

func lineName(line LineItem) string {
	if name := strings.TrimSpace(line.Description); name != "" {
		return name
	}
	if name := strings.TrimSpace(line.ProductName); name != "" {
		return name
	}
	return "Photo"
}

func hasKind(items []OrderItem, kind enums.OrderItemKind) bool {
	for _, item := range items {
		if item.Kind == kind {
			return true
		}
	}
	return false
}
