package enums

import "fmt"

// OrderItemKind is the fulfilment class of a paid line item.
type OrderItemKind string

const (
	OrderItemKindDigital OrderItemKind = "digital"
	OrderItemKindPrint   OrderItemKind = "print"
)

var validOrderItemKinds = []OrderItemKind{
	OrderItemKindDigital,
	OrderItemKindPrint,
}

func (k OrderItemKind) String() string {
	return string(k)
}

// Label is the capitalized form used in notification emails.
func (k OrderItemKind) Label() string {
	switch k {
	case OrderItemKindDigital:
		return "Digital"
	case OrderItemKindPrint:
		return "Print"
	default:
		return string(k)
	}
}

func (k OrderItemKind) IsValid() bool {
	for _, candidate := range validOrderItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseOrderItemKind(value string) (OrderItemKind, error) {
	for _, candidate := range validOrderItemKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order item kind %q", value)
}

// KindForPurchaseType maps the cart purchase type onto the order item kind.
func KindForPurchaseType(p PurchaseType) OrderItemKind {
	if p == PurchaseTypeDigital {
		return OrderItemKindDigital
	}
	return OrderItemKindPrint
}
