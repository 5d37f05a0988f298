package enums

import (
	"fmt"
	"strings"
)

// PurchaseType distinguishes a downloadable file from a printed photo.
type PurchaseType string

const (
	PurchaseTypeDigital PurchaseType = "digital"
	PurchaseTypePrint   PurchaseType = "print"
)

var validPurchaseTypes = []PurchaseType{
	PurchaseTypeDigital,
	PurchaseTypePrint,
}

// String implements fmt.Stringer.
func (p PurchaseType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseType.
func (p PurchaseType) IsValid() bool {
	for _, candidate := range validPurchaseTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseType converts raw input into a PurchaseType, ignoring case and surrounding space.
func ParsePurchaseType(value string) (PurchaseType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPurchaseTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase type %q", value)
}
