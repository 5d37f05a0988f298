package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinorUnitConversions(t *testing.T) {
	if got := ToMinorUnits(decimal.RequireFromString("4")); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
	if got := ToMinorUnits(decimal.RequireFromString("8.005")); got != 801 {
		t.Fatalf("expected half-up rounding to 801, got %d", got)
	}
	if got := FormatAmount(FromMinorUnits(2000)); got != "20.00" {
		t.Fatalf("expected 20.00, got %s", got)
	}
	if got := FormatAmount(FromMinorUnits(1)); got != "0.01" {
		t.Fatalf("expected 0.01, got %s", got)
	}
}
