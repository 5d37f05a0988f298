package cart

import (
	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	pkgerrors "github.com/onetwoclick/rinkshots-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceList fixes the unit price per purchase type.
type PriceList struct {
	Digital decimal.Decimal
	Print   decimal.Decimal
}

func NewPriceList(cfg config.PricingConfig) PriceList {
	return PriceList{Digital: cfg.DigitalPrice(), Print: cfg.PrintPrice()}
}

func (p PriceList) PriceFor(purchaseType enums.PurchaseType) (decimal.Decimal, error) {
	switch purchaseType {
	case enums.PurchaseTypeDigital:
		return p.Digital, nil
	case enums.PurchaseTypePrint:
		return p.Print, nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase type")
	}
}
