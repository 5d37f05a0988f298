package cart

import (
	"fmt"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Options selects a variant of a purchase; distinct variants never merge.
type Options struct {
	Size string `json:"size,omitempty"`
	Type string `json:"type,omitempty"`
}

// Print variants offered by the shop. The two sets are disjoint, contain no
// "-" and never equal a purchase type, so ItemID is unambiguous.
var (
	printSizes = map[string]bool{"10x15": true, "13x18": true, "a4": true}
	printTypes = map[string]bool{"standard_print": true}
)

// Validate rejects option values outside the offered print variants.
func (o *Options) Validate() error {
	n := o.normalized()
	if n == nil {
		return nil
	}
	if n.Size != "" && !printSizes[n.Size] {
		return fmt.Errorf("unsupported print size %q", n.Size)
	}
	if n.Type != "" && !printTypes[n.Type] {
		return fmt.Errorf("unsupported print type %q", n.Type)
	}
	return nil
}

func (o *Options) normalized() *Options {
	if o == nil {
		return nil
	}
	out := Options{
		Size: strings.ToLower(strings.TrimSpace(o.Size)),
		Type: strings.ToLower(strings.TrimSpace(o.Type)),
	}
	if out.Size == "" && out.Type == "" {
		return nil
	}
	return &out
}

// Item is one cart row. Display fields are copied from the photo when added.
type Item struct {
	ID           string             `json:"cartItemId"`
	PhotoID      string             `json:"photoId"`
	PurchaseType enums.PurchaseType `json:"purchaseType"`
	Price        decimal.Decimal    `json:"price"`
	Quantity     int                `json:"quantity"`
	ImageURL     string             `json:"imageUrl,omitempty"`
	DisplayName  string             `json:"displayName,omitempty"`
	Options      *Options           `json:"options,omitempty"`
}

// LineTotal is price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) valid() bool {
	return i.ID != "" &&
		i.PhotoID != "" &&
		i.PurchaseType.IsValid() &&
		i.Price.IsPositive() &&
		i.Quantity >= 1
}

// Photo carries the fields copied onto an item at add time.
type Photo struct {
	ID          string
	DisplayName string
	ImageURL    string
}

// ItemID derives the deterministic row id: <photoId>-<purchaseType>[-<size>][-<type>].
func ItemID(photoID string, purchaseType enums.PurchaseType, opts *Options) string {
	parts := []string{strings.TrimSpace(photoID), purchaseType.String()}
	if o := opts.normalized(); o != nil {
		if o.Size != "" {
			parts = append(parts, o.Size)
		}
		if o.Type != "" {
			parts = append(parts, o.Type)
		}
	}
	return strings.Join(parts, "-")
}

// Totals are derived from the items on every read.
type Totals struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func computeTotals(items []Item) Totals {
	totals := Totals{Total: decimal.Zero}
	for _, item := range items {
		totals.Count += item.Quantity
		totals.Total = totals.Total.Add(item.LineTotal())
	}
	return totals
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item
		if item.Options != nil {
			opts := *item.Options
			out[i].Options = &opts
		}
	}
	return out
}
