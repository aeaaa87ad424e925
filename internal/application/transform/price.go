package transform

import (
	"github.com/shopspring/decimal"

	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// Price is one resolved gross/net price pair.
type Price struct {
	Gross decimal.Decimal
	Net   decimal.Decimal
}

// ResolvePrice picks the variation price whose sales price definition matches
// defaultTypeID, falling back to the first entry in array order when none
// matches. The net amount comes from the source when present and is otherwise
// derived from the gross amount and the tax rate.
func ResolvePrice(prices []sourceapi.VariationPrice, defaultTypeID int64, taxRate decimal.Decimal) (Price, bool) {
	entry, ok := pickPrice(prices, defaultTypeID)
	if !ok {
		return Price{}, false
	}
	return toPrice(entry, taxRate), true
}

// ResolvePriceExact picks only a price of the given type, with no positional
// fallback. Used for secondary prices like the recommended retail price.
func ResolvePriceExact(prices []sourceapi.VariationPrice, typeID int64, taxRate decimal.Decimal) (Price, bool) {
	if typeID == 0 {
		return Price{}, false
	}
	for _, p := range prices {
		if p.SalesPriceID == typeID {
			return toPrice(p, taxRate), true
		}
	}
	return Price{}, false
}

func pickPrice(prices []sourceapi.VariationPrice, defaultTypeID int64) (sourceapi.VariationPrice, bool) {
	if len(prices) == 0 {
		return sourceapi.VariationPrice{}, false
	}
	if defaultTypeID != 0 {
		for _, p := range prices {
			if p.SalesPriceID == defaultTypeID {
				return p, true
			}
		}
	}
	return prices[0], true
}

func toPrice(entry sourceapi.VariationPrice, taxRate decimal.Decimal) Price {
	price := Price{Gross: entry.Price}
	if entry.NetPrice != nil {
		price.Net = *entry.NetPrice
		return price
	}
	divisor := decimal.NewFromInt(1).Add(taxRate.Div(decimal.NewFromInt(100)))
	price.Net = entry.Price.Div(divisor).Round(2)
	return price
}
