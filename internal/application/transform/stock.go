package transform

import (
	"github.com/shopspring/decimal"

	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// SumStock totals the net stock across all warehouse entries. A variation
// without stock records counts as zero, not as missing.
func SumStock(entries []sourceapi.StockEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.NetStock)
	}
	return total
}
