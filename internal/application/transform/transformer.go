// Package transform turns source variations into destination product
// payloads: text and price resolution, stock totals, and tenant-configured
// field-mapping rules applied to the raw variation document.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/infrastructure/destination"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// Options carries the per-tenant settings a product transform depends on.
// Built once per sync run from tenant settings and config entries.
type Options struct {
	LanguagePreference []string
	DefaultPriceTypeID int64
	RRPPriceTypeID     int64
	TaxRate            decimal.Decimal
	TaxID              string
	CurrencyID         string
	SalesChannelID     string
	Rules              []Rule
}

// ResolvedRefs holds the destination identifiers the resolvers produced for
// one variation's linked entities.
type ResolvedRefs struct {
	ManufacturerID    string
	UnitID            string
	CategoryIDs       []string
	PropertyOptionIDs []string
	MediaIDs          []string
}

// Transformer builds destination products from source variations.
type Transformer struct {
	logger *zap.Logger
}

// NewTransformer constructs a Transformer.
func NewTransformer(logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{logger: logger}
}

// Transform builds the destination payload for one variation. The raw JSON
// document, when present, is the source tree field-mapping rules read from.
func (t *Transformer) Transform(variation sourceapi.Variation, raw json.RawMessage, refs ResolvedRefs, opts Options) (*destination.Product, error) {
	if variation.Number == "" {
		return nil, fmt.Errorf("%w: variation %d", ErrMissingSKU, variation.ID)
	}

	texts := ResolveTexts(variation, opts.LanguagePreference)

	product := &destination.Product{
		SKU:         variation.Number,
		Name:        texts.Name,
		Description: texts.Description,
		Active:      variation.IsActive,

		ManufacturerID:    refs.ManufacturerID,
		UnitID:            refs.UnitID,
		CategoryIDs:       refs.CategoryIDs,
		PropertyOptionIDs: refs.PropertyOptionIDs,
		MediaIDs:          refs.MediaIDs,

		TaxID:          opts.TaxID,
		CurrencyID:     opts.CurrencyID,
		Stock:          SumStock(variation.Stock),
		SalesChannelID: opts.SalesChannelID,
	}

	if price, ok := ResolvePrice(variation.SalesPrices, opts.DefaultPriceTypeID, opts.TaxRate); ok {
		product.GrossPrice = price.Gross
		product.NetPrice = price.Net
	}
	if rrp, ok := ResolvePriceExact(variation.SalesPrices, opts.RRPPriceTypeID, opts.TaxRate); ok {
		gross := rrp.Gross
		product.RRPGross = &gross
	}

	if len(opts.Rules) > 0 {
		custom, err := t.applyRules(variation.ID, raw, opts.Rules)
		if err != nil {
			return nil, err
		}
		if len(custom) > 0 {
			product.Custom = custom
		}
	}

	return product, nil
}

// TransformBatch converts a page of variations, continuing past individual
// failures. The returned errors slice is index-aligned with the failures it
// reports, not with the input.
func (t *Transformer) TransformBatch(variations []sourceapi.Variation, raws []json.RawMessage, refsFor func(sourceapi.Variation) ResolvedRefs, opts Options) ([]*destination.Product, []error) {
	products := make([]*destination.Product, 0, len(variations))
	var errs []error

	for i, variation := range variations {
		var raw json.RawMessage
		if i < len(raws) {
			raw = raws[i]
		}
		product, err := t.Transform(variation, raw, refsFor(variation), opts)
		if err != nil {
			t.logger.Warn("variation transform failed",
				zap.Int64("variation_id", variation.ID),
				zap.String("number", variation.Number),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("variation %d: %w", variation.ID, err))
			continue
		}
		products = append(products, product)
	}
	return products, errs
}

// applyRules evaluates the tenant's field-mapping rules against the raw
// variation document. A single bad rule fails only itself.
func (t *Transformer) applyRules(variationID int64, raw json.RawMessage, rules []Rule) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("transform: decode variation %d document: %w", variationID, err)
	}

	out := make(map[string]any)
	for _, rule := range rules {
		err := rule.Apply(doc, out)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrMissingValue) {
			return nil, err
		}
		t.logger.Warn("field rule skipped",
			zap.Int64("variation_id", variationID),
			zap.String("source_path", rule.source.String()),
			zap.Error(err))
	}
	return out, nil
}
