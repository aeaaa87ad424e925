package sourceapi

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/syncbridge/backend/internal/domain/catalog"
)

// Resource paths on the source REST API.
const (
	ResourceVariations    = "items/variations"
	ResourceCategories    = "categories"
	ResourceAttributes    = "items/attributes"
	ResourceProperties    = "properties"
	ResourceSalesPrices   = "items/sales_prices"
	ResourceManufacturers = "items/manufacturers"
	ResourceUnits         = "items/units"
)

// Relations expanded on variation fetches via the "with" parameter.
var VariationRelations = []string{
	"item", "salesPrices", "stock", "variationCategories",
	"variationAttributeValues", "variationProperties", "images", "unit",
}

// authResponse is the token endpoint's reply.
type authResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Page is the source API's pagination envelope. Entries stay raw until the
// caller decodes them into a concrete resource type.
type Page struct {
	Page           int               `json:"page"`
	TotalsCount    int64             `json:"totalsCount"`
	IsLastPage     bool              `json:"isLastPage"`
	LastPageNumber int               `json:"lastPageNumber"`
	Entries        []json.RawMessage `json:"entries"`
}

// DecodeEntries unmarshals raw page entries into a concrete resource type.
func DecodeEntries[T any](entries []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(entries))
	for i, raw := range entries {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("sourceapi: failed to decode entry %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Variation resource
// ---------------------------------------------------------------------------

// Variation is the sellable unit-of-a-product record: roughly, one SKU.
type Variation struct {
	ID       int64  `json:"id"`
	ItemID   int64  `json:"itemId"`
	Number   string `json:"number"`
	IsMain   bool   `json:"isMain"`
	IsActive bool   `json:"isActive"`
	UnitID   int64  `json:"unitId"`

	Item            *ItemHead            `json:"item"`
	Texts           []VariationText      `json:"texts"`
	SalesPrices     []VariationPrice     `json:"salesPrices"`
	Stock           []StockEntry         `json:"stock"`
	Categories      []CategoryLink       `json:"variationCategories"`
	AttributeValues []AttributeValueLink `json:"variationAttributeValues"`
	Properties      []PropertyLink       `json:"variationProperties"`
	Images          []ImageLink          `json:"images"`

	UpdatedAt string `json:"updatedAt"`
}

// ItemHead is the parent product record a variation belongs to, carrying the
// fallback texts and the manufacturer reference.
type ItemHead struct {
	ID             int64           `json:"id"`
	ManufacturerID int64           `json:"manufacturerId"`
	Texts          []VariationText `json:"texts"`
}

// VariationText is one per-language text record.
type VariationText struct {
	Lang        string `json:"lang"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VariationPrice is one price entry on a variation. Price is gross; NetPrice
// may be absent and is then derived from the tax rate.
type VariationPrice struct {
	SalesPriceID int64            `json:"salesPriceId"`
	Price        decimal.Decimal  `json:"price"`
	NetPrice     *decimal.Decimal `json:"netPrice"`
}

// StockEntry is one warehouse stock record.
type StockEntry struct {
	WarehouseID int64           `json:"warehouseId"`
	NetStock    decimal.Decimal `json:"netStock"`
}

// CategoryLink references a source category from a variation.
type CategoryLink struct {
	CategoryID int64 `json:"categoryId"`
}

// AttributeValueLink references one attribute value on a variation.
type AttributeValueLink struct {
	AttributeID int64 `json:"attributeId"`
	ValueID     int64 `json:"valueId"`
}

// PropertyLink references one property on a variation. SelectionID is set for
// selection-cast properties; Value holds free-text casts.
type PropertyLink struct {
	PropertyID  int64  `json:"propertyId"`
	SelectionID int64  `json:"selectionId"`
	Value       string `json:"value"`
}

// ImageLink is one media reference on a variation.
type ImageLink struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// ---------------------------------------------------------------------------
// Configuration resources
// ---------------------------------------------------------------------------

// Category is one source category with its per-language details.
type Category struct {
	ID       int64            `json:"id"`
	ParentID int64            `json:"parentCategoryId"`
	Level    int              `json:"level"`
	Details  []CategoryDetail `json:"details"`
}

// CategoryDetail is one per-language category record.
type CategoryDetail struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
}

// Translations converts details into the shared translation shape.
func (c Category) Translations() []catalog.Translation {
	out := make([]catalog.Translation, 0, len(c.Details))
	for _, d := range c.Details {
		out = append(out, catalog.Translation{Lang: d.Lang, Name: d.Name})
	}
	return out
}

// Attribute is one source attribute group with its values.
type Attribute struct {
	ID          int64                 `json:"id"`
	BackendName string                `json:"backendName"`
	Names       []catalog.Translation `json:"attributeNames"`
	Values      []AttributeValue      `json:"values"`
}

// AttributeValue is one value of an attribute group.
type AttributeValue struct {
	ID       int64                 `json:"id"`
	Position int                   `json:"position"`
	Names    []catalog.Translation `json:"valueNames"`
}

// Property is one source property group with its selections.
type Property struct {
	ID         int64                 `json:"id"`
	Cast       string                `json:"cast"`
	Names      []catalog.Translation `json:"names"`
	Selections []PropertySelection   `json:"selections"`
}

// PropertySelection is one selectable value of a property group.
type PropertySelection struct {
	ID       int64                 `json:"id"`
	Position int                   `json:"position"`
	Names    []catalog.Translation `json:"names"`
}

// SalesPrice is one source sales price definition.
type SalesPrice struct {
	ID              int64                 `json:"id"`
	Type            string                `json:"type"`
	Currency        string                `json:"currency"`
	MinimumQuantity decimal.Decimal       `json:"minimumOrderQuantity"`
	Names           []catalog.Translation `json:"names"`
}

// Manufacturer is one source manufacturer.
type Manufacturer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo"`
}

// Unit is one source measurement unit.
type Unit struct {
	ID                int64                 `json:"id"`
	UnitOfMeasurement string                `json:"unitOfMeasurement"`
	Names             []catalog.Translation `json:"names"`
}
