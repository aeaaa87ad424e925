// Package destination defines the contract for the downstream storefront
// platform and its two interchangeable implementations: a real remote client
// and a persistence-backed stand-in. Orchestrators and resolvers depend only
// on the API interface.
package destination

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("destination: entity not found")
	ErrRequestFailed  = errors.New("destination: request failed")
	ErrAuthFailed     = errors.New("destination: authentication failed")
	ErrInvalidPayload = errors.New("destination: invalid payload")
)

// OperationResult is the uniform reply of every destination write.
type OperationResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Product is the destination representation of one source variation.
type Product struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`

	ManufacturerID string   `json:"manufacturerId,omitempty"`
	UnitID         string   `json:"unitId,omitempty"`
	CategoryIDs    []string `json:"categoryIds,omitempty"`
	// PropertyOptionIDs carries both attribute values and property
	// selections; the destination models them uniformly as options.
	PropertyOptionIDs []string `json:"propertyOptionIds,omitempty"`
	MediaIDs          []string `json:"mediaIds,omitempty"`

	TaxID      string          `json:"taxId,omitempty"`
	CurrencyID string          `json:"currencyId,omitempty"`
	GrossPrice decimal.Decimal `json:"grossPrice"`
	NetPrice   decimal.Decimal `json:"netPrice"`
	// RRPGross is the recommended retail price, when the tenant has an RRP
	// price type configured and the variation carries one.
	RRPGross *decimal.Decimal `json:"rrpGross,omitempty"`

	Stock          decimal.Decimal `json:"stock"`
	SalesChannelID string          `json:"salesChannelId,omitempty"`

	// Custom holds values produced by tenant field-mapping rules, keyed by
	// destination path.
	Custom map[string]any `json:"custom,omitempty"`
}

// StockUpdate adjusts stock for one product, addressed by SKU.
type StockUpdate struct {
	SKU   string          `json:"sku"`
	Stock decimal.Decimal `json:"stock"`
}

// Manufacturer is a destination manufacturer payload.
type Manufacturer struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// Unit is a destination measurement unit payload.
type Unit struct {
	ShortCode string `json:"shortCode"`
	Name      string `json:"name"`
}

// Category is a destination category payload.
type Category struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// PropertyGroup is a destination classification group payload, used for both
// source attribute groups and source property groups.
type PropertyGroup struct {
	Name string `json:"name"`
}

// PropertyOption is one option under a property group.
type PropertyOption struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

// API is the full destination contract. Every write returns an
// OperationResult; the error return is reserved for transport-level failures.
type API interface {
	// ProductIDBySKU checks existence by natural key. Returns ("", nil) when
	// no product carries the SKU.
	ProductIDBySKU(ctx context.Context, sku string) (string, error)

	CreateProduct(ctx context.Context, product *Product) (OperationResult, error)
	UpdateProduct(ctx context.Context, id string, product *Product) (OperationResult, error)

	UpdateStock(ctx context.Context, update StockUpdate) (OperationResult, error)
	UpdateStockBatch(ctx context.Context, updates []StockUpdate) ([]OperationResult, error)

	CreateManufacturer(ctx context.Context, m Manufacturer) (OperationResult, error)
	CreateUnit(ctx context.Context, u Unit) (OperationResult, error)
	CreateCategory(ctx context.Context, c Category) (OperationResult, error)
	CreatePropertyGroup(ctx context.Context, g PropertyGroup) (OperationResult, error)
	CreatePropertyOption(ctx context.Context, o PropertyOption) (OperationResult, error)

	CreateMediaFromURL(ctx context.Context, url, folderID string) (OperationResult, error)
	GetOrCreateMediaFolder(ctx context.Context, name string) (OperationResult, error)
}
