package destination

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---------------------------------------------------------------------------
// Persistence-backed stand-in
// ---------------------------------------------------------------------------

// Store implements API on top of a local database. It satisfies the identical
// contract as RemoteClient, which makes it usable for development, testing
// and air-gapped staging environments.
type Store struct {
	db *gorm.DB
}

// NewStore creates the stand-in backend.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the stand-in tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&storedProduct{},
		&storedEntity{},
		&storedPropertyOption{},
		&storedMediaFolder{},
		&storedMedia{},
	)
}

// storedProduct is a destination product row.
type storedProduct struct {
	ID        string `gorm:"type:uuid;primary_key"`
	SKU       string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(255)"`
	Stock     string `gorm:"type:varchar(40)"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (storedProduct) TableName() string { return "dest_products" }

// storedEntity is a destination auxiliary entity row (manufacturer, unit,
// category, property group), discriminated by Kind.
type storedEntity struct {
	ID        string `gorm:"type:uuid;primary_key"`
	Kind      string `gorm:"type:varchar(30);not null;index:idx_dest_entities_kind_name,priority:1"`
	Name      string `gorm:"type:varchar(255);not null;index:idx_dest_entities_kind_name,priority:2"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
}

func (storedEntity) TableName() string { return "dest_entities" }

// storedPropertyOption is one option under a property group.
type storedPropertyOption struct {
	ID        string `gorm:"type:uuid;primary_key"`
	GroupID   string `gorm:"type:uuid;not null;index"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
}

func (storedPropertyOption) TableName() string { return "dest_property_options" }

// storedMediaFolder is a destination media folder.
type storedMediaFolder struct {
	ID        string `gorm:"type:uuid;primary_key"`
	Name      string `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time
}

func (storedMediaFolder) TableName() string { return "dest_media_folders" }

// storedMedia is one ingested media record.
type storedMedia struct {
	ID        string `gorm:"type:uuid;primary_key"`
	URL       string `gorm:"type:text;not null"`
	FolderID  string `gorm:"type:uuid;index"`
	CreatedAt time.Time
}

func (storedMedia) TableName() string { return "dest_media" }

const (
	entityKindManufacturer  = "manufacturer"
	entityKindUnit          = "unit"
	entityKindCategory      = "category"
	entityKindPropertyGroup = "property_group"
)

// ProductIDBySKU checks product existence by natural key.
func (s *Store) ProductIDBySKU(ctx context.Context, sku string) (string, error) {
	var p storedProduct
	err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// CreateProduct inserts a product row.
func (s *Store) CreateProduct(ctx context.Context, product *Product) (OperationResult, error) {
	if product.SKU == "" {
		return OperationResult{Success: false, Error: "missing SKU"}, nil
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return OperationResult{}, err
	}
	row := storedProduct{
		ID:      uuid.NewString(),
		SKU:     product.SKU,
		Name:    product.Name,
		Stock:   product.Stock.String(),
		Payload: string(payload),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return OperationResult{Success: false, Error: err.Error()}, nil
	}
	return OperationResult{ID: row.ID, Success: true}, nil
}

// UpdateProduct replaces a product row's payload.
func (s *Store) UpdateProduct(ctx context.Context, id string, product *Product) (OperationResult, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return OperationResult{}, err
	}
	res := s.db.WithContext(ctx).Model(&storedProduct{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":    product.Name,
			"stock":   product.Stock.String(),
			"payload": string(payload),
		})
	if res.Error != nil {
		return OperationResult{Success: false, Error: res.Error.Error()}, nil
	}
	if res.RowsAffected == 0 {
		return OperationResult{Success: false, Error: "product not found"}, nil
	}
	return OperationResult{ID: id, Success: true}, nil
}

// UpdateStock updates one product's stock by SKU.
func (s *Store) UpdateStock(ctx context.Context, update StockUpdate) (OperationResult, error) {
	res := s.db.WithContext(ctx).Model(&storedProduct{}).
		Where("sku = ?", update.SKU).
		Update("stock", update.Stock.String())
	if res.Error != nil {
		return OperationResult{Success: false, Error: res.Error.Error()}, nil
	}
	if res.RowsAffected == 0 {
		return OperationResult{Success: false, Error: "unknown SKU " + update.SKU}, nil
	}
	return OperationResult{Success: true}, nil
}

// UpdateStockBatch applies stock updates one by one, isolating failures.
func (s *Store) UpdateStockBatch(ctx context.Context, updates []StockUpdate) ([]OperationResult, error) {
	results := make([]OperationResult, 0, len(updates))
	for _, u := range updates {
		r, err := s.UpdateStock(ctx, u)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// CreateManufacturer creates a manufacturer.
func (s *Store) CreateManufacturer(ctx context.Context, m Manufacturer) (OperationResult, error) {
	return s.createEntity(ctx, entityKindManufacturer, m.Name, m)
}

// CreateUnit creates a measurement unit.
func (s *Store) CreateUnit(ctx context.Context, u Unit) (OperationResult, error) {
	return s.createEntity(ctx, entityKindUnit, u.Name, u)
}

// CreateCategory creates a category.
func (s *Store) CreateCategory(ctx context.Context, c Category) (OperationResult, error) {
	return s.createEntity(ctx, entityKindCategory, c.Name, c)
}

// CreatePropertyGroup creates a classification group.
func (s *Store) CreatePropertyGroup(ctx context.Context, g PropertyGroup) (OperationResult, error) {
	return s.createEntity(ctx, entityKindPropertyGroup, g.Name, g)
}

// CreatePropertyOption creates an option under a group.
func (s *Store) CreatePropertyOption(ctx context.Context, o PropertyOption) (OperationResult, error) {
	if o.GroupID == "" {
		return OperationResult{Success: false, Error: "missing group ID"}, nil
	}
	row := storedPropertyOption{ID: uuid.NewString(), GroupID: o.GroupID, Name: o.Name}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return OperationResult{Success: false, Error: err.Error()}, nil
	}
	return OperationResult{ID: row.ID, Success: true}, nil
}

// CreateMediaFromURL records an ingested media file.
func (s *Store) CreateMediaFromURL(ctx context.Context, mediaURL, folderID string) (OperationResult, error) {
	if mediaURL == "" {
		return OperationResult{Success: false, Error: "missing media URL"}, nil
	}
	row := storedMedia{ID: uuid.NewString(), URL: mediaURL, FolderID: folderID}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return OperationResult{Success: false, Error: err.Error()}, nil
	}
	return OperationResult{ID: row.ID, Success: true}, nil
}

// GetOrCreateMediaFolder resolves a folder by name, creating it if missing.
func (s *Store) GetOrCreateMediaFolder(ctx context.Context, name string) (OperationResult, error) {
	var folder storedMediaFolder
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&folder).Error
	if err == nil {
		return OperationResult{ID: folder.ID, Success: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return OperationResult{}, err
	}
	folder = storedMediaFolder{ID: uuid.NewString(), Name: name}
	if err := s.db.WithContext(ctx).Create(&folder).Error; err != nil {
		return OperationResult{Success: false, Error: err.Error()}, nil
	}
	return OperationResult{ID: folder.ID, Success: true}, nil
}

func (s *Store) createEntity(ctx context.Context, kind, name string, payload any) (OperationResult, error) {
	if name == "" {
		return OperationResult{Success: false, Error: "missing name"}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return OperationResult{}, err
	}
	row := storedEntity{ID: uuid.NewString(), Kind: kind, Name: name, Payload: string(raw)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return OperationResult{Success: false, Error: err.Error()}, nil
	}
	return OperationResult{ID: row.ID, Success: true}, nil
}

var _ API = (*Store)(nil)
