package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Category groups products for navigation.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null;default:''"`
	Products    []Product `gorm:"many2many:product_categories"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Product is the parent of one or more sellable variants.
type Product struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// VariantFilters holds free-form filter tags such as {"color": "red"}.
type VariantFilters map[string]string

// ProductVariant is the sellable unit. Price is stored in minor currency units.
type ProductVariant struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	CategoryID   uuid.UUID      `gorm:"column:category_id;type:uuid;not null;index"`
	Name         string         `gorm:"column:name;not null;uniqueIndex"`
	Price        int64          `gorm:"column:price;not null;check:chk_product_variants_price,price >= 0"`
	FilePath     string         `gorm:"column:file_path;not null;default:''"`
	Filters      VariantFilters `gorm:"column:filters;type:jsonb;serializer:json"`
	CurrentStock int            `gorm:"column:current_stock;not null;check:chk_product_variants_stock,current_stock >= 0"`
	SoldStock    int            `gorm:"column:sold_stock;not null"`
	IsActive     bool           `gorm:"column:is_active;not null"`
	Product      *Product       `gorm:"foreignKey:ProductID"`
	Category     *Category      `gorm:"foreignKey:CategoryID"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// FeaturedProductLine is a curated promotional grouping of variants.
type FeaturedProductLine struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Title       string         `gorm:"column:title;not null;uniqueIndex"`
	Description string         `gorm:"column:description;not null;default:''"`
	Images      pq.StringArray `gorm:"column:images;type:text[]"`
	VariantIDs  pq.StringArray `gorm:"column:variant_ids;type:text[]"`
	IsPrimary   bool           `gorm:"column:is_primary;not null"`
	IsActive    bool           `gorm:"column:is_active;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (f *FeaturedProductLine) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
