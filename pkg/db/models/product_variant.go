package models

import "time"

// Product is the catalog entry a variant belongs to. Catalog management is
// out of scope; the core only reads names and the digital flag.
type Product struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null"`
	IsDigital bool      `gorm:"column:is_digital;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant owns the stock counter and the authoritative price. Stock
// is only mutated inside a transaction that also writes the order or the
// cancellation request, and must never go negative.
type ProductVariant struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64     `gorm:"column:product_id;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Price     int64     `gorm:"column:price;not null"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
