package models

import "github.com/shopspring/decimal"

// Product is a row of the productos table.
type Product struct {
	ID     uint            `gorm:"primaryKey"`
	Nombre string          `gorm:"not null"`
	Precio decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock  int             `gorm:"not null"`
	Imagen string          `gorm:"not null"` // URL or relative path
}

func (Product) TableName() string {
	return "productos"
}
