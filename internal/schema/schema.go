// Package schema holds the wire representation of a producto and the
// conversions between it and the gorm model. The same field set is used for
// single records and for lists.
package schema

import (
	"github.com/shopspring/decimal"

	"productos/internal/models"
)

func init() {
	// precio goes out as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Producto is the serialized product: id, nombre, precio, stock, imagen.
type Producto struct {
	ID     uint            `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
	Stock  int             `json:"stock"`
	Imagen string          `json:"imagen"`
}

// Input is the request body of create and update. Every field must be
// present; pointers let zero values through while still catching absent keys.
type Input struct {
	Nombre *string          `json:"nombre" binding:"required"`
	Precio *decimal.Decimal `json:"precio" binding:"required"`
	Stock  *int             `json:"stock" binding:"required"`
	Imagen *string          `json:"imagen" binding:"required"`
}

// Dump converts a model to its wire form. A nil product dumps to nil, which
// renders as JSON null.
func Dump(p *models.Product) *Producto {
	if p == nil {
		return nil
	}
	return &Producto{
		ID:     p.ID,
		Nombre: p.Nombre,
		Precio: p.Precio,
		Stock:  p.Stock,
		Imagen: p.Imagen,
	}
}

// DumpMany converts a list of models. The result is never nil so an empty
// table serializes as [].
func DumpMany(ps []models.Product) []Producto {
	out := make([]Producto, 0, len(ps))
	for i := range ps {
		out = append(out, *Dump(&ps[i]))
	}
	return out
}

// Apply overwrites all four business fields of p. The id is left alone.
func (in Input) Apply(p *models.Product) {
	p.Nombre = *in.Nombre
	p.Precio = *in.Precio
	p.Stock = *in.Stock
	p.Imagen = *in.Imagen
}

// New builds a fresh, unsaved product from the input.
func (in Input) New() *models.Product {
	p := &models.Product{}
	in.Apply(p)
	return p
}
