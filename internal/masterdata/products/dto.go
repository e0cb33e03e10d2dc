package products

import "github.com/shopspring/decimal"

// ProductForm is the create/update payload.
type ProductForm struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CategoryID   int64           `json:"category_id"`
	UOM          string          `json:"uom"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	IsActive     bool            `json:"is_active"`
}

func (f ProductForm) model() Product {
	return Product{
		SKU:          f.SKU,
		Name:         f.Name,
		CategoryID:   f.CategoryID,
		UOM:          f.UOM,
		ReorderLevel: f.ReorderLevel,
		IsActive:     f.IsActive,
	}
}
