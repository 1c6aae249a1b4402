package types

// Category groups products. Names are unique.
type Category struct {
	ID   int64  `db:"category_id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Product is a stock-keeping item. SKU is intended to be unique but a
// colliding insert is accepted and flagged with IsDuplicate.
type Product struct {
	ID           int64   `db:"product_id" json:"id"`
	SKU          string  `db:"sku" json:"sku"`
	Code         string  `db:"code" json:"code"`
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description"`
	CategoryID   *int64  `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string `db:"category_name" json:"category_name,omitempty"`
	MinStock     int     `db:"min_stock" json:"min_stock"`
	MaxStock     *int    `db:"max_stock" json:"max_stock,omitempty"`
	Stock        int     `db:"stock" json:"stock"`
	IsDuplicate  bool    `db:"is_duplicate" json:"is_duplicate"`
}

// NewProduct carries the fields for a product insert.
// MaxStock < MinStock is the caller's concern and is not checked here.
type NewProduct struct {
	SKU         string
	Code        string
	Name        string
	Description string
	CategoryID  *int64
	MinStock    int
	MaxStock    *int
	Stock       int
}
