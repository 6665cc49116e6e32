package catalog

// Category of a storefront product. Values are the customer-facing labels.
type Category string

const (
	CategoryPrinters Category = "Impressoras"
	CategoryInkToner Category = "Tinteiros & Toners"
	CategoryPaper    Category = "Papel"
	CategoryParts    Category = "Peças & Acessórios"
)

// CategoryAll is the filter sentinel matching every category
const CategoryAll = "Todos"

// Categories returns all product categories in display order
func Categories() []Category {
	return []Category{CategoryPrinters, CategoryInkToner, CategoryPaper, CategoryParts}
}

// Valid reports whether the category is one of the known values
func (c Category) Valid() bool {
	switch c {
	case CategoryPrinters, CategoryInkToner, CategoryPaper, CategoryParts:
		return true
	}
	return false
}

// Product is one storefront item. OriginalPrice is zero unless the product
// is discounted; a product is on promotion when OriginalPrice exceeds Price.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Category      Category `json:"category"`
	Image         string   `json:"image"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
}

// OnPromotion reports whether the product carries a discount
func (p Product) OnPromotion() bool {
	return p.OriginalPrice > p.Price
}
