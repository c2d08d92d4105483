package model

// Product holds the catalogue attributes needed for display and pricing.
// A product is immutable once fetched for a given sync pass; the next
// lookup replaces it wholesale.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         int      `json:"price"`
	Image         string   `json:"image,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	ReviewCount   int      `json:"reviewCount,omitempty"`
	Discount      int      `json:"discount,omitempty"`
	Category      string   `json:"category,omitempty"`
	SubCategory   string   `json:"subCategory,omitempty"`
	WeightInKg    *float64 `json:"weightInKg,omitempty"`
	OriginalPrice *int     `json:"originalPrice,omitempty"`
}

// PlaceholderName is the display name for a line whose catalogue lookup failed.
const PlaceholderName = "Product Name Not Available"

// PlaceholderProduct returns neutral product attributes for an identifier
// whose catalogue lookup failed, so the line can still be rendered.
func PlaceholderProduct(id string) Product {
	return Product{
		ID:    id,
		Name:  PlaceholderName,
		Price: 0,
	}
}

// EffectivePrice returns the unit price after applying the product-level
// discount percentage.
func (p Product) EffectivePrice() int {
	if p.Discount <= 0 {
		return p.Price
	}
	if p.Discount >= 100 {
		return 0
	}
	return p.Price - p.Price*p.Discount/100
}
