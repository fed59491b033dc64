package catalog

import "time"

// Product is one sneaker listing. Images, sizes and tags are stored as JSON
// arrays in text columns and passed through to the client unparsed.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Images        string    `json:"images,omitempty"`
	Sizes         string    `json:"sizes,omitempty"`
	Tags          string    `json:"tags,omitempty"`
	Active        bool      `json:"active"`
	Featured      bool      `json:"featured"`
	StockTracking bool      `json:"stockTracking"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
