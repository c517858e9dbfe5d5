package dto

// MenuItemResponse is the public shape of one catalog item. Quantity is only
// populated when the item appears inside a basket.
type MenuItemResponse struct {
	Id            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	ImageURL      string   `json:"image_url,omitempty"`
	NameDe        *string  `json:"name_de,omitempty"`
	NameCs        *string  `json:"name_cs,omitempty"`
	DescriptionDe *string  `json:"description_de,omitempty"`
	DescriptionCs *string  `json:"description_cs,omitempty"`
	Quantity      int      `json:"quantity,omitempty"`
}

type MenuCategoriesResponse struct {
	Categories []string `json:"categories"`
}
