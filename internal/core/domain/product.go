package domain

type (
	Product struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Price       int    `json:"price"`
		ImageURL    string `json:"image_url,omitempty"`
	}

	ProductsPage struct {
		Page   int       `json:"page"`
		Amount int       `json:"amount"`
		Total  int       `json:"total"`
		Items  []Product `json:"items"`
	}
)

type Review struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// A ProductDemand is the aggregated ordered quantity of a single product.
type ProductDemand struct {
	ProductID int `json:"id"`
	Quantity  int `json:"quantity"`
	Lines     int `json:"lines"`
}

// A HomePage is the data loaded on the server for the first render.
type HomePage struct {
	Reviews  []Review  `json:"reviews"`
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}
