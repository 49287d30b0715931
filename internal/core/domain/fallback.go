package domain

// Fallback data used when the upstream is unavailable on first render.

func FallbackReviews() []Review {
	return []Review{
		{ID: 1, Text: "<p>Отличный магазин! Быстрая доставка и качественные товары.</p>"},
		{ID: 2, Text: "<p>Рекомендую всем! Приятные цены и хорошее обслуживание.</p>"},
	}
}

func FallbackProducts() []Product {
	return []Product{
		{ID: 1, Title: "Товар 1", Description: "Описание товара 1", Price: 12150, ImageURL: "https://picsum.photos/301/192?random=1"},
		{ID: 2, Title: "Товар 2", Description: "Описание товара 2", Price: 25300, ImageURL: "https://picsum.photos/301/192?random=2"},
		{ID: 3, Title: "Товар 3", Description: "Описание товара 3", Price: 18900, ImageURL: "https://picsum.photos/301/192?random=3"},
		{ID: 4, Title: "Товар 4", Description: "Описание товара 4", Price: 33500, ImageURL: "https://picsum.photos/301/192?random=4"},
		{ID: 5, Title: "Товар 5", Description: "Описание товара 5", Price: 41200, ImageURL: "https://picsum.photos/301/192?random=5"},
		{ID: 6, Title: "Товар 6", Description: "Описание товара 6", Price: 28750, ImageURL: "https://picsum.photos/301/192?random=6"},
	}
}
