package product

// FeaturedCount is the number of products shown on the storefront home page.
const FeaturedCount = 8

// Filter returns the products in the given category, preserving catalog
// order. CategoryAll returns the input unchanged.
func Filter(products []Product, c Category) []Product {
	if c == CategoryAll {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the first n products in catalog order.
func Featured(products []Product, n int) []Product {
	if n < 0 {
		n = 0
	}
	if n > len(products) {
		n = len(products)
	}
	return products[:n]
}
