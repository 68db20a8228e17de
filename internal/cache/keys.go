package cache

// Key and pattern conventions for the catalog cache. Derived-data caches and
// cached route responses share one keyspace so mutations can sweep both.

const (
	productCacheKey = "products"

	// ProductListPattern covers every cached product listing variant.
	ProductListPattern = productCacheKey + "*"

	// ProductResponsePattern covers cached HTTP response bodies for the
	// public product routes.
	ProductResponsePattern = "response:/api/v1/products*"

	// ClearancePattern covers every cached clearance-sale listing.
	ClearancePattern = "clearance*"
)

// ProductPatterns is the minimum pattern set every product mutation must
// invalidate.
func ProductPatterns() []string {
	return []string{ProductListPattern, ProductResponsePattern}
}

// ClearancePatterns is the minimum pattern set every clearance-sale mutation
// must invalidate.
func ClearancePatterns() []string {
	return []string{ClearancePattern}
}
