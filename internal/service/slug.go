package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vendormart/internal/repository"
)

var slugStrip = regexp.MustCompile(`[^\w-]+`)

// SlugGenerator derives unique, URL-safe slugs from product names. Slugs are
// assigned once at creation and never change afterwards.
type SlugGenerator struct {
	products repository.ProductRepository
}

// NewSlugGenerator creates a new SlugGenerator
func NewSlugGenerator(products repository.ProductRepository) *SlugGenerator {
	return &SlugGenerator{products: products}
}

// Generate normalizes name and probes the catalog for a free slug, appending
// an incrementing numeric suffix on collision. The suffix space is unbounded,
// so the probe always terminates.
func (g *SlugGenerator) Generate(ctx context.Context, name string) (string, error) {
	base := strings.ToLower(name)
	base = strings.ReplaceAll(base, " ", "-")
	base = slugStrip.ReplaceAllString(base, "")

	slug := base
	for counter := 1; ; counter++ {
		_, err := g.products.FindBySlug(ctx, slug)
		if errors.Is(err, repository.ErrProductNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", slug, err)
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
