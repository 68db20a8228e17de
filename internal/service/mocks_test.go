package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"vendormart/internal/domain"
	"vendormart/internal/repository"

	"github.com/google/uuid"
)

// In-memory fakes mirroring the repository contracts, shared by the service
// test suites in this package.

type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	clone := *product
	m.products[product.ID] = &clone
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.products {
		if product.Slug == slug {
			clone := *product
			return &clone, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.products {
		if product.SKU == sku {
			clone := *product
			return &clone, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByVariationSKU(ctx context.Context, sku string, exclude uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.products {
		if product.ID == exclude {
			continue
		}
		for _, v := range product.Variations {
			if v.SKU == sku {
				clone := *product
				return &clone, nil
			}
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []*domain.Product{}
	for _, product := range m.products {
		if matchesFilter(product, filter) {
			clone := *product
			matched = append(matched, &clone)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if sortOrder == repository.SortOrderAsc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockProductRepository) Count(ctx context.Context, filter repository.ProductFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, product := range m.products {
		if matchesFilter(product, filter) {
			count++
		}
	}
	return count, nil
}

func (m *mockProductRepository) CountOwned(ctx context.Context, vendor uuid.UUID, ids []uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, id := range ids {
		if product, exists := m.products[id]; exists && product.Vendor == vendor {
			count++
		}
	}
	return count, nil
}

func matchesFilter(p *domain.Product, f repository.ProductFilter) bool {
	if f.Vendor != nil && p.Vendor != *f.Vendor {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured {
		return false
	}
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.ExcludeID != nil && p.ID == *f.ExcludeID {
		return false
	}
	if f.InStockOnly && p.Quantity <= 0 {
		return false
	}
	if f.OutOfStockOnly && p.Quantity > 0 {
		return false
	}
	if len(f.TagsAny) > 0 {
		found := false
		for _, want := range f.TagsAny {
			for _, have := range p.SearchTags {
				if want == have {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type mockCategoryRepository struct {
	categories    map[uuid.UUID]*domain.Category
	subcategories map[uuid.UUID]*domain.SubCategory
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories:    make(map[uuid.UUID]*domain.Category),
		subcategories: make(map[uuid.UUID]*domain.SubCategory),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) CreateSubCategory(ctx context.Context, sub *domain.SubCategory) error {
	m.subcategories[sub.ID] = sub
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, exists := m.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m *mockCategoryRepository) FindSubCategoryByID(ctx context.Context, id uuid.UUID) (*domain.SubCategory, error) {
	sub, exists := m.subcategories[id]
	if !exists {
		return nil, repository.ErrSubCategoryNotFound
	}
	return sub, nil
}

func (m *mockCategoryRepository) addActiveCategory() uuid.UUID {
	id := uuid.New()
	m.categories[id] = &domain.Category{
		ID:        id,
		Name:      "category",
		Status:    domain.CategoryActive,
		CreatedAt: time.Now(),
	}
	return id
}

type saleMember struct {
	isActive bool
	addedAt  time.Time
	order    int
}

type mockClearanceSaleRepository struct {
	mu      sync.Mutex
	sales   map[string]*domain.ClearanceSale
	members map[uuid.UUID]map[uuid.UUID]*saleMember
	seq     int
}

func newMockClearanceSaleRepository() *mockClearanceSaleRepository {
	return &mockClearanceSaleRepository{
		sales:   make(map[string]*domain.ClearanceSale),
		members: make(map[uuid.UUID]map[uuid.UUID]*saleMember),
	}
}

func (m *mockClearanceSaleRepository) Create(ctx context.Context, sale *domain.ClearanceSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *sale
	m.sales[repository.OwnerKey(sale.Vendor)] = &clone
	m.members[sale.ID] = make(map[uuid.UUID]*saleMember)
	return nil
}

func (m *mockClearanceSaleRepository) UpdateConfig(ctx context.Context, sale *domain.ClearanceSale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repository.OwnerKey(sale.Vendor)
	if _, exists := m.sales[key]; !exists {
		return repository.ErrSaleNotFound
	}
	clone := *sale
	clone.Products = nil
	m.sales[key] = &clone
	return nil
}

func (m *mockClearanceSaleRepository) FindByOwner(ctx context.Context, ownerKey string) (*domain.ClearanceSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale, exists := m.sales[ownerKey]
	if !exists {
		return nil, repository.ErrSaleNotFound
	}
	return m.withMembers(sale), nil
}

func (m *mockClearanceSaleRepository) AddProducts(ctx context.Context, saleID uuid.UUID, productIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, exists := m.members[saleID]
	if !exists {
		members = make(map[uuid.UUID]*saleMember)
		m.members[saleID] = members
	}
	for _, id := range productIDs {
		if _, already := members[id]; already {
			continue
		}
		m.seq++
		members[id] = &saleMember{isActive: true, addedAt: time.Now(), order: m.seq}
	}
	return nil
}

func (m *mockClearanceSaleRepository) RemoveProduct(ctx context.Context, saleID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if members, exists := m.members[saleID]; exists {
		delete(members, productID)
	}
	return nil
}

func (m *mockClearanceSaleRepository) SetProductActive(ctx context.Context, saleID, productID uuid.UUID, isActive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, exists := m.members[saleID]
	if !exists {
		return repository.ErrSaleProductNotFound
	}
	member, exists := members[productID]
	if !exists {
		return repository.ErrSaleProductNotFound
	}
	member.isActive = isActive
	return nil
}

func (m *mockClearanceSaleRepository) ListLive(ctx context.Context, now time.Time, limit int) ([]*domain.ClearanceSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := []*domain.ClearanceSale{}
	for _, sale := range m.sales {
		if sale.LiveAt(now) {
			live = append(live, m.withMembers(sale))
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	if len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

func (m *mockClearanceSaleRepository) FindLiveByVendors(ctx context.Context, vendors []uuid.UUID, now time.Time) ([]*domain.ClearanceSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.ClearanceSale{}
	for _, vendor := range vendors {
		sale, exists := m.sales[vendor.String()]
		if exists && sale.LiveAt(now) {
			out = append(out, m.withMembers(sale))
		}
	}
	return out, nil
}

func (m *mockClearanceSaleRepository) withMembers(sale *domain.ClearanceSale) *domain.ClearanceSale {
	clone := *sale
	clone.Products = []domain.SaleProduct{}

	type entry struct {
		id     uuid.UUID
		member *saleMember
	}
	entries := []entry{}
	for id, member := range m.members[sale.ID] {
		entries = append(entries, entry{id: id, member: member})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].member.order < entries[j].member.order })

	for _, e := range entries {
		clone.Products = append(clone.Products, domain.SaleProduct{
			Product:  e.id,
			IsActive: e.member.isActive,
		})
	}
	return &clone
}

type mockInvalidator struct {
	mu       sync.Mutex
	patterns []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, patterns ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, patterns...)
}

func (m *mockInvalidator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.patterns)
}
