package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"cloth_pos_backend/internal/models"
	"cloth_pos_backend/internal/repositories"
)

// memStore is the shared in-memory backing for the fake repositories. All
// maps hold value types so a snapshot is a plain map copy. mu guards map
// access so post-commit reads can race a concurrent transaction safely.
type memStore struct {
	mu sync.Mutex

	categories  map[int64]models.Category
	products    map[int64]models.Product
	variants    map[int64]models.ProductVariant
	sales       map[int64]models.Sale
	saleItems   map[int64]models.SaleItem
	returns     map[int64]models.Return
	returnItems map[int64]models.ReturnItem

	invoiceNumbers map[string]bool
	returnNumbers  map[string]bool

	nextID int64
	now    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		categories:     map[int64]models.Category{},
		products:       map[int64]models.Product{},
		variants:       map[int64]models.ProductVariant{},
		sales:          map[int64]models.Sale{},
		saleItems:      map[int64]models.SaleItem{},
		returns:        map[int64]models.Return{},
		returnItems:    map[int64]models.ReturnItem{},
		invoiceNumbers: map[string]bool{},
		returnNumbers:  map[string]bool{},
		now:            time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) snapshot() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memStore{
		categories:     copyMap(m.categories),
		products:       copyMap(m.products),
		variants:       copyMap(m.variants),
		sales:          copyMap(m.sales),
		saleItems:      copyMap(m.saleItems),
		returns:        copyMap(m.returns),
		returnItems:    copyMap(m.returnItems),
		invoiceNumbers: copyMap(m.invoiceNumbers),
		returnNumbers:  copyMap(m.returnNumbers),
		nextID:         m.nextID,
		now:            m.now,
	}
}

func (m *memStore) restore(snap *memStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories = snap.categories
	m.products = snap.products
	m.variants = snap.variants
	m.sales = snap.sales
	m.saleItems = snap.saleItems
	m.returns = snap.returns
	m.returnItems = snap.returnItems
	m.invoiceNumbers = snap.invoiceNumbers
	m.returnNumbers = snap.returnNumbers
	m.nextID = snap.nextID
}

// addVariant seeds a variant (with its product and category) and returns it.
func (m *memStore) addVariant(name, size, color string, retail, gstRate float64, stock int) models.ProductVariant {
	m.mu.Lock()
	defer m.mu.Unlock()
	catID := m.id()
	m.categories[catID] = models.Category{ID: catID, Name: "Test Wear", Slug: "test-wear"}
	prodID := m.id()
	m.products[prodID] = models.Product{ID: prodID, CategoryID: catID, Name: name}
	v := models.ProductVariant{
		ID:            m.id(),
		ProductID:     prodID,
		Size:          size,
		Color:         color,
		Barcode:       fmt.Sprintf("CLT%06d", m.nextID),
		PriceRetail:   retail,
		GSTRate:       gstRate,
		StockQuantity: stock,
		ProductName:   name,
	}
	m.variants[v.ID] = v
	return v
}

func (m *memStore) variantStock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[id].StockQuantity
}

// fakeTxRunner serializes transactions over the store and rolls the store
// back to its pre-transaction snapshot when fn fails, mirroring the database
// transaction the services run against in production.
type fakeTxRunner struct {
	mu    sync.Mutex
	store *memStore
}

func (r *fakeTxRunner) RunInTransaction(fn func(tx repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// --- fake variant repository ---

type fakeVariantRepo struct {
	store *memStore
}

func (f *fakeVariantRepo) CreateVariant(_ repositories.SQLExecutor, variant *models.ProductVariant) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, v := range f.store.variants {
		if v.Barcode == variant.Barcode {
			return 0, &repositories.ConstraintError{Constraint: "product_variants_barcode_key", Err: fmt.Errorf("%w: creating variant", repositories.ErrDuplicateKey)}
		}
		if v.ProductID == variant.ProductID && v.Size == variant.Size && v.Color == variant.Color {
			return 0, &repositories.ConstraintError{Constraint: "product_variants_product_id_size_color_key", Err: fmt.Errorf("%w: creating variant", repositories.ErrDuplicateKey)}
		}
	}
	variant.ID = f.store.id()
	if p, ok := f.store.products[variant.ProductID]; ok {
		variant.ProductName = p.Name
	}
	f.store.variants[variant.ID] = *variant
	return variant.ID, nil
}

func (f *fakeVariantRepo) GetVariantByID(id int64) (*models.ProductVariant, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.variants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (f *fakeVariantRepo) GetVariants(filters models.VariantFilters) ([]models.ProductVariant, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.ProductVariant
	for _, v := range f.store.variants {
		if filters.ProductID != nil && v.ProductID != *filters.ProductID {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeVariantRepo) GetLowStockVariants(threshold int) ([]models.ProductVariant, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.ProductVariant
	for _, v := range f.store.variants {
		if v.StockQuantity <= threshold {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockQuantity < out[j].StockQuantity })
	return out, nil
}

func (f *fakeVariantRepo) UpdateVariant(_ repositories.SQLExecutor, variant *models.ProductVariant) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	existing, ok := f.store.variants[variant.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	variant.StockQuantity = existing.StockQuantity
	variant.ProductName = existing.ProductName
	f.store.variants[variant.ID] = *variant
	return nil
}

func (f *fakeVariantRepo) DeleteVariant(_ repositories.SQLExecutor, id int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.variants[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.store.variants, id)
	return nil
}

func (f *fakeVariantRepo) VariantReferencedBySales(id int64) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, item := range f.store.saleItems {
		if item.VariantID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVariantRepo) DeductStock(_ repositories.SQLExecutor, variantID int64, quantity int) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.variants[variantID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if v.StockQuantity < quantity {
		return 0, fmt.Errorf("%w: variant ID %d has %d, requested %d",
			repositories.ErrInsufficientStock, variantID, v.StockQuantity, quantity)
	}
	v.StockQuantity -= quantity
	f.store.variants[variantID] = v
	return v.StockQuantity, nil
}

func (f *fakeVariantRepo) RestoreStock(_ repositories.SQLExecutor, variantID int64, quantity int) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	v, ok := f.store.variants[variantID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	v.StockQuantity += quantity
	f.store.variants[variantID] = v
	return v.StockQuantity, nil
}

// --- fake sale repository ---

type fakeSaleRepo struct {
	store *memStore

	// collideCreates makes that many CreateSale calls fail with a
	// duplicate-number error before accepting, exercising the retry path.
	collideCreates int
}

func (f *fakeSaleRepo) CreateSale(_ repositories.SQLExecutor, sale *models.Sale) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.collideCreates > 0 {
		f.collideCreates--
		return 0, fmt.Errorf("%w: invoice number '%s' already exists", repositories.ErrDuplicateKey, sale.InvoiceNumber)
	}
	if f.store.invoiceNumbers[sale.InvoiceNumber] {
		return 0, fmt.Errorf("%w: invoice number '%s' already exists", repositories.ErrDuplicateKey, sale.InvoiceNumber)
	}
	sale.ID = f.store.id()
	sale.CreatedAt = f.store.now
	f.store.invoiceNumbers[sale.InvoiceNumber] = true
	f.store.sales[sale.ID] = *sale
	return sale.ID, nil
}

func (f *fakeSaleRepo) UpdateSaleTotals(_ repositories.SQLExecutor, saleID int64, totalAmount, gstTotal float64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	s, ok := f.store.sales[saleID]
	if !ok {
		return repositories.ErrNotFound
	}
	s.TotalAmount = totalAmount
	s.GSTTotal = gstTotal
	f.store.sales[saleID] = s
	return nil
}

func (f *fakeSaleRepo) CreateSaleItem(_ repositories.SQLExecutor, item *models.SaleItem) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	item.ID = f.store.id()
	item.TotalPrice = float64(item.Quantity) * item.UnitPrice
	f.store.saleItems[item.ID] = *item
	return item.ID, nil
}

func (f *fakeSaleRepo) GetSaleByID(saleID int64) (*models.Sale, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	s, ok := f.store.sales[saleID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

// joinItem fills the read-only variant fields. Caller holds the store lock.
func (f *fakeSaleRepo) joinItem(item models.SaleItem) models.SaleItem {
	if v, ok := f.store.variants[item.VariantID]; ok {
		item.VariantName = v.ProductName
		item.VariantSize = v.Size
		item.VariantColor = v.Color
		item.VariantBarcode = v.Barcode
		item.VariantGSTRate = v.GSTRate
	}
	return item
}

func (f *fakeSaleRepo) GetSaleItemsBySaleID(saleID int64) ([]models.SaleItem, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.SaleItem
	for _, item := range f.store.saleItems {
		if item.SaleID == saleID {
			out = append(out, f.joinItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSaleRepo) GetSaleItemForUpdate(_ repositories.SQLExecutor, itemID int64) (*models.SaleItem, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	item, ok := f.store.saleItems[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	joined := f.joinItem(item)
	return &joined, nil
}

func (f *fakeSaleRepo) GetSales(filters models.SaleFilters) ([]models.Sale, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Sale
	for _, s := range f.store.sales {
		if filters.StartDate != nil && s.CreatedAt.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && s.CreatedAt.After(*filters.EndDate) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if filters.PageSize > 0 {
		offset := (filters.Page - 1) * filters.PageSize
		if offset > len(out) {
			offset = len(out)
		}
		end := offset + filters.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

// --- fake return repository ---

type fakeReturnRepo struct {
	store *memStore

	collideCreates int
}

func (f *fakeReturnRepo) CreateReturn(_ repositories.SQLExecutor, ret *models.Return) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.collideCreates > 0 {
		f.collideCreates--
		return 0, fmt.Errorf("%w: return number '%s' already exists", repositories.ErrDuplicateKey, ret.ReturnNumber)
	}
	if f.store.returnNumbers[ret.ReturnNumber] {
		return 0, fmt.Errorf("%w: return number '%s' already exists", repositories.ErrDuplicateKey, ret.ReturnNumber)
	}
	ret.ID = f.store.id()
	ret.CreatedAt = f.store.now
	f.store.returnNumbers[ret.ReturnNumber] = true
	f.store.returns[ret.ID] = *ret
	return ret.ID, nil
}

func (f *fakeReturnRepo) UpdateReturnTotals(_ repositories.SQLExecutor, returnID int64, refundAmount, refundGST float64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	r, ok := f.store.returns[returnID]
	if !ok {
		return repositories.ErrNotFound
	}
	r.RefundAmount = refundAmount
	r.RefundGST = refundGST
	f.store.returns[returnID] = r
	return nil
}

func (f *fakeReturnRepo) CreateReturnItem(_ repositories.SQLExecutor, item *models.ReturnItem) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	item.ID = f.store.id()
	f.store.returnItems[item.ID] = *item
	return item.ID, nil
}

func (f *fakeReturnRepo) ReturnedQuantity(_ repositories.SQLExecutor, saleItemID int64) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	total := 0
	for _, item := range f.store.returnItems {
		if item.SaleItemID == saleItemID {
			total += item.Quantity
		}
	}
	return total, nil
}

func (f *fakeReturnRepo) GetReturnByID(returnID int64) (*models.Return, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	r, ok := f.store.returns[returnID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if s, ok := f.store.sales[r.OriginalSaleID]; ok {
		r.OriginalInvoice = s.InvoiceNumber
	}
	return &r, nil
}

func (f *fakeReturnRepo) GetReturnItemsByReturnID(returnID int64) ([]models.ReturnItem, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.ReturnItem
	for _, item := range f.store.returnItems {
		if item.ReturnID == returnID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReturnRepo) GetReturns(page, pageSize int) ([]models.Return, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Return
	for _, r := range f.store.returns {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (f *fakeReturnRepo) GetRecentReturns(start, end time.Time, limit int) ([]models.RecentReturn, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.RecentReturn
	for _, r := range f.store.returns {
		if r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		rr := models.RecentReturn{
			ID:           r.ID,
			ReturnNumber: r.ReturnNumber,
			RefundAmount: r.RefundAmount,
			Reason:       r.Reason,
			CreatedAt:    r.CreatedAt,
		}
		if s, ok := f.store.sales[r.OriginalSaleID]; ok {
			rr.OriginalInvoice = s.InvoiceNumber
		}
		out = append(out, rr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- fake catalog repository ---

type fakeCatalogRepo struct {
	store *memStore
}

func (f *fakeCatalogRepo) CreateCategory(_ repositories.SQLExecutor, category *models.Category) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, c := range f.store.categories {
		if c.Slug == category.Slug {
			return 0, &repositories.ConstraintError{Constraint: "categories_slug_key", Err: fmt.Errorf("%w: category '%s' already exists", repositories.ErrDuplicateKey, category.Name)}
		}
	}
	category.ID = f.store.id()
	category.CreatedAt = f.store.now
	category.UpdatedAt = f.store.now
	f.store.categories[category.ID] = *category
	return category.ID, nil
}

func (f *fakeCatalogRepo) GetCategoryByID(id int64) (*models.Category, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	c, ok := f.store.categories[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCatalogRepo) GetCategories(page, pageSize int) ([]models.Category, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Category
	for _, c := range f.store.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeCatalogRepo) UpdateCategory(_ repositories.SQLExecutor, category *models.Category) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	existing, ok := f.store.categories[category.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, c := range f.store.categories {
		if c.ID != category.ID && c.Slug == category.Slug {
			return &repositories.ConstraintError{Constraint: "categories_slug_key", Err: fmt.Errorf("%w: category '%s' already exists", repositories.ErrDuplicateKey, category.Name)}
		}
	}
	category.CreatedAt = existing.CreatedAt
	f.store.categories[category.ID] = *category
	return nil
}

func (f *fakeCatalogRepo) DeleteCategory(_ repositories.SQLExecutor, id int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.categories[id]; !ok {
		return repositories.ErrNotFound
	}
	for pid, p := range f.store.products {
		if p.CategoryID != id {
			continue
		}
		for vid, v := range f.store.variants {
			if v.ProductID != pid {
				continue
			}
			for _, item := range f.store.saleItems {
				if item.VariantID == vid {
					return &repositories.ConstraintError{Constraint: "sale_items_variant_id_fkey", Err: fmt.Errorf("%w: variant ID %d", repositories.ErrRowReferenced, vid)}
				}
			}
			delete(f.store.variants, vid)
		}
		delete(f.store.products, pid)
	}
	delete(f.store.categories, id)
	return nil
}

func (f *fakeCatalogRepo) CategoryReferencedBySales(id int64) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, item := range f.store.saleItems {
		v, ok := f.store.variants[item.VariantID]
		if !ok {
			continue
		}
		p, ok := f.store.products[v.ProductID]
		if ok && p.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalogRepo) CreateProduct(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.categories[product.CategoryID]; !ok {
		return 0, repositories.ErrNotFound
	}
	product.ID = f.store.id()
	product.CreatedAt = f.store.now
	product.UpdatedAt = f.store.now
	f.store.products[product.ID] = *product
	return product.ID, nil
}

func (f *fakeCatalogRepo) GetProductByID(id int64) (*models.Product, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if c, ok := f.store.categories[p.CategoryID]; ok {
		p.CategoryName = c.Name
	}
	return &p, nil
}

func (f *fakeCatalogRepo) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Product
	for _, p := range f.store.products {
		if filters.CategoryID != nil && p.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeCatalogRepo) UpdateProduct(_ repositories.SQLExecutor, product *models.Product) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	existing, ok := f.store.products[product.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	f.store.products[product.ID] = *product
	return nil
}

func (f *fakeCatalogRepo) DeleteProduct(_ repositories.SQLExecutor, id int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.store.products, id)
	for vid, v := range f.store.variants {
		if v.ProductID == id {
			delete(f.store.variants, vid)
		}
	}
	return nil
}

func (f *fakeCatalogRepo) ProductNameExists(name string, excludeID *int64) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, p := range f.store.products {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if strings.EqualFold(p.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalogRepo) ProductReferencedBySales(id int64) (bool, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, item := range f.store.saleItems {
		v, ok := f.store.variants[item.VariantID]
		if ok && v.ProductID == id {
			return true, nil
		}
	}
	return false, nil
}

// --- fixture helpers ---

type saleFixture struct {
	store       *memStore
	saleRepo    *fakeSaleRepo
	variantRepo *fakeVariantRepo
	returnRepo  *fakeReturnRepo
	runner      *fakeTxRunner
	sales       SaleService
	returns     ReturnService
}

func newSaleFixture() *saleFixture {
	store := newMemStore()
	f := &saleFixture{
		store:       store,
		saleRepo:    &fakeSaleRepo{store: store},
		variantRepo: &fakeVariantRepo{store: store},
		returnRepo:  &fakeReturnRepo{store: store},
		runner:      &fakeTxRunner{store: store},
	}
	f.sales = NewSaleService(f.saleRepo, f.variantRepo, f.runner)
	f.returns = NewReturnService(f.returnRepo, f.saleRepo, f.variantRepo, f.runner)
	return f
}
