// Package catalog mantiene el registro de variantes de producto. El catálogo
// se siembra desde configuración al arrancar y solo muta por precio o
// activación; las variantes nunca se eliminan físicamente.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/pkg/config"
)

// Catalog colección de productos indexada por ID.
type Catalog struct {
	products map[string]*entity.Product
}

// New construye un catálogo vacío.
func New() *Catalog {
	return &Catalog{products: make(map[string]*entity.Product)}
}

// NewFromConfig siembra el catálogo con las variantes configuradas.
// El precio base es peso × precio-por-kg.
func NewFromConfig(cfg config.EngineConfig) *Catalog {
	c := New()
	for _, seed := range cfg.Seeds {
		price := decimal.NewFromFloat(seed.WeightKg * cfg.BasePricePerKg)
		p, err := entity.NewProduct(
			entity.ProductIDForWeight(seed.WeightKg),
			cfg.ProductName,
			seed.WeightKg,
			seed.PouchSize,
			seed.FNSKU,
			price,
		)
		if err != nil {
			// Las semillas vienen de configuración estática; una semilla
			// inválida se omite en vez de tumbar el arranque.
			continue
		}
		p.Category = cfg.Category
		p.Description = "Premium " + strings.ToLower(cfg.ProductName) + " " + entity.FormatWeight(seed.WeightKg) + "kg pack"
		c.products[p.ID] = p
	}
	return c
}

// AddProduct agrega una variante; false si el ID ya existe (sin error).
func (c *Catalog) AddProduct(p *entity.Product) bool {
	if _, exists := c.products[p.ID]; exists {
		return false
	}
	c.products[p.ID] = p
	return true
}

// GetProduct busca por ID.
func (c *Catalog) GetProduct(id string) (*entity.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// GetProductByWeight busca la variante con ese peso exacto.
func (c *Catalog) GetProductByWeight(weight float64) (*entity.Product, bool) {
	for _, p := range c.products {
		if p.WeightKg == weight {
			return p, true
		}
	}
	return nil, false
}

// UpdateProduct aplica actualizaciones de campo por nombre; los campos
// desconocidos se ignoran sin error. Sella UpdatedAt si el producto existe.
func (c *Catalog) UpdateProduct(id string, updates map[string]any) bool {
	p, ok := c.products[id]
	if !ok {
		return false
	}

	for key, value := range updates {
		switch key {
		case "name":
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				p.Name = s
			}
		case "description":
			if s, ok := value.(string); ok {
				p.Description = s
			}
		case "category":
			if s, ok := value.(string); ok {
				p.Category = s
			}
		case "pouch_size":
			if s, ok := value.(string); ok {
				p.PouchSize = s
			}
		case "fnsku":
			if s, ok := value.(string); ok {
				p.FNSKU = s
			}
		case "unit_price":
			if d, ok := toDecimal(value); ok && !d.IsNegative() {
				p.UnitPrice = d
			}
		case "is_active":
			if b, ok := value.(bool); ok {
				p.IsActive = b
			}
		}
	}

	p.UpdatedAt = time.Now()
	return true
}

// RemoveProduct elimina la variante del catálogo; preferir Deactivate.
func (c *Catalog) RemoveProduct(id string) bool {
	if _, ok := c.products[id]; !ok {
		return false
	}
	delete(c.products, id)
	return true
}

// ActiveProducts variantes activas.
func (c *Catalog) ActiveProducts() []*entity.Product {
	out := make([]*entity.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sortByWeight(out)
	return out
}

// ProductsByCategory variantes de una categoría.
func (c *Catalog) ProductsByCategory(category string) []*entity.Product {
	out := []*entity.Product{}
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	sortByWeight(out)
	return out
}

// SearchProducts busca por substring (case-insensitive) en nombre,
// descripción o peso como texto.
func (c *Catalog) SearchProducts(query string) []*entity.Product {
	q := strings.ToLower(query)
	out := []*entity.Product{}
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(entity.FormatWeight(p.WeightKg), q) {
			out = append(out, p)
		}
	}
	sortByWeight(out)
	return out
}

// ProductWeights pesos únicos del catálogo, ordenados ascendente.
func (c *Catalog) ProductWeights() []float64 {
	seen := make(map[float64]struct{}, len(c.products))
	weights := []float64{}
	for _, p := range c.products {
		if _, dup := seen[p.WeightKg]; dup {
			continue
		}
		seen[p.WeightKg] = struct{}{}
		weights = append(weights, p.WeightKg)
	}
	sort.Float64s(weights)
	return weights
}

// Len cantidad de variantes registradas.
func (c *Catalog) Len() int { return len(c.products) }

// Export serializa el catálogo completo (salida JSON-serializable).
func (c *Catalog) Export() map[string]any {
	products := make([]map[string]any, 0, len(c.products))
	for _, p := range c.allSorted() {
		products = append(products, p.ToMap())
	}
	return map[string]any{
		"products":       products,
		"total_products": len(products),
		"export_date":    time.Now().Format(time.RFC3339),
	}
}

// Import reconstruye variantes desde un export previo; las filas inválidas
// abortan la importación completa.
func (c *Catalog) Import(data map[string]any) error {
	rows, _ := data["products"].([]map[string]any)
	for _, row := range rows {
		p, err := entity.ProductFromMap(row)
		if err != nil {
			return err
		}
		c.products[p.ID] = p
	}
	return nil
}

func (c *Catalog) allSorted() []*entity.Product {
	out := make([]*entity.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, p)
	}
	sortByWeight(out)
	return out
}

func sortByWeight(ps []*entity.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].WeightKg < ps[j].WeightKg })
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	default:
		return decimal.Zero, false
	}
}
