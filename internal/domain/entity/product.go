package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain"
)

// Product representa una variante del catálogo (peso, bolsa, FNSKU, precio base).
// Nunca se elimina físicamente; se desactiva con IsActive=false.
type Product struct {
	ID          string
	Name        string
	WeightKg    float64
	PouchSize   string
	FNSKU       string
	UnitPrice   decimal.Decimal
	Description string
	Category    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FormatWeight formatea un peso en kg con la convención del workbook
// (siempre con parte decimal: 1 -> "1.0", 0.2 -> "0.2").
func FormatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ProductIDForWeight deriva el ID estable de producto a partir del peso
// (ej. 1.0 -> "RC_1.0KG"). Es la clave que usan ledger y transacciones.
func ProductIDForWeight(w float64) string {
	return "RC_" + FormatWeight(w) + "KG"
}

// WeightLabel devuelve la etiqueta de variante usada en formularios y hojas
// de producción (ej. "1.0kg").
func WeightLabel(w float64) string {
	return FormatWeight(w) + "kg"
}

// NewProduct construye un producto validando los invariantes de creación.
// Un peso no positivo, precio negativo o nombre vacío abortan la construcción.
func NewProduct(id, name string, weightKg float64, pouchSize, fnsku string, unitPrice decimal.Decimal) (*Product, error) {
	if weightKg <= 0 {
		return nil, domain.NewValidationError("weight_kg", "el peso debe ser positivo")
	}
	if unitPrice.IsNegative() {
		return nil, domain.NewValidationError("unit_price", "el precio no puede ser negativo")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("name", "el nombre no puede estar vacío")
	}

	now := time.Now()
	return &Product{
		ID:        id,
		Name:      name,
		WeightKg:  weightKg,
		PouchSize: pouchSize,
		FNSKU:     fnsku,
		UnitPrice: unitPrice,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DisplayName nombre para mostrar en UI y reportes.
func (p *Product) DisplayName() string {
	return p.Name + " " + FormatWeight(p.WeightKg) + "kg"
}

// UpdatePrice actualiza el precio de venta; rechaza precios negativos.
func (p *Product) UpdatePrice(newPrice decimal.Decimal) error {
	if newPrice.IsNegative() {
		return domain.NewValidationError("unit_price", "el precio no puede ser negativo")
	}
	p.UnitPrice = newPrice
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate desactiva la variante (nunca se borra del catálogo).
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// Activate reactiva la variante.
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
}

// ToMap serializa el producto a un mapa plano (salida JSON-serializable).
func (p *Product) ToMap() map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"name":         p.Name,
		"weight_kg":    p.WeightKg,
		"pouch_size":   p.PouchSize,
		"fnsku":        p.FNSKU,
		"unit_price":   p.UnitPrice.InexactFloat64(),
		"description":  p.Description,
		"category":     p.Category,
		"is_active":    p.IsActive,
		"created_date": p.CreatedAt.Format(time.RFC3339),
		"updated_date": p.UpdatedAt.Format(time.RFC3339),
	}
}

// ProductFromMap reconstruye un producto desde un mapa exportado.
// Los campos de fecha ausentes o malformados caen en time.Now().
func ProductFromMap(data map[string]any) (*Product, error) {
	weight, _ := asFloat(data["weight_kg"])
	price, _ := asDecimal(data["unit_price"])

	p, err := NewProduct(
		asString(data["product_id"]),
		asString(data["name"]),
		weight,
		asString(data["pouch_size"]),
		asString(data["fnsku"]),
		price,
	)
	if err != nil {
		return nil, err
	}

	p.Description = asString(data["description"])
	if c := asString(data["category"]); c != "" {
		p.Category = c
	}
	if active, ok := data["is_active"].(bool); ok {
		p.IsActive = active
	}
	if t, ok := asTime(data["created_date"]); ok {
		p.CreatedAt = t
	}
	if t, ok := asTime(data["updated_date"]); ok {
		p.UpdatedAt = t
	}
	return p, nil
}
