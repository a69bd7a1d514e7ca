package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain"
)

// StockStatus clasificación derivada del nivel de stock frente a sus umbrales.
type StockStatus string

const (
	StatusOutOfStock  StockStatus = "out_of_stock"
	StatusCritical    StockStatus = "critical"
	StatusLow         StockStatus = "low"
	StatusNormal      StockStatus = "normal"
	StatusOverstocked StockStatus = "overstocked"
)

// InventoryItem registro mutable de stock por producto. Las mutaciones pasan
// exclusivamente por AdjustStock / SetStockLevel / ReduceStock / AddStock;
// los campos derivados (estado, valor, reorden) se recalculan en cada lectura.
type InventoryItem struct {
	ProductID     string
	ProductName   string
	WeightKg      float64
	CurrentStock  int
	OpeningStock  int
	MinStock      int
	MaxStock      int
	CriticalStock int // umbral CRITICAL, sembrado desde configuración
	UnitPrice     decimal.Decimal
	Location      string
	BatchNumber   string
	ExpiryDate    *time.Time
	LastUpdated   time.Time
}

// NewInventoryItem construye un registro de stock validando los invariantes:
// stock y mínimos no negativos, máximo >= mínimo. Una violación aborta la
// construcción con ValidationError.
func NewInventoryItem(productID, productName string, weightKg float64, currentStock, minStock, maxStock int, unitPrice decimal.Decimal) (*InventoryItem, error) {
	if currentStock < 0 {
		return nil, domain.NewValidationError("current_stock", "el stock actual no puede ser negativo")
	}
	if minStock < 0 {
		return nil, domain.NewValidationError("min_stock", "el stock mínimo no puede ser negativo")
	}
	if maxStock < minStock {
		return nil, domain.NewValidationError("max_stock", "el stock máximo no puede ser menor al mínimo")
	}

	return &InventoryItem{
		ProductID:     productID,
		ProductName:   productName,
		WeightKg:      weightKg,
		CurrentStock:  currentStock,
		OpeningStock:  currentStock,
		MinStock:      minStock,
		MaxStock:      maxStock,
		CriticalStock: 5,
		UnitPrice:     unitPrice,
		Location:      "Main Warehouse",
		LastUpdated:   time.Now(),
	}, nil
}

// Status deriva la clasificación del stock. El orden de evaluación es
// contractual: OUT_OF_STOCK > CRITICAL > LOW > OVERSTOCKED > NORMAL.
func (it *InventoryItem) Status() StockStatus {
	switch {
	case it.CurrentStock == 0:
		return StatusOutOfStock
	case it.CurrentStock <= it.CriticalStock:
		return StatusCritical
	case it.CurrentStock <= it.MinStock:
		return StatusLow
	case it.CurrentStock >= it.MaxStock:
		return StatusOverstocked
	default:
		return StatusNormal
	}
}

// StockValue valor total del stock a precio unitario actual.
func (it *InventoryItem) StockValue() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.CurrentStock)))
}

// ReorderQuantity cantidad sugerida para volver al máximo (nunca negativa).
func (it *InventoryItem) ReorderQuantity() int {
	if q := it.MaxStock - it.CurrentStock; q > 0 {
		return q
	}
	return 0
}

// DaysUntilExpiry días hasta el vencimiento; ok=false si no hay fecha.
func (it *InventoryItem) DaysUntilExpiry() (int, bool) {
	if it.ExpiryDate == nil {
		return 0, false
	}
	days := int(truncateDay(*it.ExpiryDate).Sub(truncateDay(time.Now())).Hours() / 24)
	return days, true
}

// IsExpired indica si el lote ya venció.
func (it *InventoryItem) IsExpired() bool {
	if it.ExpiryDate == nil {
		return false
	}
	return truncateDay(*it.ExpiryDate).Before(truncateDay(time.Now()))
}

// AdjustStock aplica un delta con signo. Falla (sin mutar) solo si el stock
// resultante quedaría negativo. Mantener separado de ReduceStock: este es el
// ajuste genérico, aquél es la ruta estricta de venta.
func (it *InventoryItem) AdjustStock(delta int, reason string) bool {
	newStock := it.CurrentStock + delta
	if newStock < 0 {
		return false
	}
	it.CurrentStock = newStock
	it.LastUpdated = time.Now()
	return true
}

// SetStockLevel fija el stock en un nivel absoluto; falla si es negativo.
func (it *InventoryItem) SetStockLevel(newLevel int, reason string) bool {
	if newLevel < 0 {
		return false
	}
	it.CurrentStock = newLevel
	it.LastUpdated = time.Now()
	return true
}

// ReduceStock descuenta stock por una venta. Falla estrictamente si la
// cantidad supera el stock actual.
func (it *InventoryItem) ReduceStock(quantity int) bool {
	if quantity > it.CurrentStock {
		return false
	}
	it.CurrentStock -= quantity
	it.LastUpdated = time.Now()
	return true
}

// AddStock suma stock por compra o producción; siempre exitoso para qty >= 0.
func (it *InventoryItem) AddStock(quantity int) bool {
	if quantity < 0 {
		return false
	}
	it.CurrentStock += quantity
	it.LastUpdated = time.Now()
	return true
}

// ToMap serializa el registro incluyendo los campos derivados (los derivados
// se descartan al reimportar con ItemFromMap).
func (it *InventoryItem) ToMap() map[string]any {
	m := map[string]any{
		"product_id":       it.ProductID,
		"product_name":     it.ProductName,
		"weight_kg":        it.WeightKg,
		"current_stock":    it.CurrentStock,
		"opening_stock":    it.OpeningStock,
		"min_stock":        it.MinStock,
		"max_stock":        it.MaxStock,
		"unit_price":       it.UnitPrice.InexactFloat64(),
		"stock_value":      it.StockValue().InexactFloat64(),
		"stock_status":     string(it.Status()),
		"location":         it.Location,
		"batch_number":     it.BatchNumber,
		"is_expired":       it.IsExpired(),
		"reorder_quantity": it.ReorderQuantity(),
		"last_updated":     it.LastUpdated.Format(time.RFC3339),
	}
	if it.ExpiryDate != nil {
		m["expiry_date"] = it.ExpiryDate.Format("2006-01-02")
		if d, ok := it.DaysUntilExpiry(); ok {
			m["days_until_expiry"] = d
		}
	} else {
		m["expiry_date"] = nil
		m["days_until_expiry"] = nil
	}
	return m
}

// ItemFromMap reconstruye un registro desde un mapa exportado; ignora los
// campos calculados y revalida los invariantes de construcción.
func ItemFromMap(data map[string]any) (*InventoryItem, error) {
	weight, _ := asFloat(data["weight_kg"])
	current, _ := asInt(data["current_stock"])
	minStock, _ := asInt(data["min_stock"])
	maxStock, _ := asInt(data["max_stock"])
	price, _ := asDecimal(data["unit_price"])

	it, err := NewInventoryItem(
		asString(data["product_id"]),
		asString(data["product_name"]),
		weight,
		current,
		minStock,
		maxStock,
		price,
	)
	if err != nil {
		return nil, err
	}

	if opening, ok := asInt(data["opening_stock"]); ok {
		it.OpeningStock = opening
	}
	if loc := asString(data["location"]); loc != "" {
		it.Location = loc
	}
	it.BatchNumber = asString(data["batch_number"])
	if t, ok := asTime(data["expiry_date"]); ok {
		it.ExpiryDate = &t
	}
	if t, ok := asTime(data["last_updated"]); ok {
		it.LastUpdated = t
	}
	return it, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
