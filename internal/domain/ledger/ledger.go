// Package ledger mantiene la colección en memoria de registros de stock.
// Es el único agregado mutable del motor: las transacciones son un log
// append-only cuyos efectos aplica aquí el caller.
package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/pkg/config"
)

// ReorderRecommendation sugerencia de reposición para un producto bajo umbral.
type ReorderRecommendation struct {
	ProductID           string             `json:"product_id"`
	ProductName         string             `json:"product_name"`
	CurrentStock        int                `json:"current_stock"`
	MinStock            int                `json:"min_stock"`
	RecommendedQuantity int                `json:"recommended_quantity"`
	Urgency             string             `json:"urgency"`
	StockStatus         entity.StockStatus `json:"stock_status"`
}

// Summary estadísticas agregadas del inventario.
type Summary struct {
	TotalItems        int                        `json:"total_items"`
	TotalStockUnits   int                        `json:"total_stock_units"`
	TotalStockValue   decimal.Decimal            `json:"total_stock_value"`
	AverageStockValue decimal.Decimal            `json:"average_stock_value"`
	StatusBreakdown   map[entity.StockStatus]int `json:"status_breakdown"`
	LowStockCount     int                        `json:"low_stock_count"`
	ReorderNeeded     int                        `json:"reorder_needed"`
	ExpiredItems      int                        `json:"expired_items"`
}

// StockTakeVariance diferencia detectada entre conteo físico y sistema.
type StockTakeVariance struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	SystemCount int     `json:"system_count"`
	ActualCount int     `json:"actual_count"`
	Variance    int     `json:"variance"`
	VariancePct float64 `json:"variance_percentage"`
}

// StockTakeResult resumen de un conteo físico.
type StockTakeResult struct {
	TotalItemsCounted int                 `json:"total_items_counted"`
	VariancesFound    int                 `json:"variances_found"`
	AdjustmentsMade   int                 `json:"adjustments_made"`
	Variances         []StockTakeVariance `json:"variance_details"`
	StockTakeDate     time.Time           `json:"stock_take_date"`
}

// TurnoverMetrics rotación de inventario de un producto en un período.
type TurnoverMetrics struct {
	TurnoverRatio    float64 `json:"turnover_ratio"`
	SalesQuantity    int     `json:"sales_quantity"`
	AverageInventory float64 `json:"average_inventory"`
	DaysToSell       float64 `json:"days_to_sell"` // +Inf cuando la rotación es 0
}

// SaleQty venta mínima para el cálculo de rotación.
type SaleQty struct {
	ProductID string
	Quantity  int
}

// Rango de urgencias para ordenar recomendaciones: Emergency < Critical < High.
// El orden es contractual para la presentación.
var urgencyRank = map[string]int{
	"Emergency": 0,
	"Critical":  1,
	"High":      2,
}

// Ledger colección de registros de stock indexada por producto.
type Ledger struct {
	items map[string]*entity.InventoryItem
}

// New construye un ledger vacío.
func New() *Ledger {
	return &Ledger{items: make(map[string]*entity.InventoryItem)}
}

// NewFromConfig siembra el ledger con un registro por variante configurada,
// con stock inicial y umbrales por defecto.
func NewFromConfig(cfg config.EngineConfig) *Ledger {
	l := New()
	for _, seed := range cfg.Seeds {
		price := decimal.NewFromFloat(seed.WeightKg * cfg.BasePricePerKg)
		it, err := entity.NewInventoryItem(
			entity.ProductIDForWeight(seed.WeightKg),
			cfg.ProductName+" "+entity.FormatWeight(seed.WeightKg)+"kg",
			seed.WeightKg,
			cfg.DefaultStock,
			cfg.MinStockThreshold,
			cfg.MaxStockLimit/10,
			price,
		)
		if err != nil {
			continue
		}
		it.CriticalStock = cfg.CriticalStockThreshold
		l.items[it.ProductID] = it
	}
	return l
}

// AddItem registra un item; false si el producto ya existe.
func (l *Ledger) AddItem(it *entity.InventoryItem) bool {
	if _, exists := l.items[it.ProductID]; exists {
		return false
	}
	l.items[it.ProductID] = it
	return true
}

// GetItem busca el registro de un producto.
func (l *Ledger) GetItem(productID string) (*entity.InventoryItem, bool) {
	it, ok := l.items[productID]
	return it, ok
}

// GetItemByWeight busca el registro por peso de variante.
func (l *Ledger) GetItemByWeight(weight float64) (*entity.InventoryItem, bool) {
	for _, it := range l.items {
		if it.WeightKg == weight {
			return it, true
		}
	}
	return nil, false
}

// Len cantidad de registros.
func (l *Ledger) Len() int { return len(l.items) }

// Items devuelve los registros ordenados por peso (orden estable de reporte).
func (l *Ledger) Items() []*entity.InventoryItem {
	out := make([]*entity.InventoryItem, 0, len(l.items))
	for _, it := range l.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeightKg != out[j].WeightKg {
			return out[i].WeightKg < out[j].WeightKg
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// UpdateStock fija el stock absoluto de un producto.
func (l *Ledger) UpdateStock(productID string, newStock int) bool {
	it, ok := l.items[productID]
	if !ok {
		return false
	}
	return it.SetStockLevel(newStock, "Stock update")
}

// AdjustStock aplica un delta firmado a un producto.
func (l *Ledger) AdjustStock(productID string, delta int, reason string) bool {
	it, ok := l.items[productID]
	if !ok {
		return false
	}
	return it.AdjustStock(delta, reason)
}

// RecordSale descuenta una venta (ruta estricta).
func (l *Ledger) RecordSale(productID string, quantity int) bool {
	it, ok := l.items[productID]
	if !ok {
		return false
	}
	return it.ReduceStock(quantity)
}

// RecordPurchase suma stock entrante.
func (l *Ledger) RecordPurchase(productID string, quantity int) bool {
	it, ok := l.items[productID]
	if !ok {
		return false
	}
	return it.AddStock(quantity)
}

// ApplyTransaction aplica los efectos de una transacción de forma atómica:
// primero verifica que todos los deltas sean aplicables y solo entonces muta.
// Un delta inaplicable deja el ledger intacto y devuelve false.
func (l *Ledger) ApplyTransaction(rec entity.Record) bool {
	deltas := rec.StockDeltas()
	for _, d := range deltas {
		it, ok := l.items[d.ProductID]
		if !ok {
			return false
		}
		if it.CurrentStock+d.Quantity < 0 {
			return false
		}
	}
	for _, d := range deltas {
		l.items[d.ProductID].AdjustStock(d.Quantity, string(rec.Core().Type))
	}
	return true
}

// LowStockItems items en LOW, CRITICAL u OUT_OF_STOCK.
func (l *Ledger) LowStockItems() []*entity.InventoryItem {
	out := []*entity.InventoryItem{}
	for _, it := range l.Items() {
		switch it.Status() {
		case entity.StatusLow, entity.StatusCritical, entity.StatusOutOfStock:
			out = append(out, it)
		}
	}
	return out
}

// OverstockedItems items por encima del máximo.
func (l *Ledger) OverstockedItems() []*entity.InventoryItem {
	out := []*entity.InventoryItem{}
	for _, it := range l.Items() {
		if it.Status() == entity.StatusOverstocked {
			out = append(out, it)
		}
	}
	return out
}

// ExpiredItems items con lote vencido.
func (l *Ledger) ExpiredItems() []*entity.InventoryItem {
	out := []*entity.InventoryItem{}
	for _, it := range l.Items() {
		if it.IsExpired() {
			out = append(out, it)
		}
	}
	return out
}

// ExpiringSoonItems items que vencen dentro de los próximos días.
func (l *Ledger) ExpiringSoonItems(days int) []*entity.InventoryItem {
	out := []*entity.InventoryItem{}
	for _, it := range l.Items() {
		if d, ok := it.DaysUntilExpiry(); ok && d >= 0 && d <= days {
			out = append(out, it)
		}
	}
	return out
}

// ReorderRecommendations una entrada por item bajo umbral, ordenadas por
// urgencia: Emergency (sin stock), Critical, High. Orden estable.
func (l *Ledger) ReorderRecommendations() []ReorderRecommendation {
	recs := []ReorderRecommendation{}
	for _, it := range l.Items() {
		status := it.Status()
		var urgency string
		switch status {
		case entity.StatusOutOfStock:
			urgency = "Emergency"
		case entity.StatusCritical:
			urgency = "Critical"
		case entity.StatusLow:
			urgency = "High"
		default:
			continue
		}
		recs = append(recs, ReorderRecommendation{
			ProductID:           it.ProductID,
			ProductName:         it.ProductName,
			CurrentStock:        it.CurrentStock,
			MinStock:            it.MinStock,
			RecommendedQuantity: it.ReorderQuantity(),
			Urgency:             urgency,
			StockStatus:         status,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return rankOf(recs[i].Urgency) < rankOf(recs[j].Urgency)
	})
	return recs
}

func rankOf(urgency string) int {
	if r, ok := urgencyRank[urgency]; ok {
		return r
	}
	return len(urgencyRank) + 1
}

// GetInventorySummary estadísticas agregadas del ledger completo.
func (l *Ledger) GetInventorySummary() Summary {
	s := Summary{
		TotalItems:      len(l.items),
		TotalStockValue: decimal.Zero,
		StatusBreakdown: map[entity.StockStatus]int{
			entity.StatusOutOfStock:  0,
			entity.StatusCritical:    0,
			entity.StatusLow:         0,
			entity.StatusNormal:      0,
			entity.StatusOverstocked: 0,
		},
	}

	for _, it := range l.items {
		s.TotalStockUnits += it.CurrentStock
		s.TotalStockValue = s.TotalStockValue.Add(it.StockValue())
		s.StatusBreakdown[it.Status()]++
		if it.IsExpired() {
			s.ExpiredItems++
		}
	}

	s.LowStockCount = s.StatusBreakdown[entity.StatusLow] +
		s.StatusBreakdown[entity.StatusCritical] +
		s.StatusBreakdown[entity.StatusOutOfStock]
	s.ReorderNeeded = len(l.ReorderRecommendations())

	if s.TotalItems > 0 {
		s.AverageStockValue = s.TotalStockValue.Div(decimal.NewFromInt(int64(s.TotalItems)))
	} else {
		s.AverageStockValue = decimal.Zero
	}
	return s
}

// PerformStockTake concilia conteos físicos contra el sistema. Primero se
// registra la varianza y después se sobrescribe el stock (auditar antes de
// confirmar); productos no registrados en el conteo se ignoran.
func (l *Ledger) PerformStockTake(actualCounts map[string]int) StockTakeResult {
	result := StockTakeResult{
		TotalItemsCounted: len(actualCounts),
		Variances:         []StockTakeVariance{},
		StockTakeDate:     time.Now(),
	}

	// Orden determinista para el detalle de varianzas
	ids := make([]string, 0, len(actualCounts))
	for id := range actualCounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, productID := range ids {
		it, ok := l.items[productID]
		if !ok {
			continue
		}
		actual := actualCounts[productID]
		system := it.CurrentStock
		variance := actual - system
		if variance == 0 {
			continue
		}

		pct := 0.0
		if system > 0 {
			pct = float64(variance) / float64(system) * 100
		}
		result.Variances = append(result.Variances, StockTakeVariance{
			ProductID:   productID,
			ProductName: it.ProductName,
			SystemCount: system,
			ActualCount: actual,
			Variance:    variance,
			VariancePct: pct,
		})

		if actual >= 0 && it.SetStockLevel(actual, "Stock take adjustment") {
			result.AdjustmentsMade++
		}
	}

	result.VariancesFound = len(result.Variances)
	return result
}

// CalculateInventoryTurnover rotación por producto: ventas del período sobre
// inventario promedio (apertura+actual)/2. Rotación cero degrada a ratio 0 y
// días infinitos, nunca a error.
func (l *Ledger) CalculateInventoryTurnover(sales []SaleQty, periodDays int) map[string]TurnoverMetrics {
	out := make(map[string]TurnoverMetrics, len(l.items))
	for _, it := range l.items {
		sold := 0
		for _, s := range sales {
			if s.ProductID == it.ProductID {
				sold += s.Quantity
			}
		}

		avg := float64(it.OpeningStock+it.CurrentStock) / 2
		ratio := 0.0
		if avg > 0 {
			ratio = float64(sold) / avg
		}
		days := math.Inf(1)
		if ratio > 0 {
			days = float64(periodDays) / ratio
		}

		out[it.ProductID] = TurnoverMetrics{
			TurnoverRatio:    ratio,
			SalesQuantity:    sold,
			AverageInventory: avg,
			DaysToSell:       days,
		}
	}
	return out
}

// Export serializa el ledger completo con su resumen.
func (l *Ledger) Export() map[string]any {
	items := make([]map[string]any, 0, len(l.items))
	for _, it := range l.Items() {
		items = append(items, it.ToMap())
	}
	return map[string]any{
		"items":       items,
		"summary":     l.GetInventorySummary(),
		"export_date": time.Now().Format(time.RFC3339),
		"total_items": len(items),
	}
}

// Import reconstruye registros desde un export; una fila inválida aborta
// la importación completa.
func (l *Ledger) Import(data map[string]any) error {
	rows, _ := data["items"].([]map[string]any)
	for _, row := range rows {
		it, err := entity.ItemFromMap(row)
		if err != nil {
			return err
		}
		l.items[it.ProductID] = it
	}
	return nil
}
