// Package calculator métricas puras sobre filas de snapshot y registros de
// venta. No muta entradas ni toca persistencia: recibe datos, devuelve DTOs.
package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-engine/internal/application/dto"
	"github.com/tu-usuario/inventory-engine/internal/domain"
	"github.com/tu-usuario/inventory-engine/internal/domain/repository"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

// Métodos de valuación soportados.
const (
	ValuationCurrent         = "current"
	ValuationFIFO            = "fifo"
	ValuationWeightedAverage = "weighted_average"
)

// Niveles de servicio soportados por el cálculo de stock de seguridad.
// Cualquier otro nivel cae al z-score de 95%.
var zScores = map[float64]float64{
	0.90: 1.28,
	0.95: 1.65,
	0.99: 2.33,
}

// SalesRecord registro mínimo de venta que consumen las métricas de demanda.
type SalesRecord struct {
	Product     string
	Quantity    int
	TotalAmount decimal.Decimal
	Date        time.Time
}

// Calculator calcula métricas de stock con los umbrales configurados.
type Calculator struct {
	minStock      int
	criticalStock int
	leadTimeDays  int
	log           *logger.Logger
}

// New crea un calculador con los umbrales de la configuración del motor.
func New(cfg config.EngineConfig, log *logger.Logger) *Calculator {
	return &Calculator{
		minStock:      cfg.MinStockThreshold,
		criticalStock: cfg.CriticalStockThreshold,
		leadTimeDays:  cfg.LeadTimeDays,
		log:           log,
	}
}

// rowName nombre legible de la fila para claves de resultado.
func rowName(r repository.StockRow) string {
	if r.ProductName != "" {
		return r.ProductName
	}
	if r.ProductID != "" {
		return r.ProductID
	}
	return "Unknown"
}

// StockSummary resume las filas de un snapshot tolerando columnas faltantes:
// cada métrica se acumula solo sobre las filas que traen el dato y queda en
// cero si ninguna lo trae.
func (c *Calculator) StockSummary(rows []repository.StockRow) dto.CalculatedStockSummary {
	summary := dto.CalculatedStockSummary{
		TotalProducts:          len(rows),
		TotalStockValue:        decimal.Zero,
		ReorderRecommendations: []dto.ReorderAdvice{},
		ProductBreakdown:       []dto.ProductShare{},
	}

	withStock := 0
	for _, row := range rows {
		if row.CurrentStock == nil {
			continue
		}
		current := *row.CurrentStock
		withStock++
		summary.TotalStockUnits += current

		if current == 0 {
			summary.OutOfStockItems++
		}
		if current < c.criticalStock {
			summary.CriticalStockItems++
		}
		if row.MinStock != nil && current < *row.MinStock {
			summary.LowStockItems++
		}
		if row.MaxStock != nil && current > *row.MaxStock {
			summary.OverstockedItems++
		}

		if advice, ok := c.reorderAdvice(row); ok {
			summary.ReorderRecommendations = append(summary.ReorderRecommendations, advice)
		}
	}
	if withStock > 0 {
		summary.AverageStockLevel = float64(summary.TotalStockUnits) / float64(withStock)
	}

	for _, row := range rows {
		if value, ok := row.Value(); ok {
			summary.TotalStockValue = summary.TotalStockValue.Add(value)
		}
	}
	for _, row := range rows {
		value, ok := row.Value()
		if !ok || row.CurrentStock == nil {
			continue
		}
		share := dto.ProductShare{
			Product:      rowName(row),
			CurrentStock: *row.CurrentStock,
			StockValue:   value,
		}
		if summary.TotalStockValue.IsPositive() {
			share.PctOfTotal, _ = value.
				Div(summary.TotalStockValue).
				Mul(decimal.NewFromInt(100)).
				Round(2).Float64()
		}
		summary.ProductBreakdown = append(summary.ProductBreakdown, share)
	}
	return summary
}

// reorderAdvice recomendación para una fila. Sin recomendación cuando el
// stock supera 1.5 veces el mínimo.
func (c *Calculator) reorderAdvice(row repository.StockRow) (dto.ReorderAdvice, bool) {
	if row.CurrentStock == nil {
		return dto.ReorderAdvice{}, false
	}
	current := *row.CurrentStock
	minStock := c.minStock
	if row.MinStock != nil {
		minStock = *row.MinStock
	}

	advice := dto.ReorderAdvice{
		Product:      rowName(row),
		CurrentStock: current,
		MinStock:     minStock,
	}
	switch {
	case current <= c.criticalStock:
		advice.Urgency = "Critical"
		advice.Action = "Immediate reorder required"
	case current <= minStock:
		advice.Urgency = "High"
		advice.Action = "Reorder soon"
	case float64(current) <= float64(minStock)*1.5:
		advice.Urgency = "Medium"
		advice.Action = "Plan reorder"
	default:
		return dto.ReorderAdvice{}, false
	}
	advice.RecommendedQuantity = minStock * 2 - current
	if advice.RecommendedQuantity < minStock {
		advice.RecommendedQuantity = minStock
	}
	return advice, true
}

// Valuation valúa el inventario según el método pedido. Sin historial de
// lotes, fifo se aproxima con el costo unitario actual y comparte resultado
// con weighted_average sobre un único costo por producto.
func (c *Calculator) Valuation(rows []repository.StockRow, method string) (dto.StockValuation, error) {
	switch method {
	case ValuationCurrent, ValuationFIFO, ValuationWeightedAverage:
	default:
		return dto.StockValuation{}, domain.ErrUnknownMethod
	}

	total := decimal.Zero
	units := 0
	for _, row := range rows {
		if value, ok := row.Value(); ok {
			total = total.Add(value)
		}
		if row.CurrentStock != nil {
			units += *row.CurrentStock
		}
	}
	valuation := dto.StockValuation{
		Method:              method,
		TotalValue:          total.Round(2),
		AverageValuePerUnit: decimal.Zero,
	}
	if units > 0 {
		valuation.AverageValuePerUnit = total.
			Div(decimal.NewFromInt(int64(units))).Round(2)
	}
	return valuation, nil
}

// salesSpanDays días cubiertos por los registros de venta, con piso en 1.
// Sin fechas válidas asume un período de 30 días.
func salesSpanDays(sales []SalesRecord) float64 {
	var minDate, maxDate time.Time
	for _, s := range sales {
		if s.Date.IsZero() {
			continue
		}
		if minDate.IsZero() || s.Date.Before(minDate) {
			minDate = s.Date
		}
		if maxDate.IsZero() || s.Date.After(maxDate) {
			maxDate = s.Date
		}
	}
	if minDate.IsZero() {
		return 30
	}
	days := maxDate.Sub(minDate).Hours() / 24
	if days < 1 {
		return 1
	}
	return days
}

// ReorderPoints calcula punto y cantidad de reorden por producto a partir de
// la velocidad de venta observada.
func (c *Calculator) ReorderPoints(rows []repository.StockRow, sales []SalesRecord) map[string]dto.ReorderPoint {
	points := make(map[string]dto.ReorderPoint, len(rows))
	for _, row := range rows {
		if row.CurrentStock == nil {
			continue
		}
		name := rowName(row)
		current := *row.CurrentStock
		minStock := c.minStock
		if row.MinStock != nil {
			minStock = *row.MinStock
		}

		var productSales []SalesRecord
		sold := 0
		for _, s := range sales {
			if s.Product == name {
				productSales = append(productSales, s)
				sold += s.Quantity
			}
		}

		point := dto.ReorderPoint{
			CurrentStock:            current,
			MinStock:                minStock,
			RecommendedReorderPoint: float64(minStock) * 1.5,
			Urgency:                 "low",
		}
		if sold > 0 {
			velocity := float64(sold) / salesSpanDays(productSales)
			point.RecommendedOrderQuantity = math.Round(velocity*30*100) / 100
			point.DaysOfStockRemaining = math.Round(float64(current)/velocity*100) / 100
			switch {
			case current <= c.criticalStock:
				point.Urgency = "critical"
			case current <= minStock:
				point.Urgency = "high"
			case point.DaysOfStockRemaining <= float64(c.leadTimeDays):
				point.Urgency = "medium"
			}
		}
		points[name] = point
	}
	return points
}

// StockTurnover rotación por producto en un período. Con stock promedio cero
// la rotación queda en cero y los días para vender en infinito.
func (c *Calculator) StockTurnover(rows []repository.StockRow, sales []SalesRecord, periodDays int) map[string]dto.TurnoverEntry {
	if periodDays <= 0 {
		periodDays = 30
	}
	entries := make(map[string]dto.TurnoverEntry, len(rows))
	for _, row := range rows {
		if row.CurrentStock == nil {
			continue
		}
		name := rowName(row)
		current := *row.CurrentStock

		sold := 0
		for _, s := range sales {
			if s.Product == name {
				sold += s.Quantity
			}
		}

		entry := dto.TurnoverEntry{
			SalesInPeriod: sold,
			AverageStock:  current,
			DaysToSell:    math.Inf(1),
		}
		if current > 0 {
			entry.TurnoverRatio = math.Round(float64(sold)/float64(current)*100) / 100
		}
		if entry.TurnoverRatio > 0 {
			entry.DaysToSell = math.Round(float64(periodDays)/entry.TurnoverRatio*100) / 100
		}
		entries[name] = entry
	}
	return entries
}

// ABCAnalysis clasificación Pareto por contribución a ingresos: A hasta el
// 80% acumulado, B hasta el 95%, C el resto. Los cortes se comparan en
// decimal para que un acumulado exacto de 80 o 95 caiga en la clase inferior.
func (c *Calculator) ABCAnalysis(rows []repository.StockRow, sales []SalesRecord) map[string]dto.ABCEntry {
	revenue := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		revenue[rowName(row)] = decimal.Zero
	}
	for _, s := range sales {
		if _, ok := revenue[s.Product]; !ok {
			revenue[s.Product] = decimal.Zero
		}
		revenue[s.Product] = revenue[s.Product].Add(s.TotalAmount)
	}

	type ranked struct {
		product string
		revenue decimal.Decimal
	}
	order := make([]ranked, 0, len(revenue))
	total := decimal.Zero
	for product, rev := range revenue {
		order = append(order, ranked{product, rev})
		total = total.Add(rev)
	}
	sort.Slice(order, func(i, j int) bool {
		if !order[i].revenue.Equal(order[j].revenue) {
			return order[i].revenue.GreaterThan(order[j].revenue)
		}
		return order[i].product < order[j].product
	})

	hundred := decimal.NewFromInt(100)
	cutA := decimal.NewFromInt(80)
	cutB := decimal.NewFromInt(95)

	entries := make(map[string]dto.ABCEntry, len(order))
	cumulative := decimal.Zero
	for i, item := range order {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = item.revenue.Div(total).Mul(hundred)
		}
		cumulative = cumulative.Add(pct)

		category := "C"
		switch {
		case cumulative.LessThanOrEqual(cutA):
			category = "A"
		case cumulative.LessThanOrEqual(cutB):
			category = "B"
		}

		entry := dto.ABCEntry{
			Category: category,
			Revenue:  item.revenue.Round(2),
			Rank:     i + 1,
		}
		entry.RevenuePct, _ = pct.Round(2).Float64()
		entry.CumulativePct, _ = cumulative.Round(2).Float64()
		entries[item.product] = entry
	}
	return entries
}

// SafetyStock stock de seguridad para un producto:
// z × √(plazo de reposición) × desvío estándar de la demanda diaria.
// Con menos de dos días de demanda observada devuelve el umbral mínimo.
// El resultado nunca queda por debajo de ese umbral.
func (c *Calculator) SafetyStock(product string, sales []SalesRecord, serviceLevel float64) float64 {
	z, ok := zScores[serviceLevel]
	if !ok {
		z = zScores[0.95]
	}

	daily := make(map[time.Time]int)
	for _, s := range sales {
		if s.Product != product || s.Date.IsZero() {
			continue
		}
		day := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
		daily[day] += s.Quantity
	}
	if len(daily) < 2 {
		return float64(c.minStock)
	}

	mean := 0.0
	for _, qty := range daily {
		mean += float64(qty)
	}
	mean /= float64(len(daily))

	variance := 0.0
	for _, qty := range daily {
		diff := float64(qty) - mean
		variance += diff * diff
	}
	variance /= float64(len(daily) - 1)
	stdDev := math.Sqrt(variance)

	safety := z * math.Sqrt(float64(c.leadTimeDays)) * stdDev
	safety = math.Round(safety*100) / 100
	if safety < float64(c.minStock) {
		return float64(c.minStock)
	}
	return safety
}
