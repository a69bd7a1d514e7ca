// Package transactions administra el registro en memoria de transacciones y
// calcula resúmenes por período sobre las operaciones completadas.
package transactions

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-engine/internal/application/dto"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

// Manager guarda transacciones indexadas por ID y en orden de inserción.
// No aplica efectos de stock: eso es responsabilidad del ledger, que consume
// los StockDeltas de cada registro.
type Manager struct {
	byID  map[string]entity.Record
	order []string
	log   *logger.Logger
}

// NewManager crea un registro vacío.
func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		byID: make(map[string]entity.Record),
		log:  log,
	}
}

// Add incorpora una transacción. Devuelve false si el ID ya existe,
// dejando el registro original intacto.
func (m *Manager) Add(rec entity.Record) bool {
	core := rec.Core()
	if _, ok := m.byID[core.ID]; ok {
		m.log.Warn().
			Str("transaction_id", core.ID).
			Msg("transacción duplicada rechazada")
		return false
	}
	m.byID[core.ID] = rec
	m.order = append(m.order, core.ID)
	m.log.Debug().
		Str("transaction_id", core.ID).
		Str("type", string(core.Type)).
		Msg("transacción registrada")
	return true
}

// Get busca una transacción por ID.
func (m *Manager) Get(id string) (entity.Record, bool) {
	rec, ok := m.byID[id]
	return rec, ok
}

// Len cantidad de transacciones registradas.
func (m *Manager) Len() int { return len(m.byID) }

// All devuelve las transacciones en orden de inserción.
func (m *Manager) All() []entity.Record {
	out := make([]entity.Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}

// MarkCompleted marca la transacción como COMPLETED. Devuelve false si el ID
// no existe o la transición no está permitida.
func (m *Manager) MarkCompleted(id string) bool {
	rec, ok := m.byID[id]
	if !ok {
		return false
	}
	return rec.Core().MarkCompleted()
}

// MarkCancelled marca la transacción como CANCELLED. Devuelve false si el ID
// no existe o la transacción ya estaba completada.
func (m *Manager) MarkCancelled(id string) bool {
	rec, ok := m.byID[id]
	if !ok {
		return false
	}
	return rec.Core().MarkCancelled()
}

// ByType filtra por tipo preservando el orden de inserción.
func (m *Manager) ByType(t entity.TransactionType) []entity.Record {
	var out []entity.Record
	for _, id := range m.order {
		if rec := m.byID[id]; rec.Core().Type == t {
			out = append(out, rec)
		}
	}
	return out
}

// ByStatus filtra por estado preservando el orden de inserción.
func (m *Manager) ByStatus(s entity.TransactionStatus) []entity.Record {
	var out []entity.Record
	for _, id := range m.order {
		if rec := m.byID[id]; rec.Core().Status == s {
			out = append(out, rec)
		}
	}
	return out
}

// ByDateRange filtra por fecha con ambos extremos inclusivos, ordenado por
// fecha ascendente y, a igual fecha, por orden de inserción.
func (m *Manager) ByDateRange(start, end time.Time) []entity.Record {
	start = truncateDay(start)
	end = truncateDay(end)
	var out []entity.Record
	for _, id := range m.order {
		d := m.byID[id].Core().Date
		if !d.Before(start) && !d.After(end) {
			out = append(out, m.byID[id])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Core().Date.Before(out[j].Core().Date)
	})
	return out
}

// SalesSummary agrega las ventas COMPLETED dentro del rango inclusivo. Los
// ingresos suman el total registrado de cada venta, no el derivado de la
// fórmula. El promedio por orden es cero cuando no hay ventas en el período.
func (m *Manager) SalesSummary(start, end time.Time) dto.SalesSummary {
	summary := dto.SalesSummary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		PeriodStart:       truncateDay(start),
		PeriodEnd:         truncateDay(end),
	}
	for _, rec := range m.ByDateRange(start, end) {
		sale, ok := rec.(*entity.SaleTransaction)
		if !ok || sale.Core().Status != entity.TxCompleted {
			continue
		}
		summary.TotalSales++
		summary.TotalQuantity += sale.Quantity
		summary.TotalRevenue = summary.TotalRevenue.Add(sale.TotalAmount)
	}
	if summary.TotalSales > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(summary.TotalSales))).Round(2)
	}
	return summary
}

// PurchaseSummary agrega las compras COMPLETED dentro del rango inclusivo.
// La tarifa promedio por kg es cero cuando no se compraron kilos.
func (m *Manager) PurchaseSummary(start, end time.Time) dto.PurchaseSummary {
	summary := dto.PurchaseSummary{
		TotalAmount:      decimal.Zero,
		TotalQuantityKg:  decimal.Zero,
		AverageRatePerKg: decimal.Zero,
		PeriodStart:      truncateDay(start),
		PeriodEnd:        truncateDay(end),
	}
	for _, rec := range m.ByDateRange(start, end) {
		purchase, ok := rec.(*entity.PurchaseTransaction)
		if !ok || purchase.Core().Status != entity.TxCompleted {
			continue
		}
		summary.TotalPurchases++
		summary.TotalQuantityKg = summary.TotalQuantityKg.Add(purchase.QuantityKg)
		summary.TotalAmount = summary.TotalAmount.Add(purchase.TotalAmount)
	}
	if summary.TotalQuantityKg.IsPositive() {
		summary.AverageRatePerKg = summary.TotalAmount.
			Div(summary.TotalQuantityKg).Round(2)
	}
	return summary
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
