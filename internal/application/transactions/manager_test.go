package transactions_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/inventory-engine/internal/application/transactions"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

func newManager(t *testing.T) *transactions.Manager {
	t.Helper()
	return transactions.NewManager(logger.Nop())
}

func saleOn(t *testing.T, date time.Time, qty int) *entity.SaleTransaction {
	t.Helper()
	sale, err := entity.NewSale(entity.SaleInput{
		Date:      date,
		ProductID: "RC_1.0KG",
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return sale
}

func purchaseOn(t *testing.T, date time.Time, kg int64) *entity.PurchaseTransaction {
	t.Helper()
	purchase, err := entity.NewPurchase(entity.PurchaseInput{
		Date:         date,
		SupplierName: "Agro Norte SRL",
		QuantityKg:   decimal.NewFromInt(kg),
		RatePerKg:    decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	return purchase
}

func daysAgo(n int) time.Time { return time.Now().AddDate(0, 0, -n) }

func TestAdd_RechazaIDDuplicado(t *testing.T) {
	m := newManager(t)
	sale := saleOn(t, daysAgo(1), 5)

	require.True(t, m.Add(sale))
	assert.False(t, m.Add(sale), "el mismo ID no puede registrarse dos veces")
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(sale.ID)
	require.True(t, ok)
	assert.Equal(t, sale.ID, got.Core().ID)
}

func TestMarcasDeEstado(t *testing.T) {
	m := newManager(t)
	sale := saleOn(t, daysAgo(1), 5)
	require.True(t, m.Add(sale))

	assert.False(t, m.MarkCompleted("no-existe"))
	assert.True(t, m.MarkCompleted(sale.ID))
	assert.Equal(t, entity.TxCompleted, sale.Status)

	assert.False(t, m.MarkCancelled(sale.ID), "lo completado no se cancela")
}

func TestByType_ByStatus(t *testing.T) {
	m := newManager(t)
	sale := saleOn(t, daysAgo(2), 5)
	purchase := purchaseOn(t, daysAgo(2), 100)
	require.True(t, m.Add(sale))
	require.True(t, m.Add(purchase))
	require.True(t, m.MarkCompleted(sale.ID))

	ventas := m.ByType(entity.TxTypeSale)
	require.Len(t, ventas, 1)
	assert.Equal(t, sale.ID, ventas[0].Core().ID)

	pendientes := m.ByStatus(entity.TxPending)
	require.Len(t, pendientes, 1)
	assert.Equal(t, purchase.ID, pendientes[0].Core().ID)
}

// Ambos extremos del rango son inclusivos y el resultado sale ordenado por
// fecha contable.
func TestByDateRange_ExtremosInclusivos(t *testing.T) {
	m := newManager(t)
	dentroInicio := saleOn(t, daysAgo(10), 1)
	dentroMedio := saleOn(t, daysAgo(5), 2)
	dentroFin := saleOn(t, daysAgo(2), 3)
	fuera := saleOn(t, daysAgo(20), 4)
	for _, rec := range []entity.Record{dentroFin, dentroInicio, fuera, dentroMedio} {
		require.True(t, m.Add(rec))
	}

	got := m.ByDateRange(daysAgo(10), daysAgo(2))
	require.Len(t, got, 3)
	assert.Equal(t, dentroInicio.ID, got[0].Core().ID)
	assert.Equal(t, dentroMedio.ID, got[1].Core().ID)
	assert.Equal(t, dentroFin.ID, got[2].Core().ID)
}

// El resumen solo cuenta ventas COMPLETED dentro del rango.
func TestSalesSummary(t *testing.T) {
	m := newManager(t)
	completada := saleOn(t, daysAgo(3), 5)   // 500
	otraCompleta := saleOn(t, daysAgo(2), 3) // 300
	pendiente := saleOn(t, daysAgo(2), 7)
	fueraDeRango := saleOn(t, daysAgo(30), 9)
	for _, rec := range []entity.Record{completada, otraCompleta, pendiente, fueraDeRango} {
		require.True(t, m.Add(rec))
	}
	require.True(t, m.MarkCompleted(completada.ID))
	require.True(t, m.MarkCompleted(otraCompleta.ID))
	require.True(t, m.MarkCompleted(fueraDeRango.ID))

	s := m.SalesSummary(daysAgo(7), daysAgo(0))
	assert.Equal(t, 2, s.TotalSales)
	assert.Equal(t, 8, s.TotalQuantity)
	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(800)))
	assert.True(t, s.AverageOrderValue.Equal(decimal.NewFromInt(400)))
}

// Cuando el total informado difiere del derivado dentro de la tolerancia, el
// resumen suma el total registrado en la venta, no el recalculado.
func TestSalesSummary_SumaElTotalRegistrado(t *testing.T) {
	m := newManager(t)
	sale, err := entity.NewSale(entity.SaleInput{
		Date:        daysAgo(1),
		ProductID:   "RC_1.0KG",
		Quantity:    5,
		UnitPrice:   decimal.NewFromInt(100),
		TotalAmount: decimal.RequireFromString("500.01"),
	})
	require.NoError(t, err)
	require.True(t, m.Add(sale))
	require.True(t, m.MarkCompleted(sale.ID))

	s := m.SalesSummary(daysAgo(7), daysAgo(0))
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("500.01")),
		"ingresos %s, se esperaba el total registrado", s.TotalRevenue)
}

func TestSalesSummary_SinVentas(t *testing.T) {
	s := newManager(t).SalesSummary(daysAgo(7), daysAgo(0))
	assert.Zero(t, s.TotalSales)
	assert.True(t, s.TotalRevenue.IsZero())
	assert.True(t, s.AverageOrderValue.IsZero(), "el promedio degrada a cero, nunca divide por cero")
}

func TestPurchaseSummary(t *testing.T) {
	m := newManager(t)
	p1 := purchaseOn(t, daysAgo(4), 100) // 4000
	p2 := purchaseOn(t, daysAgo(3), 50)  // 2000
	pendiente := purchaseOn(t, daysAgo(3), 999)
	for _, rec := range []entity.Record{p1, p2, pendiente} {
		require.True(t, m.Add(rec))
	}
	require.True(t, m.MarkCompleted(p1.ID))
	require.True(t, m.MarkCompleted(p2.ID))

	s := m.PurchaseSummary(daysAgo(7), daysAgo(0))
	assert.Equal(t, 2, s.TotalPurchases)
	assert.True(t, s.TotalQuantityKg.Equal(decimal.NewFromInt(150)))
	assert.True(t, s.TotalAmount.Equal(decimal.NewFromInt(6000)))
	assert.True(t, s.AverageRatePerKg.Equal(decimal.NewFromInt(40)))
}
