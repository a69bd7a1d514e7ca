package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/inventory-engine/internal/domain"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
)

// buildItem construye un registro de stock válido para los tests.
func buildItem(t *testing.T, current, min, max int) *entity.InventoryItem {
	t.Helper()
	it, err := entity.NewInventoryItem(
		"RC_1.0KG", "Roasted Chana 1.0kg", 1.0,
		current, min, max, decimal.NewFromInt(100),
	)
	require.NoError(t, err, "el registro debe construirse con parámetros válidos")
	return it
}

func TestNewInventoryItem_Invariantes(t *testing.T) {
	cases := []struct {
		name    string
		current int
		min     int
		max     int
	}{
		{"stock actual negativo", -1, 10, 100},
		{"mínimo negativo", 50, -1, 100},
		{"máximo menor al mínimo", 50, 10, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := entity.NewInventoryItem(
				"RC_1.0KG", "Roasted Chana 1.0kg", 1.0,
				tc.current, tc.min, tc.max, decimal.NewFromInt(100),
			)
			require.Error(t, err, "la construcción debe fallar")
			assert.True(t, domain.IsValidation(err), "el error debe ser de validación")
		})
	}
}

func TestNewInventoryItem_OpeningIgualAlActual(t *testing.T) {
	it := buildItem(t, 80, 10, 200)
	assert.Equal(t, 80, it.OpeningStock, "el stock de apertura debe igualar al inicial")
}

// TestStatus_OrdenDePrioridad verifica la precedencia contractual de los
// estados derivados: sin stock > crítico > bajo > sobrestock > normal.
func TestStatus_OrdenDePrioridad(t *testing.T) {
	cases := []struct {
		name     string
		current  int
		min      int
		max      int
		expected entity.StockStatus
	}{
		{"cero es out_of_stock", 0, 10, 200, entity.StatusOutOfStock},
		{"en el umbral crítico", 5, 10, 200, entity.StatusCritical},
		{"crítico gana sobre bajo", 3, 10, 200, entity.StatusCritical},
		{"en el mínimo es low", 10, 10, 200, entity.StatusLow},
		{"debajo del mínimo es low", 9, 10, 200, entity.StatusLow},
		{"en el máximo es overstocked", 200, 10, 200, entity.StatusOverstocked},
		{"rango medio es normal", 50, 10, 200, entity.StatusNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := buildItem(t, tc.current, tc.min, tc.max)
			assert.Equal(t, tc.expected, it.Status())
		})
	}
}

// Stock 45 con mínimo 50 y máximo 200: estado bajo y reorden de 155 unidades.
func TestStatus_EscenarioStockBajo(t *testing.T) {
	it := buildItem(t, 45, 50, 200)

	assert.Equal(t, entity.StatusLow, it.Status())
	assert.Equal(t, 155, it.ReorderQuantity(), "la reposición debe llevar el stock al máximo")
}

func TestReduceStock_Bordes(t *testing.T) {
	t.Run("vender todo el stock deja cero y out_of_stock", func(t *testing.T) {
		it := buildItem(t, 30, 10, 200)
		ok := it.ReduceStock(30)

		require.True(t, ok, "vender exactamente el stock disponible es válido")
		assert.Equal(t, 0, it.CurrentStock)
		assert.Equal(t, entity.StatusOutOfStock, it.Status())
	})

	t.Run("vender una unidad de más falla sin mutar", func(t *testing.T) {
		it := buildItem(t, 30, 10, 200)
		ok := it.ReduceStock(31)

		assert.False(t, ok, "no puede venderse más de lo disponible")
		assert.Equal(t, 30, it.CurrentStock, "el stock debe quedar intacto tras el rechazo")
	})
}

func TestAdjustStock_NoPermiteNegativo(t *testing.T) {
	it := buildItem(t, 10, 10, 200)

	assert.False(t, it.AdjustStock(-11, "merma"), "un ajuste que deja negativo debe rechazarse")
	assert.Equal(t, 10, it.CurrentStock)

	assert.True(t, it.AdjustStock(-10, "merma"), "ajustar hasta cero es válido")
	assert.Equal(t, 0, it.CurrentStock)
}

func TestAddStock_RechazaNegativos(t *testing.T) {
	it := buildItem(t, 10, 10, 200)
	assert.False(t, it.AddStock(-1))
	assert.True(t, it.AddStock(0), "sumar cero es un no-op válido")
	assert.True(t, it.AddStock(25))
	assert.Equal(t, 35, it.CurrentStock)
}

func TestStockValue(t *testing.T) {
	it := buildItem(t, 45, 10, 200)
	assert.True(t, it.StockValue().Equal(decimal.NewFromInt(4500)),
		"el valor debe ser stock × precio unitario")
}

// El vencimiento se evalúa por fecha calendario: un lote que vence hoy todavía
// no está vencido, uno de ayer sí.
func TestVencimiento(t *testing.T) {
	expiresIn := func(days int) *time.Time {
		d := time.Now().AddDate(0, 0, days)
		return &d
	}

	t.Run("sin fecha de vencimiento", func(t *testing.T) {
		it := buildItem(t, 50, 10, 200)
		_, ok := it.DaysUntilExpiry()
		assert.False(t, ok, "sin fecha no hay días hasta el vencimiento")
		assert.False(t, it.IsExpired())
	})

	t.Run("lote vencido ayer", func(t *testing.T) {
		it := buildItem(t, 50, 10, 200)
		it.ExpiryDate = expiresIn(-1)
		assert.True(t, it.IsExpired())
		days, ok := it.DaysUntilExpiry()
		require.True(t, ok)
		assert.Equal(t, -1, days)
	})

	t.Run("lote que vence hoy", func(t *testing.T) {
		it := buildItem(t, 50, 10, 200)
		it.ExpiryDate = expiresIn(0)
		assert.False(t, it.IsExpired(), "el día del vencimiento el lote sigue siendo vendible")
		days, ok := it.DaysUntilExpiry()
		require.True(t, ok)
		assert.Equal(t, 0, days)
	})

	t.Run("lote que vence en cinco días", func(t *testing.T) {
		it := buildItem(t, 50, 10, 200)
		it.ExpiryDate = expiresIn(5)
		assert.False(t, it.IsExpired())
		days, ok := it.DaysUntilExpiry()
		require.True(t, ok)
		assert.Equal(t, 5, days)
	})
}

// El mapa exporta el estado de vencimiento derivado y lo deja en nil cuando
// no hay fecha.
func TestToMap_Vencimiento(t *testing.T) {
	it := buildItem(t, 50, 10, 200)
	m := it.ToMap()
	assert.Equal(t, false, m["is_expired"])
	assert.Nil(t, m["expiry_date"])
	assert.Nil(t, m["days_until_expiry"])

	vencido := time.Now().AddDate(0, 0, -3)
	it.ExpiryDate = &vencido
	m = it.ToMap()
	assert.Equal(t, true, m["is_expired"])
	assert.Equal(t, vencido.Format("2006-01-02"), m["expiry_date"])
	assert.Equal(t, -3, m["days_until_expiry"])
}

// TestToMap_ItemFromMap_RoundTrip verifica que exportar y reimportar conserva
// los campos persistentes y descarta los derivados.
func TestToMap_ItemFromMap_RoundTrip(t *testing.T) {
	original := buildItem(t, 45, 50, 200)
	original.BatchNumber = "BATCH-20260815-001"
	original.Location = "Depósito Norte"

	m := original.ToMap()
	assert.Equal(t, "low", m["stock_status"], "el mapa debe incluir el estado derivado")
	assert.Equal(t, 155, m["reorder_quantity"])

	restored, err := entity.ItemFromMap(m)
	require.NoError(t, err)

	assert.Equal(t, original.ProductID, restored.ProductID)
	assert.Equal(t, original.ProductName, restored.ProductName)
	assert.Equal(t, original.CurrentStock, restored.CurrentStock)
	assert.Equal(t, original.OpeningStock, restored.OpeningStock)
	assert.Equal(t, original.MinStock, restored.MinStock)
	assert.Equal(t, original.MaxStock, restored.MaxStock)
	assert.Equal(t, original.BatchNumber, restored.BatchNumber)
	assert.Equal(t, original.Location, restored.Location)
	assert.True(t, original.UnitPrice.Equal(restored.UnitPrice))
	assert.Equal(t, original.Status(), restored.Status(), "el estado derivado debe recalcularse igual")
}

func TestItemFromMap_RevalidaInvariantes(t *testing.T) {
	m := buildItem(t, 45, 50, 200).ToMap()
	m["current_stock"] = -5

	_, err := entity.ItemFromMap(m)
	require.Error(t, err, "una fila exportada corrupta no debe reconstruirse")
	assert.True(t, domain.IsValidation(err))
}
