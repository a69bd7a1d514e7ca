package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/inventory-engine/internal/application/validation"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	return validation.New(config.Default(), logger.Nop())
}

func validSale() map[string]any {
	return map[string]any{
		"date":       "2026-08-15",
		"product":    "1.0kg",
		"quantity":   5,
		"unit_price": 100.0,
		"channel":    "Amazon FBA",
		"order_id":   "AMZ-40912",
	}
}

func TestValidateSaleData_Valida(t *testing.T) {
	ok, errs := newValidator(t).ValidateSaleData(validSale())
	assert.True(t, ok, "errores inesperados: %v", errs)
	assert.Empty(t, errs)
}

func TestValidateSaleData_AcumulaErrores(t *testing.T) {
	v := newValidator(t)
	data := validSale()
	data["product"] = "3.0kg" // variante no configurada
	data["quantity"] = 0

	ok, errs := v.ValidateSaleData(data)
	assert.False(t, ok)
	assert.Len(t, errs, 2, "todos los errores deben reportarse juntos")
}

func TestValidateSaleData_CamposRequeridos(t *testing.T) {
	ok, errs := newValidator(t).ValidateSaleData(map[string]any{})
	assert.False(t, ok)
	assert.Len(t, errs, 4, "date, product, quantity y unit_price son obligatorios")
}

func TestValidateSaleData_FechaFutura(t *testing.T) {
	data := validSale()
	data["date"] = time.Now().AddDate(0, 0, 3)

	ok, errs := newValidator(t).ValidateSaleData(data)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "futura")
}

// La fecha de hoy nunca es futura, sin importar el huso horario del proceso:
// el límite se compara por fecha calendario, no por instante.
func TestValidateSaleData_FechaDeHoyEsValida(t *testing.T) {
	v := newValidator(t)

	t.Run("como string de fecha local", func(t *testing.T) {
		data := validSale()
		data["date"] = time.Now().Format("2006-01-02")
		ok, errs := v.ValidateSaleData(data)
		assert.True(t, ok, "errores inesperados: %v", errs)
	})

	t.Run("como time.Time con hora", func(t *testing.T) {
		data := validSale()
		data["date"] = time.Now()
		ok, errs := v.ValidateSaleData(data)
		assert.True(t, ok, "errores inesperados: %v", errs)
	})

	t.Run("mañana sigue siendo futura", func(t *testing.T) {
		data := validSale()
		data["date"] = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		ok, errs := v.ValidateSaleData(data)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "futura")
	})
}

func TestValidateSaleData_RangosNumericos(t *testing.T) {
	v := newValidator(t)

	cases := []struct {
		name  string
		field string
		value any
	}{
		{"cantidad sobre el tope", "quantity", 10001},
		{"cantidad no entera", "quantity", 2.5},
		{"precio cero", "unit_price", 0},
		{"precio sobre el tope", "unit_price", 10000.01},
		{"cantidad no numérica", "quantity", "cinco"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := validSale()
			data[tc.field] = tc.value
			ok, errs := v.ValidateSaleData(data)
			assert.False(t, ok)
			assert.NotEmpty(t, errs)
		})
	}
}

// El total informado debe cuadrar con cantidad×precio dentro de 0.01.
func TestValidateSaleData_ConsistenciaDelTotal(t *testing.T) {
	v := newValidator(t)

	data := validSale()
	data["total_amount"] = 500.0
	ok, _ := v.ValidateSaleData(data)
	assert.True(t, ok)

	data["total_amount"] = 500.01
	ok, _ = v.ValidateSaleData(data)
	assert.True(t, ok, "la diferencia de un centavo se tolera")

	data["total_amount"] = 400.0
	ok, errs := v.ValidateSaleData(data)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "total inconsistente")
}

func TestValidateSaleData_CanalYOrden(t *testing.T) {
	v := newValidator(t)

	data := validSale()
	data["channel"] = "MercadoLibre"
	ok, _ := v.ValidateSaleData(data)
	assert.False(t, ok, "el canal debe estar configurado")

	data = validSale()
	data["order_id"] = "ab!"
	ok, _ = v.ValidateSaleData(data)
	assert.False(t, ok, "el número de orden tiene formato alfanumérico de 5 a 20")
}

func TestValidatePurchaseData(t *testing.T) {
	v := newValidator(t)
	valid := map[string]any{
		"date":           "2026-08-15",
		"supplier_name":  "Agro Norte SRL",
		"quantity_kg":    200.0,
		"rate_per_kg":    42.5,
		"invoice_number": "INV-2026/081",
	}

	ok, errs := v.ValidatePurchaseData(valid)
	assert.True(t, ok, "errores inesperados: %v", errs)

	t.Run("kg sobre el tope", func(t *testing.T) {
		data := map[string]any{
			"date": "2026-08-15", "supplier_name": "Agro Norte SRL",
			"quantity_kg": 1001.0, "rate_per_kg": 42.5,
		}
		ok, _ := v.ValidatePurchaseData(data)
		assert.False(t, ok)
	})

	t.Run("factura malformada", func(t *testing.T) {
		data := map[string]any{
			"date": "2026-08-15", "supplier_name": "Agro Norte SRL",
			"quantity_kg": 200.0, "rate_per_kg": 42.5,
			"invoice_number": "x!",
		}
		ok, _ := v.ValidatePurchaseData(data)
		assert.False(t, ok)
	})
}

func TestValidateProductionData(t *testing.T) {
	v := newValidator(t)

	t.Run("lote válido", func(t *testing.T) {
		ok, errs := v.ValidateProductionData(map[string]any{
			"date":                 "2026-08-15",
			"batch_number":         "BATCH-20260815-001",
			"raw_material_used_kg": 100.0,
			"output":               map[string]any{"1.0kg": 50, "0.5kg": 80},
		})
		assert.True(t, ok, "errores inesperados: %v", errs)
	})

	t.Run("número de lote fuera de patrón", func(t *testing.T) {
		ok, errs := v.ValidateProductionData(map[string]any{
			"date":                 "2026-08-15",
			"batch_number":         "LOTE-1",
			"raw_material_used_kg": 100.0,
		})
		assert.False(t, ok)
		assert.NotEmpty(t, errs)
	})

	t.Run("output con paquetes negativos", func(t *testing.T) {
		ok, _ := v.ValidateProductionData(map[string]any{
			"date":                 "2026-08-15",
			"batch_number":         "BATCH-20260815-001",
			"raw_material_used_kg": 100.0,
			"output":               map[string]any{"1.0kg": -3},
		})
		assert.False(t, ok)
	})
}

func TestValidateStockData(t *testing.T) {
	v := newValidator(t)

	ok, errs := v.ValidateStockData(map[string]any{
		"product":       "1.0kg",
		"current_stock": 100,
		"min_stock":     10,
		"max_stock":     1000,
	})
	assert.True(t, ok, "errores inesperados: %v", errs)

	t.Run("máximo por debajo del mínimo", func(t *testing.T) {
		ok, _ := v.ValidateStockData(map[string]any{
			"product": "1.0kg", "current_stock": 100,
			"min_stock": 50, "max_stock": 10,
		})
		assert.False(t, ok)
	})

	t.Run("stock negativo", func(t *testing.T) {
		ok, _ := v.ValidateStockData(map[string]any{
			"product": "1.0kg", "current_stock": -1,
		})
		assert.False(t, ok)
	})
}

// Los índices de error son posiciones del lote y las filas sanas sobreviven.
func TestValidateBulk(t *testing.T) {
	v := newValidator(t)
	rows := []map[string]any{
		validSale(),
		{"product": "1.0kg"}, // faltan campos
		validSale(),
	}

	result := v.ValidateBulk("sale", rows)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.InvalidRows)
	assert.Len(t, result.ValidRows, 2)
	_, tieneError := result.RowErrors[1]
	assert.True(t, tieneError, "la fila 1 (base cero) debe reportar sus errores")

	t.Run("tipo desconocido marca todas las filas", func(t *testing.T) {
		r := v.ValidateBulk("trueque", rows)
		assert.Equal(t, 3, r.InvalidRows)
		assert.Empty(t, r.ValidRows)
	})
}

func TestValidateUploadFile(t *testing.T) {
	v := newValidator(t)

	ok, _ := v.ValidateUploadFile("stock_report.xlsx", 1024)
	assert.True(t, ok)

	ok, errs := v.ValidateUploadFile("stock_report.csv", 1024)
	assert.False(t, ok)
	assert.NotEmpty(t, errs)

	ok, _ = v.ValidateUploadFile("stock_report.xlsx", 11*1024*1024)
	assert.False(t, ok, "el tamaño máximo configurado es 10MB")

	ok, _ = v.ValidateUploadFile("stock_report.xlsx", 0)
	assert.False(t, ok, "un archivo vacío se rechaza")
}
