package excel_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/internal/domain/repository"
	"github.com/tu-usuario/inventory-engine/internal/infrastructure/excel"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

func newWorkbook(t *testing.T) (*excel.Workbook, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Excel.FilePath = filepath.Join(t.TempDir(), "stock_report.xlsx")
	cfg.Backup.Dir = filepath.Join(t.TempDir(), "backups")
	return excel.NewWorkbook(cfg, logger.Nop()), cfg
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func sampleRows() []repository.StockRow {
	return []repository.StockRow{
		{
			ProductID:    "RC_1.0KG",
			ProductName:  "Roasted Chana 1.0kg",
			WeightKg:     floatPtr(1.0),
			CurrentStock: intPtr(85),
			OpeningStock: intPtr(100),
			MinStock:     intPtr(10),
			MaxStock:     intPtr(1000),
			UnitPrice:    decPtr(100),
		},
		{
			ProductID:    "RC_0.5KG",
			ProductName:  "Roasted Chana 0.5kg",
			WeightKg:     floatPtr(0.5),
			CurrentStock: intPtr(0),
			MinStock:     intPtr(10),
			UnitPrice:    decPtr(50),
		},
	}
}

func TestWriteReadStockSnapshot_RoundTrip(t *testing.T) {
	wb, _ := newWorkbook(t)
	require.NoError(t, wb.WriteStockSnapshot(sampleRows()))

	rows, err := wb.ReadStockSnapshot()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "RC_1.0KG", first.ProductID)
	assert.Equal(t, "Roasted Chana 1.0kg", first.ProductName)
	require.NotNil(t, first.CurrentStock)
	assert.Equal(t, 85, *first.CurrentStock)
	require.NotNil(t, first.OpeningStock)
	assert.Equal(t, 100, *first.OpeningStock)
	require.NotNil(t, first.UnitPrice)
	assert.True(t, first.UnitPrice.Equal(decimal.NewFromInt(100)))

	second := rows[1]
	require.NotNil(t, second.CurrentStock)
	assert.Equal(t, 0, *second.CurrentStock)
	assert.Nil(t, second.MaxStock, "las columnas vacías quedan en nil")
}

// Planillas hechas a mano traen encabezados con sinónimos y decoraciones; la
// lectura debe normalizarlos a las columnas canónicas.
func TestReadStockSnapshot_NormalizaEncabezados(t *testing.T) {
	wb, cfg := newWorkbook(t)

	f := excelize.NewFile()
	_, err := f.NewSheet(cfg.Excel.StockSheet)
	require.NoError(t, err)
	headers := []any{"  Product ", "Stock", "Price", "Weight", "Minimum Stock", "Value"}
	require.NoError(t, f.SetSheetRow(cfg.Excel.StockSheet, "A1", &headers))
	row := []any{"Roasted Chana 1.0kg", 85, 100, 1.0, 10, 8500}
	require.NoError(t, f.SetSheetRow(cfg.Excel.StockSheet, "A2", &row))
	require.NoError(t, f.SaveAs(cfg.Excel.FilePath))

	rows, err := wb.ReadStockSnapshot()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "Roasted Chana 1.0kg", got.ProductName)
	require.NotNil(t, got.CurrentStock)
	assert.Equal(t, 85, *got.CurrentStock)
	require.NotNil(t, got.WeightKg)
	assert.Equal(t, 1.0, *got.WeightKg)
	require.NotNil(t, got.MinStock)
	assert.Equal(t, 10, *got.MinStock)
	require.NotNil(t, got.StockValue)
	assert.True(t, got.StockValue.Equal(decimal.NewFromInt(8500)))
}

func TestWriteStockSnapshot_Sobrescribe(t *testing.T) {
	wb, _ := newWorkbook(t)
	require.NoError(t, wb.WriteStockSnapshot(sampleRows()))
	require.NoError(t, wb.WriteStockSnapshot(sampleRows()[:1]))

	rows, err := wb.ReadStockSnapshot()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "reescribir no debe dejar filas viejas")
}

func TestAppendTransaction(t *testing.T) {
	wb, cfg := newWorkbook(t)
	require.NoError(t, wb.WriteStockSnapshot(sampleRows()))

	sale, err := entity.NewSale(entity.SaleInput{
		ProductID: "RC_1.0KG", ProductName: "1.0kg",
		Quantity: 5, UnitPrice: decimal.NewFromInt(100),
		SalesChannel: "Amazon FBA",
	})
	require.NoError(t, err)
	require.NoError(t, wb.AppendTransaction(sale))

	otra, err := entity.NewSale(entity.SaleInput{
		ProductID: "RC_0.5KG", Quantity: 2, UnitPrice: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	require.NoError(t, wb.AppendTransaction(otra))

	f, err := excelize.OpenFile(cfg.Excel.FilePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(cfg.Excel.SalesLogSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "encabezado más una fila por venta")
	assert.Equal(t, "transaction_id", rows[0][0])
	assert.Equal(t, sale.ID, rows[1][0])
	assert.Equal(t, otra.ID, rows[2][0])
}

func TestAppendTransaction_HojaPorTipo(t *testing.T) {
	wb, cfg := newWorkbook(t)

	adj, err := entity.NewAdjustment(entity.AdjustmentInput{
		ProductID: "RC_1.0KG", QuantityDelta: -4, ReasonCode: "damage",
	})
	require.NoError(t, err)
	require.NoError(t, wb.AppendTransaction(adj))

	f, err := excelize.OpenFile(cfg.Excel.FilePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(cfg.Excel.AdjustmentSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestBackup_CreaYPoda(t *testing.T) {
	wb, cfg := newWorkbook(t)
	require.NoError(t, wb.WriteStockSnapshot(sampleRows()))

	dest, err := wb.Backup()
	require.NoError(t, err)
	assert.FileExists(t, dest)
	assert.True(t, strings.HasPrefix(filepath.Base(dest), cfg.Backup.Prefix))

	t.Run("poda los respaldos más viejos", func(t *testing.T) {
		for i := 0; i < cfg.Backup.MaxBackups+3; i++ {
			name := cfg.Backup.Prefix + "20260101_00000" + string(rune('0'+i%10)) + string(rune('a'+i)) + ".xlsx"
			require.NoError(t, os.WriteFile(filepath.Join(cfg.Backup.Dir, name), []byte("x"), 0o644))
		}
		_, err := wb.Backup()
		require.NoError(t, err)

		entries, err := os.ReadDir(cfg.Backup.Dir)
		require.NoError(t, err)
		count := 0
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), cfg.Backup.Prefix) {
				count++
			}
		}
		assert.LessOrEqual(t, count, cfg.Backup.MaxBackups)
	})
}

func TestBackup_SinLibroFalla(t *testing.T) {
	wb, _ := newWorkbook(t)
	_, err := wb.Backup()
	assert.Error(t, err, "no hay nada que respaldar si el libro no existe")
}
