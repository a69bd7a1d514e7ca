package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/inventory-engine/internal/application/dto"
	"github.com/tu-usuario/inventory-engine/internal/application/report"
	"github.com/tu-usuario/inventory-engine/internal/application/transactions"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/internal/domain/ledger"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

func daysAgo(n int) time.Time { return time.Now().AddDate(0, 0, -n) }

func completedSale(t *testing.T, m *transactions.Manager, qty int, channel string) *entity.SaleTransaction {
	t.Helper()
	sale, err := entity.NewSale(entity.SaleInput{
		Date:         daysAgo(3),
		ProductID:    "RC_1.0KG",
		ProductName:  "1.0kg",
		Quantity:     qty,
		UnitPrice:    decimal.NewFromInt(100),
		SalesChannel: channel,
	})
	require.NoError(t, err)
	require.True(t, m.Add(sale))
	require.True(t, m.MarkCompleted(sale.ID))
	return sale
}

func TestStockSummaryReport(t *testing.T) {
	led := ledger.NewFromConfig(config.Default().Engine)
	require.True(t, led.UpdateStock("RC_1.0KG", 4)) // bajo el umbral crítico

	rpt := report.NewAssembler(logger.Nop()).StockSummaryReport(led, "Ops")

	assert.NotEmpty(t, rpt.Metadata.ReportID)
	assert.Equal(t, dto.ReportStockSummary, rpt.Metadata.ReportType)
	assert.Equal(t, dto.ReportCompleted, rpt.Metadata.Status)
	assert.Equal(t, "Ops", rpt.Metadata.GeneratedBy)

	assert.Equal(t, 5, rpt.Summary["total_items"])
	assert.Len(t, rpt.StockItems, 5)
	require.Len(t, rpt.LowStockAlerts, 1)
	assert.Equal(t, "RC_1.0KG", rpt.LowStockAlerts[0]["product_id"])

	require.Len(t, rpt.ReorderRecommendations, 1)
	rec := rpt.ReorderRecommendations[0]
	assert.Equal(t, "Critical", rec.Urgency)
	assert.Equal(t, 996, rec.RecommendedQuantity, "reponer hasta el máximo del item")
	assert.NotEmpty(t, rec.Action)
}

func TestSalesAnalysisReport(t *testing.T) {
	m := transactions.NewManager(logger.Nop())
	completedSale(t, m, 5, "Amazon FBA")  // 500
	completedSale(t, m, 3, "Amazon FBA")  // 300
	completedSale(t, m, 2, "Direct Sales") // 200

	// una venta pendiente no debe aparecer en el análisis
	pendiente, err := entity.NewSale(entity.SaleInput{
		Date: daysAgo(3), ProductID: "RC_1.0KG", Quantity: 9,
		UnitPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.True(t, m.Add(pendiente))

	rpt := report.NewAssembler(logger.Nop()).SalesAnalysisReport(m, daysAgo(7), daysAgo(0), "")

	assert.Equal(t, "System", rpt.Metadata.GeneratedBy)
	assert.Equal(t, 3, rpt.Summary["total_sales"])
	assert.Len(t, rpt.SalesData, 3)

	require.Len(t, rpt.ProductPerformance, 1)
	assert.Equal(t, 10, rpt.ProductPerformance[0].Quantity)
	assert.True(t, rpt.ProductPerformance[0].Revenue.Equal(decimal.NewFromInt(1000)))

	require.Len(t, rpt.ChannelPerformance, 2)
	byChannel := map[string]dto.ChannelPerformance{}
	for _, cp := range rpt.ChannelPerformance {
		byChannel[cp.Channel] = cp
	}
	assert.InDelta(t, 80.0, byChannel["Amazon FBA"].RevenueShare, 0.01)
	assert.InDelta(t, 20.0, byChannel["Direct Sales"].RevenueShare, 0.01)

	assert.True(t, rpt.AverageSellingPrice.Equal(decimal.NewFromInt(100)))
}

func TestFinancialSummaryReport(t *testing.T) {
	m := transactions.NewManager(logger.Nop())
	completedSale(t, m, 50, "Amazon FBA") // ingresos 5000

	purchase, err := entity.NewPurchase(entity.PurchaseInput{
		Date:         daysAgo(4),
		SupplierName: "Agro Norte SRL",
		QuantityKg:   decimal.NewFromInt(50),
		RatePerKg:    decimal.NewFromInt(40), // costo 2000
	})
	require.NoError(t, err)
	require.True(t, m.Add(purchase))
	require.True(t, m.MarkCompleted(purchase.ID))

	rpt := report.NewAssembler(logger.Nop()).FinancialSummaryReport(m, daysAgo(7), daysAgo(0), "Finance")

	pl := rpt.ProfitLoss
	assert.True(t, pl.Revenue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, pl.CostOfGoodsSold.Equal(decimal.NewFromInt(2000)))
	assert.True(t, pl.GrossProfit.Equal(decimal.NewFromInt(3000)))
	assert.True(t, pl.OperatingExpenses.Equal(decimal.NewFromInt(400)),
		"los gastos operativos se estiman como fracción del costo")
	assert.True(t, pl.NetProfit.Equal(decimal.NewFromInt(2600)))
	assert.InDelta(t, 60.0, pl.GrossMarginPct, 0.01)
	assert.InDelta(t, 52.0, pl.NetMarginPct, 0.01)
}

func TestFinancialSummaryReport_SinMovimientos(t *testing.T) {
	m := transactions.NewManager(logger.Nop())
	rpt := report.NewAssembler(logger.Nop()).FinancialSummaryReport(m, daysAgo(7), daysAgo(0), "")

	pl := rpt.ProfitLoss
	assert.True(t, pl.Revenue.IsZero())
	assert.Zero(t, pl.GrossMarginPct, "sin ingresos los márgenes degradan a cero")
}
