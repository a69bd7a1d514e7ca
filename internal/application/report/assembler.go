// Package report arma reportes JSON-serializables a partir del ledger y del
// registro de transacciones. El render a PDF o Excel es responsabilidad de la
// capa de infraestructura.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-engine/internal/application/dto"
	"github.com/tu-usuario/inventory-engine/internal/application/transactions"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/internal/domain/ledger"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

// Assembler construye los reportes del motor.
type Assembler struct {
	log *logger.Logger
}

// NewAssembler crea un armador de reportes.
func NewAssembler(log *logger.Logger) *Assembler {
	return &Assembler{log: log}
}

func (a *Assembler) metadata(name string, t dto.ReportType, by string, start, end *time.Time) dto.ReportMetadata {
	if by == "" {
		by = "System"
	}
	return dto.ReportMetadata{
		ReportID:    uuid.NewString(),
		ReportName:  name,
		ReportType:  t,
		GeneratedBy: by,
		GeneratedAt: time.Now(),
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      dto.ReportCompleted,
	}
}

// actionFor acción sugerida según la urgencia de reposición.
func actionFor(urgency string) string {
	switch urgency {
	case "Emergency":
		return "Immediate reorder required"
	case "Critical":
		return "Reorder immediately"
	default:
		return "Reorder soon"
	}
}

// StockSummaryReport reporte completo del estado del inventario.
func (a *Assembler) StockSummaryReport(led *ledger.Ledger, generatedBy string) dto.StockSummaryReport {
	summary := led.GetInventorySummary()

	rpt := dto.StockSummaryReport{
		Metadata: a.metadata("Stock Summary Report", dto.ReportStockSummary, generatedBy, nil, nil),
		Summary: map[string]any{
			"total_items":         summary.TotalItems,
			"total_stock_units":   summary.TotalStockUnits,
			"total_stock_value":   summary.TotalStockValue,
			"average_stock_value": summary.AverageStockValue,
			"status_breakdown":    summary.StatusBreakdown,
			"low_stock_count":     summary.LowStockCount,
			"reorder_needed":      summary.ReorderNeeded,
			"expired_items":       summary.ExpiredItems,
		},
		StockItems:             []map[string]any{},
		LowStockAlerts:         []map[string]any{},
		ReorderRecommendations: []dto.ReorderAdvice{},
	}
	for _, item := range led.Items() {
		rpt.StockItems = append(rpt.StockItems, item.ToMap())
	}
	for _, item := range led.LowStockItems() {
		rpt.LowStockAlerts = append(rpt.LowStockAlerts, item.ToMap())
	}
	for _, rec := range led.ReorderRecommendations() {
		rpt.ReorderRecommendations = append(rpt.ReorderRecommendations, dto.ReorderAdvice{
			Product:             rec.ProductName,
			CurrentStock:        rec.CurrentStock,
			MinStock:            rec.MinStock,
			Urgency:             rec.Urgency,
			Action:              actionFor(rec.Urgency),
			RecommendedQuantity: rec.RecommendedQuantity,
		})
	}
	a.log.Info().
		Str("report_id", rpt.Metadata.ReportID).
		Int("items", len(rpt.StockItems)).
		Msg("reporte de stock generado")
	return rpt
}

// SalesAnalysisReport análisis de ventas del período, con desempeño por
// producto y por canal. Solo considera ventas COMPLETED.
func (a *Assembler) SalesAnalysisReport(mgr *transactions.Manager, start, end time.Time, generatedBy string) dto.SalesAnalysisReport {
	summary := mgr.SalesSummary(start, end)

	rpt := dto.SalesAnalysisReport{
		Metadata: a.metadata("Sales Analysis Report", dto.ReportSalesAnalysis, generatedBy,
			&summary.PeriodStart, &summary.PeriodEnd),
		Summary: map[string]any{
			"total_sales":         summary.TotalSales,
			"total_revenue":       summary.TotalRevenue,
			"total_quantity":      summary.TotalQuantity,
			"average_order_value": summary.AverageOrderValue,
		},
		SalesData:           []map[string]any{},
		ProductPerformance:  []dto.ProductPerformance{},
		ChannelPerformance:  []dto.ChannelPerformance{},
		AverageSellingPrice: decimal.Zero,
	}

	byProduct := make(map[string]*dto.ProductPerformance)
	byChannel := make(map[string]*dto.ChannelPerformance)
	var productOrder, channelOrder []string

	for _, rec := range mgr.ByDateRange(start, end) {
		sale, ok := rec.(*entity.SaleTransaction)
		if !ok || sale.Core().Status != entity.TxCompleted {
			continue
		}
		rpt.SalesData = append(rpt.SalesData, sale.ToMap())

		product := sale.ProductName
		if product == "" {
			product = sale.ProductID
		}
		if _, seen := byProduct[product]; !seen {
			byProduct[product] = &dto.ProductPerformance{Product: product, Revenue: decimal.Zero}
			productOrder = append(productOrder, product)
		}
		pp := byProduct[product]
		pp.Orders++
		pp.Quantity += sale.Quantity
		pp.Revenue = pp.Revenue.Add(sale.TotalAmount)

		channel := sale.SalesChannel
		if channel == "" {
			channel = "unknown"
		}
		if _, seen := byChannel[channel]; !seen {
			byChannel[channel] = &dto.ChannelPerformance{Channel: channel, Revenue: decimal.Zero}
			channelOrder = append(channelOrder, channel)
		}
		cp := byChannel[channel]
		cp.Orders++
		cp.Quantity += sale.Quantity
		cp.Revenue = cp.Revenue.Add(sale.TotalAmount)
	}

	for _, name := range productOrder {
		rpt.ProductPerformance = append(rpt.ProductPerformance, *byProduct[name])
	}
	hundred := decimal.NewFromInt(100)
	for _, name := range channelOrder {
		cp := *byChannel[name]
		if summary.TotalRevenue.IsPositive() {
			cp.RevenueShare, _ = cp.Revenue.
				Div(summary.TotalRevenue).Mul(hundred).Round(2).Float64()
		}
		rpt.ChannelPerformance = append(rpt.ChannelPerformance, cp)
	}
	if summary.TotalQuantity > 0 {
		rpt.AverageSellingPrice = summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(summary.TotalQuantity))).Round(2)
	}
	return rpt
}

// operatingExpenseRate proporción de gastos operativos estimada sobre el
// costo de mercadería vendida.
var operatingExpenseRate = decimal.NewFromFloat(0.20)

// FinancialSummaryReport estado de resultados simplificado del período:
// ingresos por ventas contra costo de compras, con gastos operativos
// estimados como proporción del costo.
func (a *Assembler) FinancialSummaryReport(mgr *transactions.Manager, start, end time.Time, generatedBy string) dto.FinancialSummaryReport {
	sales := mgr.SalesSummary(start, end)
	purchases := mgr.PurchaseSummary(start, end)

	revenue := sales.TotalRevenue
	cogs := purchases.TotalAmount
	grossProfit := revenue.Sub(cogs)
	opex := cogs.Mul(operatingExpenseRate).Round(2)
	netProfit := grossProfit.Sub(opex)

	pl := dto.ProfitLoss{
		Revenue:           revenue,
		CostOfGoodsSold:   cogs,
		GrossProfit:       grossProfit,
		OperatingExpenses: opex,
		NetProfit:         netProfit,
	}
	if revenue.IsPositive() {
		hundred := decimal.NewFromInt(100)
		pl.GrossMarginPct, _ = grossProfit.Div(revenue).Mul(hundred).Round(2).Float64()
		pl.NetMarginPct, _ = netProfit.Div(revenue).Mul(hundred).Round(2).Float64()
	}
	return dto.FinancialSummaryReport{
		Metadata: a.metadata("Financial Summary Report", dto.ReportFinancialSummary, generatedBy,
			&sales.PeriodStart, &sales.PeriodEnd),
		ProfitLoss: pl,
	}
}
