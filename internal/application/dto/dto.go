// Package dto estructuras de salida JSON-serializables que el motor entrega
// a los render/export externos. Ningún DTO contiene lógica de negocio.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Calculador de stock ───────────────────────────────────────────────────────

// ReorderAdvice recomendación del calculador sobre una fila de snapshot.
type ReorderAdvice struct {
	Product             string `json:"product"`
	CurrentStock        int    `json:"current_stock"`
	MinStock            int    `json:"min_stock"`
	Urgency             string `json:"urgency"`
	Action              string `json:"action"`
	RecommendedQuantity int    `json:"recommended_quantity"`
}

// ProductShare participación de un producto en el valor total del stock.
type ProductShare struct {
	Product      string          `json:"product"`
	CurrentStock int             `json:"current_stock"`
	StockValue   decimal.Decimal `json:"stock_value"`
	PctOfTotal   float64         `json:"percentage_of_total"`
}

// CalculatedStockSummary resumen tolerante a columnas faltantes: los campos
// que no pudieron computarse quedan en cero.
type CalculatedStockSummary struct {
	TotalProducts          int             `json:"total_products"`
	TotalStockUnits        int             `json:"total_stock_units"`
	TotalStockValue        decimal.Decimal `json:"total_stock_value"`
	AverageStockLevel      float64         `json:"average_stock_level"`
	LowStockItems          int             `json:"low_stock_items"`
	CriticalStockItems     int             `json:"critical_stock_items"`
	OverstockedItems       int             `json:"overstocked_items"`
	OutOfStockItems        int             `json:"out_of_stock_items"`
	ReorderRecommendations []ReorderAdvice `json:"reorder_recommendations"`
	ProductBreakdown       []ProductShare  `json:"product_breakdown"`
}

// StockValuation valuación del inventario según un método.
type StockValuation struct {
	Method              string          `json:"method"`
	TotalValue          decimal.Decimal `json:"total_value"`
	AverageValuePerUnit decimal.Decimal `json:"average_value_per_unit"`
}

// ReorderPoint punto de reorden calculado para un producto.
type ReorderPoint struct {
	CurrentStock             int     `json:"current_stock"`
	MinStock                 int     `json:"min_stock"`
	RecommendedReorderPoint  float64 `json:"recommended_reorder_point"`
	RecommendedOrderQuantity float64 `json:"recommended_order_quantity"`
	DaysOfStockRemaining     float64 `json:"days_of_stock_remaining"`
	Urgency                  string  `json:"reorder_urgency"`
}

// TurnoverEntry rotación de un producto calculada sobre un snapshot.
type TurnoverEntry struct {
	TurnoverRatio float64 `json:"turnover_ratio"`
	DaysToSell    float64 `json:"days_to_sell_current_stock"`
	SalesInPeriod int     `json:"sales_in_period"`
	AverageStock  int     `json:"average_stock"`
}

// ABCEntry clasificación Pareto de un producto por contribución a ingresos.
type ABCEntry struct {
	Category      string          `json:"category"`
	Revenue       decimal.Decimal `json:"revenue"`
	RevenuePct    float64         `json:"revenue_percentage"`
	CumulativePct float64         `json:"cumulative_percentage"`
	Rank          int             `json:"rank"`
}

// ── Resúmenes de transacciones ────────────────────────────────────────────────

// SalesSummary resumen de ventas COMPLETED en un rango de fechas.
type SalesSummary struct {
	TotalSales        int             `json:"total_sales"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalQuantity     int             `json:"total_quantity"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
}

// PurchaseSummary resumen de compras COMPLETED en un rango de fechas.
type PurchaseSummary struct {
	TotalPurchases   int             `json:"total_purchases"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalQuantityKg  decimal.Decimal `json:"total_quantity_kg"`
	AverageRatePerKg decimal.Decimal `json:"average_rate_per_kg"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
}

// ── Reportes ──────────────────────────────────────────────────────────────────

// ReportType tipos de reporte que arma el assembler.
type ReportType string

const (
	ReportStockSummary     ReportType = "stock_summary"
	ReportSalesAnalysis    ReportType = "sales_analysis"
	ReportFinancialSummary ReportType = "financial_summary"
)

// ReportStatus estado de generación de un reporte.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

// ReportMetadata identidad y período de un reporte generado.
type ReportMetadata struct {
	ReportID    string       `json:"report_id"`
	ReportName  string       `json:"report_name"`
	ReportType  ReportType   `json:"report_type"`
	GeneratedBy string       `json:"generated_by"`
	GeneratedAt time.Time    `json:"generated_date"`
	PeriodStart *time.Time   `json:"period_start,omitempty"`
	PeriodEnd   *time.Time   `json:"period_end,omitempty"`
	Status      ReportStatus `json:"status"`
}

// StockSummaryReport reporte de inventario para export.
type StockSummaryReport struct {
	Metadata               ReportMetadata   `json:"metadata"`
	Summary                map[string]any   `json:"summary"`
	StockItems             []map[string]any `json:"stock_items"`
	LowStockAlerts         []map[string]any `json:"low_stock_alerts"`
	ReorderRecommendations []ReorderAdvice  `json:"reorder_recommendations"`
}

// ChannelPerformance ventas agregadas por canal.
type ChannelPerformance struct {
	Channel      string          `json:"channel"`
	Orders       int             `json:"orders"`
	Quantity     int             `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	RevenueShare float64         `json:"revenue_share"`
}

// ProductPerformance ventas agregadas por producto.
type ProductPerformance struct {
	Product  string          `json:"product"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SalesAnalysisReport análisis de ventas para export.
type SalesAnalysisReport struct {
	Metadata            ReportMetadata       `json:"metadata"`
	Summary             map[string]any       `json:"summary"`
	SalesData           []map[string]any     `json:"sales_data"`
	ProductPerformance  []ProductPerformance `json:"product_performance"`
	ChannelPerformance  []ChannelPerformance `json:"channel_performance"`
	AverageSellingPrice decimal.Decimal      `json:"average_selling_price"`
}

// ProfitLoss estado de resultados simplificado.
type ProfitLoss struct {
	Revenue           decimal.Decimal `json:"revenue"`
	CostOfGoodsSold   decimal.Decimal `json:"cost_of_goods_sold"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	GrossMarginPct    float64         `json:"gross_margin_percentage"`
	OperatingExpenses decimal.Decimal `json:"operating_expenses"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	NetMarginPct      float64         `json:"net_margin_percentage"`
}

// FinancialSummaryReport resumen financiero para export.
type FinancialSummaryReport struct {
	Metadata   ReportMetadata `json:"metadata"`
	ProfitLoss ProfitLoss     `json:"profit_loss"`
}
