// Package pdf genera la versión imprimible del reporte de stock.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre del reporte  │  ID + Fecha de generación    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: totales de inventario y alertas                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Stock | Mín | Máx | Valor | Estado        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  REPOSICIÓN: urgencia + cantidad recomendada por producto    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tu-usuario/inventory-engine/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 30, Green: 80, Blue: 45}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 40, Blue: 40}
)

// StockReportGenerator genera el PDF del reporte de stock usando Maroto v2.
type StockReportGenerator struct{}

// NewStockReportGenerator construye el generador.
func NewStockReportGenerator() *StockReportGenerator { return &StockReportGenerator{} }

// GenerateStockReportPDF genera el PDF y devuelve sus bytes.
func (g *StockReportGenerator) GenerateStockReportPDF(rpt dto.StockSummaryReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(rpt.Metadata.ReportName, true).
		WithAuthor(rpt.Metadata.GeneratedBy, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rpt.Metadata))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(rpt.Summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range stockItemRows(rpt.StockItems) {
		m.AddRows(r)
	}

	if len(rpt.ReorderRecommendations) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		for _, r := range reorderRows(rpt.ReorderRecommendations) {
			m.AddRows(r)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre del reporte (izq) e identificación (der).
func headerRow(meta dto.ReportMetadata) core.Row {
	fecha := meta.GeneratedAt.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(meta.ReportName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado por: "+meta.GeneratedBy, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("REPORTE DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(meta.ReportID, props.Text{
				Size: 7, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// summaryRow: totales del inventario en una línea.
func summaryRow(summary map[string]any) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESUMEN DEL INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Productos: %v   |   Unidades: %v   |   Valor total: $%v   |   Alertas de stock bajo: %v",
				summary["total_items"],
				summary["total_stock_units"],
				summary["total_stock_value"],
				summary["low_stock_count"],
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de stock.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 4, align.Left),
		h("Stock", 2, align.Right),
		h("Mín", 1, align.Right),
		h("Máx", 1, align.Right),
		h("Valor", 2, align.Right),
		h("Estado", 2, align.Center),
	)
}

// stockItemRows: una fila por producto del snapshot.
func stockItemRows(items []map[string]any) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, item := range items {
		status := fmt.Sprintf("%v", item["stock_status"])
		statusColor := colorGray
		if status != "normal" {
			statusColor = colorAlert
		}
		result = append(result, row.New(7).Add(
			col.New(4).Add(text.New(
				fmt.Sprintf("%v", item["product_name"]),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				fmt.Sprintf("%v", item["current_stock"]),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				fmt.Sprintf("%v", item["min_stock"]),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				fmt.Sprintf("%v", item["max_stock"]),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				fmt.Sprintf("$%v", item["stock_value"]),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				status,
				props.Text{Size: 8, Align: align.Center, Top: 1, Color: statusColor},
			)),
		))
	}
	return result
}

// reorderRows: bloque de recomendaciones de reposición.
func reorderRows(recs []dto.ReorderAdvice) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("RECOMENDACIONES DE REPOSICIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, rec := range recs {
		urgencyColor := colorGray
		if rec.Urgency == "Emergency" || rec.Urgency == "Critical" {
			urgencyColor = colorAlert
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(rec.Product, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(2).Add(text.New(rec.Urgency, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1,
				Color: urgencyColor,
			})),
			col.New(3).Add(text.New(
				fmt.Sprintf("Pedir %d unidades", rec.RecommendedQuantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(rec.Action, props.Text{
				Size: 7, Align: align.Right, Top: 1, Right: 1, Color: colorGray,
			})),
		))
	}
	return rows
}
