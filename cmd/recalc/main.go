// recalc recalcula las métricas de stock a partir del libro de inventario y
// las emite como JSON por stdout.
//
// Uso: go run ./cmd/recalc [-valuation current|fifo|weighted_average] [-pdf ruta]
// La ruta del libro y los umbrales salen de la configuración (.env, config.env
// o variables de entorno).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/application/calculator"
	"github.com/tu-usuario/inventory-engine/internal/application/report"
	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/internal/domain/ledger"
	"github.com/tu-usuario/inventory-engine/internal/domain/repository"
	"github.com/tu-usuario/inventory-engine/internal/infrastructure/excel"
	"github.com/tu-usuario/inventory-engine/internal/infrastructure/pdf"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

func main() {
	method := flag.String("valuation", calculator.ValuationCurrent,
		"método de valuación: current, fifo o weighted_average")
	backup := flag.Bool("backup", false, "respaldar el libro antes de calcular")
	pdfPath := flag.String("pdf", "", "escribir además el reporte de stock en PDF a esta ruta")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	wb := excel.NewWorkbook(cfg, log)
	if *backup {
		dest, err := wb.Backup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Respaldar libro: %v\n", err)
			os.Exit(1)
		}
		log.Info().Str("backup", dest).Msg("libro respaldado")
	}

	rows, err := wb.ReadStockSnapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer snapshot de stock: %v\n", err)
		os.Exit(1)
	}

	calc := calculator.New(cfg.Engine, log)
	summary := calc.StockSummary(rows)
	valuation, err := calc.Valuation(rows, *method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Valuar inventario: %v\n", err)
		os.Exit(1)
	}

	if *pdfPath != "" {
		led := ledgerFromRows(rows, cfg.Engine)
		rpt := report.NewAssembler(log).StockSummaryReport(led, "recalc")
		doc, err := pdf.NewStockReportGenerator().GenerateStockReportPDF(rpt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generar PDF: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*pdfPath, doc, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Escribir PDF: %v\n", err)
			os.Exit(1)
		}
		log.Info().Str("pdf", *pdfPath).Msg("reporte de stock en PDF escrito")
	}

	out := map[string]any{
		"stock_summary": summary,
		"valuation":     valuation,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Serializar resultado: %v\n", err)
		os.Exit(1)
	}
}

// ledgerFromRows arma un ledger con las filas del snapshot para poder emitir
// el reporte imprimible. Las columnas ausentes caen a los umbrales
// configurados; las filas que violan los invariantes del registro se omiten.
func ledgerFromRows(rows []repository.StockRow, eng config.EngineConfig) *ledger.Ledger {
	l := ledger.New()
	for _, row := range rows {
		id := row.ProductID
		if id == "" {
			id = row.ProductName
		}
		if id == "" {
			continue
		}
		current := 0
		if row.CurrentStock != nil {
			current = *row.CurrentStock
		}
		minStock := eng.MinStockThreshold
		if row.MinStock != nil {
			minStock = *row.MinStock
		}
		maxStock := eng.MaxStockLimit
		if row.MaxStock != nil {
			maxStock = *row.MaxStock
		}
		price := decimal.Zero
		if row.UnitPrice != nil {
			price = *row.UnitPrice
		}
		weight := 0.0
		if row.WeightKg != nil {
			weight = *row.WeightKg
		}
		it, err := entity.NewInventoryItem(id, row.ProductName, weight, current, minStock, maxStock, price)
		if err != nil {
			continue
		}
		it.CriticalStock = eng.CriticalStockThreshold
		if row.OpeningStock != nil {
			it.OpeningStock = *row.OpeningStock
		}
		l.AddItem(it)
	}
	return l
}
