// Package excel persistencia del motor sobre un libro de cálculo: snapshot de
// stock en una hoja y un log por tipo de transacción. Tolera planillas hechas
// a mano normalizando encabezados antes de mapear columnas.
package excel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
	"github.com/tu-usuario/inventory-engine/internal/domain/repository"
	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

// columnSynonyms encabezados alternativos vistos en planillas reales, ya
// normalizados a minúsculas con guiones bajos.
var columnSynonyms = map[string]string{
	"product":       "product_name",
	"name":          "product_name",
	"sku":           "product_id",
	"id":            "product_id",
	"weight":        "weight_kg",
	"stock":         "current_stock",
	"price":         "unit_price",
	"value":         "stock_value",
	"minimum_stock": "min_stock",
	"maximum_stock": "max_stock",
}

// stockHeaders columnas del snapshot en el orden en que se escriben.
var stockHeaders = []string{
	"Product ID", "Product Name", "Weight (kg)", "Current Stock",
	"Opening Stock", "Min Stock", "Max Stock", "Unit Price", "Stock Value",
}

var coreColumns = []string{
	"transaction_id", "transaction_type", "transaction_date", "status",
	"reference_number", "notes", "created_by", "created_date", "updated_date",
}

// logColumns columnas de cada hoja de log, por tipo de transacción.
var logColumns = map[entity.TransactionType][]string{
	entity.TxTypeSale: append(coreColumns[:len(coreColumns):len(coreColumns)],
		"product_id", "product_name", "quantity", "unit_price", "total_amount",
		"net_amount", "shipping_cost", "tax_amount", "discount_amount",
		"sales_channel", "order_id", "customer_name", "customer_address"),
	entity.TxTypePurchase: append(coreColumns[:len(coreColumns):len(coreColumns)],
		"supplier_name", "supplier_contact", "material_type", "quantity_kg",
		"rate_per_kg", "total_amount", "invoice_number", "delivery_date",
		"quality_grade", "payment_method", "payment_status"),
	entity.TxTypeProduction: append(coreColumns[:len(coreColumns):len(coreColumns)],
		"batch_number", "raw_material_used_kg", "operator_name", "shift",
		"production_line", "output_data", "total_output_packets",
		"total_output_kg", "efficiency_percentage", "quality_grade",
		"quality_notes", "issues"),
	entity.TxTypeReturn: append(coreColumns[:len(coreColumns):len(coreColumns)],
		"original_transaction_id", "product_id", "product_name", "quantity",
		"return_reason", "condition", "action_taken", "refund_amount",
		"restocking_fee", "net_refund"),
	entity.TxTypeAdjustment: append(coreColumns[:len(coreColumns):len(coreColumns)],
		"product_id", "quantity_delta", "reason_code"),
}

// Workbook adaptador de persistencia sobre un archivo xlsx. El mutex protege
// el archivo, único recurso compartido del motor.
type Workbook struct {
	mu     sync.Mutex
	path   string
	sheets config.ExcelConfig
	backup config.BackupConfig
	log    *logger.Logger
}

// Interfaces de persistencia que implementa el adaptador.
var (
	_ repository.SnapshotReader      = (*Workbook)(nil)
	_ repository.SnapshotWriter      = (*Workbook)(nil)
	_ repository.TransactionAppender = (*Workbook)(nil)
)

// NewWorkbook crea el adaptador sobre la ruta configurada.
func NewWorkbook(cfg *config.Config, log *logger.Logger) *Workbook {
	return &Workbook{
		path:   cfg.Excel.FilePath,
		sheets: cfg.Excel,
		backup: cfg.Backup,
		log:    log,
	}
}

// open abre el libro, o crea uno nuevo si el archivo no existe todavía.
func (w *Workbook) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("abrir libro %s: %w", w.path, err)
	}
	return f, nil
}

// canonicalColumn normaliza un encabezado: minúsculas, guiones bajos, sin
// decoraciones, y resuelve sinónimos comunes.
func canonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "(", "", ")", "", "-", "_").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	h = strings.Trim(h, "_")
	if canonical, ok := columnSynonyms[h]; ok {
		return canonical
	}
	return h
}

func parseIntCell(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func parseFloatCell(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func parseDecimalCell(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return d, err == nil
}

// ReadStockSnapshot lee la hoja de stock y la mapea a filas tolerantes: las
// columnas ausentes o no parseables quedan en nil.
func (w *Workbook) ReadStockSnapshot() ([]repository.StockRow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("abrir libro %s: %w", w.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(w.sheets.StockSheet)
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", w.sheets.StockSheet, err)
	}
	if len(rows) < 2 {
		return []repository.StockRow{}, nil
	}

	columns := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		columns[i] = canonicalColumn(header)
	}

	out := make([]repository.StockRow, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		cells := make(map[string]string, len(columns))
		empty := true
		for i, cell := range raw {
			if i >= len(columns) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			cells[columns[i]] = cell
		}
		if empty {
			continue
		}

		row := repository.StockRow{
			ProductID:   cells["product_id"],
			ProductName: cells["product_name"],
		}
		if v, ok := parseFloatCell(cells["weight_kg"]); ok {
			row.WeightKg = &v
		}
		if v, ok := parseIntCell(cells["current_stock"]); ok {
			row.CurrentStock = &v
		}
		if v, ok := parseIntCell(cells["opening_stock"]); ok {
			row.OpeningStock = &v
		}
		if v, ok := parseIntCell(cells["min_stock"]); ok {
			row.MinStock = &v
		}
		if v, ok := parseIntCell(cells["max_stock"]); ok {
			row.MaxStock = &v
		}
		if v, ok := parseDecimalCell(cells["unit_price"]); ok {
			row.UnitPrice = &v
		}
		if v, ok := parseDecimalCell(cells["stock_value"]); ok {
			row.StockValue = &v
		}
		out = append(out, row)
	}
	w.log.Debug().Int("rows", len(out)).Msg("snapshot de stock leído")
	return out, nil
}

// resetSheet deja la hoja vacía, creándola si hace falta. Usa una hoja
// temporal para poder borrar aunque sea la única del libro.
func resetSheet(f *excelize.File, sheet string) error {
	const tmp = "__rewrite__"
	if _, err := f.NewSheet(tmp); err != nil {
		return err
	}
	if idx, _ := f.GetSheetIndex(sheet); idx != -1 {
		if err := f.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return f.DeleteSheet(tmp)
}

// WriteStockSnapshot reescribe la hoja de stock completa.
func (w *Workbook) WriteStockSnapshot(rows []repository.StockRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := w.sheets.StockSheet
	if err := resetSheet(f, sheet); err != nil {
		return fmt.Errorf("preparar hoja %s: %w", sheet, err)
	}

	header := make([]any, len(stockHeaders))
	for i, h := range stockHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		values := []any{
			row.ProductID,
			row.ProductName,
			deref(row.WeightKg),
			deref(row.CurrentStock),
			deref(row.OpeningStock),
			deref(row.MinStock),
			deref(row.MaxStock),
			derefDecimal(row.UnitPrice),
			derefDecimal(row.StockValue),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("guardar libro %s: %w", w.path, err)
	}
	w.log.Info().Int("rows", len(rows)).Str("sheet", sheet).Msg("snapshot de stock escrito")
	return nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefDecimal(p *decimal.Decimal) any {
	if p == nil {
		return nil
	}
	return p.InexactFloat64()
}

// sheetFor hoja de log que corresponde al tipo de transacción.
func (w *Workbook) sheetFor(t entity.TransactionType) (string, bool) {
	switch t {
	case entity.TxTypeSale:
		return w.sheets.SalesLogSheet, true
	case entity.TxTypePurchase:
		return w.sheets.PurchaseSheet, true
	case entity.TxTypeProduction:
		return w.sheets.ProductionSheet, true
	case entity.TxTypeReturn:
		return w.sheets.ReturnSheet, true
	case entity.TxTypeAdjustment:
		return w.sheets.AdjustmentSheet, true
	default:
		return "", false
	}
}

// AppendTransaction agrega la transacción al final de la hoja de log de su
// tipo, creando la hoja con encabezados si no existe.
func (w *Workbook) AppendTransaction(rec entity.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	core := rec.Core()
	sheet, ok := w.sheetFor(core.Type)
	if !ok {
		return fmt.Errorf("tipo de transacción sin hoja de log: %s", core.Type)
	}
	columns := logColumns[core.Type]

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	next := 1
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	} else {
		existing, err := f.GetRows(sheet)
		if err != nil {
			return err
		}
		next = len(existing) + 1
	}
	if next == 1 {
		header := make([]any, len(columns))
		for i, c := range columns {
			header[i] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		next = 2
	}

	data := rec.ToMap()
	values := make([]any, len(columns))
	for i, column := range columns {
		v := data[column]
		if m, isMap := v.(map[string]any); isMap {
			encoded, err := json.Marshal(m)
			if err != nil {
				return err
			}
			v = string(encoded)
		}
		values[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("guardar libro %s: %w", w.path, err)
	}
	w.log.Debug().
		Str("transaction_id", core.ID).
		Str("sheet", sheet).
		Msg("transacción registrada en el libro")
	return nil
}

// Backup copia el libro al directorio de respaldos con marca de tiempo y
// poda los respaldos más viejos que excedan el máximo configurado.
func (w *Workbook) Backup() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("leer libro para respaldo: %w", err)
	}
	if err := os.MkdirAll(w.backup.Dir, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de respaldos: %w", err)
	}

	name := fmt.Sprintf("%s%s.xlsx", w.backup.Prefix, time.Now().Format("20060102_150405"))
	dest := filepath.Join(w.backup.Dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("escribir respaldo: %w", err)
	}

	if err := w.pruneBackups(); err != nil {
		w.log.Warn().Err(err).Msg("no se pudieron podar respaldos viejos")
	}
	w.log.Info().Str("backup", dest).Msg("respaldo creado")
	return dest, nil
}

// pruneBackups conserva los MaxBackups más recientes. El timestamp en el
// nombre hace que el orden lexicográfico coincida con el cronológico.
func (w *Workbook) pruneBackups() error {
	if w.backup.MaxBackups <= 0 {
		return nil
	}
	entries, err := os.ReadDir(w.backup.Dir)
	if err != nil {
		return err
	}
	var backups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), w.backup.Prefix) {
			backups = append(backups, e.Name())
		}
	}
	if len(backups) <= w.backup.MaxBackups {
		return nil
	}
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-w.backup.MaxBackups] {
		if err := os.Remove(filepath.Join(w.backup.Dir, old)); err != nil {
			return err
		}
	}
	return nil
}
