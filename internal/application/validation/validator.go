// Package validation valida datos crudos de entrada antes de construir
// transacciones. Trabaja sobre mapas laxos (strings y números mezclados, como
// llegan de planillas) y acumula todos los errores en lugar de cortar en el
// primero.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tu-usuario/inventory-engine/pkg/config"
	"github.com/tu-usuario/inventory-engine/pkg/logger"
)

var (
	batchPattern   = regexp.MustCompile(`^BATCH-\d{8}-\d{1,3}$`)
	orderPattern   = regexp.MustCompile(`^[A-Za-z0-9\-]{5,20}$`)
	invoicePattern = regexp.MustCompile(`^[A-Za-z0-9\-/]{3,20}$`)
	variantPattern = regexp.MustCompile(`^\d+(\.\d+)?kg$`)
)

// totalTolerance diferencia tolerada entre el total informado y el derivado.
const totalTolerance = 0.01

// Validator valida datos de entrada con los límites configurados.
type Validator struct {
	limits   config.ValidationConfig
	variants map[string]struct{}
	channels map[string]struct{}
	log      *logger.Logger
}

// New crea un validador. Las variantes y canales válidos salen de la
// configuración del motor; con listas vacías se aceptan por patrón.
func New(cfg *config.Config, log *logger.Logger) *Validator {
	v := &Validator{
		limits:   cfg.Validation,
		variants: make(map[string]struct{}),
		channels: make(map[string]struct{}),
		log:      log,
	}
	for _, seed := range cfg.Engine.Seeds {
		v.variants[strings.ToLower(weightLabel(seed.WeightKg))] = struct{}{}
	}
	for _, ch := range cfg.Engine.SalesChannels {
		v.channels[strings.ToLower(ch)] = struct{}{}
	}
	return v
}

func weightLabel(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "kg"
}

// ── Coerciones laxas ──────────────────────────────────────────────────────────

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return strings.TrimSpace(s), ok
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "02/01/2006"} {
			if t, err := time.Parse(layout, strings.TrimSpace(d)); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ── Chequeos compartidos ──────────────────────────────────────────────────────

func requireFields(data map[string]any, fields []string, errs *[]string) {
	for _, field := range fields {
		v, ok := data[field]
		if !ok || v == nil {
			*errs = append(*errs, fmt.Sprintf("campo requerido ausente: %s", field))
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			*errs = append(*errs, fmt.Sprintf("campo requerido vacío: %s", field))
		}
	}
}

func (v *Validator) checkDate(data map[string]any, errs *[]string) {
	raw, ok := data["date"]
	if !ok || raw == nil {
		return
	}
	date, parsed := asDate(raw)
	if !parsed {
		*errs = append(*errs, "fecha inválida: formato no reconocido")
		return
	}
	if calendarDay(date).After(calendarDay(time.Now())) {
		*errs = append(*errs, "fecha inválida: no puede ser futura")
	}
}

// calendarDay normaliza a la fecha calendario del valor, sin hora y en UTC,
// para que la comparación de días no dependa del huso horario de cada lado.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (v *Validator) checkProduct(data map[string]any, errs *[]string) {
	raw, ok := data["product"]
	if !ok || raw == nil {
		return
	}
	name, isStr := asString(raw)
	if !isStr || name == "" {
		*errs = append(*errs, "producto inválido: debe ser texto no vacío")
		return
	}
	lower := strings.ToLower(name)
	if len(v.variants) > 0 {
		if _, found := v.variants[lower]; !found {
			*errs = append(*errs, fmt.Sprintf("producto desconocido: %s", name))
		}
		return
	}
	if !variantPattern.MatchString(lower) {
		*errs = append(*errs, fmt.Sprintf("producto inválido: %s no es una variante por peso", name))
	}
}

func (v *Validator) checkRange(data map[string]any, field string, min, max float64, errs *[]string) (float64, bool) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return 0, false
	}
	n, isNum := asNumber(raw)
	if !isNum {
		*errs = append(*errs, fmt.Sprintf("%s inválido: no es numérico", field))
		return 0, false
	}
	if n <= min || n > max {
		*errs = append(*errs, fmt.Sprintf("%s fuera de rango: debe estar en (%v, %v]", field, min, max))
		return n, false
	}
	return n, true
}

func checkPattern(data map[string]any, field string, pattern *regexp.Regexp, errs *[]string) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return
	}
	s, isStr := asString(raw)
	if !isStr || !pattern.MatchString(s) {
		*errs = append(*errs, fmt.Sprintf("%s inválido: no cumple el formato esperado", field))
	}
}

// ── Validadores por tipo de dato ──────────────────────────────────────────────

// ValidateSaleData valida una fila cruda de venta.
func (v *Validator) ValidateSaleData(data map[string]any) (bool, []string) {
	var errs []string
	requireFields(data, []string{"date", "product", "quantity", "unit_price"}, &errs)
	v.checkDate(data, &errs)
	v.checkProduct(data, &errs)

	qty, qtyOK := v.checkRange(data, "quantity", 0, v.limits.MaxQuantity, &errs)
	if qtyOK && qty != float64(int(qty)) {
		errs = append(errs, "quantity inválido: debe ser entero")
		qtyOK = false
	}
	price, priceOK := v.checkRange(data, "unit_price", 0, v.limits.MaxPrice, &errs)

	if raw, ok := data["channel"]; ok && raw != nil && len(v.channels) > 0 {
		if ch, isStr := asString(raw); isStr {
			if _, found := v.channels[strings.ToLower(ch)]; !found {
				errs = append(errs, fmt.Sprintf("canal de venta desconocido: %s", ch))
			}
		}
	}
	checkPattern(data, "order_id", orderPattern, &errs)

	if raw, ok := data["total_amount"]; ok && raw != nil && qtyOK && priceOK {
		if total, isNum := asNumber(raw); isNum {
			expected := qty * price
			if diff := total - expected; diff > totalTolerance || diff < -totalTolerance {
				errs = append(errs, fmt.Sprintf(
					"total inconsistente: informado %.2f, esperado %.2f", total, expected))
			}
		}
	}
	return len(errs) == 0, errs
}

// ValidatePurchaseData valida una fila cruda de compra de materia prima.
func (v *Validator) ValidatePurchaseData(data map[string]any) (bool, []string) {
	var errs []string
	requireFields(data, []string{"date", "supplier_name", "quantity_kg", "rate_per_kg"}, &errs)
	v.checkDate(data, &errs)

	kg, kgOK := v.checkRange(data, "quantity_kg", 0, v.limits.MaxWeightKg, &errs)
	rate, rateOK := v.checkRange(data, "rate_per_kg", 0, v.limits.MaxPrice, &errs)
	checkPattern(data, "invoice_number", invoicePattern, &errs)

	if raw, ok := data["total_amount"]; ok && raw != nil && kgOK && rateOK {
		if total, isNum := asNumber(raw); isNum {
			expected := kg * rate
			if diff := total - expected; diff > totalTolerance || diff < -totalTolerance {
				errs = append(errs, fmt.Sprintf(
					"total inconsistente: informado %.2f, esperado %.2f", total, expected))
			}
		}
	}
	return len(errs) == 0, errs
}

// ValidateProductionData valida una fila cruda de producción.
func (v *Validator) ValidateProductionData(data map[string]any) (bool, []string) {
	var errs []string
	requireFields(data, []string{"date", "batch_number", "raw_material_used_kg"}, &errs)
	v.checkDate(data, &errs)
	checkPattern(data, "batch_number", batchPattern, &errs)
	v.checkRange(data, "raw_material_used_kg", 0, v.limits.MaxWeightKg, &errs)

	if raw, ok := data["output"]; ok && raw != nil {
		output, isMap := raw.(map[string]any)
		if !isMap {
			errs = append(errs, "output inválido: debe ser un mapa variante → paquetes")
		} else {
			for label, packets := range output {
				n, isNum := asNumber(packets)
				if !isNum || n < 0 || n != float64(int(n)) {
					errs = append(errs, fmt.Sprintf("output inválido para %s: debe ser entero no negativo", label))
				}
				if !variantPattern.MatchString(strings.ToLower(label)) {
					errs = append(errs, fmt.Sprintf("variante de output desconocida: %s", label))
				}
			}
		}
	}
	return len(errs) == 0, errs
}

// ValidateStockData valida una fila cruda de snapshot de stock.
func (v *Validator) ValidateStockData(data map[string]any) (bool, []string) {
	var errs []string
	requireFields(data, []string{"product", "current_stock"}, &errs)
	v.checkProduct(data, &errs)

	if raw, ok := data["current_stock"]; ok && raw != nil {
		if n, isNum := asNumber(raw); !isNum {
			errs = append(errs, "current_stock inválido: no es numérico")
		} else if n < 0 || n > v.limits.MaxStock {
			errs = append(errs, fmt.Sprintf("current_stock fuera de rango: debe estar en [0, %v]", v.limits.MaxStock))
		}
	}

	minStock, hasMin := asNumber(data["min_stock"])
	maxStock, hasMax := asNumber(data["max_stock"])
	if hasMin && minStock < 0 {
		errs = append(errs, "min_stock inválido: no puede ser negativo")
	}
	if hasMin && hasMax && maxStock < minStock {
		errs = append(errs, "max_stock inválido: debe ser mayor o igual a min_stock")
	}
	return len(errs) == 0, errs
}

// ── Validación masiva ─────────────────────────────────────────────────────────

// BulkResult resultado de validar un lote de filas.
type BulkResult struct {
	TotalRows   int              `json:"total_rows"`
	ValidRows   []map[string]any `json:"-"`
	RowErrors   map[int][]string `json:"row_errors"`
	InvalidRows int              `json:"invalid_rows"`
}

// ValidateBulk valida cada fila con el validador que corresponda al tipo de
// dato. Los índices de error son posiciones en el lote, base cero.
func (v *Validator) ValidateBulk(kind string, rows []map[string]any) BulkResult {
	validate := v.validatorFor(kind)
	result := BulkResult{
		TotalRows: len(rows),
		RowErrors: make(map[int][]string),
	}
	for i, row := range rows {
		if validate == nil {
			result.RowErrors[i] = []string{fmt.Sprintf("tipo de dato desconocido: %s", kind)}
			continue
		}
		if ok, errs := validate(row); !ok {
			result.RowErrors[i] = errs
		} else {
			result.ValidRows = append(result.ValidRows, row)
		}
	}
	result.InvalidRows = len(result.RowErrors)
	if result.InvalidRows > 0 {
		v.log.Warn().
			Str("kind", kind).
			Int("total", result.TotalRows).
			Int("invalid", result.InvalidRows).
			Msg("lote con filas inválidas")
	}
	return result
}

func (v *Validator) validatorFor(kind string) func(map[string]any) (bool, []string) {
	switch kind {
	case "sale":
		return v.ValidateSaleData
	case "purchase":
		return v.ValidatePurchaseData
	case "production":
		return v.ValidateProductionData
	case "stock":
		return v.ValidateStockData
	default:
		return nil
	}
}

// ── Archivos subidos ──────────────────────────────────────────────────────────

var allowedExtensions = map[string]struct{}{
	".xlsx": {},
	".xls":  {},
}

// ValidateUploadFile chequea extensión y tamaño de un archivo de planilla.
func (v *Validator) ValidateUploadFile(name string, sizeBytes int64) (bool, []string) {
	var errs []string
	lower := strings.ToLower(name)
	dot := strings.LastIndex(lower, ".")
	if dot < 0 {
		errs = append(errs, "archivo sin extensión")
	} else if _, ok := allowedExtensions[lower[dot:]]; !ok {
		errs = append(errs, fmt.Sprintf("extensión no permitida: %s", lower[dot:]))
	}
	maxBytes := int64(v.limits.MaxFileSizeMB) * 1024 * 1024
	if sizeBytes > maxBytes {
		errs = append(errs, fmt.Sprintf("archivo demasiado grande: máximo %dMB", v.limits.MaxFileSizeMB))
	}
	if sizeBytes <= 0 {
		errs = append(errs, "archivo vacío")
	}
	return len(errs) == 0, errs
}
