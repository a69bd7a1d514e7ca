package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain"
)

// Tipos de transacción. El conjunto es cerrado: el despacho se hace por
// type switch sobre Record, no por polimorfismo de subclases.
type TransactionType string

const (
	TxTypeSale       TransactionType = "sale"
	TxTypePurchase   TransactionType = "purchase"
	TxTypeProduction TransactionType = "production"
	TxTypeReturn     TransactionType = "return"
	TxTypeAdjustment TransactionType = "adjustment"
)

// Estados del ciclo de vida de una transacción.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxCancelled TransactionStatus = "cancelled"
	TxRefunded  TransactionStatus = "refunded"
)

// totalTolerance tolerancia para la consistencia cantidad×precio vs total.
var totalTolerance = decimal.NewFromFloat(0.01)

// Transaction núcleo común embebido en cada variante: identidad, fecha
// contable, estado y sellos de auditoría.
type Transaction struct {
	ID              string
	Type            TransactionType
	Date            time.Time // fecha contable (solo día)
	Status          TransactionStatus
	ReferenceNumber string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StockDelta efecto de una transacción sobre el ledger: el modelo de
// transacciones NO muta stock; el caller aplica estos deltas explícitamente.
type StockDelta struct {
	ProductID string
	Quantity  int // positivo entrada, negativo salida
}

// Record interfaz común de las cinco variantes de transacción.
type Record interface {
	Core() *Transaction
	StockDeltas() []StockDelta
	ToMap() map[string]any
}

// newCore construye el núcleo común. Una fecha contable futura aborta la
// construcción; fecha cero cae en hoy.
func newCore(tt TransactionType, date time.Time, createdBy string) (Transaction, error) {
	now := time.Now()
	if date.IsZero() {
		date = now
	}
	if truncateDay(date).After(truncateDay(now)) {
		return Transaction{}, domain.NewValidationError("transaction_date", "la fecha no puede ser futura")
	}
	if createdBy == "" {
		createdBy = "System"
	}
	return Transaction{
		ID:        uuid.New().String(),
		Type:      tt,
		Date:      truncateDay(date),
		Status:    TxPending,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Core expone el núcleo común para el type switch del manager.
func (t *Transaction) Core() *Transaction { return t }

// MarkCompleted pasa la transacción a COMPLETED. Devuelve false si no estaba
// pendiente.
func (t *Transaction) MarkCompleted() bool {
	if t.Status != TxPending {
		return false
	}
	t.Status = TxCompleted
	t.UpdatedAt = time.Now()
	return true
}

// MarkCancelled pasa la transacción a CANCELLED. Una transacción completada o
// reembolsada ya produjo efectos y no puede cancelarse.
func (t *Transaction) MarkCancelled() bool {
	if t.Status == TxCompleted || t.Status == TxRefunded {
		return false
	}
	t.Status = TxCancelled
	t.UpdatedAt = time.Now()
	return true
}

// MarkRefunded pasa la transacción a REFUNDED. Solo se reembolsa lo que se
// completó.
func (t *Transaction) MarkRefunded() bool {
	if t.Status != TxCompleted {
		return false
	}
	t.Status = TxRefunded
	t.UpdatedAt = time.Now()
	return true
}

func (t *Transaction) coreMap() map[string]any {
	return map[string]any{
		"transaction_id":   t.ID,
		"transaction_type": string(t.Type),
		"transaction_date": t.Date.Format("2006-01-02"),
		"status":           string(t.Status),
		"reference_number": t.ReferenceNumber,
		"notes":            t.Notes,
		"created_by":       t.CreatedBy,
		"created_date":     t.CreatedAt.Format(time.RFC3339),
		"updated_date":     t.UpdatedAt.Format(time.RFC3339),
	}
}

// ── Venta ─────────────────────────────────────────────────────────────────────

// SaleInput datos de entrada para construir una venta.
type SaleInput struct {
	Date            time.Time
	ProductID       string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	TotalAmount     decimal.Decimal // cero = derivar de la fórmula
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	SalesChannel    string
	OrderID         string
	CustomerName    string
	CustomerAddress string
	CreatedBy       string
}

// SaleTransaction venta de producto terminado por canal.
type SaleTransaction struct {
	Transaction
	ProductID       string
	ProductName     string
	Quantity        int
	UnitPrice       decimal.Decimal
	TotalAmount     decimal.Decimal
	ShippingCost    decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	SalesChannel    string
	OrderID         string
	CustomerName    string
	CustomerAddress string
}

// NewSale construye una venta. Si TotalAmount viene en cero se deriva de
// cantidad×precio + envío + impuesto − descuento; si viene informado y no
// cuadra con la fórmula (tolerancia 0.01) la construcción falla: el modelo
// es la última línea de defensa, nunca corrige en silencio.
func NewSale(in SaleInput) (*SaleTransaction, error) {
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser positiva")
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.NewValidationError("unit_price", "el precio no puede ser negativo")
	}
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "producto requerido")
	}

	core, err := newCore(TxTypeSale, in.Date, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	s := &SaleTransaction{
		Transaction:     core,
		ProductID:       in.ProductID,
		ProductName:     in.ProductName,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		ShippingCost:    in.ShippingCost,
		TaxAmount:       in.TaxAmount,
		DiscountAmount:  in.DiscountAmount,
		SalesChannel:    in.SalesChannel,
		OrderID:         in.OrderID,
		CustomerName:    in.CustomerName,
		CustomerAddress: in.CustomerAddress,
	}

	expected := s.NetAmount()
	if in.TotalAmount.IsZero() {
		s.TotalAmount = expected
	} else {
		if in.TotalAmount.Sub(expected).Abs().GreaterThan(totalTolerance) {
			return nil, domain.NewValidationError("total_amount",
				"el total no cuadra con cantidad×precio (esperado "+expected.StringFixed(2)+")")
		}
		s.TotalAmount = in.TotalAmount
	}
	return s, nil
}

// NetAmount monto neto: base + envío + impuesto − descuento.
func (s *SaleTransaction) NetAmount() decimal.Decimal {
	base := s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
	return base.Add(s.ShippingCost).Add(s.TaxAmount).Sub(s.DiscountAmount)
}

// ApplyDiscount aplica un descuento porcentual sobre el monto base y
// recalcula el total.
func (s *SaleTransaction) ApplyDiscount(pct float64) {
	base := s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
	s.DiscountAmount = base.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	s.TotalAmount = s.NetAmount()
	s.UpdatedAt = time.Now()
}

// StockDeltas una venta descuenta la cantidad vendida del producto.
func (s *SaleTransaction) StockDeltas() []StockDelta {
	return []StockDelta{{ProductID: s.ProductID, Quantity: -s.Quantity}}
}

// ToMap serializa la venta a un mapa plano.
func (s *SaleTransaction) ToMap() map[string]any {
	m := s.coreMap()
	m["product_id"] = s.ProductID
	m["product_name"] = s.ProductName
	m["quantity"] = s.Quantity
	m["unit_price"] = s.UnitPrice.InexactFloat64()
	m["total_amount"] = s.TotalAmount.InexactFloat64()
	m["net_amount"] = s.NetAmount().InexactFloat64()
	m["shipping_cost"] = s.ShippingCost.InexactFloat64()
	m["tax_amount"] = s.TaxAmount.InexactFloat64()
	m["discount_amount"] = s.DiscountAmount.InexactFloat64()
	m["sales_channel"] = s.SalesChannel
	m["order_id"] = s.OrderID
	m["customer_name"] = s.CustomerName
	m["customer_address"] = s.CustomerAddress
	return m
}

// ── Compra ────────────────────────────────────────────────────────────────────

// PurchaseInput datos de entrada para construir una compra de materia prima.
type PurchaseInput struct {
	Date            time.Time
	SupplierName    string
	SupplierContact string
	MaterialType    string
	QuantityKg      decimal.Decimal
	RatePerKg       decimal.Decimal
	TotalAmount     decimal.Decimal // cero = derivar de kg×tarifa
	InvoiceNumber   string
	DeliveryDate    *time.Time
	QualityGrade    string
	PaymentMethod   string
	CreatedBy       string
}

// PurchaseTransaction compra de materia prima a proveedor (en kg).
// No afecta el ledger de producto terminado: la materia prima entra al
// inventario vía producción.
type PurchaseTransaction struct {
	Transaction
	SupplierName    string
	SupplierContact string
	MaterialType    string
	QuantityKg      decimal.Decimal
	RatePerKg       decimal.Decimal
	TotalAmount     decimal.Decimal
	InvoiceNumber   string
	DeliveryDate    *time.Time
	QualityGrade    string
	PaymentMethod   string
	PaymentStatus   string
}

// NewPurchase construye una compra; total en cero se deriva de kg×tarifa,
// total informado se verifica contra la fórmula con tolerancia 0.01.
func NewPurchase(in PurchaseInput) (*PurchaseTransaction, error) {
	if in.SupplierName == "" {
		return nil, domain.NewValidationError("supplier_name", "proveedor requerido")
	}
	if !in.QuantityKg.GreaterThan(decimal.Zero) {
		return nil, domain.NewValidationError("quantity_kg", "la cantidad debe ser positiva")
	}
	if in.RatePerKg.IsNegative() {
		return nil, domain.NewValidationError("rate_per_kg", "la tarifa no puede ser negativa")
	}

	core, err := newCore(TxTypePurchase, in.Date, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	p := &PurchaseTransaction{
		Transaction:     core,
		SupplierName:    in.SupplierName,
		SupplierContact: in.SupplierContact,
		MaterialType:    in.MaterialType,
		QuantityKg:      in.QuantityKg,
		RatePerKg:       in.RatePerKg,
		InvoiceNumber:   in.InvoiceNumber,
		DeliveryDate:    in.DeliveryDate,
		QualityGrade:    in.QualityGrade,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   "Pending",
	}

	expected := in.QuantityKg.Mul(in.RatePerKg)
	if in.TotalAmount.IsZero() {
		p.TotalAmount = expected
	} else {
		if in.TotalAmount.Sub(expected).Abs().GreaterThan(totalTolerance) {
			return nil, domain.NewValidationError("total_amount",
				"el total no cuadra con kg×tarifa (esperado "+expected.StringFixed(2)+")")
		}
		p.TotalAmount = in.TotalAmount
	}
	return p, nil
}

// MarkPaid marca la compra como pagada.
func (p *PurchaseTransaction) MarkPaid() {
	p.PaymentStatus = "Paid"
	p.UpdatedAt = time.Now()
}

// StockDeltas la materia prima no entra al ledger de producto terminado.
func (p *PurchaseTransaction) StockDeltas() []StockDelta { return nil }

// ToMap serializa la compra a un mapa plano.
func (p *PurchaseTransaction) ToMap() map[string]any {
	m := p.coreMap()
	m["supplier_name"] = p.SupplierName
	m["supplier_contact"] = p.SupplierContact
	m["material_type"] = p.MaterialType
	m["quantity_kg"] = p.QuantityKg.InexactFloat64()
	m["rate_per_kg"] = p.RatePerKg.InexactFloat64()
	m["total_amount"] = p.TotalAmount.InexactFloat64()
	m["invoice_number"] = p.InvoiceNumber
	m["quality_grade"] = p.QualityGrade
	m["payment_method"] = p.PaymentMethod
	m["payment_status"] = p.PaymentStatus
	if p.DeliveryDate != nil {
		m["delivery_date"] = p.DeliveryDate.Format("2006-01-02")
	} else {
		m["delivery_date"] = nil
	}
	return m
}

// ── Producción ────────────────────────────────────────────────────────────────

// ProductionInput datos de entrada para un lote de producción.
type ProductionInput struct {
	Date              time.Time
	BatchNumber       string
	RawMaterialUsedKg float64
	Operator          string
	Shift             string
	ProductionLine    string
	Output            map[string]int // etiqueta de variante ("1.0kg") → paquetes
	QualityGrade      string
	QualityNotes      string
	Issues            string
	CreatedBy         string
}

// ProductionTransaction lote de producción: convierte materia prima (kg) en
// paquetes de producto terminado por variante.
type ProductionTransaction struct {
	Transaction
	BatchNumber       string
	RawMaterialUsedKg float64
	Operator          string
	Shift             string
	ProductionLine    string
	Output            map[string]int
	QualityGrade      string
	QualityNotes      string
	Issues            string
}

// NewProduction construye un lote. Requiere número de lote y materia prima
// positiva; el output puede completarse después con AddOutput.
func NewProduction(in ProductionInput) (*ProductionTransaction, error) {
	if in.BatchNumber == "" {
		return nil, domain.NewValidationError("batch_number", "número de lote requerido")
	}
	if in.RawMaterialUsedKg <= 0 {
		return nil, domain.NewValidationError("raw_material_used_kg", "la materia prima usada debe ser positiva")
	}

	core, err := newCore(TxTypeProduction, in.Date, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	output := in.Output
	if output == nil {
		output = make(map[string]int)
	}
	return &ProductionTransaction{
		Transaction:       core,
		BatchNumber:       in.BatchNumber,
		RawMaterialUsedKg: in.RawMaterialUsedKg,
		Operator:          in.Operator,
		Shift:             in.Shift,
		ProductionLine:    in.ProductionLine,
		Output:            output,
		QualityGrade:      in.QualityGrade,
		QualityNotes:      in.QualityNotes,
		Issues:            in.Issues,
	}, nil
}

// AddOutput acumula paquetes producidos de una variante.
func (p *ProductionTransaction) AddOutput(variant string, packets int) {
	p.Output[variant] += packets
	p.UpdatedAt = time.Now()
}

// TotalOutputPackets total de paquetes producidos en el lote.
func (p *ProductionTransaction) TotalOutputPackets() int {
	total := 0
	for _, q := range p.Output {
		total += q
	}
	return total
}

// TotalOutputKg kilos producidos: peso de la variante × paquetes.
// Etiquetas que no parsean como peso se ignoran.
func (p *ProductionTransaction) TotalOutputKg() float64 {
	total := 0.0
	for variant, packets := range p.Output {
		w, ok := parseVariantWeight(variant)
		if !ok {
			continue
		}
		total += w * float64(packets)
	}
	return total
}

// EfficiencyPct eficiencia del lote: kg producidos / kg de materia prima ×100.
func (p *ProductionTransaction) EfficiencyPct() float64 {
	if p.RawMaterialUsedKg <= 0 {
		return 0
	}
	return p.TotalOutputKg() / p.RawMaterialUsedKg * 100
}

// StockDeltas cada variante producida entra al ledger como paquetes.
func (p *ProductionTransaction) StockDeltas() []StockDelta {
	deltas := make([]StockDelta, 0, len(p.Output))
	for variant, packets := range p.Output {
		w, ok := parseVariantWeight(variant)
		if !ok || packets <= 0 {
			continue
		}
		deltas = append(deltas, StockDelta{ProductID: ProductIDForWeight(w), Quantity: packets})
	}
	return deltas
}

// ToMap serializa el lote a un mapa plano.
func (p *ProductionTransaction) ToMap() map[string]any {
	output := make(map[string]any, len(p.Output))
	for variant, packets := range p.Output {
		output[variant] = packets
	}
	m := p.coreMap()
	m["batch_number"] = p.BatchNumber
	m["raw_material_used_kg"] = p.RawMaterialUsedKg
	m["operator_name"] = p.Operator
	m["shift"] = p.Shift
	m["production_line"] = p.ProductionLine
	m["output_data"] = output
	m["total_output_packets"] = p.TotalOutputPackets()
	m["total_output_kg"] = p.TotalOutputKg()
	m["efficiency_percentage"] = p.EfficiencyPct()
	m["quality_grade"] = p.QualityGrade
	m["quality_notes"] = p.QualityNotes
	m["issues"] = p.Issues
	return m
}

// parseVariantWeight extrae el peso de una etiqueta de variante ("1.0kg" → 1.0).
func parseVariantWeight(variant string) (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(variant)), "kg")
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w <= 0 {
		return 0, false
	}
	return w, true
}

// ── Devolución ────────────────────────────────────────────────────────────────

// ReturnInput datos de entrada para una devolución.
type ReturnInput struct {
	Date                  time.Time
	OriginalTransactionID string
	ProductID             string
	ProductName           string
	Quantity              int
	ReturnReason          string
	Condition             string
	ActionTaken           string
	RefundAmount          decimal.Decimal
	RestockingFee         decimal.Decimal
	CreatedBy             string
}

// ReturnTransaction devolución de una venta anterior.
type ReturnTransaction struct {
	Transaction
	OriginalTransactionID string
	ProductID             string
	ProductName           string
	Quantity              int
	ReturnReason          string
	Condition             string
	ActionTaken           string
	RefundAmount          decimal.Decimal
	RestockingFee         decimal.Decimal
}

// NewReturn construye una devolución referenciando la transacción original.
func NewReturn(in ReturnInput) (*ReturnTransaction, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "producto requerido")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "la cantidad debe ser positiva")
	}
	if in.RefundAmount.IsNegative() || in.RestockingFee.IsNegative() {
		return nil, domain.NewValidationError("refund_amount", "montos de devolución no pueden ser negativos")
	}

	core, err := newCore(TxTypeReturn, in.Date, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &ReturnTransaction{
		Transaction:           core,
		OriginalTransactionID: in.OriginalTransactionID,
		ProductID:             in.ProductID,
		ProductName:           in.ProductName,
		Quantity:              in.Quantity,
		ReturnReason:          in.ReturnReason,
		Condition:             in.Condition,
		ActionTaken:           in.ActionTaken,
		RefundAmount:          in.RefundAmount,
		RestockingFee:         in.RestockingFee,
	}, nil
}

// NetRefund reembolso neto tras el cargo de reposición.
func (r *ReturnTransaction) NetRefund() decimal.Decimal {
	return r.RefundAmount.Sub(r.RestockingFee)
}

// StockDeltas la devolución reingresa la cantidad al ledger.
func (r *ReturnTransaction) StockDeltas() []StockDelta {
	return []StockDelta{{ProductID: r.ProductID, Quantity: r.Quantity}}
}

// ToMap serializa la devolución a un mapa plano.
func (r *ReturnTransaction) ToMap() map[string]any {
	m := r.coreMap()
	m["original_transaction_id"] = r.OriginalTransactionID
	m["product_id"] = r.ProductID
	m["product_name"] = r.ProductName
	m["quantity"] = r.Quantity
	m["return_reason"] = r.ReturnReason
	m["condition"] = r.Condition
	m["action_taken"] = r.ActionTaken
	m["refund_amount"] = r.RefundAmount.InexactFloat64()
	m["restocking_fee"] = r.RestockingFee.InexactFloat64()
	m["net_refund"] = r.NetRefund().InexactFloat64()
	return m
}

// ── Ajuste ────────────────────────────────────────────────────────────────────

// AdjustmentInput datos de entrada para un ajuste manual de stock.
type AdjustmentInput struct {
	Date          time.Time
	ProductID     string
	QuantityDelta int // con signo
	ReasonCode    string
	CreatedBy     string
}

// AdjustmentTransaction ajuste manual con delta firmado y código de razón
// (merma, conteo físico, corrección de captura).
type AdjustmentTransaction struct {
	Transaction
	ProductID     string
	QuantityDelta int
	ReasonCode    string
}

// NewAdjustment construye un ajuste; el delta cero no registra nada.
func NewAdjustment(in AdjustmentInput) (*AdjustmentTransaction, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "producto requerido")
	}
	if in.QuantityDelta == 0 {
		return nil, domain.NewValidationError("quantity_delta", "el delta no puede ser cero")
	}
	if in.ReasonCode == "" {
		return nil, domain.NewValidationError("reason_code", "código de razón requerido")
	}

	core, err := newCore(TxTypeAdjustment, in.Date, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &AdjustmentTransaction{
		Transaction:   core,
		ProductID:     in.ProductID,
		QuantityDelta: in.QuantityDelta,
		ReasonCode:    in.ReasonCode,
	}, nil
}

// StockDeltas el ajuste aplica su delta tal cual.
func (a *AdjustmentTransaction) StockDeltas() []StockDelta {
	return []StockDelta{{ProductID: a.ProductID, Quantity: a.QuantityDelta}}
}

// ToMap serializa el ajuste a un mapa plano.
func (a *AdjustmentTransaction) ToMap() map[string]any {
	m := a.coreMap()
	m["product_id"] = a.ProductID
	m["quantity_delta"] = a.QuantityDelta
	m["reason_code"] = a.ReasonCode
	return m
}
