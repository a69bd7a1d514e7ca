// Package repository define los puertos hacia la persistencia (el workbook).
// El motor consume snapshots tolerantes a columnas faltantes; la normalización
// de nombres de columna es responsabilidad del adaptador.
package repository

import (
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/inventory-engine/internal/domain/entity"
)

// StockRow fila de snapshot de stock tal como llega de una hoja importada.
// Los campos opcionales son punteros: nil significa columna ausente, y el
// calculador computa lo que puede con lo que hay.
type StockRow struct {
	ProductID    string
	ProductName  string
	WeightKg     *float64
	CurrentStock *int
	OpeningStock *int
	MinStock     *int
	MaxStock     *int
	UnitPrice    *decimal.Decimal
	StockValue   *decimal.Decimal
}

// Value valor de la fila: columna stock_value si existe, si no stock×precio.
// ok=false cuando no hay datos suficientes.
func (r StockRow) Value() (decimal.Decimal, bool) {
	if r.StockValue != nil {
		return *r.StockValue, true
	}
	if r.CurrentStock != nil && r.UnitPrice != nil {
		return r.UnitPrice.Mul(decimal.NewFromInt(int64(*r.CurrentStock))), true
	}
	return decimal.Zero, false
}

// SnapshotReader lee el snapshot de stock desde la persistencia.
type SnapshotReader interface {
	ReadStockSnapshot() ([]StockRow, error)
}

// SnapshotWriter sobrescribe la hoja de stock completa.
type SnapshotWriter interface {
	WriteStockSnapshot(rows []StockRow) error
}

// TransactionAppender agrega una transacción al log correspondiente a su tipo.
type TransactionAppender interface {
	AppendTransaction(rec entity.Record) error
}
