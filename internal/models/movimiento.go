package models

import "time"

type TipoMovimiento string

const (
	MovimientoEntrada TipoMovimiento = "entrada"
	MovimientoSalida  TipoMovimiento = "salida"
	MovimientoMerma   TipoMovimiento = "merma"
	MovimientoAjuste  TipoMovimiento = "ajuste"
)

// MovimientoInventario: registro inmutable del ledger. Se crea una vez por
// operación que afecta stock; nunca se actualiza ni se borra.
type MovimientoInventario struct {
	ID                  uint           `gorm:"primaryKey"`
	SucursalID          uint           `gorm:"index;not null"`
	MateriaPrimaID      uint           `gorm:"index;not null"`
	Tipo                TipoMovimiento `gorm:"size:20;not null;index"`
	Cantidad            float64        `gorm:"not null"`
	CostoUnitario       float64        `gorm:"not null"`
	MontoTotal          float64        `gorm:"not null"`
	Motivo              string         `gorm:"size:500;not null"`
	DocumentoReferencia string         `gorm:"size:100"`
	Proveedor           string         `gorm:"size:100"`
	Lote                string         `gorm:"size:50"`
	Fecha               time.Time      `gorm:"index;not null"`
	CreatedAt           time.Time
}

func (MovimientoInventario) TableName() string { return "movimientos_inventario" }
