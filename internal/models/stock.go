package models

import "time"

// Stock: existencia actual de una materia prima en una sucursal.
// Se crea al dar de alta el par sucursal/materia y nunca se borra;
// solo las operaciones del ledger mutan Cantidad.
type Stock struct {
	ID                  uint    `gorm:"primaryKey"`
	SucursalID          uint    `gorm:"not null;uniqueIndex:idx_stock_sucursal_materia"`
	MateriaPrimaID      uint    `gorm:"not null;uniqueIndex:idx_stock_sucursal_materia"`
	Cantidad            float64 `gorm:"not null;default:0"`
	UltimaActualizacion time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Stock) TableName() string { return "stocks" }
