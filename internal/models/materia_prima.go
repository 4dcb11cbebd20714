package models

import "time"

// MateriaPrima: insumo controlado por costo promedio ponderado y umbrales de alerta.
// El costo promedio solo lo recalcula el ledger al registrar entradas.
type MateriaPrima struct {
	ID            uint    `gorm:"primaryKey"`
	Nombre        string  `gorm:"size:100;not null;unique"`
	Categoria     string  `gorm:"size:50;not null;index"` // masa, relleno, envoltura, bebida, empaque...
	Unidad        string  `gorm:"size:20;not null"`       // kg, lt, pza
	StockMinimo   float64 `gorm:"not null;default:0"`
	StockMaximo   float64 `gorm:"not null;default:0"`
	CostoPromedio float64 `gorm:"not null;default:0"`
	Activa        bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (MateriaPrima) TableName() string { return "materias_primas" }
