package models

import "time"

// Combo: paquete de precio fijo con ventana de vigencia opcional.
type Combo struct {
	ID            uint    `gorm:"primaryKey"`
	Nombre        string  `gorm:"size:100;not null;unique"`
	Descripcion   string  `gorm:"size:255"`
	Precio        float64 `gorm:"not null"`
	VigenteDesde  *time.Time
	VigenteHasta  *time.Time
	Activo        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Combo) TableName() string { return "combos" }

type ComponenteCombo struct {
	ID                 uint `gorm:"primaryKey"`
	ComboID            uint `gorm:"index;not null"`
	ProductoID         uint `gorm:"not null"`
	VarianteProductoID uint `gorm:"not null"`
	Cantidad           int  `gorm:"not null;default:1"`
	CreatedAt          time.Time
}

func (ComponenteCombo) TableName() string { return "componentes_combo" }
