package models

import "time"

type Sucursal struct {
	ID        uint   `gorm:"primaryKey"`
	Nombre    string `gorm:"size:100;not null;unique"`
	Direccion string `gorm:"size:255"`
	Telefono  string `gorm:"size:50"` // Teléfono opcional
	Activa    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Sucursal) TableName() string { return "sucursales" }
