package models

import "time"

type RolUsuario string

const (
	RolAdmin     RolUsuario = "admin"
	RolEncargado RolUsuario = "encargado"
)

type Usuario struct {
	ID           uint       `gorm:"primaryKey"`
	SucursalID   *uint      // nil para administradores de cadena
	Nombre       string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string     `gorm:"size:255;not null"`
	Rol          RolUsuario `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuarios" }
