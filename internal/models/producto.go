package models

import "time"

type CategoriaProducto struct {
	ID          uint   `gorm:"primaryKey"`
	Nombre      string `gorm:"size:100;not null;unique"` // "Tamales", "Bebidas", ...
	Descripcion string `gorm:"size:255"`
	Activa      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CategoriaProducto) TableName() string { return "categorias_producto" }

// TipoAtributo: atributo personalizable de una categoría (ej. "Picante",
// "Tipo Bebida"), con sus opciones ordenadas.
type TipoAtributo struct {
	ID                  uint   `gorm:"primaryKey"`
	CategoriaProductoID uint   `gorm:"index;not null"`
	Nombre              string `gorm:"size:50;not null"`
	Orden               int    `gorm:"not null;default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (TipoAtributo) TableName() string { return "tipos_atributo" }

type OpcionAtributo struct {
	ID              uint    `gorm:"primaryKey"`
	TipoAtributoID  uint    `gorm:"index;not null"`
	Nombre          string  `gorm:"size:50;not null"` // "Sin Chile", "Chile Verde", ...
	PrecioAdicional float64 `gorm:"not null;default:0"`
	Orden           int     `gorm:"not null;default:0"`
	Activa          bool    `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (OpcionAtributo) TableName() string { return "opciones_atributo" }

type Producto struct {
	ID                  uint    `gorm:"primaryKey"`
	Nombre              string  `gorm:"size:100;not null;unique"`
	CategoriaProductoID uint    `gorm:"index;not null"`
	PrecioBase          float64 `gorm:"not null"`
	Descripcion         string  `gorm:"size:255"`
	Activo              bool    `gorm:"not null;default:true"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Producto) TableName() string { return "productos" }

// VarianteProducto: presentación del producto con multiplicador sobre el
// precio base (ej. "Pieza" x1, "Media Docena" x5.5, "Docena" x10).
type VarianteProducto struct {
	ID            uint    `gorm:"primaryKey"`
	ProductoID    uint    `gorm:"index;not null"`
	Nombre        string  `gorm:"size:50;not null"`
	Multiplicador float64 `gorm:"not null;default:1"`
	Activa        bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (VarianteProducto) TableName() string { return "variantes_producto" }
