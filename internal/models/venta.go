package models

import "time"

type EstadoVenta string

const (
	VentaPendiente  EstadoVenta = "pendiente"
	VentaCompletada EstadoVenta = "completada"
	VentaCancelada  EstadoVenta = "cancelada"
)

type TipoPago string

const (
	PagoEfectivo      TipoPago = "efectivo"
	PagoTarjeta       TipoPago = "tarjeta"
	PagoTransferencia TipoPago = "transferencia"
)

// Venta: encabezado. Los totales siempre se derivan de los subtotales de las
// líneas; nunca se capturan de forma independiente.
type Venta struct {
	ID              uint        `gorm:"primaryKey"`
	SucursalID      uint        `gorm:"index;not null"`
	Numero          string      `gorm:"size:30;not null;index"`
	Fecha           time.Time   `gorm:"index;not null"`
	Subtotal        float64     `gorm:"not null"`
	Descuento       float64     `gorm:"not null;default:0"`
	Total           float64     `gorm:"not null"`
	TipoPago        TipoPago    `gorm:"size:20;not null"`
	Estado          EstadoVenta `gorm:"size:20;not null;index"`
	NombreCliente   string      `gorm:"size:100"`
	TelefonoCliente string      `gorm:"size:50"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Venta) TableName() string { return "ventas" }

// DetalleVenta: línea de venta. Referencia producto+variante o combo,
// exclusivamente uno de los dos. El precio unitario se resuelve al momento de
// la venta y no se vuelve a consultar del catálogo.
type DetalleVenta struct {
	ID                 uint      `gorm:"primaryKey"`
	VentaID            uint      `gorm:"index;not null"`
	ProductoID         *uint     `gorm:"index"`
	VarianteProductoID *uint     `gorm:"index"`
	ComboID            *uint     `gorm:"index"`
	Cantidad           int       `gorm:"not null"`
	PrecioUnitario     float64   `gorm:"not null"`
	Subtotal           float64   `gorm:"not null"`
	CreatedAt          time.Time
}

func (DetalleVenta) TableName() string { return "detalles_venta" }

// PersonalizacionDetalle: opción elegida para una línea, con el nombre del
// atributo y el precio adicional congelados al momento de la venta para que
// cambios posteriores del catálogo no alteren ventas históricas.
type PersonalizacionDetalle struct {
	ID               uint      `gorm:"primaryKey"`
	DetalleVentaID   uint      `gorm:"index;not null"`
	OpcionAtributoID uint      `gorm:"not null"`
	TipoAtributo     string    `gorm:"size:50;not null"`
	Opcion           string    `gorm:"size:50;not null"`
	PrecioAdicional  float64   `gorm:"not null"`
	CreatedAt        time.Time
}

func (PersonalizacionDetalle) TableName() string { return "personalizaciones_detalle" }
