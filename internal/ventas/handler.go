package ventas

import (
	"math"
	"time"

	"tamaleria-backend/internal/auth"
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LineaRequest struct {
	ProductoID         *uint  `json:"producto_id"`
	VarianteProductoID *uint  `json:"variante_producto_id"`
	ComboID            *uint  `json:"combo_id"`
	Cantidad           int    `json:"cantidad"`
	Opciones           []uint `json:"opciones"`
}

type CrearVentaRequest struct {
	TipoPago        string         `json:"tipo_pago"`
	NombreCliente   string         `json:"nombre_cliente"`
	TelefonoCliente string         `json:"telefono_cliente"`
	Lineas          []LineaRequest `json:"lineas"`
}

type DetalleResponse struct {
	ID                 uint                      `json:"id"`
	ProductoID         *uint                     `json:"producto_id,omitempty"`
	VarianteProductoID *uint                     `json:"variante_producto_id,omitempty"`
	ComboID            *uint                     `json:"combo_id,omitempty"`
	Cantidad           int                       `json:"cantidad"`
	PrecioUnitario     float64                   `json:"precio_unitario"`
	Subtotal           float64                   `json:"subtotal"`
	Personalizaciones  []PersonalizacionResponse `json:"personalizaciones,omitempty"`
}

type PersonalizacionResponse struct {
	TipoAtributo    string  `json:"tipo_atributo"`
	Opcion          string  `json:"opcion"`
	PrecioAdicional float64 `json:"precio_adicional"`
}

type VentaResponse struct {
	ID              uint              `json:"id"`
	SucursalID      uint              `json:"sucursal_id"`
	Numero          string            `json:"numero"`
	Fecha           string            `json:"fecha"`
	Subtotal        float64           `json:"subtotal"`
	Descuento       float64           `json:"descuento"`
	Total           float64           `json:"total"`
	TipoPago        string            `json:"tipo_pago"`
	Estado          string            `json:"estado"`
	NombreCliente   string            `json:"nombre_cliente,omitempty"`
	TelefonoCliente string            `json:"telefono_cliente,omitempty"`
	Detalles        []DetalleResponse `json:"detalles,omitempty"`
}

func ventaResponse(v *models.Venta) VentaResponse {
	return VentaResponse{
		ID:              v.ID,
		SucursalID:      v.SucursalID,
		Numero:          v.Numero,
		Fecha:           v.Fecha.Format("2006-01-02 15:04:05"),
		Subtotal:        v.Subtotal,
		Descuento:       v.Descuento,
		Total:           v.Total,
		TipoPago:        string(v.TipoPago),
		Estado:          string(v.Estado),
		NombreCliente:   v.NombreCliente,
		TelefonoCliente: v.TelefonoCliente,
	}
}

// POST /api/ventas
func CrearVentaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearVentaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		lineas := make([]LineaVenta, 0, len(body.Lineas))
		for _, l := range body.Lineas {
			lineas = append(lineas, LineaVenta{
				ProductoID:         l.ProductoID,
				VarianteProductoID: l.VarianteProductoID,
				ComboID:            l.ComboID,
				Cantidad:           l.Cantidad,
				Opciones:           l.Opciones,
			})
		}

		venta, err := RegistrarVenta(db, SolicitudVenta{
			SucursalID:      sucursalID,
			TipoPago:        models.TipoPago(body.TipoPago),
			NombreCliente:   body.NombreCliente,
			TelefonoCliente: body.TelefonoCliente,
			Lineas:          lineas,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(ventaResponse(venta))
	}
}

// GET /api/ventas?pagina=1&por_pagina=20&fecha_desde=...&fecha_hasta=...&estado=completada
// Paginación con página base 1; regresa total de registros y de páginas.
func ListarVentasHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		pagina := c.QueryInt("pagina", 1)
		porPagina := c.QueryInt("por_pagina", 20)
		if pagina < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "pagina debe ser 1 o mayor")
		}
		if porPagina < 1 || porPagina > 200 {
			return fiber.NewError(fiber.StatusBadRequest, "por_pagina debe estar entre 1 y 200")
		}

		query := db.Model(&models.Venta{}).Where("sucursal_id = ?", sucursalID)

		if estado := c.Query("estado"); estado != "" {
			query = query.Where("estado = ?", estado)
		}
		if desde := c.Query("fecha_desde"); desde != "" {
			if d, err := time.Parse("2006-01-02", desde); err == nil {
				query = query.Where("fecha >= ?", d)
			}
		}
		if hasta := c.Query("fecha_hasta"); hasta != "" {
			if d, err := time.Parse("2006-01-02", hasta); err == nil {
				d = d.Add(24*time.Hour - time.Second)
				query = query.Where("fecha <= ?", d)
			}
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron contar las ventas")
		}

		var ventas []models.Venta
		if err := query.Order("fecha DESC, id DESC").
			Offset((pagina - 1) * porPagina).
			Limit(porPagina).
			Find(&ventas).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}

		resp := make([]VentaResponse, 0, len(ventas))
		for i := range ventas {
			resp = append(resp, ventaResponse(&ventas[i]))
		}

		return c.JSON(fiber.Map{
			"pagina":        pagina,
			"por_pagina":    porPagina,
			"total":         total,
			"total_paginas": int(math.Ceil(float64(total) / float64(porPagina))),
			"ventas":        resp,
		})
	}
}

// GET /api/ventas/:id
func ObtenerVentaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var venta models.Venta
		if err := db.First(&venta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}

		var detalles []models.DetalleVenta
		if err := db.Where("venta_id = ?", venta.ID).Order("id ASC").Find(&detalles).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron leer las líneas")
		}

		resp := ventaResponse(&venta)
		for _, d := range detalles {
			var personalizaciones []models.PersonalizacionDetalle
			db.Where("detalle_venta_id = ?", d.ID).Order("id ASC").Find(&personalizaciones)

			pr := make([]PersonalizacionResponse, 0, len(personalizaciones))
			for _, p := range personalizaciones {
				pr = append(pr, PersonalizacionResponse{
					TipoAtributo:    p.TipoAtributo,
					Opcion:          p.Opcion,
					PrecioAdicional: p.PrecioAdicional,
				})
			}

			resp.Detalles = append(resp.Detalles, DetalleResponse{
				ID:                 d.ID,
				ProductoID:         d.ProductoID,
				VarianteProductoID: d.VarianteProductoID,
				ComboID:            d.ComboID,
				Cantidad:           d.Cantidad,
				PrecioUnitario:     d.PrecioUnitario,
				Subtotal:           d.Subtotal,
				Personalizaciones:  pr,
			})
		}

		return c.JSON(resp)
	}
}

// POST /api/ventas/:id/cancelar
// Solo cambia el estado; las líneas y los snapshots de precio quedan intactos.
func CancelarVentaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var venta models.Venta
		if err := db.First(&venta, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}

		if venta.Estado == models.VentaCancelada {
			return fiber.NewError(fiber.StatusBadRequest, "La venta ya está cancelada")
		}

		if err := db.Model(&models.Venta{}).Where("id = ?", venta.ID).
			Update("estado", models.VentaCancelada).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo cancelar la venta")
		}

		venta.Estado = models.VentaCancelada
		return c.JSON(ventaResponse(&venta))
	}
}
