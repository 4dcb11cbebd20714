package catalogo

import (
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TipoAtributoRequest struct {
	CategoriaProductoID uint   `json:"categoria_producto_id"`
	Nombre              string `json:"nombre"`
	Orden               int    `json:"orden"`
}

// POST /api/atributos
func CrearTipoAtributoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TipoAtributoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Nombre == "" || body.CategoriaProductoID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "nombre y categoria_producto_id son obligatorios")
		}

		var categoria models.CategoriaProducto
		if err := db.First(&categoria, "id = ?", body.CategoriaProductoID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "La categoría no existe")
		}

		tipo := models.TipoAtributo{
			CategoriaProductoID: body.CategoriaProductoID,
			Nombre:              body.Nombre,
			Orden:               body.Orden,
		}
		if err := db.Create(&tipo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el tipo de atributo")
		}
		return c.Status(fiber.StatusCreated).JSON(tipo)
	}
}

// GET /api/atributos?categoria_id=1
// Regresa los tipos de la categoría con sus opciones activas anidadas.
func ListarAtributosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.TipoAtributo{})
		if catID := c.QueryInt("categoria_id", 0); catID > 0 {
			query = query.Where("categoria_producto_id = ?", catID)
		}

		var tipos []models.TipoAtributo
		if err := query.Order("orden ASC, id ASC").Find(&tipos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los atributos")
		}

		type tipoConOpciones struct {
			models.TipoAtributo
			Opciones []models.OpcionAtributo `json:"opciones"`
		}

		resp := make([]tipoConOpciones, 0, len(tipos))
		for _, t := range tipos {
			var opciones []models.OpcionAtributo
			if err := db.Where("tipo_atributo_id = ? AND activa = ?", t.ID, true).
				Order("orden ASC, id ASC").Find(&opciones).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las opciones")
			}
			resp = append(resp, tipoConOpciones{TipoAtributo: t, Opciones: opciones})
		}
		return c.JSON(resp)
	}
}

type OpcionAtributoRequest struct {
	TipoAtributoID  uint    `json:"tipo_atributo_id"`
	Nombre          string  `json:"nombre"`
	PrecioAdicional float64 `json:"precio_adicional"`
	Orden           int     `json:"orden"`
}

// POST /api/opciones
func CrearOpcionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpcionAtributoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Nombre == "" || body.TipoAtributoID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "nombre y tipo_atributo_id son obligatorios")
		}
		if body.PrecioAdicional < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El precio adicional no puede ser negativo")
		}

		var tipo models.TipoAtributo
		if err := db.First(&tipo, "id = ?", body.TipoAtributoID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "El tipo de atributo no existe")
		}

		opcion := models.OpcionAtributo{
			TipoAtributoID:  body.TipoAtributoID,
			Nombre:          body.Nombre,
			PrecioAdicional: body.PrecioAdicional,
			Orden:           body.Orden,
			Activa:          true,
		}
		if err := db.Create(&opcion).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la opción")
		}
		return c.Status(fiber.StatusCreated).JSON(opcion)
	}
}

// PUT /api/opciones/:id
// Cambiar el precio aquí no afecta ventas pasadas: cada venta congela el
// precio adicional vigente al momento de registrarse.
func ActualizarOpcionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var opcion models.OpcionAtributo
		if err := db.First(&opcion, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Opción no encontrada")
		}

		var body struct {
			Nombre          *string  `json:"nombre"`
			PrecioAdicional *float64 `json:"precio_adicional"`
			Orden           *int     `json:"orden"`
			Activa          *bool    `json:"activa"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			opcion.Nombre = *body.Nombre
		}
		if body.PrecioAdicional != nil {
			if *body.PrecioAdicional < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El precio adicional no puede ser negativo")
			}
			opcion.PrecioAdicional = *body.PrecioAdicional
		}
		if body.Orden != nil {
			opcion.Orden = *body.Orden
		}
		if body.Activa != nil {
			opcion.Activa = *body.Activa
		}

		if err := db.Save(&opcion).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la opción")
		}
		return c.JSON(opcion)
	}
}
