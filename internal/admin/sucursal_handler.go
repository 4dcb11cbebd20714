package admin

import (
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SucursalRequest struct {
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
	Telefono  string `json:"telefono"`
}

// POST /api/sucursales
func CrearSucursalHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SucursalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre es obligatorio")
		}

		sucursal := models.Sucursal{
			Nombre:    body.Nombre,
			Direccion: body.Direccion,
			Telefono:  body.Telefono,
			Activa:    true,
		}
		if err := db.Create(&sucursal).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la sucursal")
		}
		return c.Status(fiber.StatusCreated).JSON(sucursal)
	}
}

// GET /api/sucursales
func ListarSucursalesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.Sucursal{})
		if c.Query("incluir_inactivas") != "true" {
			query = query.Where("activa = ?", true)
		}

		var sucursales []models.Sucursal
		if err := query.Order("nombre ASC").Find(&sucursales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las sucursales")
		}
		return c.JSON(sucursales)
	}
}

// PUT /api/sucursales/:id
// Desactivar una sucursal bloquea ventas nuevas pero conserva su historial.
func ActualizarSucursalHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var sucursal models.Sucursal
		if err := db.First(&sucursal, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sucursal no encontrada")
		}

		var body struct {
			Nombre    *string `json:"nombre"`
			Direccion *string `json:"direccion"`
			Telefono  *string `json:"telefono"`
			Activa    *bool   `json:"activa"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			sucursal.Nombre = *body.Nombre
		}
		if body.Direccion != nil {
			sucursal.Direccion = *body.Direccion
		}
		if body.Telefono != nil {
			sucursal.Telefono = *body.Telefono
		}
		if body.Activa != nil {
			sucursal.Activa = *body.Activa
		}

		if err := db.Save(&sucursal).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la sucursal")
		}
		return c.JSON(sucursal)
	}
}
