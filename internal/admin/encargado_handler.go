package admin

import (
	"strings"

	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type EncargadoRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/sucursales/:id/encargados
// Da de alta un encargado amarrado a la sucursal; su token siempre operará
// sobre ella.
func CrearEncargadoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var sucursal models.Sucursal
		if err := db.First(&sucursal, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sucursal no encontrada")
		}

		var body EncargadoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Nombre == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "nombre, email y password son obligatorios")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "La contraseña debe tener al menos 8 caracteres")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
		}

		usuario := models.Usuario{
			SucursalID:   &sucursal.ID,
			Nombre:       body.Nombre,
			Email:        body.Email,
			PasswordHash: string(hash),
			Rol:          models.RolEncargado,
		}
		if err := db.Create(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No se pudo crear el encargado; revisa que el email no esté repetido")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":          usuario.ID,
			"nombre":      usuario.Nombre,
			"email":       usuario.Email,
			"rol":         usuario.Rol,
			"sucursal_id": usuario.SucursalID,
		})
	}
}

// GET /api/sucursales/:id/encargados
func ListarEncargadosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var sucursal models.Sucursal
		if err := db.First(&sucursal, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sucursal no encontrada")
		}

		var usuarios []models.Usuario
		if err := db.Where("sucursal_id = ? AND rol = ?", sucursal.ID, models.RolEncargado).
			Order("nombre ASC").Find(&usuarios).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los encargados")
		}

		resp := make([]fiber.Map, 0, len(usuarios))
		for _, u := range usuarios {
			resp = append(resp, fiber.Map{
				"id":     u.ID,
				"nombre": u.Nombre,
				"email":  u.Email,
			})
		}
		return c.JSON(resp)
	}
}
