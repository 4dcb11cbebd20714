package catalogo

import (
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoriaRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

// POST /api/categorias
func CrearCategoriaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoriaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre es obligatorio")
		}

		categoria := models.CategoriaProducto{
			Nombre:      body.Nombre,
			Descripcion: body.Descripcion,
			Activa:      true,
		}
		if err := db.Create(&categoria).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la categoría")
		}
		return c.Status(fiber.StatusCreated).JSON(categoria)
	}
}

// GET /api/categorias
func ListarCategoriasHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.CategoriaProducto{})
		if c.Query("incluir_inactivas") != "true" {
			query = query.Where("activa = ?", true)
		}

		var categorias []models.CategoriaProducto
		if err := query.Order("nombre ASC").Find(&categorias).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las categorías")
		}
		return c.JSON(categorias)
	}
}

// PUT /api/categorias/:id
func ActualizarCategoriaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var categoria models.CategoriaProducto
		if err := db.First(&categoria, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Categoría no encontrada")
		}

		var body struct {
			Nombre      *string `json:"nombre"`
			Descripcion *string `json:"descripcion"`
			Activa      *bool   `json:"activa"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			categoria.Nombre = *body.Nombre
		}
		if body.Descripcion != nil {
			categoria.Descripcion = *body.Descripcion
		}
		if body.Activa != nil {
			categoria.Activa = *body.Activa
		}

		if err := db.Save(&categoria).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la categoría")
		}
		return c.JSON(categoria)
	}
}
