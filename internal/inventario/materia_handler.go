package inventario

import (
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MateriaPrimaRequest struct {
	Nombre      string  `json:"nombre"`
	Categoria   string  `json:"categoria"`
	Unidad      string  `json:"unidad"`
	StockMinimo float64 `json:"stock_minimo"`
	StockMaximo float64 `json:"stock_maximo"`
}

// POST /api/materias-primas
func CrearMateriaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MateriaPrimaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre == "" || body.Categoria == "" || body.Unidad == "" {
			return fiber.NewError(fiber.StatusBadRequest, "nombre, categoria y unidad son obligatorios")
		}
		if body.StockMinimo < 0 || body.StockMaximo < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "los umbrales no pueden ser negativos")
		}
		if body.StockMaximo > 0 && body.StockMaximo < body.StockMinimo {
			return fiber.NewError(fiber.StatusBadRequest, "stock_maximo no puede ser menor a stock_minimo")
		}

		materia := models.MateriaPrima{
			Nombre:      body.Nombre,
			Categoria:   body.Categoria,
			Unidad:      body.Unidad,
			StockMinimo: body.StockMinimo,
			StockMaximo: body.StockMaximo,
			Activa:      true,
		}
		if err := db.Create(&materia).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la materia prima")
		}

		return c.Status(fiber.StatusCreated).JSON(materia)
	}
}

// GET /api/materias-primas
func ListarMateriasHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.MateriaPrima{})
		if c.Query("incluir_inactivas") != "true" {
			query = query.Where("activa = ?", true)
		}
		if cat := c.Query("categoria"); cat != "" {
			query = query.Where("categoria = ?", cat)
		}

		var materias []models.MateriaPrima
		if err := query.Order("nombre ASC").Find(&materias).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las materias primas")
		}
		return c.JSON(materias)
	}
}

// PUT /api/materias-primas/:id
// El costo promedio no se toca aquí: solo lo recalcula el ledger.
func ActualizarMateriaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var materia models.MateriaPrima
		if err := db.First(&materia, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Materia prima no encontrada")
		}

		var body struct {
			Nombre      *string  `json:"nombre"`
			Categoria   *string  `json:"categoria"`
			Unidad      *string  `json:"unidad"`
			StockMinimo *float64 `json:"stock_minimo"`
			StockMaximo *float64 `json:"stock_maximo"`
			Activa      *bool    `json:"activa"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			materia.Nombre = *body.Nombre
		}
		if body.Categoria != nil {
			materia.Categoria = *body.Categoria
		}
		if body.Unidad != nil {
			materia.Unidad = *body.Unidad
		}
		if body.StockMinimo != nil {
			materia.StockMinimo = *body.StockMinimo
		}
		if body.StockMaximo != nil {
			materia.StockMaximo = *body.StockMaximo
		}
		if body.Activa != nil {
			materia.Activa = *body.Activa
		}

		if err := db.Save(&materia).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la materia prima")
		}
		return c.JSON(materia)
	}
}
