package catalogo

import (
	"time"

	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ComponenteRequest struct {
	ProductoID         uint `json:"producto_id"`
	VarianteProductoID uint `json:"variante_producto_id"`
	Cantidad           int  `json:"cantidad"`
}

type ComboRequest struct {
	Nombre       string              `json:"nombre"`
	Descripcion  string              `json:"descripcion"`
	Precio       float64             `json:"precio"`
	VigenteDesde *string             `json:"vigente_desde"` // 2006-01-02
	VigenteHasta *string             `json:"vigente_hasta"`
	Componentes  []ComponenteRequest `json:"componentes"`
}

func parseFecha(valor *string) (*time.Time, error) {
	if valor == nil || *valor == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *valor)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// POST /api/combos
// El precio del combo es fijo, independiente de la suma de sus componentes.
func CrearComboHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ComboRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre es obligatorio")
		}
		if body.Precio <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El precio debe ser mayor a 0")
		}
		if len(body.Componentes) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El combo necesita al menos un componente")
		}

		desde, err := parseFecha(body.VigenteDesde)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "vigente_desde inválida, formato esperado AAAA-MM-DD")
		}
		hasta, err := parseFecha(body.VigenteHasta)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "vigente_hasta inválida, formato esperado AAAA-MM-DD")
		}
		if desde != nil && hasta != nil && hasta.Before(*desde) {
			return fiber.NewError(fiber.StatusBadRequest, "vigente_hasta no puede ser anterior a vigente_desde")
		}

		for _, comp := range body.Componentes {
			if comp.Cantidad <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Cada componente necesita cantidad mayor a 0")
			}
			var variante models.VarianteProducto
			if err := db.First(&variante, "id = ?", comp.VarianteProductoID).Error; err != nil ||
				variante.ProductoID != comp.ProductoID {
				return fiber.NewError(fiber.StatusBadRequest, "Componente con producto o variante inválidos")
			}
		}

		combo := models.Combo{
			Nombre:       body.Nombre,
			Descripcion:  body.Descripcion,
			Precio:       body.Precio,
			VigenteDesde: desde,
			VigenteHasta: hasta,
			Activo:       true,
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&combo).Error; err != nil {
				return err
			}
			for _, comp := range body.Componentes {
				componente := models.ComponenteCombo{
					ComboID:            combo.ID,
					ProductoID:         comp.ProductoID,
					VarianteProductoID: comp.VarianteProductoID,
					Cantidad:           comp.Cantidad,
				}
				if err := tx.Create(&componente).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el combo")
		}

		return c.Status(fiber.StatusCreated).JSON(combo)
	}
}

// GET /api/combos?vigentes=true
func ListarCombosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.Combo{})
		if c.Query("incluir_inactivos") != "true" {
			query = query.Where("activo = ?", true)
		}
		if c.Query("vigentes") == "true" {
			ahora := time.Now()
			query = query.
				Where("vigente_desde IS NULL OR vigente_desde <= ?", ahora).
				Where("vigente_hasta IS NULL OR vigente_hasta >= ?", ahora)
		}

		var combos []models.Combo
		if err := query.Order("nombre ASC").Find(&combos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los combos")
		}

		type comboConComponentes struct {
			models.Combo
			Componentes []models.ComponenteCombo `json:"componentes"`
		}

		resp := make([]comboConComponentes, 0, len(combos))
		for _, combo := range combos {
			var componentes []models.ComponenteCombo
			if err := db.Where("combo_id = ?", combo.ID).Find(&componentes).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los componentes")
			}
			resp = append(resp, comboConComponentes{Combo: combo, Componentes: componentes})
		}
		return c.JSON(resp)
	}
}

// PUT /api/combos/:id
func ActualizarComboHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var combo models.Combo
		if err := db.First(&combo, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Combo no encontrado")
		}

		var body struct {
			Nombre       *string  `json:"nombre"`
			Descripcion  *string  `json:"descripcion"`
			Precio       *float64 `json:"precio"`
			VigenteDesde *string  `json:"vigente_desde"`
			VigenteHasta *string  `json:"vigente_hasta"`
			Activo       *bool    `json:"activo"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			combo.Nombre = *body.Nombre
		}
		if body.Descripcion != nil {
			combo.Descripcion = *body.Descripcion
		}
		if body.Precio != nil {
			if *body.Precio <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El precio debe ser mayor a 0")
			}
			combo.Precio = *body.Precio
		}
		if body.VigenteDesde != nil {
			desde, err := parseFecha(body.VigenteDesde)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "vigente_desde inválida, formato esperado AAAA-MM-DD")
			}
			combo.VigenteDesde = desde
		}
		if body.VigenteHasta != nil {
			hasta, err := parseFecha(body.VigenteHasta)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "vigente_hasta inválida, formato esperado AAAA-MM-DD")
			}
			combo.VigenteHasta = hasta
		}
		if body.Activo != nil {
			combo.Activo = *body.Activo
		}

		if err := db.Save(&combo).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el combo")
		}
		return c.JSON(combo)
	}
}
