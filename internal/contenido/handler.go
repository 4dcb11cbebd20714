package contenido

import (
	"github.com/gofiber/fiber/v2"
)

type GenerarRequest struct {
	Parametros map[string]string `json:"parametros"`
}

// POST /api/contenido/:tipo
func GenerarHandler(g *Generador) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tipo := c.Params("tipo")

		var body GenerarRequest
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Parametros == nil {
			body.Parametros = map[string]string{}
		}

		contenido, err := g.Generar(c.Context(), tipo, body.Parametros)
		if err != nil {
			return err
		}
		return c.JSON(contenido)
	}
}
