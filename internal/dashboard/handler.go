package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"tamaleria-backend/internal/auth"
	"tamaleria-backend/internal/cache"

	"github.com/gofiber/fiber/v2"
)

// Las métricas son de solo lectura, así que las respuestas se cachean por
// (endpoint, sucursal, rango). Con cache.NoOp cada petición consulta la base.

type rango struct {
	desde time.Time
	hasta time.Time // exclusivo
}

// rangoDeQuery lee fecha_desde/fecha_hasta (inclusivas, formato 2006-01-02).
// Sin parámetros el rango es el mes en curso.
func rangoDeQuery(c *fiber.Ctx) (rango, error) {
	ahora := time.Now()
	desde := time.Date(ahora.Year(), ahora.Month(), 1, 0, 0, 0, 0, ahora.Location())
	hasta := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location()).AddDate(0, 0, 1)

	if q := c.Query("fecha_desde"); q != "" {
		d, err := time.Parse("2006-01-02", q)
		if err != nil {
			return rango{}, fiber.NewError(fiber.StatusBadRequest, "fecha_desde inválida, formato esperado AAAA-MM-DD")
		}
		desde = d
	}
	if q := c.Query("fecha_hasta"); q != "" {
		d, err := time.Parse("2006-01-02", q)
		if err != nil {
			return rango{}, fiber.NewError(fiber.StatusBadRequest, "fecha_hasta inválida, formato esperado AAAA-MM-DD")
		}
		hasta = d.AddDate(0, 0, 1)
	}
	if !hasta.After(desde) {
		return rango{}, fiber.NewError(fiber.StatusBadRequest, "fecha_hasta debe ser posterior a fecha_desde")
	}
	return rango{desde: desde, hasta: hasta}, nil
}

func claveCache(endpoint string, sucursalID uint, r rango) string {
	return fmt.Sprintf("dashboard:%s:%d:%s:%s",
		endpoint, sucursalID, r.desde.Format("20060102"), r.hasta.Format("20060102"))
}

// responder entrega del cache si hay hit; si no, ejecuta fn y guarda el JSON.
func responder(c *fiber.Ctx, ca cache.Cache, clave string, ttl time.Duration, fn func() (interface{}, error)) error {
	if cuerpo, ok := ca.Get(c.Context(), clave); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cuerpo)
	}

	datos, err := fn()
	if err != nil {
		return err
	}

	cuerpo, err := json.Marshal(datos)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo serializar la respuesta")
	}
	ca.Set(c.Context(), clave, string(cuerpo), ttl)

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(cuerpo)
}

// GET /api/dashboard/resumen
// Cifras del día y del mes en curso; ignora fecha_desde/fecha_hasta.
func ResumenHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		ahora := time.Now()
		clave := fmt.Sprintf("dashboard:resumen:%d:%s", sucursalID, ahora.Format("20060102"))
		return responder(c, ca, clave, ttl, func() (interface{}, error) {
			return agg.ResumenDelDia(sucursalID, ahora)
		})
	}
}

// GET /api/dashboard/top-productos
func TopProductosHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}
		r, err := rangoDeQuery(c)
		if err != nil {
			return err
		}

		return responder(c, ca, claveCache("top-productos", sucursalID, r), ttl, func() (interface{}, error) {
			top, err := agg.TopProductos(sucursalID, r.desde, r.hasta, 10)
			if err != nil {
				return nil, err
			}
			return fiber.Map{"productos": top}, nil
		})
	}
}

// GET /api/dashboard/bebidas
func BebidasHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}
		r, err := rangoDeQuery(c)
		if err != nil {
			return err
		}

		return responder(c, ca, claveCache("bebidas", sucursalID, r), ttl, func() (interface{}, error) {
			bebidas, err := agg.Bebidas(sucursalID, r.desde, r.hasta)
			if err != nil {
				return nil, err
			}
			return fiber.Map{"bebidas": bebidas}, nil
		})
	}
}

// GET /api/dashboard/picante
func PicanteHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}
		r, err := rangoDeQuery(c)
		if err != nil {
			return err
		}

		return responder(c, ca, claveCache("picante", sucursalID, r), ttl, func() (interface{}, error) {
			return agg.Picante(sucursalID, r.desde, r.hasta)
		})
	}
}

// GET /api/dashboard/rentabilidad
func RentabilidadHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}
		r, err := rangoDeQuery(c)
		if err != nil {
			return err
		}

		return responder(c, ca, claveCache("rentabilidad", sucursalID, r), ttl, func() (interface{}, error) {
			categorias, err := agg.Rentabilidad(sucursalID, r.desde, r.hasta)
			if err != nil {
				return nil, err
			}
			return fiber.Map{
				"porcentaje_costo": agg.PorcentajeCosto,
				"categorias":       categorias,
			}, nil
		})
	}
}

// GET /api/dashboard/mermas
func MermasHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}
		r, err := rangoDeQuery(c)
		if err != nil {
			return err
		}

		return responder(c, ca, claveCache("mermas", sucursalID, r), ttl, func() (interface{}, error) {
			mermas, err := agg.Mermas(sucursalID, r.desde, r.hasta, 10)
			if err != nil {
				return nil, err
			}
			return fiber.Map{"mermas": mermas}, nil
		})
	}
}

// GET /api/dashboard/inventario
func InventarioHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		clave := fmt.Sprintf("dashboard:inventario:%d", sucursalID)
		return responder(c, ca, clave, ttl, func() (interface{}, error) {
			return agg.Inventario(sucursalID, time.Now())
		})
	}
}

// GET /api/dashboard/tendencia?dias=7
func TendenciaHandler(agg *Aggregator, ca cache.Cache, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		dias := c.QueryInt("dias", 7)
		if dias < 1 || dias > 90 {
			return fiber.NewError(fiber.StatusBadRequest, "dias debe estar entre 1 y 90")
		}

		ahora := time.Now()
		clave := fmt.Sprintf("dashboard:tendencia:%d:%d:%s", sucursalID, dias, ahora.Format("20060102"))
		return responder(c, ca, clave, ttl, func() (interface{}, error) {
			puntos, err := agg.Tendencia(sucursalID, ahora, dias)
			if err != nil {
				return nil, err
			}
			return fiber.Map{"dias": dias, "puntos": puntos}, nil
		})
	}
}
