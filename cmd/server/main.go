package main

import (
	"errors"
	"log"
	"strings"

	"tamaleria-backend/internal/admin"
	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/auth"
	"tamaleria-backend/internal/cache"
	"tamaleria-backend/internal/catalogo"
	"tamaleria-backend/internal/config"
	"tamaleria-backend/internal/contenido"
	"tamaleria-backend/internal/dashboard"
	"tamaleria-backend/internal/database"
	"tamaleria-backend/internal/inventario"
	"tamaleria-backend/internal/logger"
	"tamaleria-backend/internal/metrics"
	"tamaleria-backend/internal/models"
	"tamaleria-backend/internal/ventas"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional; en producción las variables llegan del entorno.
	_ = godotenv.Load()

	cfg := config.Load()
	appLog := logger.New(cfg.Env)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}

	metrics.Serve(cfg.MetricsAddr, appLog)

	var ca cache.Cache = cache.NoOp{}
	if cfg.RedisAddr != "" {
		ca = cache.NewRedis(cfg.RedisAddr)
		appLog.Info("cache Redis habilitado", "addr", cfg.RedisAddr)
	}

	generador := contenido.NewGenerador(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		cfg.LLMTimeout, ca, cfg.CacheTTL, appLog)
	agregador := dashboard.NewAggregator(db, cfg.PorcentajeCostoEstimado)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}

			codigo := apperr.CodigoHTTP(err)
			if codigo == fiber.StatusInternalServerError {
				appLog.Error("error no manejado", "path", c.Path(), "error", err)
				return c.Status(codigo).JSON(fiber.Map{"error": "Error inesperado del servidor"})
			}
			return c.Status(codigo).JSON(fiber.Map{"error": err.Error()})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Auth público
	api.Post("/auth/registrar-admin", auth.RegistrarAdminHandler(db, cfg))
	api.Post("/auth/login", auth.LoginHandler(db, cfg))

	// Protegido
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/yo", auth.YoHandler(db))

	// Solo admin: sucursales, catálogo y materias primas
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRol(models.RolAdmin))

	adminRoutes.Post("/sucursales", admin.CrearSucursalHandler(db))
	adminRoutes.Put("/sucursales/:id", admin.ActualizarSucursalHandler(db))
	adminRoutes.Post("/sucursales/:id/encargados", admin.CrearEncargadoHandler(db))
	adminRoutes.Get("/sucursales/:id/encargados", admin.ListarEncargadosHandler(db))

	adminRoutes.Post("/materias-primas", inventario.CrearMateriaHandler(db))
	adminRoutes.Put("/materias-primas/:id", inventario.ActualizarMateriaHandler(db))

	adminRoutes.Post("/categorias", catalogo.CrearCategoriaHandler(db))
	adminRoutes.Put("/categorias/:id", catalogo.ActualizarCategoriaHandler(db))
	adminRoutes.Post("/atributos", catalogo.CrearTipoAtributoHandler(db))
	adminRoutes.Post("/opciones", catalogo.CrearOpcionHandler(db))
	adminRoutes.Put("/opciones/:id", catalogo.ActualizarOpcionHandler(db))
	adminRoutes.Post("/productos", catalogo.CrearProductoHandler(db))
	adminRoutes.Put("/productos/:id", catalogo.ActualizarProductoHandler(db))
	adminRoutes.Post("/productos/:id/variantes", catalogo.CrearVarianteHandler(db))
	adminRoutes.Post("/combos", catalogo.CrearComboHandler(db))
	adminRoutes.Put("/combos/:id", catalogo.ActualizarComboHandler(db))

	// Lecturas compartidas del catálogo
	protected.Get("/sucursales", admin.ListarSucursalesHandler(db))
	protected.Get("/materias-primas", inventario.ListarMateriasHandler(db))
	protected.Get("/categorias", catalogo.ListarCategoriasHandler(db))
	protected.Get("/atributos", catalogo.ListarAtributosHandler(db))
	protected.Get("/productos", catalogo.ListarProductosHandler(db))
	protected.Get("/combos", catalogo.ListarCombosHandler(db))

	// Inventario
	protected.Post("/inventario/stock", inventario.CrearStockHandler(db))
	protected.Get("/inventario/stock", inventario.ListarStockHandler(db))
	protected.Post("/inventario/entradas", inventario.CrearEntradaHandler(db))
	protected.Post("/inventario/salidas", inventario.CrearSalidaHandler(db))
	protected.Post("/inventario/mermas", inventario.CrearMermaHandler(db))
	protected.Post("/inventario/ajustes", inventario.CrearAjusteHandler(db))
	protected.Get("/inventario/movimientos", inventario.ListarMovimientosHandler(db))
	protected.Get("/inventario/movimientos/exportar", inventario.ExportarMovimientosHandler(db))

	// Ventas
	protected.Post("/ventas", ventas.CrearVentaHandler(db))
	protected.Get("/ventas", ventas.ListarVentasHandler(db))
	protected.Get("/ventas/:id", ventas.ObtenerVentaHandler(db))
	protected.Post("/ventas/:id/cancelar", ventas.CancelarVentaHandler(db))

	// Dashboard
	protected.Get("/dashboard/resumen", dashboard.ResumenHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/top-productos", dashboard.TopProductosHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/bebidas", dashboard.BebidasHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/picante", dashboard.PicanteHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/rentabilidad", dashboard.RentabilidadHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/mermas", dashboard.MermasHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/inventario", dashboard.InventarioHandler(agregador, ca, cfg.DashboardTTL))
	protected.Get("/dashboard/tendencia", dashboard.TendenciaHandler(agregador, ca, cfg.DashboardTTL))

	// Generación de contenido
	protected.Post("/contenido/:tipo", contenido.GenerarHandler(generador))

	appLog.Info("servidor escuchando", "port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
