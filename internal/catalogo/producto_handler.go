package catalogo

import (
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type VarianteRequest struct {
	Nombre        string  `json:"nombre"`
	Multiplicador float64 `json:"multiplicador"`
}

type ProductoRequest struct {
	Nombre              string            `json:"nombre"`
	CategoriaProductoID uint              `json:"categoria_producto_id"`
	PrecioBase          float64           `json:"precio_base"`
	Descripcion         string            `json:"descripcion"`
	Variantes           []VarianteRequest `json:"variantes"`
}

// POST /api/productos
// Crea el producto con sus variantes en una transacción; un producto sin
// variantes no se puede vender, así que al menos una es obligatoria.
func CrearProductoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductoRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre == "" || body.CategoriaProductoID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "nombre y categoria_producto_id son obligatorios")
		}
		if body.PrecioBase <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El precio base debe ser mayor a 0")
		}
		if len(body.Variantes) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El producto necesita al menos una variante")
		}
		for _, v := range body.Variantes {
			if v.Nombre == "" || v.Multiplicador <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Cada variante necesita nombre y multiplicador mayor a 0")
			}
		}

		var categoria models.CategoriaProducto
		if err := db.First(&categoria, "id = ?", body.CategoriaProductoID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "La categoría no existe")
		}

		producto := models.Producto{
			Nombre:              body.Nombre,
			CategoriaProductoID: body.CategoriaProductoID,
			PrecioBase:          body.PrecioBase,
			Descripcion:         body.Descripcion,
			Activo:              true,
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&producto).Error; err != nil {
				return err
			}
			for _, v := range body.Variantes {
				variante := models.VarianteProducto{
					ProductoID:    producto.ID,
					Nombre:        v.Nombre,
					Multiplicador: v.Multiplicador,
					Activa:        true,
				}
				if err := tx.Create(&variante).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el producto")
		}

		return c.Status(fiber.StatusCreated).JSON(producto)
	}
}

// GET /api/productos?categoria_id=1
func ListarProductosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := db.Model(&models.Producto{})
		if c.Query("incluir_inactivos") != "true" {
			query = query.Where("activo = ?", true)
		}
		if catID := c.QueryInt("categoria_id", 0); catID > 0 {
			query = query.Where("categoria_producto_id = ?", catID)
		}

		var productos []models.Producto
		if err := query.Order("nombre ASC").Find(&productos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los productos")
		}

		type productoConVariantes struct {
			models.Producto
			Variantes []models.VarianteProducto `json:"variantes"`
		}

		resp := make([]productoConVariantes, 0, len(productos))
		for _, p := range productos {
			var variantes []models.VarianteProducto
			if err := db.Where("producto_id = ? AND activa = ?", p.ID, true).
				Order("multiplicador ASC").Find(&variantes).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las variantes")
			}
			resp = append(resp, productoConVariantes{Producto: p, Variantes: variantes})
		}
		return c.JSON(resp)
	}
}

// PUT /api/productos/:id
// Cambiar el precio base solo afecta ventas futuras: las líneas ya
// registradas guardan su precio resuelto.
func ActualizarProductoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var producto models.Producto
		if err := db.First(&producto, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		var body struct {
			Nombre      *string  `json:"nombre"`
			PrecioBase  *float64 `json:"precio_base"`
			Descripcion *string  `json:"descripcion"`
			Activo      *bool    `json:"activo"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		if body.Nombre != nil {
			producto.Nombre = *body.Nombre
		}
		if body.PrecioBase != nil {
			if *body.PrecioBase <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El precio base debe ser mayor a 0")
			}
			producto.PrecioBase = *body.PrecioBase
		}
		if body.Descripcion != nil {
			producto.Descripcion = *body.Descripcion
		}
		if body.Activo != nil {
			producto.Activo = *body.Activo
		}

		if err := db.Save(&producto).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el producto")
		}
		return c.JSON(producto)
	}
}

// POST /api/productos/:id/variantes
func CrearVarianteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var producto models.Producto
		if err := db.First(&producto, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		var body VarianteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.Nombre == "" || body.Multiplicador <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "La variante necesita nombre y multiplicador mayor a 0")
		}

		variante := models.VarianteProducto{
			ProductoID:    producto.ID,
			Nombre:        body.Nombre,
			Multiplicador: body.Multiplicador,
			Activa:        true,
		}
		if err := db.Create(&variante).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la variante")
		}
		return c.Status(fiber.StatusCreated).JSON(variante)
	}
}
