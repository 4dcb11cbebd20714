package inventario

import (
	"time"

	"tamaleria-backend/internal/auth"
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MovimientoResponse struct {
	ID                  uint    `json:"id"`
	SucursalID          uint    `json:"sucursal_id"`
	MateriaPrimaID      uint    `json:"materia_prima_id"`
	MateriaPrima        string  `json:"materia_prima,omitempty"`
	Tipo                string  `json:"tipo"`
	Cantidad            float64 `json:"cantidad"`
	CostoUnitario       float64 `json:"costo_unitario"`
	MontoTotal          float64 `json:"monto_total"`
	Motivo              string  `json:"motivo"`
	DocumentoReferencia string  `json:"documento_referencia,omitempty"`
	Proveedor           string  `json:"proveedor,omitempty"`
	Lote                string  `json:"lote,omitempty"`
	Fecha               string  `json:"fecha"`
	StockAnterior       float64 `json:"stock_anterior"`
	StockNuevo          float64 `json:"stock_nuevo"`
	CostoPromedio       float64 `json:"costo_promedio"`
}

func movimientoResponse(res *ResultadoMovimiento) MovimientoResponse {
	m := res.Movimiento
	return MovimientoResponse{
		ID:                  m.ID,
		SucursalID:          m.SucursalID,
		MateriaPrimaID:      m.MateriaPrimaID,
		Tipo:                string(m.Tipo),
		Cantidad:            m.Cantidad,
		CostoUnitario:       m.CostoUnitario,
		MontoTotal:          m.MontoTotal,
		Motivo:              m.Motivo,
		DocumentoReferencia: m.DocumentoReferencia,
		Proveedor:           m.Proveedor,
		Lote:                m.Lote,
		Fecha:               m.Fecha.Format("2006-01-02 15:04:05"),
		StockAnterior:       res.StockAnterior,
		StockNuevo:          res.StockNuevo,
		CostoPromedio:       res.CostoPromedioNuevo,
	}
}

type CrearEntradaRequest struct {
	MateriaPrimaID      uint    `json:"materia_prima_id"`
	Cantidad            float64 `json:"cantidad"`
	CostoUnitario       float64 `json:"costo_unitario"`
	Motivo              string  `json:"motivo"`
	DocumentoReferencia string  `json:"documento_referencia"`
	Proveedor           string  `json:"proveedor"`
	Lote                string  `json:"lote"`
}

// POST /api/inventario/entradas
func CrearEntradaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearEntradaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		res, err := RegistrarEntrada(db, SolicitudEntrada{
			SucursalID:          sucursalID,
			MateriaPrimaID:      body.MateriaPrimaID,
			Cantidad:            body.Cantidad,
			CostoUnitario:       body.CostoUnitario,
			Motivo:              body.Motivo,
			DocumentoReferencia: body.DocumentoReferencia,
			Proveedor:           body.Proveedor,
			Lote:                body.Lote,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(movimientoResponse(res))
	}
}

type CrearSalidaRequest struct {
	MateriaPrimaID uint    `json:"materia_prima_id"`
	Cantidad       float64 `json:"cantidad"`
	Motivo         string  `json:"motivo"`
}

// POST /api/inventario/salidas
func CrearSalidaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearSalidaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		res, err := RegistrarSalida(db, SolicitudSalida{
			SucursalID:     sucursalID,
			MateriaPrimaID: body.MateriaPrimaID,
			Cantidad:       body.Cantidad,
			Motivo:         body.Motivo,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(movimientoResponse(res))
	}
}

type CrearMermaRequest struct {
	MateriaPrimaID uint    `json:"materia_prima_id"`
	Cantidad       float64 `json:"cantidad"`
	Motivo         string  `json:"motivo"`
	TipoMerma      string  `json:"tipo_merma"`
	Observaciones  string  `json:"observaciones"`
}

// POST /api/inventario/mermas
func CrearMermaHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearMermaRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		res, err := RegistrarMerma(db, SolicitudMerma{
			SucursalID:     sucursalID,
			MateriaPrimaID: body.MateriaPrimaID,
			Cantidad:       body.Cantidad,
			Motivo:         body.Motivo,
			TipoMerma:      body.TipoMerma,
			Observaciones:  body.Observaciones,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(movimientoResponse(res))
	}
}

type CrearAjusteRequest struct {
	MateriaPrimaID   uint    `json:"materia_prima_id"`
	CantidadEsperada float64 `json:"cantidad_esperada"`
	CantidadNueva    float64 `json:"cantidad_nueva"`
	Motivo           string  `json:"motivo"`
}

// POST /api/inventario/ajustes
func CrearAjusteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearAjusteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		res, err := RegistrarAjuste(db, SolicitudAjuste{
			SucursalID:       sucursalID,
			MateriaPrimaID:   body.MateriaPrimaID,
			CantidadEsperada: body.CantidadEsperada,
			CantidadNueva:    body.CantidadNueva,
			Motivo:           body.Motivo,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(movimientoResponse(res))
	}
}

type CrearStockRequest struct {
	MateriaPrimaID uint `json:"materia_prima_id"`
}

// POST /api/inventario/stock
// Da de alta el par sucursal/materia con cantidad 0. El ledger rechaza
// operaciones sobre pares que no existen.
func CrearStockHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CrearStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.MateriaPrimaID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "materia_prima_id es obligatorio")
		}

		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		var materia models.MateriaPrima
		if err := db.First(&materia, "id = ?", body.MateriaPrimaID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Materia prima no encontrada")
		}

		var existente models.Stock
		err = db.Where("sucursal_id = ? AND materia_prima_id = ?", sucursalID, body.MateriaPrimaID).
			First(&existente).Error
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "El stock de esa materia ya existe en la sucursal")
		}

		stock := models.Stock{
			SucursalID:          sucursalID,
			MateriaPrimaID:      body.MateriaPrimaID,
			Cantidad:            0,
			UltimaActualizacion: time.Now(),
		}
		if err := db.Create(&stock).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el stock")
		}

		return c.Status(fiber.StatusCreated).JSON(stock)
	}
}

type StockResponse struct {
	MateriaPrimaID      uint    `json:"materia_prima_id"`
	Nombre              string  `json:"nombre"`
	Categoria           string  `json:"categoria"`
	Unidad              string  `json:"unidad"`
	Cantidad            float64 `json:"cantidad"`
	StockMinimo         float64 `json:"stock_minimo"`
	StockMaximo         float64 `json:"stock_maximo"`
	CostoPromedio       float64 `json:"costo_promedio"`
	Valor               float64 `json:"valor"`
	UltimaActualizacion string  `json:"ultima_actualizacion"`
}

// GET /api/inventario/stock
func ListarStockHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		type fila struct {
			MateriaPrimaID      uint
			Nombre              string
			Categoria           string
			Unidad              string
			Cantidad            float64
			StockMinimo         float64
			StockMaximo         float64
			CostoPromedio       float64
			UltimaActualizacion time.Time
		}
		var filas []fila
		err = db.Table("stocks").
			Select(`stocks.materia_prima_id, materias_primas.nombre, materias_primas.categoria,
				materias_primas.unidad, stocks.cantidad, materias_primas.stock_minimo,
				materias_primas.stock_maximo, materias_primas.costo_promedio,
				stocks.ultima_actualizacion`).
			Joins("JOIN materias_primas ON materias_primas.id = stocks.materia_prima_id").
			Where("stocks.sucursal_id = ? AND materias_primas.activa = ?", sucursalID, true).
			Order("materias_primas.nombre ASC").
			Scan(&filas).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo listar el stock")
		}

		resp := make([]StockResponse, 0, len(filas))
		for _, f := range filas {
			resp = append(resp, StockResponse{
				MateriaPrimaID:      f.MateriaPrimaID,
				Nombre:              f.Nombre,
				Categoria:           f.Categoria,
				Unidad:              f.Unidad,
				Cantidad:            f.Cantidad,
				StockMinimo:         f.StockMinimo,
				StockMaximo:         f.StockMaximo,
				CostoPromedio:       f.CostoPromedio,
				Valor:               f.Cantidad * f.CostoPromedio,
				UltimaActualizacion: f.UltimaActualizacion.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

// GET /api/inventario/movimientos?tipo=merma&fecha_desde=...&fecha_hasta=...
func ListarMovimientosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		query := db.Model(&models.MovimientoInventario{}).
			Where("sucursal_id = ?", sucursalID)

		if tipo := c.Query("tipo"); tipo != "" {
			query = query.Where("tipo = ?", tipo)
		}
		if desde := c.Query("fecha_desde"); desde != "" {
			if d, err := time.Parse("2006-01-02", desde); err == nil {
				query = query.Where("fecha >= ?", d)
			}
		}
		if hasta := c.Query("fecha_hasta"); hasta != "" {
			if d, err := time.Parse("2006-01-02", hasta); err == nil {
				// hasta el final del día
				d = d.Add(24*time.Hour - time.Second)
				query = query.Where("fecha <= ?", d)
			}
		}

		var movimientos []models.MovimientoInventario
		if err := query.Order("fecha DESC, id DESC").Limit(500).Find(&movimientos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los movimientos")
		}

		nombres := nombresDeMaterias(db, movimientos)

		resp := make([]MovimientoResponse, 0, len(movimientos))
		for _, m := range movimientos {
			resp = append(resp, MovimientoResponse{
				ID:                  m.ID,
				SucursalID:          m.SucursalID,
				MateriaPrimaID:      m.MateriaPrimaID,
				MateriaPrima:        nombres[m.MateriaPrimaID],
				Tipo:                string(m.Tipo),
				Cantidad:            m.Cantidad,
				CostoUnitario:       m.CostoUnitario,
				MontoTotal:          m.MontoTotal,
				Motivo:              m.Motivo,
				DocumentoReferencia: m.DocumentoReferencia,
				Proveedor:           m.Proveedor,
				Lote:                m.Lote,
				Fecha:               m.Fecha.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

func nombresDeMaterias(db *gorm.DB, movimientos []models.MovimientoInventario) map[uint]string {
	ids := make([]uint, 0, len(movimientos))
	visto := make(map[uint]bool)
	for _, m := range movimientos {
		if !visto[m.MateriaPrimaID] {
			visto[m.MateriaPrimaID] = true
			ids = append(ids, m.MateriaPrimaID)
		}
	}

	nombres := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return nombres
	}

	var materias []models.MateriaPrima
	if err := db.Where("id IN ?", ids).Find(&materias).Error; err == nil {
		for _, mp := range materias {
			nombres[mp.ID] = mp.Nombre
		}
	}
	return nombres
}
