package inventario

import (
	"bytes"
	"fmt"
	"time"

	"tamaleria-backend/internal/auth"
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// GET /api/inventario/movimientos/exportar?fecha_desde=...&fecha_hasta=...
// Descarga el historial de movimientos del rango como .xlsx.
func ExportarMovimientosHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sucursalID, err := auth.SucursalDelContexto(c)
		if err != nil {
			return err
		}

		query := db.Model(&models.MovimientoInventario{}).
			Where("sucursal_id = ?", sucursalID)

		if desde := c.Query("fecha_desde"); desde != "" {
			if d, err := time.Parse("2006-01-02", desde); err == nil {
				query = query.Where("fecha >= ?", d)
			}
		}
		if hasta := c.Query("fecha_hasta"); hasta != "" {
			if d, err := time.Parse("2006-01-02", hasta); err == nil {
				d = d.Add(24*time.Hour - time.Second)
				query = query.Where("fecha <= ?", d)
			}
		}

		var movimientos []models.MovimientoInventario
		if err := query.Order("fecha ASC, id ASC").Find(&movimientos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron consultar los movimientos")
		}

		nombres := nombresDeMaterias(db, movimientos)

		f := excelize.NewFile()
		defer func() { _ = f.Close() }()

		sheet := f.GetSheetName(f.GetActiveSheetIndex())

		header := []interface{}{
			"fecha", "tipo", "materia_prima", "cantidad", "costo_unitario",
			"monto_total", "motivo", "documento", "proveedor", "lote",
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el archivo")
		}

		fila := 2
		for _, m := range movimientos {
			datos := []interface{}{
				m.Fecha.Format("2006-01-02 15:04:05"),
				string(m.Tipo),
				nombres[m.MateriaPrimaID],
				m.Cantidad,
				m.CostoUnitario,
				m.MontoTotal,
				m.Motivo,
				m.DocumentoReferencia,
				m.Proveedor,
				m.Lote,
			}
			celda, err := excelize.CoordinatesToCellName(1, fila)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el archivo")
			}
			if err := f.SetSheetRow(sheet, celda, &datos); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo armar el archivo")
			}
			fila++
		}

		buf := &bytes.Buffer{}
		if err := f.Write(buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo escribir el archivo")
		}

		nombre := fmt.Sprintf("movimientos_%d_%s.xlsx", sucursalID, time.Now().Format("20060102_150405"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, nombre))
		return c.Send(buf.Bytes())
	}
}
