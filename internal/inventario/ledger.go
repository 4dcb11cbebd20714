package inventario

import (
	"fmt"
	"math"
	"time"

	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/metrics"
	"tamaleria-backend/internal/models"

	"gorm.io/gorm"
)

// El ledger es el único escritor de Stock.Cantidad. Cada operación corre en
// una transacción que abarca el insert del movimiento y el update del stock;
// el costo promedio ponderado solo se recalcula en las entradas.

type SolicitudEntrada struct {
	SucursalID          uint
	MateriaPrimaID      uint
	Cantidad            float64
	CostoUnitario       float64
	Motivo              string
	DocumentoReferencia string
	Proveedor           string
	Lote                string
}

type SolicitudSalida struct {
	SucursalID     uint
	MateriaPrimaID uint
	Cantidad       float64
	Motivo         string
}

type SolicitudMerma struct {
	SucursalID     uint
	MateriaPrimaID uint
	Cantidad       float64
	Motivo         string
	TipoMerma      string // caducidad, daño, preparación...
	Observaciones  string
}

type SolicitudAjuste struct {
	SucursalID       uint
	MateriaPrimaID   uint
	CantidadEsperada float64
	CantidadNueva    float64
	Motivo           string
}

// ResultadoMovimiento regresa el movimiento creado junto con la foto del
// stock antes y después de la operación.
type ResultadoMovimiento struct {
	Movimiento         models.MovimientoInventario
	StockAnterior      float64
	StockNuevo         float64
	CostoPromedioNuevo float64
}

func buscarStock(tx *gorm.DB, sucursalID, materiaID uint) (*models.Stock, error) {
	var stock models.Stock
	err := tx.Where("sucursal_id = ? AND materia_prima_id = ?", sucursalID, materiaID).
		First(&stock).Error
	if err != nil {
		return nil, fmt.Errorf("stock de la materia %d en la sucursal %d: %w",
			materiaID, sucursalID, apperr.ErrNoEncontrado)
	}
	return &stock, nil
}

func buscarMateria(tx *gorm.DB, materiaID uint) (*models.MateriaPrima, error) {
	var materia models.MateriaPrima
	if err := tx.First(&materia, "id = ?", materiaID).Error; err != nil {
		return nil, fmt.Errorf("materia prima %d: %w", materiaID, apperr.ErrNoEncontrado)
	}
	return &materia, nil
}

// RegistrarEntrada suma stock y recalcula el costo promedio ponderado:
// (costoAnterior×cantAnterior + costoUnitario×cantidad) / cantidadNueva.
func RegistrarEntrada(db *gorm.DB, req SolicitudEntrada) (*ResultadoMovimiento, error) {
	if req.Cantidad <= 0 {
		return nil, fmt.Errorf("la cantidad debe ser mayor a 0: %w", apperr.ErrEntradaInvalida)
	}
	if req.CostoUnitario < 0 {
		return nil, fmt.Errorf("el costo unitario no puede ser negativo: %w", apperr.ErrEntradaInvalida)
	}
	if req.Motivo == "" {
		return nil, fmt.Errorf("el motivo es obligatorio: %w", apperr.ErrEntradaInvalida)
	}

	var res ResultadoMovimiento
	err := db.Transaction(func(tx *gorm.DB) error {
		stock, err := buscarStock(tx, req.SucursalID, req.MateriaPrimaID)
		if err != nil {
			return err
		}
		materia, err := buscarMateria(tx, req.MateriaPrimaID)
		if err != nil {
			return err
		}

		ahora := time.Now()
		mov := models.MovimientoInventario{
			SucursalID:          req.SucursalID,
			MateriaPrimaID:      req.MateriaPrimaID,
			Tipo:                models.MovimientoEntrada,
			Cantidad:            req.Cantidad,
			CostoUnitario:       req.CostoUnitario,
			MontoTotal:          req.Cantidad * req.CostoUnitario,
			Motivo:              req.Motivo,
			DocumentoReferencia: req.DocumentoReferencia,
			Proveedor:           req.Proveedor,
			Lote:                req.Lote,
			Fecha:               ahora,
		}
		if err := tx.Create(&mov).Error; err != nil {
			return fmt.Errorf("no se pudo crear el movimiento: %w", err)
		}

		res.StockAnterior = stock.Cantidad
		cantidadNueva := stock.Cantidad + req.Cantidad

		costoNuevo := materia.CostoPromedio
		if cantidadNueva > 0 {
			costoNuevo = (materia.CostoPromedio*stock.Cantidad + req.CostoUnitario*req.Cantidad) / cantidadNueva
		}
		if err := tx.Model(&models.MateriaPrima{}).Where("id = ?", materia.ID).
			Update("costo_promedio", costoNuevo).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar el costo promedio: %w", err)
		}

		if err := tx.Model(&models.Stock{}).Where("id = ?", stock.ID).
			Updates(map[string]interface{}{
				"cantidad":             cantidadNueva,
				"ultima_actualizacion": ahora,
			}).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar el stock: %w", err)
		}

		res.Movimiento = mov
		res.StockNuevo = cantidadNueva
		res.CostoPromedioNuevo = costoNuevo
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MovimientosInventario.WithLabelValues(string(models.MovimientoEntrada)).Inc()
	return &res, nil
}

// RegistrarSalida descuenta stock. El costo unitario del movimiento es el
// costo promedio vigente de la materia, no lo decide el llamador.
func RegistrarSalida(db *gorm.DB, req SolicitudSalida) (*ResultadoMovimiento, error) {
	if req.Cantidad <= 0 {
		return nil, fmt.Errorf("la cantidad debe ser mayor a 0: %w", apperr.ErrEntradaInvalida)
	}
	if req.Motivo == "" {
		return nil, fmt.Errorf("el motivo es obligatorio: %w", apperr.ErrEntradaInvalida)
	}

	res, err := registrarEgreso(db, req.SucursalID, req.MateriaPrimaID, req.Cantidad,
		models.MovimientoSalida, req.Motivo)
	if err != nil {
		return nil, err
	}

	metrics.MovimientosInventario.WithLabelValues(string(models.MovimientoSalida)).Inc()
	return res, nil
}

// RegistrarMerma es una salida etiquetada como merma; el tipo y las
// observaciones se anexan al motivo.
func RegistrarMerma(db *gorm.DB, req SolicitudMerma) (*ResultadoMovimiento, error) {
	if req.Cantidad <= 0 {
		return nil, fmt.Errorf("la cantidad debe ser mayor a 0: %w", apperr.ErrEntradaInvalida)
	}
	if req.Motivo == "" {
		return nil, fmt.Errorf("el motivo es obligatorio: %w", apperr.ErrEntradaInvalida)
	}

	motivo := req.Motivo
	if req.TipoMerma != "" {
		motivo = fmt.Sprintf("[%s] %s", req.TipoMerma, motivo)
	}
	if req.Observaciones != "" {
		motivo = fmt.Sprintf("%s (%s)", motivo, req.Observaciones)
	}

	res, err := registrarEgreso(db, req.SucursalID, req.MateriaPrimaID, req.Cantidad,
		models.MovimientoMerma, motivo)
	if err != nil {
		return nil, err
	}

	metrics.MovimientosInventario.WithLabelValues(string(models.MovimientoMerma)).Inc()
	return res, nil
}

func registrarEgreso(db *gorm.DB, sucursalID, materiaID uint, cantidad float64,
	tipo models.TipoMovimiento, motivo string) (*ResultadoMovimiento, error) {

	var res ResultadoMovimiento
	err := db.Transaction(func(tx *gorm.DB) error {
		stock, err := buscarStock(tx, sucursalID, materiaID)
		if err != nil {
			return err
		}
		materia, err := buscarMateria(tx, materiaID)
		if err != nil {
			return err
		}

		if cantidad > stock.Cantidad {
			return fmt.Errorf("se pidieron %.2f %s y solo hay %.2f: %w",
				cantidad, materia.Unidad, stock.Cantidad, apperr.ErrStockInsuficiente)
		}

		ahora := time.Now()
		mov := models.MovimientoInventario{
			SucursalID:     sucursalID,
			MateriaPrimaID: materiaID,
			Tipo:           tipo,
			Cantidad:       cantidad,
			CostoUnitario:  materia.CostoPromedio,
			MontoTotal:     cantidad * materia.CostoPromedio,
			Motivo:         motivo,
			Fecha:          ahora,
		}
		if err := tx.Create(&mov).Error; err != nil {
			return fmt.Errorf("no se pudo crear el movimiento: %w", err)
		}

		res.StockAnterior = stock.Cantidad
		cantidadNueva := stock.Cantidad - cantidad

		if err := tx.Model(&models.Stock{}).Where("id = ?", stock.ID).
			Updates(map[string]interface{}{
				"cantidad":             cantidadNueva,
				"ultima_actualizacion": ahora,
			}).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar el stock: %w", err)
		}

		res.Movimiento = mov
		res.StockNuevo = cantidadNueva
		res.CostoPromedioNuevo = materia.CostoPromedio
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RegistrarAjuste fija el stock en CantidadNueva. La cantidad previa esperada
// funciona como guardia optimista: si no coincide con el stock actual, otro
// proceso ajustó en medio y se rechaza con conflicto. El monto del movimiento
// es |nueva − esperada| × costo promedio.
func RegistrarAjuste(db *gorm.DB, req SolicitudAjuste) (*ResultadoMovimiento, error) {
	if req.CantidadNueva < 0 {
		return nil, fmt.Errorf("la cantidad nueva no puede ser negativa: %w", apperr.ErrEntradaInvalida)
	}
	if req.Motivo == "" {
		return nil, fmt.Errorf("el motivo es obligatorio: %w", apperr.ErrEntradaInvalida)
	}

	var res ResultadoMovimiento
	err := db.Transaction(func(tx *gorm.DB) error {
		stock, err := buscarStock(tx, req.SucursalID, req.MateriaPrimaID)
		if err != nil {
			return err
		}
		materia, err := buscarMateria(tx, req.MateriaPrimaID)
		if err != nil {
			return err
		}

		if stock.Cantidad != req.CantidadEsperada {
			return fmt.Errorf("el stock actual es %.2f, no %.2f: %w",
				stock.Cantidad, req.CantidadEsperada, apperr.ErrConflicto)
		}

		diferencia := math.Abs(req.CantidadNueva - req.CantidadEsperada)

		ahora := time.Now()
		mov := models.MovimientoInventario{
			SucursalID:     req.SucursalID,
			MateriaPrimaID: req.MateriaPrimaID,
			Tipo:           models.MovimientoAjuste,
			Cantidad:       diferencia,
			CostoUnitario:  materia.CostoPromedio,
			MontoTotal:     diferencia * materia.CostoPromedio,
			Motivo:         req.Motivo,
			Fecha:          ahora,
		}
		if err := tx.Create(&mov).Error; err != nil {
			return fmt.Errorf("no se pudo crear el movimiento: %w", err)
		}

		res.StockAnterior = stock.Cantidad

		if err := tx.Model(&models.Stock{}).Where("id = ?", stock.ID).
			Updates(map[string]interface{}{
				"cantidad":             req.CantidadNueva,
				"ultima_actualizacion": ahora,
			}).Error; err != nil {
			return fmt.Errorf("no se pudo actualizar el stock: %w", err)
		}

		res.Movimiento = mov
		res.StockNuevo = req.CantidadNueva
		res.CostoPromedioNuevo = materia.CostoPromedio
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MovimientosInventario.WithLabelValues(string(models.MovimientoAjuste)).Inc()
	return &res, nil
}
