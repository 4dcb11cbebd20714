package ventas

import (
	"fmt"
	"time"

	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/metrics"
	"tamaleria-backend/internal/models"

	"gorm.io/gorm"
)

type LineaVenta struct {
	ProductoID         *uint
	VarianteProductoID *uint
	ComboID            *uint
	Cantidad           int
	Opciones           []uint // IDs de OpcionAtributo elegidas
}

type SolicitudVenta struct {
	SucursalID      uint
	TipoPago        models.TipoPago
	NombreCliente   string
	TelefonoCliente string
	Lineas          []LineaVenta
}

// RegistrarVenta resuelve el precio de cada línea, genera el número de venta
// y persiste encabezado, líneas y personalizaciones en una sola transacción.
// Cualquier falla revierte la venta completa.
func RegistrarVenta(db *gorm.DB, req SolicitudVenta) (*models.Venta, error) {
	if len(req.Lineas) == 0 {
		return nil, fmt.Errorf("la venta no tiene líneas: %w", apperr.ErrEntradaInvalida)
	}
	switch req.TipoPago {
	case models.PagoEfectivo, models.PagoTarjeta, models.PagoTransferencia:
	default:
		return nil, fmt.Errorf("tipo de pago %q no reconocido: %w", req.TipoPago, apperr.ErrEntradaInvalida)
	}

	var venta models.Venta
	err := db.Transaction(func(tx *gorm.DB) error {
		var sucursal models.Sucursal
		if err := tx.First(&sucursal, "id = ?", req.SucursalID).Error; err != nil || !sucursal.Activa {
			return fmt.Errorf("sucursal %d inexistente o inactiva: %w", req.SucursalID, apperr.ErrEntradaInvalida)
		}

		ahora := time.Now()
		numero, err := generarNumero(tx, req.SucursalID, ahora)
		if err != nil {
			return err
		}

		venta = models.Venta{
			SucursalID:      req.SucursalID,
			Numero:          numero,
			Fecha:           ahora,
			TipoPago:        req.TipoPago,
			Estado:          models.VentaCompletada,
			NombreCliente:   req.NombreCliente,
			TelefonoCliente: req.TelefonoCliente,
		}
		if err := tx.Create(&venta).Error; err != nil {
			return fmt.Errorf("no se pudo crear la venta: %w", err)
		}

		subtotal := 0.0
		for i, linea := range req.Lineas {
			if linea.Cantidad <= 0 {
				return fmt.Errorf("línea %d: la cantidad debe ser mayor a 0: %w", i+1, apperr.ErrEntradaInvalida)
			}

			precio, personalizaciones, err := resolverLinea(tx, linea)
			if err != nil {
				return fmt.Errorf("línea %d: %w", i+1, err)
			}

			detalle := models.DetalleVenta{
				VentaID:            venta.ID,
				ProductoID:         linea.ProductoID,
				VarianteProductoID: linea.VarianteProductoID,
				ComboID:            linea.ComboID,
				Cantidad:           linea.Cantidad,
				PrecioUnitario:     precio,
				Subtotal:           precio * float64(linea.Cantidad),
			}
			if err := tx.Create(&detalle).Error; err != nil {
				return fmt.Errorf("no se pudo crear la línea: %w", err)
			}

			for _, p := range personalizaciones {
				p.DetalleVentaID = detalle.ID
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("no se pudo guardar la personalización: %w", err)
				}
			}

			subtotal += detalle.Subtotal
		}

		// El descuento siempre es 0 por ahora; el total se deriva, nunca se captura.
		venta.Subtotal = subtotal
		venta.Descuento = 0
		venta.Total = subtotal - venta.Descuento
		if err := tx.Model(&models.Venta{}).Where("id = ?", venta.ID).
			Updates(map[string]interface{}{
				"subtotal":  venta.Subtotal,
				"descuento": venta.Descuento,
				"total":     venta.Total,
			}).Error; err != nil {
			return fmt.Errorf("no se pudieron guardar los totales: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VentasRegistradas.Inc()
	return &venta, nil
}

// generarNumero arma sucursal con ceros + fecha + consecutivo diario de 4
// dígitos, contando las ventas del día. Dos inserciones concurrentes de la
// misma sucursal pueden contar lo mismo y repetir número salvo que el
// aislamiento de la transacción serialice el count+insert; se deja así a
// propósito (ver DESIGN.md).
func generarNumero(tx *gorm.DB, sucursalID uint, ahora time.Time) (string, error) {
	inicioDia := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location())

	var hoy int64
	err := tx.Model(&models.Venta{}).
		Where("sucursal_id = ? AND fecha >= ? AND fecha < ?", sucursalID, inicioDia, inicioDia.AddDate(0, 0, 1)).
		Count(&hoy).Error
	if err != nil {
		return "", fmt.Errorf("no se pudo calcular el consecutivo: %w", err)
	}

	return fmt.Sprintf("%03d-%s-%04d", sucursalID, ahora.Format("20060102"), hoy+1), nil
}

// resolverLinea calcula el precio unitario y las personalizaciones a
// congelar. Una línea referencia producto+variante o combo, nunca ambos.
func resolverLinea(tx *gorm.DB, linea LineaVenta) (float64, []models.PersonalizacionDetalle, error) {
	esProducto := linea.ProductoID != nil || linea.VarianteProductoID != nil
	esCombo := linea.ComboID != nil

	if esProducto == esCombo {
		return 0, nil, fmt.Errorf("la línea debe referir producto+variante o combo, exclusivamente: %w",
			apperr.ErrEntradaInvalida)
	}

	if esCombo {
		if len(linea.Opciones) > 0 {
			return 0, nil, fmt.Errorf("los combos no admiten personalizaciones: %w", apperr.ErrEntradaInvalida)
		}
		return resolverCombo(tx, *linea.ComboID)
	}

	if linea.ProductoID == nil || linea.VarianteProductoID == nil {
		return 0, nil, fmt.Errorf("producto y variante van siempre juntos: %w", apperr.ErrEntradaInvalida)
	}
	return resolverProducto(tx, *linea.ProductoID, *linea.VarianteProductoID, linea.Opciones)
}

func resolverCombo(tx *gorm.DB, comboID uint) (float64, []models.PersonalizacionDetalle, error) {
	var combo models.Combo
	if err := tx.First(&combo, "id = ?", comboID).Error; err != nil || !combo.Activo {
		return 0, nil, fmt.Errorf("combo %d inexistente o inactivo: %w", comboID, apperr.ErrEntradaInvalida)
	}

	ahora := time.Now()
	if combo.VigenteDesde != nil && ahora.Before(*combo.VigenteDesde) {
		return 0, nil, fmt.Errorf("el combo %q aún no está vigente: %w", combo.Nombre, apperr.ErrEntradaInvalida)
	}
	if combo.VigenteHasta != nil && ahora.After(*combo.VigenteHasta) {
		return 0, nil, fmt.Errorf("el combo %q ya no está vigente: %w", combo.Nombre, apperr.ErrEntradaInvalida)
	}

	return combo.Precio, nil, nil
}

func resolverProducto(tx *gorm.DB, productoID, varianteID uint, opciones []uint) (float64, []models.PersonalizacionDetalle, error) {
	var producto models.Producto
	if err := tx.First(&producto, "id = ?", productoID).Error; err != nil || !producto.Activo {
		return 0, nil, fmt.Errorf("producto %d inexistente o inactivo: %w", productoID, apperr.ErrEntradaInvalida)
	}

	var variante models.VarianteProducto
	if err := tx.First(&variante, "id = ?", varianteID).Error; err != nil || !variante.Activa {
		return 0, nil, fmt.Errorf("variante %d inexistente o inactiva: %w", varianteID, apperr.ErrEntradaInvalida)
	}
	if variante.ProductoID != producto.ID {
		return 0, nil, fmt.Errorf("la variante %d no pertenece al producto %d: %w",
			varianteID, productoID, apperr.ErrEntradaInvalida)
	}

	precio := producto.PrecioBase * variante.Multiplicador

	personalizaciones := make([]models.PersonalizacionDetalle, 0, len(opciones))
	for _, opcionID := range opciones {
		var opcion models.OpcionAtributo
		if err := tx.First(&opcion, "id = ?", opcionID).Error; err != nil || !opcion.Activa {
			return 0, nil, fmt.Errorf("opción %d inexistente o inactiva: %w", opcionID, apperr.ErrEntradaInvalida)
		}

		var tipo models.TipoAtributo
		if err := tx.First(&tipo, "id = ?", opcion.TipoAtributoID).Error; err != nil {
			return 0, nil, fmt.Errorf("tipo de atributo de la opción %d: %w", opcionID, apperr.ErrNoEncontrado)
		}
		if tipo.CategoriaProductoID != producto.CategoriaProductoID {
			return 0, nil, fmt.Errorf("la opción %q no aplica a la categoría del producto: %w",
				opcion.Nombre, apperr.ErrEntradaInvalida)
		}

		precio += opcion.PrecioAdicional
		personalizaciones = append(personalizaciones, models.PersonalizacionDetalle{
			OpcionAtributoID: opcion.ID,
			TipoAtributo:     tipo.Nombre,
			Opcion:           opcion.Nombre,
			PrecioAdicional:  opcion.PrecioAdicional, // congelado al momento de la venta
		})
	}

	return precio, personalizaciones, nil
}
