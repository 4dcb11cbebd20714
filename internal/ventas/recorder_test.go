package ventas

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/database"
	"tamaleria-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func abrirDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("no se pudo abrir sqlite en memoria: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("no se pudieron correr las migraciones: %v", err)
	}
	return db
}

// catalogo de prueba: tamal verde a 25 con variantes pieza (x1) y docena
// (x10), atributo Picante con Sin Chile (+0) y Chile Verde (+5), y un combo
// fijo de 180.
type catalogoPrueba struct {
	sucursalID  uint
	productoID  uint
	piezaID     uint
	docenaID    uint
	sinChileID  uint
	chileVerde  uint
	comboID     uint
	categoriaID uint
}

func sembrarCatalogo(t *testing.T, db *gorm.DB) catalogoPrueba {
	t.Helper()

	sucursal := models.Sucursal{Nombre: "Centro", Activa: true}
	if err := db.Create(&sucursal).Error; err != nil {
		t.Fatalf("sembrando sucursal: %v", err)
	}

	categoria := models.CategoriaProducto{Nombre: "Tamales", Activa: true}
	if err := db.Create(&categoria).Error; err != nil {
		t.Fatalf("sembrando categoría: %v", err)
	}

	producto := models.Producto{
		Nombre:              "Tamal Verde",
		CategoriaProductoID: categoria.ID,
		PrecioBase:          25,
		Activo:              true,
	}
	if err := db.Create(&producto).Error; err != nil {
		t.Fatalf("sembrando producto: %v", err)
	}

	pieza := models.VarianteProducto{ProductoID: producto.ID, Nombre: "Pieza", Multiplicador: 1, Activa: true}
	docena := models.VarianteProducto{ProductoID: producto.ID, Nombre: "Docena", Multiplicador: 10, Activa: true}
	for _, v := range []*models.VarianteProducto{&pieza, &docena} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("sembrando variante: %v", err)
		}
	}

	picante := models.TipoAtributo{CategoriaProductoID: categoria.ID, Nombre: "Picante"}
	if err := db.Create(&picante).Error; err != nil {
		t.Fatalf("sembrando atributo: %v", err)
	}

	sinChile := models.OpcionAtributo{TipoAtributoID: picante.ID, Nombre: "Sin Chile", PrecioAdicional: 0, Activa: true}
	chileVerde := models.OpcionAtributo{TipoAtributoID: picante.ID, Nombre: "Chile Verde", PrecioAdicional: 5, Activa: true}
	for _, o := range []*models.OpcionAtributo{&sinChile, &chileVerde} {
		if err := db.Create(o).Error; err != nil {
			t.Fatalf("sembrando opción: %v", err)
		}
	}

	combo := models.Combo{Nombre: "Combo Familiar", Precio: 180, Activo: true}
	if err := db.Create(&combo).Error; err != nil {
		t.Fatalf("sembrando combo: %v", err)
	}
	componente := models.ComponenteCombo{
		ComboID:            combo.ID,
		ProductoID:         producto.ID,
		VarianteProductoID: docena.ID,
		Cantidad:           1,
	}
	if err := db.Create(&componente).Error; err != nil {
		t.Fatalf("sembrando componente: %v", err)
	}

	return catalogoPrueba{
		sucursalID:  sucursal.ID,
		productoID:  producto.ID,
		piezaID:     pieza.ID,
		docenaID:    docena.ID,
		sinChileID:  sinChile.ID,
		chileVerde:  chileVerde.ID,
		comboID:     combo.ID,
		categoriaID: categoria.ID,
	}
}

func casiIgual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestVentaResuelvePrecioConOpciones(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	venta, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas: []LineaVenta{{
			ProductoID:         &cat.productoID,
			VarianteProductoID: &cat.docenaID,
			Cantidad:           2,
			Opciones:           []uint{cat.chileVerde},
		}},
	})
	if err != nil {
		t.Fatalf("RegistrarVenta: %v", err)
	}

	// (25×10 + 5) × 2 = 510
	if !casiIgual(venta.Subtotal, 510) || !casiIgual(venta.Total, 510) {
		t.Errorf("subtotal/total = %.2f/%.2f, se esperaba 510/510", venta.Subtotal, venta.Total)
	}
	if venta.Descuento != 0 {
		t.Errorf("descuento = %.2f, siempre debe ser 0", venta.Descuento)
	}
	if venta.Estado != models.VentaCompletada {
		t.Errorf("estado = %s, se esperaba completada", venta.Estado)
	}

	var detalle models.DetalleVenta
	if err := db.First(&detalle, "venta_id = ?", venta.ID).Error; err != nil {
		t.Fatalf("leyendo detalle: %v", err)
	}
	if !casiIgual(detalle.PrecioUnitario, 255) {
		t.Errorf("precio unitario = %.2f, se esperaba 255", detalle.PrecioUnitario)
	}

	var personalizacion models.PersonalizacionDetalle
	if err := db.First(&personalizacion, "detalle_venta_id = ?", detalle.ID).Error; err != nil {
		t.Fatalf("leyendo personalización: %v", err)
	}
	if personalizacion.TipoAtributo != "Picante" || personalizacion.Opcion != "Chile Verde" {
		t.Errorf("snapshot = %s/%s, se esperaba Picante/Chile Verde",
			personalizacion.TipoAtributo, personalizacion.Opcion)
	}
}

func TestNumeroDeVentaConsecutivoDiario(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	linea := LineaVenta{ProductoID: &cat.productoID, VarianteProductoID: &cat.piezaID, Cantidad: 1}

	v1, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID, TipoPago: models.PagoEfectivo, Lineas: []LineaVenta{linea},
	})
	if err != nil {
		t.Fatalf("primera venta: %v", err)
	}
	v2, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID, TipoPago: models.PagoTarjeta, Lineas: []LineaVenta{linea},
	})
	if err != nil {
		t.Fatalf("segunda venta: %v", err)
	}

	hoy := time.Now().Format("20060102")
	esperado1 := fmt.Sprintf("%03d-%s-0001", cat.sucursalID, hoy)
	esperado2 := fmt.Sprintf("%03d-%s-0002", cat.sucursalID, hoy)
	if v1.Numero != esperado1 {
		t.Errorf("número 1 = %s, se esperaba %s", v1.Numero, esperado1)
	}
	if v2.Numero != esperado2 {
		t.Errorf("número 2 = %s, se esperaba %s", v2.Numero, esperado2)
	}
}

func TestLineaComboUsaPrecioFijo(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	venta, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas:     []LineaVenta{{ComboID: &cat.comboID, Cantidad: 2}},
	})
	if err != nil {
		t.Fatalf("RegistrarVenta: %v", err)
	}
	if !casiIgual(venta.Total, 360) {
		t.Errorf("total = %.2f, se esperaba 360 (2 × 180)", venta.Total)
	}
}

func TestComboRechazaPersonalizaciones(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	_, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas: []LineaVenta{{
			ComboID:  &cat.comboID,
			Cantidad: 1,
			Opciones: []uint{cat.chileVerde},
		}},
	})
	if !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Fatalf("se esperaba ErrEntradaInvalida, llegó %v", err)
	}
}

func TestComboFueraDeVigencia(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	ayer := time.Now().AddDate(0, 0, -1)
	if err := db.Model(&models.Combo{}).Where("id = ?", cat.comboID).
		Update("vigente_hasta", ayer).Error; err != nil {
		t.Fatalf("venciendo combo: %v", err)
	}

	_, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas:     []LineaVenta{{ComboID: &cat.comboID, Cantidad: 1}},
	})
	if !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Fatalf("se esperaba ErrEntradaInvalida, llegó %v", err)
	}
}

func TestLineaDebeSerProductoOCombo(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	casos := []LineaVenta{
		{ProductoID: &cat.productoID, VarianteProductoID: &cat.piezaID, ComboID: &cat.comboID, Cantidad: 1},
		{Cantidad: 1},
		{ProductoID: &cat.productoID, Cantidad: 1}, // falta la variante
	}
	for i, linea := range casos {
		_, err := RegistrarVenta(db, SolicitudVenta{
			SucursalID: cat.sucursalID,
			TipoPago:   models.PagoEfectivo,
			Lineas:     []LineaVenta{linea},
		})
		if !errors.Is(err, apperr.ErrEntradaInvalida) {
			t.Errorf("caso %d: se esperaba ErrEntradaInvalida, llegó %v", i, err)
		}
	}
}

func TestVarianteDeOtroProductoSeRechaza(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	otro := models.Producto{
		Nombre:              "Champurrado",
		CategoriaProductoID: cat.categoriaID,
		PrecioBase:          20,
		Activo:              true,
	}
	if err := db.Create(&otro).Error; err != nil {
		t.Fatalf("sembrando producto: %v", err)
	}

	_, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas: []LineaVenta{{
			ProductoID:         &otro.ID,
			VarianteProductoID: &cat.docenaID, // variante del tamal
			Cantidad:           1,
		}},
	})
	if !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Fatalf("se esperaba ErrEntradaInvalida, llegó %v", err)
	}
}

func TestSnapshotInmuneACambiosDelCatalogo(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	venta, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas: []LineaVenta{{
			ProductoID:         &cat.productoID,
			VarianteProductoID: &cat.piezaID,
			Cantidad:           1,
			Opciones:           []uint{cat.chileVerde},
		}},
	})
	if err != nil {
		t.Fatalf("RegistrarVenta: %v", err)
	}

	// sube todo el catálogo después de la venta
	if err := db.Model(&models.OpcionAtributo{}).Where("id = ?", cat.chileVerde).
		Update("precio_adicional", 50).Error; err != nil {
		t.Fatalf("subiendo precio de opción: %v", err)
	}
	if err := db.Model(&models.Producto{}).Where("id = ?", cat.productoID).
		Update("precio_base", 99).Error; err != nil {
		t.Fatalf("subiendo precio base: %v", err)
	}

	var detalle models.DetalleVenta
	if err := db.First(&detalle, "venta_id = ?", venta.ID).Error; err != nil {
		t.Fatalf("leyendo detalle: %v", err)
	}
	if !casiIgual(detalle.PrecioUnitario, 30) {
		t.Errorf("precio unitario = %.2f, debía quedar congelado en 30", detalle.PrecioUnitario)
	}

	var personalizacion models.PersonalizacionDetalle
	if err := db.First(&personalizacion, "detalle_venta_id = ?", detalle.ID).Error; err != nil {
		t.Fatalf("leyendo personalización: %v", err)
	}
	if !casiIgual(personalizacion.PrecioAdicional, 5) {
		t.Errorf("precio adicional = %.2f, debía quedar congelado en 5", personalizacion.PrecioAdicional)
	}
}

func TestVentaEnSucursalInactiva(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	if err := db.Model(&models.Sucursal{}).Where("id = ?", cat.sucursalID).
		Update("activa", false).Error; err != nil {
		t.Fatalf("desactivando sucursal: %v", err)
	}

	_, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
		Lineas:     []LineaVenta{{ComboID: &cat.comboID, Cantidad: 1}},
	})
	if !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Fatalf("se esperaba ErrEntradaInvalida, llegó %v", err)
	}

	var n int64
	if err := db.Model(&models.Venta{}).Count(&n).Error; err != nil {
		t.Fatalf("contando ventas: %v", err)
	}
	if n != 0 {
		t.Errorf("quedaron %d ventas de una solicitud rechazada", n)
	}
}

func TestVentaSinLineasNiTipoDePago(t *testing.T) {
	db := abrirDB(t)
	cat := sembrarCatalogo(t, db)

	if _, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   models.PagoEfectivo,
	}); !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Errorf("venta sin líneas: se esperaba ErrEntradaInvalida, llegó %v", err)
	}

	if _, err := RegistrarVenta(db, SolicitudVenta{
		SucursalID: cat.sucursalID,
		TipoPago:   "vales",
		Lineas:     []LineaVenta{{ComboID: &cat.comboID, Cantidad: 1}},
	}); !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Errorf("tipo de pago desconocido: se esperaba ErrEntradaInvalida, llegó %v", err)
	}
}
