package inventario

import (
	"errors"
	"math"
	"testing"

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

// sembrarStock crea sucursal, materia y su renglón de stock con la cantidad
// y el costo promedio dados.
func sembrarStock(t *testing.T, db *gorm.DB, cantidad, costoPromedio float64) (uint, uint) {
	t.Helper()

	sucursal := models.Sucursal{Nombre: "Centro", Activa: true}
	if err := db.Create(&sucursal).Error; err != nil {
		t.Fatalf("sembrando sucursal: %v", err)
	}

	materia := models.MateriaPrima{
		Nombre:        "Masa de maíz",
		Categoria:     "masa",
		Unidad:        "kg",
		StockMinimo:   20,
		CostoPromedio: costoPromedio,
		Activa:        true,
	}
	if err := db.Create(&materia).Error; err != nil {
		t.Fatalf("sembrando materia: %v", err)
	}

	stock := models.Stock{
		SucursalID:     sucursal.ID,
		MateriaPrimaID: materia.ID,
		Cantidad:       cantidad,
	}
	if err := db.Create(&stock).Error; err != nil {
		t.Fatalf("sembrando stock: %v", err)
	}

	return sucursal.ID, materia.ID
}

func casiIgual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func contarMovimientos(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.MovimientoInventario{}).Count(&n).Error; err != nil {
		t.Fatalf("contando movimientos: %v", err)
	}
	return n
}

func TestEntradaInicialFijaCostoPromedio(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 0, 0)

	res, err := RegistrarEntrada(db, SolicitudEntrada{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       10,
		CostoUnitario:  5,
		Motivo:         "compra inicial",
	})
	if err != nil {
		t.Fatalf("RegistrarEntrada: %v", err)
	}

	if res.StockAnterior != 0 || res.StockNuevo != 10 {
		t.Errorf("stock anterior/nuevo = %.2f/%.2f, se esperaba 0/10", res.StockAnterior, res.StockNuevo)
	}
	if !casiIgual(res.CostoPromedioNuevo, 5) {
		t.Errorf("costo promedio = %.4f, se esperaba 5.00", res.CostoPromedioNuevo)
	}
	if !casiIgual(res.Movimiento.MontoTotal, 50) {
		t.Errorf("monto total = %.2f, se esperaba 50.00", res.Movimiento.MontoTotal)
	}
}

func TestEntradaPromediaPonderado(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 10, 4)

	res, err := RegistrarEntrada(db, SolicitudEntrada{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       10,
		CostoUnitario:  6,
		Motivo:         "compra",
	})
	if err != nil {
		t.Fatalf("RegistrarEntrada: %v", err)
	}

	// (4×10 + 6×10) / 20 = 5
	if !casiIgual(res.CostoPromedioNuevo, 5) {
		t.Errorf("costo promedio = %.4f, se esperaba 5.00", res.CostoPromedioNuevo)
	}

	var materia models.MateriaPrima
	if err := db.First(&materia, "id = ?", materiaID).Error; err != nil {
		t.Fatalf("leyendo materia: %v", err)
	}
	if !casiIgual(materia.CostoPromedio, 5) {
		t.Errorf("costo promedio persistido = %.4f, se esperaba 5.00", materia.CostoPromedio)
	}
}

func TestEntradaRechazaCantidadInvalida(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 0, 0)

	casos := []SolicitudEntrada{
		{SucursalID: sucursalID, MateriaPrimaID: materiaID, Cantidad: 0, CostoUnitario: 5, Motivo: "x"},
		{SucursalID: sucursalID, MateriaPrimaID: materiaID, Cantidad: -3, CostoUnitario: 5, Motivo: "x"},
		{SucursalID: sucursalID, MateriaPrimaID: materiaID, Cantidad: 5, CostoUnitario: -1, Motivo: "x"},
		{SucursalID: sucursalID, MateriaPrimaID: materiaID, Cantidad: 5, CostoUnitario: 5, Motivo: ""},
	}
	for i, caso := range casos {
		if _, err := RegistrarEntrada(db, caso); !errors.Is(err, apperr.ErrEntradaInvalida) {
			t.Errorf("caso %d: se esperaba ErrEntradaInvalida, llegó %v", i, err)
		}
	}
	if n := contarMovimientos(t, db); n != 0 {
		t.Errorf("quedaron %d movimientos de solicitudes rechazadas", n)
	}
}

func TestEntradaSinStockDadoDeAlta(t *testing.T) {
	db := abrirDB(t)
	sucursalID, _ := sembrarStock(t, db, 0, 0)

	otra := models.MateriaPrima{Nombre: "Hoja de plátano", Categoria: "envoltura", Unidad: "pza", Activa: true}
	if err := db.Create(&otra).Error; err != nil {
		t.Fatalf("sembrando materia: %v", err)
	}

	_, err := RegistrarEntrada(db, SolicitudEntrada{
		SucursalID:     sucursalID,
		MateriaPrimaID: otra.ID,
		Cantidad:       5,
		CostoUnitario:  2,
		Motivo:         "compra",
	})
	if !errors.Is(err, apperr.ErrNoEncontrado) {
		t.Fatalf("se esperaba ErrNoEncontrado, llegó %v", err)
	}
}

func TestSalidaDescuentaConCostoPromedio(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 50, 3)

	res, err := RegistrarSalida(db, SolicitudSalida{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       30,
		Motivo:         "producción del día",
	})
	if err != nil {
		t.Fatalf("RegistrarSalida: %v", err)
	}

	if res.StockNuevo != 20 {
		t.Errorf("stock nuevo = %.2f, se esperaba 20", res.StockNuevo)
	}
	if !casiIgual(res.Movimiento.CostoUnitario, 3) || !casiIgual(res.Movimiento.MontoTotal, 90) {
		t.Errorf("movimiento costo/monto = %.2f/%.2f, se esperaba 3/90",
			res.Movimiento.CostoUnitario, res.Movimiento.MontoTotal)
	}
}

func TestSalidaInsuficienteNoDejaRastro(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 20, 3)

	_, err := RegistrarSalida(db, SolicitudSalida{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       25,
		Motivo:         "producción",
	})
	if !errors.Is(err, apperr.ErrStockInsuficiente) {
		t.Fatalf("se esperaba ErrStockInsuficiente, llegó %v", err)
	}

	var stock models.Stock
	if err := db.Where("sucursal_id = ? AND materia_prima_id = ?", sucursalID, materiaID).
		First(&stock).Error; err != nil {
		t.Fatalf("leyendo stock: %v", err)
	}
	if stock.Cantidad != 20 {
		t.Errorf("el stock cambió a %.2f tras una salida rechazada", stock.Cantidad)
	}
	if n := contarMovimientos(t, db); n != 0 {
		t.Errorf("quedaron %d movimientos de una salida rechazada", n)
	}
}

func TestSalidaExactaAgotaElStock(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 20, 3)

	res, err := RegistrarSalida(db, SolicitudSalida{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       20,
		Motivo:         "producción",
	})
	if err != nil {
		t.Fatalf("la salida por el total disponible debe aceptarse: %v", err)
	}
	if res.StockNuevo != 0 {
		t.Errorf("stock nuevo = %.2f, se esperaba 0", res.StockNuevo)
	}
}

func TestMermaEtiquetaElMotivo(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 10, 2)

	res, err := RegistrarMerma(db, SolicitudMerma{
		SucursalID:     sucursalID,
		MateriaPrimaID: materiaID,
		Cantidad:       4,
		Motivo:         "masa agria",
		TipoMerma:      "caducidad",
		Observaciones:  "lote del lunes",
	})
	if err != nil {
		t.Fatalf("RegistrarMerma: %v", err)
	}

	if res.Movimiento.Tipo != models.MovimientoMerma {
		t.Errorf("tipo = %s, se esperaba merma", res.Movimiento.Tipo)
	}
	esperado := "[caducidad] masa agria (lote del lunes)"
	if res.Movimiento.Motivo != esperado {
		t.Errorf("motivo = %q, se esperaba %q", res.Movimiento.Motivo, esperado)
	}
	if !casiIgual(res.Movimiento.MontoTotal, 8) {
		t.Errorf("monto = %.2f, se esperaba 8.00", res.Movimiento.MontoTotal)
	}
}

func TestAjusteConGuardiaOptimista(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 30, 2)

	_, err := RegistrarAjuste(db, SolicitudAjuste{
		SucursalID:       sucursalID,
		MateriaPrimaID:   materiaID,
		CantidadEsperada: 25, // el stock real es 30
		CantidadNueva:    26,
		Motivo:           "conteo físico",
	})
	if !errors.Is(err, apperr.ErrConflicto) {
		t.Fatalf("se esperaba ErrConflicto, llegó %v", err)
	}

	res, err := RegistrarAjuste(db, SolicitudAjuste{
		SucursalID:       sucursalID,
		MateriaPrimaID:   materiaID,
		CantidadEsperada: 30,
		CantidadNueva:    26,
		Motivo:           "conteo físico",
	})
	if err != nil {
		t.Fatalf("RegistrarAjuste: %v", err)
	}

	if res.StockNuevo != 26 {
		t.Errorf("stock nuevo = %.2f, se esperaba 26", res.StockNuevo)
	}
	if !casiIgual(res.Movimiento.Cantidad, 4) || !casiIgual(res.Movimiento.MontoTotal, 8) {
		t.Errorf("cantidad/monto = %.2f/%.2f, se esperaba 4/8",
			res.Movimiento.Cantidad, res.Movimiento.MontoTotal)
	}
}

func TestAjusteNoTocaElCostoPromedio(t *testing.T) {
	db := abrirDB(t)
	sucursalID, materiaID := sembrarStock(t, db, 30, 7)

	if _, err := RegistrarAjuste(db, SolicitudAjuste{
		SucursalID:       sucursalID,
		MateriaPrimaID:   materiaID,
		CantidadEsperada: 30,
		CantidadNueva:    40,
		Motivo:           "conteo físico",
	}); err != nil {
		t.Fatalf("RegistrarAjuste: %v", err)
	}

	var materia models.MateriaPrima
	if err := db.First(&materia, "id = ?", materiaID).Error; err != nil {
		t.Fatalf("leyendo materia: %v", err)
	}
	if !casiIgual(materia.CostoPromedio, 7) {
		t.Errorf("el ajuste cambió el costo promedio a %.4f", materia.CostoPromedio)
	}
}
