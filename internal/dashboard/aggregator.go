package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tamaleria-backend/internal/models"

	"gorm.io/gorm"
)

// Aggregator es el lado de lectura del dashboard: consulta ventas e
// inventario sobre un rango y produce métricas derivadas sin modificar nada.
// Llamarlo dos veces con los mismos parámetros y sin escrituras intermedias
// da resultados idénticos.
type Aggregator struct {
	db *gorm.DB

	// PorcentajeCosto reparte ingresos en costo/margen estimados para la
	// rentabilidad por categoría. Es un placeholder configurable (default
	// 60/40), no un modelo basado en costos reales de materia prima.
	PorcentajeCosto float64
}

func NewAggregator(db *gorm.DB, porcentajeCosto float64) *Aggregator {
	if porcentajeCosto <= 0 || porcentajeCosto >= 100 {
		porcentajeCosto = 60
	}
	return &Aggregator{db: db, PorcentajeCosto: porcentajeCosto}
}

const (
	CategoriaTamales = "Tamales"
	CategoriaBebidas = "Bebidas"

	AtributoPicante    = "Picante"
	AtributoTipoBebida = "Tipo Bebida"
	OpcionSinChile     = "Sin Chile"
)

var nombresDia = map[time.Weekday]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
}

func porcentaje(parte, total float64) float64 {
	if total == 0 {
		return 0
	}
	return parte / total * 100
}

// --- Resumen de ventas ---

type ResumenVentas struct {
	Total          float64 `json:"total"`
	Transacciones  int64   `json:"transacciones"`
	TicketPromedio float64 `json:"ticket_promedio"`
}

type Resumen struct {
	Dia ResumenVentas `json:"dia"`
	Mes ResumenVentas `json:"mes"`
}

func (a *Aggregator) resumenRango(sucursalID uint, desde, hasta time.Time) (ResumenVentas, error) {
	var fila struct {
		Total float64
		N     int64
	}
	err := a.db.Model(&models.Venta{}).
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS n").
		Where("sucursal_id = ? AND estado = ? AND fecha >= ? AND fecha < ?",
			sucursalID, models.VentaCompletada, desde, hasta).
		Scan(&fila).Error
	if err != nil {
		return ResumenVentas{}, fmt.Errorf("resumen de ventas: %w", err)
	}

	res := ResumenVentas{Total: fila.Total, Transacciones: fila.N}
	if fila.N > 0 {
		res.TicketPromedio = fila.Total / float64(fila.N)
	}
	return res, nil
}

// ResumenDelDia calcula cifras del día de ref y del mes en curso.
func (a *Aggregator) ResumenDelDia(sucursalID uint, ref time.Time) (*Resumen, error) {
	inicioDia := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	inicioMes := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())

	dia, err := a.resumenRango(sucursalID, inicioDia, inicioDia.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	mes, err := a.resumenRango(sucursalID, inicioMes, inicioMes.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	return &Resumen{Dia: dia, Mes: mes}, nil
}

// --- Top de productos ---

type ProductoTop struct {
	ProductoID uint    `json:"producto_id"`
	Producto   string  `json:"producto"`
	Variante   string  `json:"variante"`
	Unidades   int64   `json:"unidades"`
	Importe    float64 `json:"importe"`
	Porcentaje float64 `json:"porcentaje"`
}

// TopProductos regresa los más vendidos de la categoría Tamales agrupados
// por (producto, variante), con la participación de cada uno sobre el total
// de unidades vendidas de la categoría en el rango.
func (a *Aggregator) TopProductos(sucursalID uint, desde, hasta time.Time, limite int) ([]ProductoTop, error) {
	if limite <= 0 {
		limite = 10
	}

	var filas []ProductoTop
	err := a.db.Raw(`
		SELECT d.producto_id AS producto_id,
		       p.nombre AS producto,
		       vp.nombre AS variante,
		       SUM(d.cantidad) AS unidades,
		       SUM(d.subtotal) AS importe
		FROM detalles_venta d
		JOIN ventas v ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		JOIN variantes_producto vp ON vp.id = d.variante_producto_id
		JOIN categorias_producto c ON c.id = p.categoria_producto_id
		WHERE v.sucursal_id = ? AND v.estado = ? AND v.fecha >= ? AND v.fecha < ?
		  AND c.nombre = ?
		GROUP BY d.producto_id, p.nombre, vp.nombre
		ORDER BY unidades DESC, importe DESC
	`, sucursalID, models.VentaCompletada, desde, hasta, CategoriaTamales).Scan(&filas).Error
	if err != nil {
		return nil, fmt.Errorf("top de productos: %w", err)
	}

	var totalUnidades int64
	for _, f := range filas {
		totalUnidades += f.Unidades
	}

	if len(filas) > limite {
		filas = filas[:limite]
	}
	for i := range filas {
		filas[i].Porcentaje = porcentaje(float64(filas[i].Unidades), float64(totalUnidades))
	}
	return filas, nil
}

// --- Bebidas por hora ---

type VentaBebida struct {
	Hora       int     `json:"hora"`
	Franja     string  `json:"franja"` // Mañana | Tarde | Noche
	TipoBebida string  `json:"tipo_bebida"`
	Unidades   int64   `json:"unidades"`
	Importe    float64 `json:"importe"`
}

func franjaHoraria(hora int) string {
	switch {
	case hora >= 6 && hora < 12:
		return "Mañana"
	case hora >= 12 && hora < 18:
		return "Tarde"
	default:
		return "Noche"
	}
}

// Bebidas agrupa las líneas de la categoría Bebidas por hora del día y por la
// etiqueta "Tipo Bebida" de la personalización; las líneas sin etiqueta se
// reportan como "Natural".
func (a *Aggregator) Bebidas(sucursalID uint, desde, hasta time.Time) ([]VentaBebida, error) {
	type fila struct {
		Fecha      time.Time
		Cantidad   int64
		Subtotal   float64
		TipoBebida string
	}
	var filas []fila
	err := a.db.Raw(`
		SELECT v.fecha AS fecha,
		       d.cantidad AS cantidad,
		       d.subtotal AS subtotal,
		       COALESCE(pd.opcion, '') AS tipo_bebida
		FROM detalles_venta d
		JOIN ventas v ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		JOIN categorias_producto c ON c.id = p.categoria_producto_id
		LEFT JOIN personalizaciones_detalle pd
		       ON pd.detalle_venta_id = d.id AND pd.tipo_atributo = ?
		WHERE v.sucursal_id = ? AND v.estado = ? AND v.fecha >= ? AND v.fecha < ?
		  AND c.nombre = ?
	`, AtributoTipoBebida, sucursalID, models.VentaCompletada, desde, hasta, CategoriaBebidas).
		Scan(&filas).Error
	if err != nil {
		return nil, fmt.Errorf("ventas de bebidas: %w", err)
	}

	type llave struct {
		hora int
		tipo string
	}
	grupos := make(map[llave]*VentaBebida)
	for _, f := range filas {
		tipo := f.TipoBebida
		if tipo == "" {
			tipo = "Natural"
		}
		k := llave{hora: f.Fecha.Hour(), tipo: tipo}
		g, ok := grupos[k]
		if !ok {
			g = &VentaBebida{Hora: k.hora, Franja: franjaHoraria(k.hora), TipoBebida: tipo}
			grupos[k] = g
		}
		g.Unidades += f.Cantidad
		g.Importe += f.Subtotal
	}

	res := make([]VentaBebida, 0, len(grupos))
	for _, g := range grupos {
		res = append(res, *g)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Hora != res[j].Hora {
			return res[i].Hora < res[j].Hora
		}
		return res[i].TipoBebida < res[j].TipoBebida
	})
	return res, nil
}

// --- Distribución de picante ---

type NivelPicante struct {
	Nivel      string  `json:"nivel"`
	Unidades   int64   `json:"unidades"`
	Porcentaje float64 `json:"porcentaje"`
}

type DistribucionPicante struct {
	TotalSinPicante      int64          `json:"total_sin_picante"`
	TotalConPicante      int64          `json:"total_con_picante"`
	PorcentajeConPicante float64        `json:"porcentaje_con_picante"`
	Niveles              []NivelPicante `json:"niveles"`
}

// Picante agrega las líneas de tamales que llevan personalización "Picante";
// "Sin Chile" se clasifica aparte de todos los demás niveles.
func (a *Aggregator) Picante(sucursalID uint, desde, hasta time.Time) (*DistribucionPicante, error) {
	type fila struct {
		Nivel    string
		Unidades int64
	}
	var filas []fila
	err := a.db.Raw(`
		SELECT pd.opcion AS nivel, SUM(d.cantidad) AS unidades
		FROM detalles_venta d
		JOIN ventas v ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		JOIN categorias_producto c ON c.id = p.categoria_producto_id
		JOIN personalizaciones_detalle pd
		     ON pd.detalle_venta_id = d.id AND pd.tipo_atributo = ?
		WHERE v.sucursal_id = ? AND v.estado = ? AND v.fecha >= ? AND v.fecha < ?
		  AND c.nombre = ?
		GROUP BY pd.opcion
		ORDER BY unidades DESC
	`, AtributoPicante, sucursalID, models.VentaCompletada, desde, hasta, CategoriaTamales).
		Scan(&filas).Error
	if err != nil {
		return nil, fmt.Errorf("distribución de picante: %w", err)
	}

	dist := &DistribucionPicante{Niveles: make([]NivelPicante, 0, len(filas))}
	var total int64
	for _, f := range filas {
		total += f.Unidades
		if f.Nivel == OpcionSinChile {
			dist.TotalSinPicante += f.Unidades
		} else {
			dist.TotalConPicante += f.Unidades
		}
	}

	for _, f := range filas {
		dist.Niveles = append(dist.Niveles, NivelPicante{
			Nivel:      f.Nivel,
			Unidades:   f.Unidades,
			Porcentaje: porcentaje(float64(f.Unidades), float64(total)),
		})
	}
	dist.PorcentajeConPicante = porcentaje(float64(dist.TotalConPicante), float64(total))
	return dist, nil
}

// --- Rentabilidad por categoría ---

type RentabilidadCategoria struct {
	Categoria      string  `json:"categoria"`
	Ingresos       float64 `json:"ingresos"`
	Unidades       int64   `json:"unidades"`
	PrecioPromedio float64 `json:"precio_promedio"`
	CostoEstimado  float64 `json:"costo_estimado"`
	MargenEstimado float64 `json:"margen_estimado"`
}

// Rentabilidad agrupa líneas completadas por categoría de producto. Las
// líneas de combo no tienen categoría y quedan fuera. El costo es
// ingresos × PorcentajeCosto, no un costeo real.
func (a *Aggregator) Rentabilidad(sucursalID uint, desde, hasta time.Time) ([]RentabilidadCategoria, error) {
	type fila struct {
		Categoria string
		Ingresos  float64
		Unidades  int64
	}
	var filas []fila
	err := a.db.Raw(`
		SELECT c.nombre AS categoria,
		       SUM(d.subtotal) AS ingresos,
		       SUM(d.cantidad) AS unidades
		FROM detalles_venta d
		JOIN ventas v ON v.id = d.venta_id
		JOIN productos p ON p.id = d.producto_id
		JOIN categorias_producto c ON c.id = p.categoria_producto_id
		WHERE v.sucursal_id = ? AND v.estado = ? AND v.fecha >= ? AND v.fecha < ?
		GROUP BY c.nombre
		ORDER BY ingresos DESC
	`, sucursalID, models.VentaCompletada, desde, hasta).Scan(&filas).Error
	if err != nil {
		return nil, fmt.Errorf("rentabilidad por categoría: %w", err)
	}

	res := make([]RentabilidadCategoria, 0, len(filas))
	for _, f := range filas {
		r := RentabilidadCategoria{
			Categoria: f.Categoria,
			Ingresos:  f.Ingresos,
			Unidades:  f.Unidades,
		}
		if f.Unidades > 0 {
			r.PrecioPromedio = f.Ingresos / float64(f.Unidades)
		}
		r.CostoEstimado = f.Ingresos * a.PorcentajeCosto / 100
		r.MargenEstimado = f.Ingresos - r.CostoEstimado
		res = append(res, r)
	}
	return res, nil
}

// --- Resumen de mermas ---

type MermaMateria struct {
	MateriaPrimaID uint     `json:"materia_prima_id"`
	Materia        string   `json:"materia"`
	Cantidad       float64  `json:"cantidad"`
	Costo          float64  `json:"costo"`
	Porcentaje     float64  `json:"porcentaje"`
	Motivos        []string `json:"motivos"`
}

// Mermas regresa el top de materias por costo de merma en el rango, con los
// motivos deduplicados y recortados a 3, y la participación de cada materia
// sobre el costo total de merma.
func (a *Aggregator) Mermas(sucursalID uint, desde, hasta time.Time, limite int) ([]MermaMateria, error) {
	if limite <= 0 {
		limite = 10
	}

	var movimientos []models.MovimientoInventario
	err := a.db.Where("sucursal_id = ? AND tipo = ? AND fecha >= ? AND fecha < ?",
		sucursalID, models.MovimientoMerma, desde, hasta).
		Order("fecha ASC, id ASC").
		Find(&movimientos).Error
	if err != nil {
		return nil, fmt.Errorf("mermas: %w", err)
	}

	agregados := make(map[uint]*MermaMateria)
	motivosVistos := make(map[uint]map[string]bool)
	var costoTotal float64

	for _, m := range movimientos {
		agg, ok := agregados[m.MateriaPrimaID]
		if !ok {
			agg = &MermaMateria{MateriaPrimaID: m.MateriaPrimaID}
			agregados[m.MateriaPrimaID] = agg
			motivosVistos[m.MateriaPrimaID] = make(map[string]bool)
		}
		agg.Cantidad += m.Cantidad
		agg.Costo += m.MontoTotal
		costoTotal += m.MontoTotal

		motivo := strings.TrimSpace(m.Motivo)
		if motivo != "" && !motivosVistos[m.MateriaPrimaID][motivo] && len(agg.Motivos) < 3 {
			motivosVistos[m.MateriaPrimaID][motivo] = true
			agg.Motivos = append(agg.Motivos, motivo)
		}
	}

	res := make([]MermaMateria, 0, len(agregados))
	for _, agg := range agregados {
		agg.Porcentaje = porcentaje(agg.Costo, costoTotal)
		res = append(res, *agg)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Costo > res[j].Costo })
	if len(res) > limite {
		res = res[:limite]
	}

	// nombres de materias solo para el top final
	for i := range res {
		var materia models.MateriaPrima
		if err := a.db.First(&materia, "id = ?", res[i].MateriaPrimaID).Error; err == nil {
			res[i].Materia = materia.Nombre
		}
	}
	return res, nil
}

// --- Estado del inventario ---

type AlertaStock struct {
	MateriaPrimaID uint    `json:"materia_prima_id"`
	Materia        string  `json:"materia"`
	Cantidad       float64 `json:"cantidad"`
	StockMinimo    float64 `json:"stock_minimo"`
	Estado         string  `json:"estado"` // bajo | agotado
}

type EstadoInventario struct {
	ValorInventario  float64       `json:"valor_inventario"`
	MateriasBajas    int           `json:"materias_bajas"`
	MateriasAgotadas int           `json:"materias_agotadas"`
	MovimientosHoy   int64         `json:"movimientos_hoy"`
	ComprasMes       float64       `json:"compras_mes"`
	MermasMes        float64       `json:"mermas_mes"`
	Alertas          []AlertaStock `json:"alertas"`
}

// Inventario arma la foto del inventario de la sucursal: valor total a costo
// promedio, conteos de alertas, movimientos de hoy y acumulados del mes.
func (a *Aggregator) Inventario(sucursalID uint, ref time.Time) (*EstadoInventario, error) {
	type fila struct {
		MateriaPrimaID uint
		Nombre         string
		Cantidad       float64
		StockMinimo    float64
		CostoPromedio  float64
	}
	var filas []fila
	err := a.db.Table("stocks").
		Select(`stocks.materia_prima_id, materias_primas.nombre, stocks.cantidad,
			materias_primas.stock_minimo, materias_primas.costo_promedio`).
		Joins("JOIN materias_primas ON materias_primas.id = stocks.materia_prima_id").
		Where("stocks.sucursal_id = ? AND materias_primas.activa = ?", sucursalID, true).
		Scan(&filas).Error
	if err != nil {
		return nil, fmt.Errorf("estado de inventario: %w", err)
	}

	estado := &EstadoInventario{Alertas: make([]AlertaStock, 0)}
	for _, f := range filas {
		estado.ValorInventario += f.Cantidad * f.CostoPromedio

		switch {
		case f.Cantidad <= 0:
			estado.MateriasAgotadas++
			estado.Alertas = append(estado.Alertas, AlertaStock{
				MateriaPrimaID: f.MateriaPrimaID,
				Materia:        f.Nombre,
				Cantidad:       f.Cantidad,
				StockMinimo:    f.StockMinimo,
				Estado:         "agotado",
			})
		case f.StockMinimo > 0 && f.Cantidad <= f.StockMinimo:
			estado.MateriasBajas++
			estado.Alertas = append(estado.Alertas, AlertaStock{
				MateriaPrimaID: f.MateriaPrimaID,
				Materia:        f.Nombre,
				Cantidad:       f.Cantidad,
				StockMinimo:    f.StockMinimo,
				Estado:         "bajo",
			})
		}
	}

	// agotados primero, después los más cercanos a cero; máximo 5
	sort.Slice(estado.Alertas, func(i, j int) bool {
		if (estado.Alertas[i].Estado == "agotado") != (estado.Alertas[j].Estado == "agotado") {
			return estado.Alertas[i].Estado == "agotado"
		}
		return estado.Alertas[i].Cantidad < estado.Alertas[j].Cantidad
	})
	if len(estado.Alertas) > 5 {
		estado.Alertas = estado.Alertas[:5]
	}

	inicioDia := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	inicioMes := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())

	err = a.db.Model(&models.MovimientoInventario{}).
		Where("sucursal_id = ? AND fecha >= ? AND fecha < ?", sucursalID, inicioDia, inicioDia.AddDate(0, 0, 1)).
		Count(&estado.MovimientosHoy).Error
	if err != nil {
		return nil, fmt.Errorf("movimientos de hoy: %w", err)
	}

	var compras struct{ Total float64 }
	err = a.db.Model(&models.MovimientoInventario{}).
		Select("COALESCE(SUM(monto_total), 0) AS total").
		Where("sucursal_id = ? AND tipo = ? AND fecha >= ? AND fecha < ?",
			sucursalID, models.MovimientoEntrada, inicioMes, inicioMes.AddDate(0, 1, 0)).
		Scan(&compras).Error
	if err != nil {
		return nil, fmt.Errorf("compras del mes: %w", err)
	}
	estado.ComprasMes = compras.Total

	var mermas struct{ Total float64 }
	err = a.db.Model(&models.MovimientoInventario{}).
		Select("COALESCE(SUM(monto_total), 0) AS total").
		Where("sucursal_id = ? AND tipo = ? AND fecha >= ? AND fecha < ?",
			sucursalID, models.MovimientoMerma, inicioMes, inicioMes.AddDate(0, 1, 0)).
		Scan(&mermas).Error
	if err != nil {
		return nil, fmt.Errorf("mermas del mes: %w", err)
	}
	estado.MermasMes = mermas.Total

	return estado, nil
}

// --- Tendencia de ingresos ---

type PuntoTendencia struct {
	Fecha         string  `json:"fecha"`
	DiaSemana     string  `json:"dia_semana"`
	Total         float64 `json:"total"`
	Transacciones int64   `json:"transacciones"`
}

// Tendencia regresa un punto por día calendario de los últimos `dias` días
// terminando en ref, en orden ascendente, con ceros en los días sin ventas
// completadas.
func (a *Aggregator) Tendencia(sucursalID uint, ref time.Time, dias int) ([]PuntoTendencia, error) {
	if dias <= 0 {
		dias = 7
	}

	finDia := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, 1)
	inicio := finDia.AddDate(0, 0, -dias)

	var ventas []models.Venta
	err := a.db.Select("fecha, total").
		Where("sucursal_id = ? AND estado = ? AND fecha >= ? AND fecha < ?",
			sucursalID, models.VentaCompletada, inicio, finDia).
		Find(&ventas).Error
	if err != nil {
		return nil, fmt.Errorf("tendencia de ingresos: %w", err)
	}

	porDia := make(map[string]*PuntoTendencia, dias)
	for _, v := range ventas {
		clave := v.Fecha.Format("2006-01-02")
		p, ok := porDia[clave]
		if !ok {
			p = &PuntoTendencia{}
			porDia[clave] = p
		}
		p.Total += v.Total
		p.Transacciones++
	}

	puntos := make([]PuntoTendencia, 0, dias)
	for d := inicio; d.Before(finDia); d = d.AddDate(0, 0, 1) {
		clave := d.Format("2006-01-02")
		punto := PuntoTendencia{
			Fecha:     clave,
			DiaSemana: nombresDia[d.Weekday()],
		}
		if agg, ok := porDia[clave]; ok {
			punto.Total = agg.Total
			punto.Transacciones = agg.Transacciones
		}
		puntos = append(puntos, punto)
	}
	return puntos, nil
}
