package contenido

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// Tipos de contenido soportados. El tipo llega en la URL.
const (
	TipoRecomendacionCombo = "recomendacion-combo"
	TipoAnalisisVentas     = "analisis-ventas"
	TipoAlertaInventario   = "alerta-inventario"
	TipoCopyMarketing      = "copy-marketing"
)

const promptSistema = "Eres el asistente de una tamalería mexicana con varias sucursales. " +
	"Respondes siempre en español, en tono cálido y directo, sin inventar cifras que no se te dieron."

// plantillas por tipo; {{clave}} se sustituye con los parámetros de la petición.
var plantillas = map[string]string{
	TipoRecomendacionCombo: "Con base en los productos más vendidos: {{top_productos}}, propone un combo nuevo. " +
		"Responde SOLO con un JSON con las llaves: nombre, descripcion, productos (lista de nombres) y precio_sugerido (número).",
	TipoAnalisisVentas: "Analiza este resumen de ventas y señala en máximo 3 párrafos los patrones más útiles " +
		"para el encargado: {{resumen}}.",
	TipoAlertaInventario: "Redacta una alerta breve y accionable para el encargado sobre estas materias primas " +
		"con stock bajo o agotado: {{materias}}.",
	TipoCopyMarketing: "Escribe un texto corto para redes sociales promocionando: {{promocion}}. " +
		"Máximo 2 oraciones y un llamado a la acción.",
}

// Respaldos deterministas cuando el proveedor falla o no está configurado.
// El de recomendacion-combo es JSON válido porque el consumidor lo parsea.
var respaldos = map[string]string{
	TipoRecomendacionCombo: `{"nombre":"Combo de la Casa","descripcion":"Docena de tamales surtidos con dos bebidas de olla","productos":["Tamal Verde","Tamal de Rajas","Champurrado"],"precio_sugerido":185}`,
	TipoAnalisisVentas:     "No fue posible generar el análisis en este momento. Revisa el dashboard de ventas para ver las cifras del día y del mes.",
	TipoAlertaInventario:   "Hay materias primas con stock bajo o agotado. Revisa el resumen de inventario y programa la reposición con tu proveedor.",
	TipoCopyMarketing:      "¡Tamales recién hechos todos los días! Visítanos y acompáñalos con un champurrado calientito.",
}

func tipoValido(tipo string) bool {
	_, ok := plantillas[tipo]
	return ok
}

func construirPrompt(tipo string, parametros map[string]string) string {
	prompt := plantillas[tipo]
	for clave, valor := range parametros {
		prompt = strings.ReplaceAll(prompt, "{{"+clave+"}}", valor)
	}
	return prompt
}

// claveCache produce una clave estable: mismas entradas, misma clave. Los
// parámetros se ordenan y se resumen con sha256 para no mandar claves
// gigantes a Redis.
func claveCache(tipo string, parametros map[string]string) string {
	claves := make([]string, 0, len(parametros))
	for k := range parametros {
		claves = append(claves, k)
	}
	sort.Strings(claves)

	var b strings.Builder
	for _, k := range claves {
		fmt.Fprintf(&b, "%s=%s;", k, parametros[k])
	}
	return fmt.Sprintf("contenido:%s:%x", tipo, sha256.Sum256([]byte(b.String())))
}
