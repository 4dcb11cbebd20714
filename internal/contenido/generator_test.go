package contenido

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/cache"
)

func loggerSilencioso() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cacheMapa implementa cache.Cache en memoria para las pruebas.
type cacheMapa struct {
	mu    sync.Mutex
	datos map[string]string
}

func nuevoCacheMapa() *cacheMapa {
	return &cacheMapa{datos: map[string]string{}}
}

func (c *cacheMapa) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.datos[key]
	return v, ok
}

func (c *cacheMapa) Set(_ context.Context, key, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datos[key] = value
}

func servidorChat(t *testing.T, respuesta string, status int, llamadas *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if llamadas != nil {
			*llamadas++
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("ruta inesperada: %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("falta el encabezado Authorization")
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"message": map[string]string{"content": respuesta}},
				},
			})
		}
	}))
}

func nuevoGenerador(baseURL, apiKey string, ca cache.Cache) *Generador {
	return NewGenerador(baseURL, apiKey, "modelo-prueba", 2*time.Second, ca, time.Minute, loggerSilencioso())
}

func TestGenerarDesdeProveedor(t *testing.T) {
	srv := servidorChat(t, "Prueba el nuevo Combo Amanecer.", http.StatusOK, nil)
	defer srv.Close()

	g := nuevoGenerador(srv.URL, "clave-prueba", cache.NoOp{})
	contenido, err := g.Generar(context.Background(), TipoCopyMarketing, map[string]string{
		"promocion": "tamales de rajas 2x1",
	})
	if err != nil {
		t.Fatalf("Generar: %v", err)
	}

	if contenido.Origen != "llm" {
		t.Errorf("origen = %s, se esperaba llm", contenido.Origen)
	}
	if contenido.Texto != "Prueba el nuevo Combo Amanecer." {
		t.Errorf("texto inesperado: %q", contenido.Texto)
	}
	if contenido.ID == "" {
		t.Error("el contenido debe traer id")
	}
}

func TestFallbackCuandoElProveedorFalla(t *testing.T) {
	srv := servidorChat(t, "", http.StatusInternalServerError, nil)
	defer srv.Close()

	g := nuevoGenerador(srv.URL, "clave-prueba", cache.NoOp{})
	contenido, err := g.Generar(context.Background(), TipoAnalisisVentas, map[string]string{
		"resumen": "ventas planas",
	})
	if err != nil {
		t.Fatalf("la falla del proveedor no debe propagarse: %v", err)
	}

	if contenido.Origen != "respaldo" {
		t.Errorf("origen = %s, se esperaba respaldo", contenido.Origen)
	}
	if contenido.Texto != respaldos[TipoAnalisisVentas] {
		t.Errorf("texto = %q, se esperaba el respaldo fijo", contenido.Texto)
	}
}

func TestFallbackSinAPIKey(t *testing.T) {
	g := nuevoGenerador("http://127.0.0.1:0", "", cache.NoOp{})

	contenido, err := g.Generar(context.Background(), TipoAlertaInventario, nil)
	if err != nil {
		t.Fatalf("Generar: %v", err)
	}
	if contenido.Origen != "respaldo" {
		t.Errorf("origen = %s, se esperaba respaldo", contenido.Origen)
	}
}

func TestTipoDesconocido(t *testing.T) {
	g := nuevoGenerador("http://127.0.0.1:0", "clave", cache.NoOp{})

	_, err := g.Generar(context.Background(), "horoscopo", nil)
	if !errors.Is(err, apperr.ErrEntradaInvalida) {
		t.Fatalf("se esperaba ErrEntradaInvalida, llegó %v", err)
	}
}

func TestCacheEvitaSegundaLlamada(t *testing.T) {
	var llamadas int
	srv := servidorChat(t, "texto generado", http.StatusOK, &llamadas)
	defer srv.Close()

	g := nuevoGenerador(srv.URL, "clave-prueba", nuevoCacheMapa())
	params := map[string]string{"promocion": "docena sorpresa"}

	primera, err := g.Generar(context.Background(), TipoCopyMarketing, params)
	if err != nil {
		t.Fatalf("primera llamada: %v", err)
	}
	segunda, err := g.Generar(context.Background(), TipoCopyMarketing, params)
	if err != nil {
		t.Fatalf("segunda llamada: %v", err)
	}

	if llamadas != 1 {
		t.Errorf("el proveedor recibió %d llamadas, se esperaba 1", llamadas)
	}
	if segunda.Origen != "cache" {
		t.Errorf("origen de la segunda = %s, se esperaba cache", segunda.Origen)
	}
	if primera.Texto != segunda.Texto {
		t.Errorf("los textos difieren: %q vs %q", primera.Texto, segunda.Texto)
	}

	// parámetros distintos generan clave distinta
	if _, err := g.Generar(context.Background(), TipoCopyMarketing,
		map[string]string{"promocion": "otra cosa"}); err != nil {
		t.Fatalf("tercera llamada: %v", err)
	}
	if llamadas != 2 {
		t.Errorf("el proveedor recibió %d llamadas, se esperaban 2", llamadas)
	}
}

func TestRespaldoDeComboEsJSONValido(t *testing.T) {
	var combo struct {
		Nombre         string   `json:"nombre"`
		Descripcion    string   `json:"descripcion"`
		Productos      []string `json:"productos"`
		PrecioSugerido float64  `json:"precio_sugerido"`
	}
	if err := json.Unmarshal([]byte(respaldos[TipoRecomendacionCombo]), &combo); err != nil {
		t.Fatalf("el respaldo de recomendacion-combo debe ser JSON válido: %v", err)
	}
	if combo.Nombre == "" || len(combo.Productos) == 0 || combo.PrecioSugerido <= 0 {
		t.Errorf("respaldo incompleto: %+v", combo)
	}
}

func TestConstruirPromptSustituyeParametros(t *testing.T) {
	prompt := construirPrompt(TipoRecomendacionCombo, map[string]string{
		"top_productos": "Tamal Verde, Champurrado",
	})
	if !strings.Contains(prompt, "Tamal Verde, Champurrado") {
		t.Errorf("el prompt no sustituyó los parámetros: %q", prompt)
	}
	if strings.Contains(prompt, "{{top_productos}}") {
		t.Errorf("quedó un marcador sin sustituir: %q", prompt)
	}
}

func TestClaveCacheEstable(t *testing.T) {
	a := claveCache(TipoCopyMarketing, map[string]string{"a": "1", "b": "2"})
	b := claveCache(TipoCopyMarketing, map[string]string{"b": "2", "a": "1"})
	if a != b {
		t.Errorf("el orden de los parámetros cambió la clave: %s vs %s", a, b)
	}

	c := claveCache(TipoCopyMarketing, map[string]string{"a": "1"})
	if a == c {
		t.Error("parámetros distintos produjeron la misma clave")
	}
}
