package contenido

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tamaleria-backend/internal/apperr"
	"tamaleria-backend/internal/cache"
	"tamaleria-backend/internal/metrics"

	"github.com/google/uuid"
)

// Generador llama un endpoint estilo chat-completions para producir textos
// del negocio. Si el proveedor falla por cualquier razón (red, timeout,
// status, respuesta vacía) se responde el texto de respaldo del tipo: el
// endpoint nunca propaga la falla del proveedor al cliente.
type Generador struct {
	http    *http.Client
	baseURL string
	apiKey  string
	modelo  string

	cache cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewGenerador(baseURL, apiKey, modelo string, timeout time.Duration, ca cache.Cache, ttl time.Duration, log *slog.Logger) *Generador {
	return &Generador{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		modelo:  modelo,
		cache:   ca,
		ttl:     ttl,
		log:     log,
	}
}

type Contenido struct {
	ID         string    `json:"id"`
	Tipo       string    `json:"tipo"`
	Texto      string    `json:"texto"`
	Origen     string    `json:"origen"` // llm | respaldo | cache
	GeneradoEn time.Time `json:"generado_en"`
}

// Generar resuelve primero contra el cache; con miss consulta al proveedor y
// guarda el resultado. El respaldo nunca se cachea para reintentar al
// proveedor en la siguiente petición.
func (g *Generador) Generar(ctx context.Context, tipo string, parametros map[string]string) (*Contenido, error) {
	if !tipoValido(tipo) {
		return nil, fmt.Errorf("tipo de contenido %q no soportado: %w", tipo, apperr.ErrEntradaInvalida)
	}

	clave := claveCache(tipo, parametros)
	if texto, ok := g.cache.Get(ctx, clave); ok {
		return &Contenido{
			ID:         uuid.NewString(),
			Tipo:       tipo,
			Texto:      texto,
			Origen:     "cache",
			GeneradoEn: time.Now(),
		}, nil
	}

	texto, err := g.consultarProveedor(ctx, construirPrompt(tipo, parametros))
	if err != nil {
		g.log.Warn("proveedor de contenido falló, usando respaldo",
			"tipo", tipo, "error", err)
		metrics.ContenidoFallbacks.Inc()
		return &Contenido{
			ID:         uuid.NewString(),
			Tipo:       tipo,
			Texto:      respaldos[tipo],
			Origen:     "respaldo",
			GeneradoEn: time.Now(),
		}, nil
	}

	g.cache.Set(ctx, clave, texto, g.ttl)
	return &Contenido{
		ID:         uuid.NewString(),
		Tipo:       tipo,
		Texto:      texto,
		Origen:     "llm",
		GeneradoEn: time.Now(),
	}, nil
}

type mensajeChat struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type solicitudChat struct {
	Model    string        `json:"model"`
	Messages []mensajeChat `json:"messages"`
}

type respuestaChat struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Generador) consultarProveedor(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("proveedor sin configurar: %w", apperr.ErrNoDisponible)
	}

	cuerpo, err := json.Marshal(solicitudChat{
		Model: g.modelo,
		Messages: []mensajeChat{
			{Role: "system", Content: promptSistema},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(cuerpo))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("proveedor inaccesible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("el proveedor respondió %d: %w", resp.StatusCode, apperr.ErrNoDisponible)
	}

	var datos respuestaChat
	if err := json.NewDecoder(resp.Body).Decode(&datos); err != nil {
		return "", fmt.Errorf("respuesta ilegible del proveedor: %w", err)
	}
	if len(datos.Choices) == 0 || datos.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("respuesta vacía del proveedor: %w", apperr.ErrNoDisponible)
	}

	return datos.Choices[0].Message.Content, nil
}
