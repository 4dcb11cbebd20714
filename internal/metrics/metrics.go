package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VentasRegistradas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tamaleria_ventas_registradas_total",
		Help: "Ventas registradas con éxito.",
	})

	MovimientosInventario = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tamaleria_movimientos_inventario_total",
		Help: "Movimientos de inventario registrados, por tipo.",
	}, []string{"tipo"})

	ContenidoFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tamaleria_contenido_fallbacks_total",
		Help: "Respuestas de respaldo servidas por fallas del proveedor LLM.",
	})
)

// Serve levanta el endpoint /metrics en un puerto aparte del API.
func Serve(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("servidor de métricas escuchando", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("servidor de métricas terminó", "error", err)
		}
	}()
}
