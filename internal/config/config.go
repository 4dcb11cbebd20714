package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	MetricsAddr string

	RedisAddr string // vacío = cache deshabilitado

	LLMBaseURL  string
	LLMAPIKey   string
	LLMModel    string
	LLMTimeout  time.Duration
	CacheTTL    time.Duration

	// TTL corto para las respuestas cacheadas del dashboard.
	DashboardTTL time.Duration

	// Porcentaje de costo estimado para la rentabilidad por categoría del
	// dashboard. Es un placeholder configurable, no un modelo de costos real.
	PorcentajeCostoEstimado float64
}

func Load() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=tamaleria port=5432 sslmode=disable")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("METRICS_ADDR", ":9100")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 20)
	v.SetDefault("CONTENT_CACHE_TTL_MINUTES", 60)
	v.SetDefault("DASHBOARD_CACHE_TTL_SECONDS", 60)
	v.SetDefault("DASHBOARD_COST_PERCENT", 60)

	cfg := &Config{
		Env:         v.GetString("APP_ENV"),
		HTTPPort:    v.GetString("HTTP_PORT"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		LLMBaseURL:  v.GetString("LLM_BASE_URL"),
		LLMAPIKey:   v.GetString("LLM_API_KEY"),
		LLMModel:    v.GetString("LLM_MODEL"),
		LLMTimeout:  time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		CacheTTL:    time.Duration(v.GetInt("CONTENT_CACHE_TTL_MINUTES")) * time.Minute,

		DashboardTTL: time.Duration(v.GetInt("DASHBOARD_CACHE_TTL_SECONDS")) * time.Second,

		PorcentajeCostoEstimado: v.GetFloat64("DASHBOARD_COST_PERCENT"),
	}

	// Controles de seguridad para producción
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] La variable JWT_SECRET no está definida. Es obligatoria.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET debe tener al menos 32 caracteres.")
	}
	if cfg.LLMAPIKey == "" {
		log.Println("[WARN] LLM_API_KEY no está definida; la generación de contenido responderá siempre con el texto de respaldo.")
	}
	if cfg.PorcentajeCostoEstimado <= 0 || cfg.PorcentajeCostoEstimado >= 100 {
		log.Fatal("[FATAL] DASHBOARD_COST_PERCENT debe estar entre 0 y 100.")
	}

	return cfg
}
