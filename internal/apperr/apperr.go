package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Errores centinela del dominio. Los servicios los envuelven con %w y los
// handlers los traducen a códigos HTTP con CodigoHTTP.
var (
	// ErrNoEncontrado: la entidad referenciada no existe o está inactiva.
	ErrNoEncontrado = errors.New("recurso no encontrado")
	// ErrEntradaInvalida: solicitud malformada o contradictoria.
	ErrEntradaInvalida = errors.New("entrada inválida")
	// ErrStockInsuficiente: salida o merma mayor al stock disponible.
	ErrStockInsuficiente = errors.New("stock insuficiente")
	// ErrConflicto: la cantidad previa esperada no coincide con el stock actual.
	ErrConflicto = errors.New("conflicto de concurrencia")
	// ErrNoDisponible: falla al llamar un servicio externo.
	ErrNoDisponible = errors.New("servicio no disponible")
)

// CodigoHTTP mapea un error del dominio a su código HTTP.
func CodigoHTTP(err error) int {
	switch {
	case errors.Is(err, ErrNoEncontrado):
		return fiber.StatusNotFound
	case errors.Is(err, ErrEntradaInvalida),
		errors.Is(err, ErrStockInsuficiente),
		errors.Is(err, ErrConflicto):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNoDisponible):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
