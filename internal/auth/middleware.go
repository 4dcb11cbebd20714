package auth

import (
	"fmt"
	"strings"

	"tamaleria-backend/internal/config"
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUsuarioIDKey  = "usuario_id"
	CtxRolKey        = "rol"
	CtxSucursalIDKey = "sucursal_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Falta el encabezado Authorization")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "El formato debe ser 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("método de firma inválido")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Token inválido o expirado")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "No se pudo interpretar el token")
		}

		c.Locals(CtxUsuarioIDKey, claims.UsuarioID)
		c.Locals(CtxRolKey, claims.Rol)
		c.Locals(CtxSucursalIDKey, claims.SucursalID)

		return c.Next()
	}
}

func RequireRol(permitidos ...models.RolUsuario) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rolVal := c.Locals(CtxRolKey)
		rol, ok := rolVal.(models.RolUsuario)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol")
		}

		for _, r := range permitidos {
			if r == rol {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "No tienes permiso para esta operación")
	}
}

// SucursalDelContexto resuelve la sucursal efectiva de la petición: los
// encargados quedan fijos a su sucursal del token; los admin deben indicar
// ?sucursal_id=N.
func SucursalDelContexto(c *fiber.Ctx) (uint, error) {
	rolVal := c.Locals(CtxRolKey)
	rol, ok := rolVal.(models.RolUsuario)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "No se pudo obtener el rol")
	}

	if rol == models.RolEncargado {
		sucVal := c.Locals(CtxSucursalIDKey)
		sucPtr, ok := sucVal.(*uint)
		if !ok || sucPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "No se encontró la sucursal del usuario")
		}
		return *sucPtr, nil
	}

	// admin
	sidStr := c.Query("sucursal_id")
	if sidStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "sucursal_id es obligatorio")
	}
	var sid uint
	if _, err := fmt.Sscan(sidStr, &sid); err != nil || sid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "sucursal_id inválido")
	}
	return sid, nil
}
