package auth

import (
	"strings"

	"tamaleria-backend/internal/config"
	"tamaleria-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegistrarAdminRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/registrar-admin
// Solo permite crear el primer administrador de la cadena.
func RegistrarAdminHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegistrarAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if body.Email == "" || body.Password == "" || body.Nombre == "" {
			return fiber.NewError(fiber.StatusBadRequest, "nombre, email y password son obligatorios")
		}

		var count int64
		db.Model(&models.Usuario{}).
			Where("rol = ?", models.RolAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Ya existe un administrador")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo procesar la contraseña")
		}

		usuario := models.Usuario{
			Nombre:       body.Nombre,
			Email:        body.Email,
			PasswordHash: string(hash),
			Rol:          models.RolAdmin,
		}

		if err := db.Create(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el usuario")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    usuario.ID,
			"email": usuario.Email,
			"rol":   usuario.Rol,
		})
	}
}

// POST /api/auth/login
func LoginHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var usuario models.Usuario
		if err := db.Where("email = ?", body.Email).First(&usuario).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usuario.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email o contraseña incorrectos")
		}

		token, err := GenerateToken(cfg.JWTSecret, &usuario)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"usuario": fiber.Map{
				"id":          usuario.ID,
				"nombre":      usuario.Nombre,
				"email":       usuario.Email,
				"rol":         usuario.Rol,
				"sucursal_id": usuario.SucursalID,
			},
		})
	}
}

// GET /api/auth/yo
func YoHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usuarioIDVal := c.Locals(CtxUsuarioIDKey)

		var usuario models.Usuario
		if usuarioID, ok := usuarioIDVal.(uint); ok {
			if err := db.First(&usuario, usuarioID).Error; err == nil {
				resp := fiber.Map{
					"usuario_id":  usuario.ID,
					"nombre":      usuario.Nombre,
					"email":       usuario.Email,
					"rol":         usuario.Rol,
					"sucursal_id": usuario.SucursalID,
				}

				if usuario.SucursalID != nil {
					var sucursal models.Sucursal
					if err := db.First(&sucursal, *usuario.SucursalID).Error; err == nil {
						resp["sucursal"] = fiber.Map{
							"id":        sucursal.ID,
							"nombre":    sucursal.Nombre,
							"direccion": sucursal.Direccion,
							"telefono":  sucursal.Telefono,
						}
					}
				}

				return c.JSON(resp)
			}
		}

		return c.JSON(fiber.Map{
			"usuario_id":  usuarioIDVal,
			"rol":         c.Locals(CtxRolKey),
			"sucursal_id": c.Locals(CtxSucursalIDKey),
		})
	}
}
