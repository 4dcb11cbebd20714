package database

import (
	"fmt"

	"tamaleria-backend/internal/config"
	"tamaleria-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open abre la conexión y corre las migraciones. El *gorm.DB se pasa
// explícitamente a cada servicio y handler; no hay conexión global.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("no se pudo conectar a la base de datos: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate corre AutoMigrate sobre todos los modelos. Separado de Open para
// que las pruebas puedan migrar una base en memoria.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Sucursal{},
		&models.Usuario{},
		&models.MateriaPrima{},
		&models.Stock{},
		&models.MovimientoInventario{},
		&models.CategoriaProducto{},
		&models.TipoAtributo{},
		&models.OpcionAtributo{},
		&models.Producto{},
		&models.VarianteProducto{},
		&models.Combo{},
		&models.ComponenteCombo{},
		&models.Venta{},
		&models.DetalleVenta{},
		&models.PersonalizacionDetalle{},
	)
	if err != nil {
		return fmt.Errorf("error en AutoMigrate: %w", err)
	}
	return nil
}
