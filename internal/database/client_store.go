package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/models"
)

// Nombres de las restricciones de unicidad sobre clientes activos
const (
	ConstraintClientEmail = "uk_client_email"
	ConstraintClientPhone = "uk_client_phone"
)

// ClientStore define el acceso persistente a clientes.
// Todas las lecturas y verificaciones consideran solo clientes activos.
type ClientStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error)
	ExistsByPhoneExcluding(ctx context.Context, phone string, id uuid.UUID) (bool, error)

	// FindByID retorna models.ErrClientNotFound si no existe o está inactivo
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	FindByCountry(ctx context.Context, countryCode string) ([]models.Client, error)
	ListAll(ctx context.Context) ([]models.Client, error)
	CountActive(ctx context.Context) (int64, error)
	CountActiveByCountry(ctx context.Context, countryCode string) (int64, error)

	// Insert y Update retornan *models.ConstraintError ante una violación de unicidad
	Insert(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error

	// WithTransaction ejecuta fn de forma atómica; si fn falla no queda ningún cambio
	WithTransaction(ctx context.Context, fn func(ClientStore) error) error
}

// constraintField traduce el nombre de la restricción al campo afectado
func constraintField(constraint string) string {
	switch constraint {
	case ConstraintClientEmail:
		return "email"
	case ConstraintClientPhone:
		return "phone"
	default:
		return ""
	}
}
