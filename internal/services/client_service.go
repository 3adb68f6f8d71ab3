package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/database"
	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CountryResolver valida un código de país y retorna su gentilicio
type CountryResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// EventPublisher publica eventos del ciclo de vida de clientes
type EventPublisher interface {
	Publish(ctx context.Context, name string, data map[string]interface{}) error
}

// ClientService maneja la lógica de negocio para Client
type ClientService struct {
	store     database.ClientStore
	resolver  CountryResolver
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewClientService crea una nueva instancia del servicio
func NewClientService(store database.ClientStore, resolver CountryResolver, publisher EventPublisher, m *metrics.Metrics, logger *logrus.Logger) *ClientService {
	return &ClientService{
		store:     store,
		resolver:  resolver,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now: func() time.Time {
			// PostgreSQL guarda microsegundos
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// Create registra un nuevo cliente activo
func (s *ClientService) Create(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	input := *req
	input.Normalize()

	var created *models.Client
	err := s.store.WithTransaction(ctx, func(tx database.ClientStore) error {
		// Verificaciones locales antes de la llamada remota
		exists, err := tx.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return fmt.Errorf("error checking email: %w", err)
		}
		if exists {
			return models.ErrDuplicateEmail
		}

		exists, err = tx.ExistsByPhone(ctx, input.Phone)
		if err != nil {
			return fmt.Errorf("error checking phone: %w", err)
		}
		if exists {
			return models.ErrDuplicatePhone
		}

		demonym, err := s.resolver.Resolve(ctx, input.CountryCode)
		if err != nil {
			return err
		}

		client := models.NewClient(&input, demonym, s.now())
		if err := tx.Insert(ctx, client); err != nil {
			return translateConstraint(err)
		}

		created = client
		return nil
	})

	log := logging.FromContext(ctx, s.logger)
	s.observe(log, "create", err)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"client_id":    created.ID,
		"country_code": created.CountryCode,
		"demonym":      created.Demonym,
	}).Info("Client created successfully")

	s.publish(ctx, models.EventClientCreated, created)
	return created, nil
}

// Update modifica email, dirección, teléfono y país de un cliente activo
func (s *ClientService) Update(ctx context.Context, id string, req *models.UpdateClientRequest) (*models.Client, error) {
	clientID, err := parseClientID(id)
	if err != nil {
		s.observe(logging.FromContext(ctx, s.logger), "update", err)
		return nil, err
	}

	input := *req
	input.Normalize()

	var updated *models.Client
	err = s.store.WithTransaction(ctx, func(tx database.ClientStore) error {
		current, err := tx.FindByID(ctx, clientID)
		if err != nil {
			return err
		}

		if input.Email != current.Email {
			exists, err := tx.ExistsByEmailExcluding(ctx, input.Email, clientID)
			if err != nil {
				return fmt.Errorf("error checking email: %w", err)
			}
			if exists {
				return models.ErrDuplicateEmail
			}
		}

		if input.Phone != current.Phone {
			exists, err := tx.ExistsByPhoneExcluding(ctx, input.Phone, clientID)
			if err != nil {
				return fmt.Errorf("error checking phone: %w", err)
			}
			if exists {
				return models.ErrDuplicatePhone
			}
		}

		next := *current
		next.Email = input.Email
		next.Address = input.Address
		next.Phone = input.Phone

		// País y gentilicio cambian juntos o no cambian
		if input.CountryCode != current.CountryCode {
			demonym, err := s.resolver.Resolve(ctx, input.CountryCode)
			if err != nil {
				return err
			}
			next.CountryCode = input.CountryCode
			next.Demonym = demonym
		}

		next.Touch(s.now())
		if err := tx.Update(ctx, &next); err != nil {
			return translateConstraint(err)
		}

		updated = &next
		return nil
	})

	log := logging.FromContext(ctx, s.logger)
	s.observe(log.WithField("client_id", id), "update", err)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"client_id":    updated.ID,
		"country_code": updated.CountryCode,
	}).Info("Client updated successfully")

	s.publish(ctx, models.EventClientUpdated, updated)
	return updated, nil
}

// Delete desactiva un cliente. Nunca se borra físicamente.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	clientID, err := parseClientID(id)
	if err != nil {
		s.observe(logging.FromContext(ctx, s.logger), "delete", err)
		return err
	}

	var deleted *models.Client
	err = s.store.WithTransaction(ctx, func(tx database.ClientStore) error {
		client, err := tx.FindByID(ctx, clientID)
		if err != nil {
			return err
		}

		client.Active = false
		client.Touch(s.now())
		if err := tx.Update(ctx, client); err != nil {
			return err
		}

		deleted = client
		return nil
	})

	log := logging.FromContext(ctx, s.logger)
	s.observe(log.WithField("client_id", id), "delete", err)
	if err != nil {
		return err
	}

	log.WithField("client_id", deleted.ID).Info("Client deleted successfully")

	s.publish(ctx, models.EventClientDeleted, deleted)
	return nil
}

// GetByID obtiene un cliente activo por ID
func (s *ClientService) GetByID(ctx context.Context, id string) (*models.Client, error) {
	clientID, err := parseClientID(id)
	if err != nil {
		return nil, err
	}

	client, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting client: %w", err)
	}

	return client, nil
}

// ListAll obtiene los clientes activos, más recientes primero
func (s *ClientService) ListAll(ctx context.Context) ([]models.Client, error) {
	clients, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}
	return clients, nil
}

// ListByCountry obtiene los clientes activos de un país
func (s *ClientService) ListByCountry(ctx context.Context, countryCode string) ([]models.Client, error) {
	clients, err := s.store.FindByCountry(ctx, models.NormalizeCountryCode(countryCode))
	if err != nil {
		return nil, fmt.Errorf("error listing clients by country: %w", err)
	}
	return clients, nil
}

// Count cuenta los clientes activos
func (s *ClientService) Count(ctx context.Context) (int64, error) {
	total, err := s.store.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting clients: %w", err)
	}
	return total, nil
}

// CountByCountry cuenta los clientes activos de un país
func (s *ClientService) CountByCountry(ctx context.Context, countryCode string) (int64, error) {
	total, err := s.store.CountActiveByCountry(ctx, models.NormalizeCountryCode(countryCode))
	if err != nil {
		return 0, fmt.Errorf("error counting clients by country: %w", err)
	}
	return total, nil
}

// publish envía el evento después del commit; un fallo solo se registra
func (s *ClientService) publish(ctx context.Context, name string, client *models.Client) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, name, models.NewClientEventData(client).ToMap()); err != nil {
		logging.FromContext(ctx, s.logger).WithError(err).WithFields(logrus.Fields{
			"event":     name,
			"client_id": client.ID,
		}).Warn("Failed to publish client event")
	}
}

func (s *ClientService) observe(log *logrus.Entry, operation string, err error) {
	outcome := outcomeOf(err)
	s.metrics.ObserveOperation(operation, outcome)

	switch outcome {
	case "success":
	case "error":
		log.WithError(err).WithField("operation", operation).Error("Client operation failed")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"outcome":   outcome,
		}).Warn("Client operation rejected")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, models.ErrClientNotFound):
		return "not_found"
	case errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrDuplicatePhone),
		errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrInvalidCountryCode):
		return "invalid_country"
	case errors.Is(err, models.ErrResolverUnavailable):
		return "resolver_unavailable"
	default:
		return "error"
	}
}

// translateConstraint convierte una violación de unicidad tardía en el error de duplicado correspondiente
func translateConstraint(err error) error {
	var constraintErr *models.ConstraintError
	if !errors.As(err, &constraintErr) {
		return err
	}

	switch constraintErr.Field {
	case "email":
		return models.ErrDuplicateEmail
	case "phone":
		return models.ErrDuplicatePhone
	default:
		return constraintErr
	}
}

func parseClientID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, models.ErrClientNotFound
	}
	return parsed, nil
}
