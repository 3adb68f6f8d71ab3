package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// uniqueViolation es el SQLSTATE de PostgreSQL para violaciones de unicidad
const uniqueViolation = "23505"

const clientColumns = `id, first_name, second_name, first_surname, second_surname,
		email, address, phone, country_code, demonym, active, created_at, updated_at`

var _ ClientStore = (*ClientRepository)(nil)

// ClientRepository maneja las operaciones de base de datos para Client
type ClientRepository struct {
	db     *DB
	q      querier
	inTx   bool
	logger *logrus.Logger
}

// NewClientRepository crea una nueva instancia del repositorio
func NewClientRepository(db *DB, logger *logrus.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		q:      db,
		logger: logger,
	}
}

// WithTransaction ejecuta fn con un repositorio ligado a una transacción
func (r *ClientRepository) WithTransaction(ctx context.Context, fn func(ClientStore) error) error {
	if r.inTx {
		return fn(r)
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&ClientRepository{
			db:     r.db,
			q:      tx,
			inTx:   true,
			logger: r.logger,
		})
	})
}

// ExistsByEmail verifica si hay un cliente activo con el email
func (r *ClientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE email = $1 AND active = true)`, email)
}

// ExistsByPhone verifica si hay un cliente activo con el teléfono
func (r *ClientRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE phone = $1 AND active = true)`, phone)
}

// ExistsByEmailExcluding verifica si otro cliente activo usa el email
func (r *ClientRepository) ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE email = $1 AND id <> $2 AND active = true)`, email, id)
}

// ExistsByPhoneExcluding verifica si otro cliente activo usa el teléfono
func (r *ClientRepository) ExistsByPhoneExcluding(ctx context.Context, phone string, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM clients WHERE phone = $1 AND id <> $2 AND active = true)`, phone, id)
}

func (r *ClientRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var found bool
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("error checking client existence: %w", err)
	}
	return found, nil
}

// FindByID obtiene un cliente activo por ID. Dentro de una transacción bloquea la fila.
func (r *ClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE id = $1 AND active = true`
	if r.inTx {
		query += ` FOR UPDATE`
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	client, err := scanClient(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrClientNotFound
		}
		return nil, fmt.Errorf("error querying client: %w", err)
	}

	return client, nil
}

// FindByCountry obtiene los clientes activos de un país, más recientes primero
func (r *ClientRepository) FindByCountry(ctx context.Context, countryCode string) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE country_code = $1 AND active = true
		ORDER BY created_at DESC, pk DESC`

	return r.list(ctx, query, countryCode)
}

// ListAll obtiene todos los clientes activos, más recientes primero
func (r *ClientRepository) ListAll(ctx context.Context) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE active = true
		ORDER BY created_at DESC, pk DESC`

	return r.list(ctx, query)
}

func (r *ClientRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Client, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying clients: %w", err)
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning client: %w", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// CountActive cuenta los clientes activos
func (r *ClientRepository) CountActive(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM clients WHERE active = true`)
}

// CountActiveByCountry cuenta los clientes activos de un país
func (r *ClientRepository) CountActiveByCountry(ctx context.Context, countryCode string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM clients WHERE country_code = $1 AND active = true`, countryCode)
}

func (r *ClientRepository) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int64
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting clients: %w", err)
	}
	return total, nil
}

// Insert crea un nuevo cliente
func (r *ClientRepository) Insert(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (
			id, first_name, second_name, first_surname, second_surname,
			email, address, phone, country_code, demonym, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, query,
		client.ID, client.FirstName, client.SecondName, client.FirstSurname, client.SecondSurname,
		client.Email, client.Address, client.Phone, client.CountryCode, client.Demonym,
		client.Active, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("error creating client: %w", err))
	}

	r.logger.WithFields(logrus.Fields{
		"client_id":    client.ID,
		"country_code": client.CountryCode,
	}).Debug("Client row inserted")

	return nil
}

// Update persiste los campos mutables de un cliente activo, incluido el flag active
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET email = $1, address = $2, phone = $3, country_code = $4, demonym = $5,
			active = $6, updated_at = $7
		WHERE id = $8 AND active = true
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := r.q.ExecContext(ctx, query,
		client.Email, client.Address, client.Phone, client.CountryCode, client.Demonym,
		client.Active, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("error updating client: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrClientNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var client models.Client
	var secondName, secondSurname sql.NullString

	err := row.Scan(
		&client.ID, &client.FirstName, &secondName, &client.FirstSurname, &secondSurname,
		&client.Email, &client.Address, &client.Phone, &client.CountryCode, &client.Demonym,
		&client.Active, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if secondName.Valid {
		client.SecondName = &secondName.String
	}
	if secondSurname.Valid {
		client.SecondSurname = &secondSurname.String
	}
	client.CreatedAt = client.CreatedAt.UTC()
	client.UpdatedAt = client.UpdatedAt.UTC()

	return &client, nil
}

// mapWriteError convierte una violación de unicidad en *models.ConstraintError
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &models.ConstraintError{
			Constraint: pqErr.Constraint,
			Field:      constraintField(pqErr.Constraint),
			Err:        err,
		}
	}
	return err
}
