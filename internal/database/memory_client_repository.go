package database

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/sirupsen/logrus"
)

var _ ClientStore = (*MemoryClientRepository)(nil)

var errMemoryUniqueViolation = errors.New("duplicate key value violates unique constraint")

type memoryRecord struct {
	client models.Client
	seq    int64
}

type memoryState struct {
	// txMu serializa las escrituras; mu protege records
	txMu    sync.Mutex
	mu      sync.RWMutex
	records map[uuid.UUID]*memoryRecord
	seq     int64
}

// MemoryClientRepository implementa ClientStore en memoria con las mismas
// reglas de unicidad que el esquema de PostgreSQL
type MemoryClientRepository struct {
	state  *memoryState
	inTx   bool
	logger *logrus.Logger
}

// NewMemoryClientRepository crea un repositorio en memoria vacío
func NewMemoryClientRepository(logger *logrus.Logger) *MemoryClientRepository {
	return &MemoryClientRepository{
		state: &memoryState{
			records: make(map[uuid.UUID]*memoryRecord),
		},
		logger: logger,
	}
}

// WithTransaction serializa fn con el resto de escrituras y restaura el estado si falla
// El bloqueo es global: una llamada lenta dentro de fn retrasa todas las escrituras.
func (r *MemoryClientRepository) WithTransaction(ctx context.Context, fn func(ClientStore) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()

	snapshot, seq := r.snapshot()
	tx := &MemoryClientRepository{state: r.state, inTx: true, logger: r.logger}

	committed := false
	defer func() {
		if !committed {
			r.restore(snapshot, seq)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	committed = true
	return nil
}

func (r *MemoryClientRepository) snapshot() (map[uuid.UUID]*memoryRecord, int64) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	copied := make(map[uuid.UUID]*memoryRecord, len(r.state.records))
	for id, rec := range r.state.records {
		copied[id] = &memoryRecord{client: cloneClient(rec.client), seq: rec.seq}
	}
	return copied, r.state.seq
}

func (r *MemoryClientRepository) restore(records map[uuid.UUID]*memoryRecord, seq int64) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	r.state.records = records
	r.state.seq = seq
}

// ExistsByEmail verifica si hay un cliente activo con el email
func (r *MemoryClientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.any(func(c *models.Client) bool { return c.Email == email }), nil
}

// ExistsByPhone verifica si hay un cliente activo con el teléfono
func (r *MemoryClientRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.any(func(c *models.Client) bool { return c.Phone == phone }), nil
}

// ExistsByEmailExcluding verifica si otro cliente activo usa el email
func (r *MemoryClientRepository) ExistsByEmailExcluding(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	return r.any(func(c *models.Client) bool { return c.Email == email && c.ID != id }), nil
}

// ExistsByPhoneExcluding verifica si otro cliente activo usa el teléfono
func (r *MemoryClientRepository) ExistsByPhoneExcluding(ctx context.Context, phone string, id uuid.UUID) (bool, error) {
	return r.any(func(c *models.Client) bool { return c.Phone == phone && c.ID != id }), nil
}

func (r *MemoryClientRepository) any(match func(*models.Client) bool) bool {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	for _, rec := range r.state.records {
		if rec.client.Active && match(&rec.client) {
			return true
		}
	}
	return false
}

// FindByID obtiene un cliente activo por ID
func (r *MemoryClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	rec, ok := r.state.records[id]
	if !ok || !rec.client.Active {
		return nil, models.ErrClientNotFound
	}

	client := cloneClient(rec.client)
	return &client, nil
}

// FindByCountry obtiene los clientes activos de un país, más recientes primero
func (r *MemoryClientRepository) FindByCountry(ctx context.Context, countryCode string) ([]models.Client, error) {
	return r.filter(func(c *models.Client) bool { return c.CountryCode == countryCode }), nil
}

// ListAll obtiene todos los clientes activos, más recientes primero
func (r *MemoryClientRepository) ListAll(ctx context.Context) ([]models.Client, error) {
	return r.filter(func(*models.Client) bool { return true }), nil
}

func (r *MemoryClientRepository) filter(match func(*models.Client) bool) []models.Client {
	r.state.mu.RLock()
	matched := make([]*memoryRecord, 0, len(r.state.records))
	for _, rec := range r.state.records {
		if rec.client.Active && match(&rec.client) {
			matched = append(matched, rec)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.client.CreatedAt.Equal(b.client.CreatedAt) {
			return a.client.CreatedAt.After(b.client.CreatedAt)
		}
		return a.seq > b.seq
	})

	clients := make([]models.Client, 0, len(matched))
	for _, rec := range matched {
		clients = append(clients, cloneClient(rec.client))
	}
	r.state.mu.RUnlock()

	return clients
}

// CountActive cuenta los clientes activos
func (r *MemoryClientRepository) CountActive(ctx context.Context) (int64, error) {
	return int64(len(r.filter(func(*models.Client) bool { return true }))), nil
}

// CountActiveByCountry cuenta los clientes activos de un país
func (r *MemoryClientRepository) CountActiveByCountry(ctx context.Context, countryCode string) (int64, error) {
	return int64(len(r.filter(func(c *models.Client) bool { return c.CountryCode == countryCode }))), nil
}

// Insert crea un nuevo cliente
func (r *MemoryClientRepository) Insert(ctx context.Context, client *models.Client) error {
	if !r.inTx {
		return r.WithTransaction(ctx, func(tx ClientStore) error {
			return tx.Insert(ctx, client)
		})
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.records[client.ID]; ok {
		return &models.ConstraintError{Constraint: "clients_id_key", Err: errMemoryUniqueViolation}
	}
	if client.Active {
		if err := r.checkUniqueLocked(client); err != nil {
			return err
		}
	}

	r.state.seq++
	r.state.records[client.ID] = &memoryRecord{client: cloneClient(*client), seq: r.state.seq}

	r.logger.WithField("client_id", client.ID).Debug("Client stored in memory")
	return nil
}

// Update persiste los campos mutables de un cliente activo, incluido el flag active
func (r *MemoryClientRepository) Update(ctx context.Context, client *models.Client) error {
	if !r.inTx {
		return r.WithTransaction(ctx, func(tx ClientStore) error {
			return tx.Update(ctx, client)
		})
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	rec, ok := r.state.records[client.ID]
	if !ok || !rec.client.Active {
		return models.ErrClientNotFound
	}
	if client.Active {
		if err := r.checkUniqueLocked(client); err != nil {
			return err
		}
	}

	rec.client.Email = client.Email
	rec.client.Address = client.Address
	rec.client.Phone = client.Phone
	rec.client.CountryCode = client.CountryCode
	rec.client.Demonym = client.Demonym
	rec.client.Active = client.Active
	rec.client.UpdatedAt = client.UpdatedAt

	return nil
}

// checkUniqueLocked aplica la unicidad de email y teléfono entre clientes activos
func (r *MemoryClientRepository) checkUniqueLocked(client *models.Client) error {
	for _, constraint := range []string{ConstraintClientEmail, ConstraintClientPhone} {
		for id, rec := range r.state.records {
			if id == client.ID || !rec.client.Active {
				continue
			}
			clash := rec.client.Email == client.Email
			if constraint == ConstraintClientPhone {
				clash = rec.client.Phone == client.Phone
			}
			if clash {
				return &models.ConstraintError{
					Constraint: constraint,
					Field:      constraintField(constraint),
					Err:        errMemoryUniqueViolation,
				}
			}
		}
	}
	return nil
}

func cloneClient(c models.Client) models.Client {
	if c.SecondName != nil {
		v := *c.SecondName
		c.SecondName = &v
	}
	if c.SecondSurname != nil {
		v := *c.SecondSurname
		c.SecondSurname = &v
	}
	return c
}
