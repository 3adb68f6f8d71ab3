package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryRepo() *MemoryClientRepository {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewMemoryClientRepository(logger)
}

func testClient(email, phone, country string, createdAt time.Time) *models.Client {
	return &models.Client{
		ID:           uuid.New(),
		FirstName:    "Ana",
		FirstSurname: "García",
		Email:        email,
		Address:      "Calle 123 #45-67",
		Phone:        phone,
		CountryCode:  country,
		Demonym:      "Colombian",
		Active:       true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestMemoryRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	client := testClient("ana@example.com", "+57 300 1234567", "CO", time.Now().UTC())

	require.NoError(t, repo.Insert(ctx, client))

	found, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.Email, found.Email)

	// la copia devuelta no comparte estado con el almacenamiento
	found.Email = "changed@example.com"
	again, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", again.Email)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestMemoryRepository_UniqueAmongActive(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	now := time.Now().UTC()

	first := testClient("ana@example.com", "+57 300 1234567", "CO", now)
	require.NoError(t, repo.Insert(ctx, first))

	err := repo.Insert(ctx, testClient("ana@example.com", "+57 300 0000000", "CO", now))
	var constraintErr *models.ConstraintError
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, "email", constraintErr.Field)
	assert.ErrorIs(t, err, models.ErrConflict)

	err = repo.Insert(ctx, testClient("other@example.com", "+57 300 1234567", "CO", now))
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, "phone", constraintErr.Field)

	// una vez inactivo, el email y el teléfono quedan libres
	first.Active = false
	require.NoError(t, repo.Update(ctx, first))

	exists, err := repo.ExistsByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Insert(ctx, testClient("ana@example.com", "+57 300 1234567", "CO", now)))
}

func TestMemoryRepository_ExistsExcluding(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	client := testClient("ana@example.com", "+57 300 1234567", "CO", time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, client))

	exists, err := repo.ExistsByEmailExcluding(ctx, "ana@example.com", client.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsByPhoneExcluding(ctx, "+57 300 1234567", uuid.New())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryRepository_UpdateInactiveIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	client := testClient("ana@example.com", "+57 300 1234567", "CO", time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, client))

	client.Active = false
	require.NoError(t, repo.Update(ctx, client))

	client.Active = true
	assert.ErrorIs(t, repo.Update(ctx, client), models.ErrClientNotFound)
	_, err := repo.FindByID(ctx, client.ID)
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestMemoryRepository_ListOrderingAndCounts(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	oldest := testClient("a@example.com", "+1 555 0000001", "US", base)
	middle := testClient("b@example.com", "+57 555 0000002", "CO", base.Add(time.Hour))
	newest := testClient("c@example.com", "+57 555 0000003", "CO", base.Add(2*time.Hour))
	for _, c := range []*models.Client{oldest, middle, newest} {
		require.NoError(t, repo.Insert(ctx, c))
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{newest.ID, middle.ID, oldest.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	colombians, err := repo.FindByCountry(ctx, "CO")
	require.NoError(t, err)
	assert.Len(t, colombians, 2)

	middle.Active = false
	require.NoError(t, repo.Update(ctx, middle))

	total, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	byCountry, err := repo.CountActiveByCountry(ctx, "CO")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byCountry)

	empty, err := repo.FindByCountry(ctx, "AR")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryRepository_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	existing := testClient("ana@example.com", "+57 300 1234567", "CO", time.Now().UTC())
	require.NoError(t, repo.Insert(ctx, existing))

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx ClientStore) error {
		require.NoError(t, tx.Insert(ctx, testClient("new@example.com", "+57 300 7654321", "CO", time.Now().UTC())))

		existing.Email = "moved@example.com"
		require.NoError(t, tx.Update(ctx, existing))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	total, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	found, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)
}

func TestMemoryRepository_UpdateOnlyMutableFields(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	client := testClient("ana@example.com", "+57 300 1234567", "CO", created)
	require.NoError(t, repo.Insert(ctx, client))

	changed := *client
	changed.FirstName = "Other"
	changed.CreatedAt = created.Add(24 * time.Hour)
	changed.Address = "Carrera 7 #12-34"
	changed.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, &changed))

	found, err := repo.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.FirstName)
	assert.Equal(t, created, found.CreatedAt)
	assert.Equal(t, "Carrera 7 #12-34", found.Address)
	assert.Equal(t, created.Add(time.Hour), found.UpdatedAt)
}
