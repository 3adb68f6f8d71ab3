package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hypernova-labs/client-service/internal/database"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, name string, data map[string]interface{}) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

// racyStore simula un escritor concurrente que pasa las verificaciones previas
type racyStore struct {
	database.ClientStore
}

func (r racyStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (r racyStore) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return false, nil
}

func (r racyStore) WithTransaction(ctx context.Context, fn func(database.ClientStore) error) error {
	return r.ClientStore.WithTransaction(ctx, func(tx database.ClientStore) error {
		return fn(racyStore{tx})
	})
}

type serviceFixture struct {
	service   *ClientService
	store     *database.MemoryClientRepository
	resolver  *mockResolver
	publisher *mockPublisher
	metrics   *metrics.Metrics
	clock     time.Time
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &serviceFixture{
		store:     database.NewMemoryClientRepository(logger),
		resolver:  new(mockResolver),
		publisher: new(mockPublisher),
		metrics:   metrics.New(prometheus.NewRegistry()),
		clock:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.service = NewClientService(f.store, f.resolver, f.publisher, f.metrics, logger)
	f.service.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func createRequest(email, phone, country string) *models.CreateClientRequest {
	return &models.CreateClientRequest{
		FirstName:    " John ",
		FirstSurname: "Doe",
		Email:        email,
		Address:      "742 Evergreen Terrace",
		Phone:        phone,
		CountryCode:  country,
	}
}

func updateRequest(email, phone, country string) *models.UpdateClientRequest {
	return &models.UpdateClientRequest{
		Email:       email,
		Address:     "221B Baker Street",
		Phone:       phone,
		CountryCode: country,
	}
}

func invalidCountry(code string) error {
	return &models.CountryCodeError{Code: code, Err: models.ErrInvalidCountryCode}
}

func unavailable(code string) error {
	return &models.CountryCodeError{Code: code, Err: fmt.Errorf("%w: timeout", models.ErrResolverUnavailable)}
}

func TestCreate_NormalizesAndEnriches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil).Once()

	client, err := f.service.Create(ctx, createRequest("A@X.com", "+1-555-1", "us"))

	require.NoError(t, err)
	assert.Equal(t, "a@x.com", client.Email)
	assert.Equal(t, "US", client.CountryCode)
	assert.Equal(t, "American", client.Demonym)
	assert.Equal(t, "John", client.FirstName)
	assert.True(t, client.Active)
	assert.Equal(t, client.CreatedAt, client.UpdatedAt)

	stored, err := f.service.GetByID(ctx, client.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "American", stored.Demonym)

	f.resolver.AssertExpectations(t)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, models.EventClientCreated, mock.MatchedBy(func(data map[string]interface{}) bool {
		return data["client_id"] == client.ID.String() && data["email"] == "a@x.com"
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ClientOperations.WithLabelValues("create", "success")))
}

func TestCreate_DoesNotMutateRequest(t *testing.T) {
	f := newFixture(t)
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	req := createRequest("A@X.com", "+1-555-1", "us")
	_, err := f.service.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "A@X.com", req.Email)
	assert.Equal(t, "us", req.CountryCode)
}

func TestCreate_DuplicateEmailAnyCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil).Once()

	_, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, createRequest("JOHN@example.com", "+1 555 0002", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	// el duplicado se detecta antes de llamar al resolver
	f.resolver.AssertNumberOfCalls(t, "Resolve", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ClientOperations.WithLabelValues("create", "conflict")))
}

func TestCreate_DuplicatePhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil).Once()

	_, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, createRequest("jane@example.com", " +1 555 0001 ", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicatePhone)
}

func TestCreate_ResolverFailureCreatesNothing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"invalid country", invalidCountry("XX"), models.ErrInvalidCountryCode},
		{"resolver unavailable", unavailable("XX"), models.ErrResolverUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.resolver.On("Resolve", mock.Anything, "XX").Return("", tt.err)

			_, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "xx"))
			assert.ErrorIs(t, err, tt.wantErr)

			total, err := f.service.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(0), total)
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_LateConstraintViolationIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	_, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	racy := NewClientService(racyStore{f.store}, f.resolver, nil, nil, logger)

	_, err = racy.Create(ctx, createRequest("john@example.com", "+1 555 0002", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	_, err = racy.Create(ctx, createRequest("jane@example.com", "+1 555 0001", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicatePhone)
}

func TestTranslateConstraint_UnknownConstraintIsGenericConflict(t *testing.T) {
	err := translateConstraint(&models.ConstraintError{Constraint: "clients_id_key", Err: errors.New("dup")})

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.False(t, errors.Is(err, models.ErrDuplicateEmail))
	assert.False(t, errors.Is(err, models.ErrDuplicatePhone))
}

func TestSoftDeleteFreesEmailAndPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	first, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(ctx, first.ID.String()))

	second, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDelete_TwiceIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	client, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, client.ID.String()))
	assert.ErrorIs(t, f.service.Delete(ctx, client.ID.String()), models.ErrClientNotFound)

	_, err = f.service.GetByID(ctx, client.ID.String())
	assert.ErrorIs(t, err, models.ErrClientNotFound)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, models.EventClientDeleted, mock.Anything)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrClientNotFound)

	_, err = f.service.Update(ctx, "42", updateRequest("a@b.co", "+1 555 0001", "US"))
	assert.ErrorIs(t, err, models.ErrClientNotFound)

	assert.ErrorIs(t, f.service.Delete(ctx, ""), models.ErrClientNotFound)
}

func TestUpdate_SameCountrySkipsResolver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil).Once()

	client, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	updated, err := f.service.Update(ctx, client.ID.String(), updateRequest(" New@Example.com ", "+1 555 0009", "us"))

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "+1 555 0009", updated.Phone)
	assert.Equal(t, "221B Baker Street", updated.Address)
	assert.Equal(t, "American", updated.Demonym)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	assert.Equal(t, client.CreatedAt, updated.CreatedAt)
	f.resolver.AssertNumberOfCalls(t, "Resolve", 1)
}

func TestUpdate_CountryChangeUpdatesDemonym(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil).Once()
	f.resolver.On("Resolve", mock.Anything, "MX").Return("Mexican", nil).Once()

	client, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)

	updated, err := f.service.Update(ctx, client.ID.String(), updateRequest("john@example.com", "+1 555 0001", "mx"))
	require.NoError(t, err)
	assert.Equal(t, "MX", updated.CountryCode)
	assert.Equal(t, "Mexican", updated.Demonym)

	mexicans, err := f.service.CountByCountry(ctx, "mx")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mexicans)
	f.resolver.AssertExpectations(t)
}

func TestUpdate_ResolverFailureLeavesRecordUnchanged(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantErr   error
		notWanted error
	}{
		{"invalid country", invalidCountry("ZZ"), models.ErrInvalidCountryCode, models.ErrResolverUnavailable},
		{"resolver unavailable", unavailable("ZZ"), models.ErrResolverUnavailable, models.ErrInvalidCountryCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)
			f.resolver.On("Resolve", mock.Anything, "ZZ").Return("", tt.err)

			client, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
			require.NoError(t, err)

			_, err = f.service.Update(ctx, client.ID.String(), updateRequest("changed@example.com", "+1 555 0009", "zz"))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, errors.Is(err, tt.notWanted))

			stored, err := f.service.GetByID(ctx, client.ID.String())
			require.NoError(t, err)
			assert.Equal(t, *client, *stored)
		})
	}
}

func TestUpdate_DuplicateChecksExcludeSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	john, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, createRequest("jane@example.com", "+1 555 0002", "US"))
	require.NoError(t, err)

	_, err = f.service.Update(ctx, john.ID.String(), updateRequest("JANE@example.com", "+1 555 0001", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)

	_, err = f.service.Update(ctx, john.ID.String(), updateRequest("john@example.com", "+1 555 0002", "US"))
	assert.ErrorIs(t, err, models.ErrDuplicatePhone)

	_, err = f.service.Update(ctx, john.ID.String(), updateRequest("JOHN@example.com", "+1 555 0001", "US"))
	assert.NoError(t, err)
}

func TestUpdate_DeletedClientIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)

	client, err := f.service.Create(ctx, createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(ctx, client.ID.String()))

	_, err = f.service.Update(ctx, client.ID.String(), updateRequest("john@example.com", "+1 555 0001", "US"))
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestReads_CountOnlyActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolver.On("Resolve", mock.Anything, "US").Return("American", nil)
	f.resolver.On("Resolve", mock.Anything, "CO").Return("Colombian", nil)

	a, err := f.service.Create(ctx, createRequest("a@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, createRequest("b@example.com", "+57 300 0002", "CO"))
	require.NoError(t, err)
	c, err := f.service.Create(ctx, createRequest("c@example.com", "+57 300 0003", "CO"))
	require.NoError(t, err)
	require.NoError(t, f.service.Delete(ctx, a.ID.String()))

	total, err := f.service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	colombians, err := f.service.ListByCountry(ctx, "co")
	require.NoError(t, err)
	assert.Len(t, colombians, 2)

	all, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, c.ID, all[0].ID)

	americans, err := f.service.CountByCountry(ctx, "US")
	require.NoError(t, err)
	assert.Equal(t, int64(0), americans)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, "US").Return("American", nil)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("inngest down"))

	service := NewClientService(database.NewMemoryClientRepository(logger), resolver, publisher, nil, logger)

	client, err := service.Create(context.Background(), createRequest("john@example.com", "+1 555 0001", "US"))
	require.NoError(t, err)
	assert.NotNil(t, client)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
