package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainpass/internal/audit"
	"chainpass/pkg/domain"
	dErrors "chainpass/pkg/domain-errors"
)

func newTestService() (*Service, *audit.InMemoryStore) {
	auditStore := audit.NewInMemoryStore()
	svc := NewService(
		NewInMemoryStore(),
		audit.NewPublisher(auditStore),
		slog.New(slog.DiscardHandler),
		nil,
	)
	return svc, auditStore
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:         "Alice Example",
		Email:        "a@x.com",
		IDHash:       domain.HashNationalID("AB-123456").String(),
		OwnerAddress: "0x00112233445566778899aabbccddeeff00112233",
	}
}

func Test_Register_Succeeds(t *testing.T) {
	svc, auditStore := newTestService()
	ctx := context.Background()

	record, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.True(t, record.Active)
	assert.Equal(t, domain.Email("a@x.com"), record.Email)

	got, err := svc.Get(ctx, record.OwnerAddress.String())
	require.NoError(t, err)
	assert.Equal(t, record.Name, got.Name)
	assert.Equal(t, record.IDHash, got.IDHash)
	assert.True(t, svc.Exists(ctx, record.OwnerAddress.String()))

	events, err := auditStore.ListByOwner(ctx, record.OwnerAddress)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRegistered, events[0].Action)
	assert.Equal(t, record.Email, events[0].Email)
	assert.False(t, events[0].Timestamp.IsZero())
}

func Test_Register_InvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"empty name", func(in *RegisterInput) { in.Name = "  " }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short id hash", func(in *RegisterInput) { in.IDHash = "abc123" }},
		{"bad address", func(in *RegisterInput) { in.OwnerAddress = "12345" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := svc.Register(ctx, input)
			require.Error(t, err)
			assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		})
	}
}

func Test_Register_UniquenessConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("same email different identity fails with email conflict", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		second := validInput()
		second.IDHash = domain.HashNationalID("CD-654321").String()
		second.OwnerAddress = "0x99887766554433221100ffeeddccbbaa99887766"
		_, err = svc.Register(ctx, second)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeEmailTaken, "email already in use"))
	})

	t.Run("same id hash fails with id conflict", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		second := validInput()
		second.Email = "b@x.com"
		second.OwnerAddress = "0x99887766554433221100ffeeddccbbaa99887766"
		_, err = svc.Register(ctx, second)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeIDHashTaken, "id hash already in use"))
	})

	t.Run("same address fails with address conflict", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		second := validInput()
		second.Email = "b@x.com"
		second.IDHash = domain.HashNationalID("CD-654321").String()
		_, err = svc.Register(ctx, second)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeAlreadyRegistered, "address already registered"))
	})
}

func Test_Register_NationalID(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes a raw national id server-side", func(t *testing.T) {
		svc, _ := newTestService()
		input := validInput()
		input.IDHash = ""
		input.NationalID = "AB-123456"

		record, err := svc.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, domain.HashNationalID("AB-123456"), record.IDHash)
	})

	t.Run("rejects supplying both id_hash and national_id", func(t *testing.T) {
		svc, _ := newTestService()
		input := validInput()
		input.NationalID = "AB-123456"

		_, err := svc.Register(ctx, input)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeInvalidInput, "provide id_hash or national_id, not both"))
	})

	t.Run("raw national id collides with a stored digest of the same number", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, validInput())
		require.NoError(t, err)

		second := validInput()
		second.Email = "b@x.com"
		second.OwnerAddress = "0x99887766554433221100ffeeddccbbaa99887766"
		second.IDHash = ""
		second.NationalID = "AB-123456"
		_, err = svc.Register(ctx, second)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeIDHashTaken, "id hash already in use"))
	})
}

func Test_Get_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), "0x0000000000000000000000000000000000000000")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func Test_Exists_NeverFails(t *testing.T) {
	svc, _ := newTestService()
	assert.False(t, svc.Exists(context.Background(), "garbage-address"))
	assert.False(t, svc.Exists(context.Background(), "0x0000000000000000000000000000000000000000"))
}

func Test_Deactivate_AllowsReRegistration(t *testing.T) {
	svc, auditStore := newTestService()
	ctx := context.Background()

	record, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, record.OwnerAddress.String()))
	assert.False(t, svc.Exists(ctx, record.OwnerAddress.String()))

	_, err = svc.Register(ctx, validInput())
	require.NoError(t, err)

	events, err := auditStore.ListByOwner(ctx, record.OwnerAddress)
	require.NoError(t, err)
	require.Len(t, events, 3) // register, deactivate, register
	assert.Equal(t, audit.ActionDeactivated, events[1].Action)
}

func Test_CountActive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	count, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = svc.Register(ctx, validInput())
	require.NoError(t, err)

	count, err = svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
