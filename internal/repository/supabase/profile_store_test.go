package supabase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"heather-backend/internal/domain"
)

type MockTableClient struct {
	mock.Mock
}

func (m *MockTableClient) SelectByID(ctx context.Context, table, id string, out any) (bool, error) {
	args := m.Called(ctx, table, id, out)
	return args.Bool(0), args.Error(1)
}

func (m *MockTableClient) UpdateByID(ctx context.Context, table, id string, patch any) error {
	return m.Called(ctx, table, id, patch).Error(0)
}

func (m *MockTableClient) Upsert(ctx context.Context, table string, row any) error {
	return m.Called(ctx, table, row).Error(0)
}

func TestProfileStoreSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("found row is decoded", func(t *testing.T) {
		client := new(MockTableClient)
		client.On("SelectByID", ctx, "profiles", "user-1", mock.Anything).
			Run(func(args mock.Arguments) {
				row := args.Get(3).(*domain.ProfileRow)
				row.ID = "user-1"
				row.Name = "Ann"
				row.Role = domain.RoleDoctor
			}).
			Return(true, nil)

		res := NewProfileStore(client).Select(ctx, "user-1")
		assert.Equal(t, domain.LookupFound, res.Status)
		assert.Equal(t, "Ann", res.Row.Name)
	})

	t.Run("missing row is not found", func(t *testing.T) {
		client := new(MockTableClient)
		client.On("SelectByID", ctx, "profiles", "user-2", mock.Anything).Return(false, nil)

		res := NewProfileStore(client).Select(ctx, "user-2")
		assert.Equal(t, domain.LookupNotFound, res.Status)
	})

	t.Run("transport failure is reported", func(t *testing.T) {
		client := new(MockTableClient)
		boom := errors.New("boom")
		client.On("SelectByID", ctx, "profiles", "user-3", mock.Anything).Return(false, boom)

		res := NewProfileStore(client).Select(ctx, "user-3")
		assert.Equal(t, domain.LookupFailed, res.Status)
		assert.ErrorIs(t, res.Err, boom)
	})
}

func TestProfileStoreUpdateSendsOnlySetFields(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	name := "Ann B"

	client := new(MockTableClient)
	client.On("UpdateByID", ctx, "profiles", "user-1", map[string]any{
		"name":       "Ann B",
		"updated_at": fixed,
	}).Return(nil)

	store := &profileStore{client: client, now: func() time.Time { return fixed }}
	err := store.Update(ctx, "user-1", domain.ProfileUpdate{Name: &name})

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestProfileStoreUpsertStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	client := new(MockTableClient)
	client.On("Upsert", ctx, "profiles", mock.MatchedBy(func(row domain.ProfileRow) bool {
		return row.ID == "user-1" && row.UpdatedAt != nil && row.UpdatedAt.Equal(fixed) &&
			row.ProfileCompleted != nil && *row.ProfileCompleted
	})).Return(nil)

	store := &profileStore{client: client, now: func() time.Time { return fixed }}
	row := domain.CompletedProfileRow(domain.UserProfile{ID: "user-1", Role: domain.RolePatient}, "Austin, TX", "")

	assert.NoError(t, store.Upsert(ctx, row))
	client.AssertExpectations(t)
}
