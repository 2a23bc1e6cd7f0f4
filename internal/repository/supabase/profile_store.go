// Package supabase adapts the Supabase table API to the session layer's
// profile store.
package supabase

import (
	"context"
	"time"

	"heather-backend/internal/domain"
)

const profilesTable = "profiles"

// TableClient is the subset of pkg/supabase.Client the store needs.
type TableClient interface {
	SelectByID(ctx context.Context, table, id string, out any) (bool, error)
	UpdateByID(ctx context.Context, table, id string, patch any) error
	Upsert(ctx context.Context, table string, row any) error
}

type profileStore struct {
	client TableClient
	now    func() time.Time
}

func NewProfileStore(client TableClient) domain.ProfileStore {
	return &profileStore{client: client, now: time.Now}
}

func (s *profileStore) Select(ctx context.Context, id string) domain.ProfileLookup {
	var row domain.ProfileRow
	found, err := s.client.SelectByID(ctx, profilesTable, id, &row)
	if err != nil {
		return domain.Failed(err)
	}
	if !found {
		return domain.NotFound()
	}
	return domain.Found(row)
}

func (s *profileStore) Update(ctx context.Context, id string, update domain.ProfileUpdate) error {
	patch := map[string]any{"updated_at": s.now().UTC()}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Location != nil {
		patch["location"] = *update.Location
	}
	if update.Specialty != nil {
		patch["specialty"] = *update.Specialty
	}
	if update.ImageURL != nil {
		patch["image_url"] = *update.ImageURL
	}
	return s.client.UpdateByID(ctx, profilesTable, id, patch)
}

func (s *profileStore) Upsert(ctx context.Context, row domain.ProfileRow) error {
	now := s.now().UTC()
	row.UpdatedAt = &now
	return s.client.Upsert(ctx, profilesTable, row)
}
