package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SelectByID reads at most one row of table with the given id into out.
// found is false when the table has no such row.
func (c *Client) SelectByID(ctx context.Context, table, id string, out any) (found bool, err error) {
	token, err := c.validToken(ctx)
	if err != nil {
		return false, err
	}

	var rows []json.RawMessage
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/v1/" + table,
		query:  url.Values{"id": {"eq." + id}, "select": {"*"}},
		token:  token,
	}, &rows)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rows[0], out); err != nil {
		return false, fmt.Errorf("supabase: decode %s row: %w", table, err)
	}
	return true, nil
}

// UpdateByID applies patch to the row of table with the given id.
func (c *Client) UpdateByID(ctx context.Context, table, id string, patch any) error {
	token, err := c.validToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/rest/v1/" + table,
		query:  url.Values{"id": {"eq." + id}},
		body:   patch,
		token:  token,
		header: http.Header{"Prefer": {"return=minimal"}},
	}, nil)
}

// Upsert inserts row or merges it into the existing row with the same
// primary key.
func (c *Client) Upsert(ctx context.Context, table string, row any) error {
	token, err := c.validToken(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/" + table,
		body:   row,
		token:  token,
		header: http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}},
	}, nil)
}
