package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/flashmod/card-services/internal/cardsvc/models"
)

// APIError is a non-2xx answer from the remote store, carrying the remote
// status code and message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase api error %d: %s", e.StatusCode, e.Message)
}

// SupabaseStore talks to a Supabase PostgREST endpoint. Tables are
// addressed by name; rows are filtered with PostgREST query operators
// (cardid=eq.<id> and friends).
type SupabaseStore struct {
	client *resty.Client
}

func NewSupabaseStore(baseURL, apiKey string) *SupabaseStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/rest/v1").
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &SupabaseStore{client: client}
}

func NewSupabaseStoreWithClient(client *resty.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

// Client exposes the underlying resty client, used by tests to hook the
// transport.
func (s *SupabaseStore) Client() *resty.Client {
	return s.client
}

// Select fetches rows from a table. The query carries PostgREST params
// such as select, limit and column filters.
func (s *SupabaseStore) Select(ctx context.Context, table string, query url.Values) ([]models.Row, error) {
	return s.do(ctx, http.MethodGet, table, query, nil, "")
}

// Insert adds rows to a table and returns the inserted rows. With upsert
// set, conflicts on cardid are merged instead of rejected, which makes
// bulk seeding safe to retry.
func (s *SupabaseStore) Insert(ctx context.Context, table string, rows []models.Row, upsert bool) ([]models.Row, error) {
	prefer := "return=representation"
	query := url.Values{}
	if upsert {
		prefer += ",resolution=merge-duplicates"
		query.Set("on_conflict", "cardid")
	}
	return s.do(ctx, http.MethodPost, table, query, rows, prefer)
}

// UpdateData replaces the data column of the row matching id and returns
// the affected rows. No match yields an empty result, not an error.
func (s *SupabaseStore) UpdateData(ctx context.Context, table, id string, data map[string]interface{}) ([]models.Row, error) {
	query := url.Values{"cardid": {"eq." + id}}
	body := map[string]interface{}{"data": data}
	return s.do(ctx, http.MethodPatch, table, query, body, "return=representation")
}

// Delete removes the row matching id. Deleting an absent id is not an
// error.
func (s *SupabaseStore) Delete(ctx context.Context, table, id string) error {
	query := url.Values{"cardid": {"eq." + id}}
	_, err := s.do(ctx, http.MethodDelete, table, query, nil, "")
	return err
}

// DeleteAll wipes every row of a table.
func (s *SupabaseStore) DeleteAll(ctx context.Context, table string) error {
	query := url.Values{"cardid": {"not.is.null"}}
	_, err := s.do(ctx, http.MethodDelete, table, query, nil, "")
	return err
}

func (s *SupabaseStore) do(ctx context.Context, method, table string, query url.Values, body interface{}, prefer string) ([]models.Row, error) {
	log.Debugf("supabase %s %s %s", method, table, query.Encode())

	req := s.client.R().SetContext(ctx).SetQueryParamsFromValues(query)
	if body != nil {
		req.SetBody(body)
	}
	if prefer != "" {
		req.SetHeader("Prefer", prefer)
	}

	resp, err := req.Execute(method, "/"+table)
	if err != nil {
		return nil, fmt.Errorf("supabase %s %s: %w", method, table, err)
	}

	if resp.IsError() {
		msg := strings.TrimSpace(string(resp.Body()))
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	// DELETE and minimal-return writes answer with an empty body.
	raw := resp.Body()
	if len(raw) == 0 {
		return nil, nil
	}

	var rows []models.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "malformed response: " + err.Error()}
	}
	return rows, nil
}
