// Package rest implements the row-store collaborator over a PostgREST-style
// query interface. The service owns no storage; every accepted score becomes
// one immutable row in a remote table and the rate limiter counts recent rows
// through the same interface.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/coinop/internal/domain/model"
	"github.com/okian/coinop/pkg/metrics"
)

const (
	defaultTable   = "scores"
	defaultTimeout = 10 * time.Second
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// WithHTTPClient overrides the HTTP client. Intended for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) {
		if client != nil {
			s.client = client
		}
	}
}

// Store is a client for one remote score table.
type Store struct {
	baseURL    string
	serviceKey string
	table      string
	client     *http.Client
}

// New creates a store client for the table at baseURL, authenticating every
// request with serviceKey.
func New(baseURL, serviceKey string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		table:      defaultTable,
		client:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// insertRow is the wire shape for a new score row. The fingerprint column is
// nullable; created_at is assigned server-side.
type insertRow struct {
	Username    string  `json:"username"`
	Score       float64 `json:"score"`
	Fingerprint *string `json:"fingerprint"`
	IPHash      string  `json:"ip_hash"`
}

// Insert persists one accepted submission as a new row.
func (s *Store) Insert(ctx context.Context, rec model.ScoreRecord) error {
	row := insertRow{
		Username: rec.Username,
		Score:    rec.Score,
		IPHash:   rec.IPHash,
	}
	if rec.Fingerprint != "" {
		row.Fingerprint = &rec.Fingerprint
	}
	body, err := json.Marshal([]insertRow{row})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsert, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL().String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInsert, err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.RecordStoreLatency("insert", float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreError("insert")
		return fmt.Errorf("%w: %w", ErrInsert, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordStoreError("insert")
		return fmt.Errorf("%w: status %d", ErrInsert, resp.StatusCode)
	}
	return nil
}

// CountSince returns the number of rows for ipHash created at or after since.
func (s *Store) CountSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	u := s.tableURL()
	q := u.Query()
	q.Set("select", "id")
	q.Set("ip_hash", "eq."+ipHash)
	q.Set("created_at", "gte."+since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	var rows []json.RawMessage
	if err := s.get(ctx, u, "count", &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Record is a no-op: the insert itself is the record the count reads.
func (s *Store) Record(_ context.Context, _ string, _ time.Time) error {
	return nil
}

// TopN returns up to limit rows ordered by score descending, then recency
// descending, optionally restricted to rows created at or after since.
func (s *Store) TopN(ctx context.Context, limit int, since *time.Time) ([]model.LeaderboardRow, error) {
	u := s.tableURL()
	q := u.Query()
	q.Set("select", "username,score,created_at")
	q.Set("order", "score.desc,created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	if since != nil {
		q.Set("created_at", "gte."+since.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	var rows []model.LeaderboardRow
	if err := s.get(ctx, u, "top_n", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) get(ctx context.Context, u *url.URL, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	s.authorize(req)

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordStoreError(op)
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		metrics.RecordStoreError(op)
		return fmt.Errorf("%w: status %d", ErrQuery, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordStoreError(op)
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return nil
}

func (s *Store) tableURL() *url.URL {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		// A broken base URL is a configuration bug; surface it on first use.
		return &url.URL{Path: "/rest/v1/" + s.table}
	}
	u.Path = "/rest/v1/" + s.table
	return u
}

func (s *Store) authorize(req *http.Request) {
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
}
