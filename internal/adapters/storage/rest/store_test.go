package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/coinop/internal/adapters/storage/rest"
	"github.com/okian/coinop/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	var gotPath, gotAuth, gotPrefer string
	var gotBody []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotPrefer = r.Header.Get("Prefer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{}]`))
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	err := store.Insert(context.Background(), model.ScoreRecord{
		Username:    "Ace_01",
		Score:       500,
		Fingerprint: "fp-1",
		IPHash:      "deadbeef",
	})
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/scores", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "return=representation", gotPrefer)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "Ace_01", gotBody[0]["username"])
	assert.Equal(t, float64(500), gotBody[0]["score"])
	assert.Equal(t, "deadbeef", gotBody[0]["ip_hash"])
}

func TestInsertNullFingerprint(t *testing.T) {
	var gotBody []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	require.NoError(t, store.Insert(context.Background(), model.ScoreRecord{
		Username: "Ace_01",
		Score:    1,
		IPHash:   "deadbeef",
	}))
	require.Len(t, gotBody, 1)
	assert.Nil(t, gotBody[0]["fingerprint"])
}

func TestInsertFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	err := store.Insert(context.Background(), model.ScoreRecord{Username: "Ace_01", IPHash: "x"})
	assert.True(t, errors.Is(err, rest.ErrInsert))
}

func TestCountSince(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"select":     r.URL.Query().Get("select"),
			"ip_hash":    r.URL.Query().Get("ip_hash"),
			"created_at": r.URL.Query().Get("created_at"),
		}
		_, _ = w.Write([]byte(`[{"id":1},{"id":2},{"id":3}]`))
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	n, err := store.CountSince(context.Background(), "deadbeef", since)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "id", gotQuery["select"])
	assert.Equal(t, "eq.deadbeef", gotQuery["ip_hash"])
	assert.Equal(t, "gte.2026-01-02T03:04:05Z", gotQuery["created_at"])
}

func TestCountSinceFailureSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	_, err := store.CountSince(context.Background(), "deadbeef", time.Now())
	assert.True(t, errors.Is(err, rest.ErrQuery))
}

func TestTopN(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"select": r.URL.Query().Get("select"),
			"order":  r.URL.Query().Get("order"),
			"limit":  r.URL.Query().Get("limit"),
		}
		_, _ = w.Write([]byte(`[
			{"username":"Ace_01","score":900,"created_at":"2026-01-02T03:04:05Z"},
			{"username":"Bea-02","score":500,"created_at":"2026-01-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	store := rest.New(srv.URL, "service-key")
	rows, err := store.TopN(context.Background(), 50, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ace_01", rows[0].Username)
	assert.Equal(t, float64(900), rows[0].Score)
	assert.Equal(t, "score.desc,created_at.desc", gotQuery["order"])
	assert.Equal(t, "50", gotQuery["limit"])
	assert.Equal(t, "username,score,created_at", gotQuery["select"])
}

func TestRecordIsNoOp(t *testing.T) {
	store := rest.New("http://unreachable.invalid", "service-key")
	assert.NoError(t, store.Record(context.Background(), "deadbeef", time.Now()))
}
