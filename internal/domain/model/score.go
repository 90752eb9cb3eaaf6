// Package model contains domain models passed between layers.
package model

import "time"

// Submission represents one score submission attempt as received from a
// client. Fields mirror the JSON schema for /api/submit.
type Submission struct {
	Username    string  // display name, validated downstream
	Score       float64 // claimed score (normalized to float64)
	TS          int64   // client-claimed unix seconds, presence-checked only
	Sig         string  // composite "<token>|<clientTS>" credential
	Fingerprint string  // opaque client-supplied identifier, optional
	IPHash      string  // server-derived rate-limit bucket key
}

// ScoreRecord is the persisted, immutable row created for each accepted
// submission. CreatedAt is assigned by the storage collaborator.
type ScoreRecord struct {
	Username    string
	Score       float64
	Fingerprint string
	IPHash      string
	CreatedAt   time.Time
}

// LeaderboardRow is the read shape returned by leaderboard queries.
type LeaderboardRow struct {
	Username  string    `json:"username"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
