package api

import "time"

// SessionResponse is returned from GET /session.
type SessionResponse struct {
	Token string `json:"token"`
}

// SubmitScoreRequest is the JSON body for POST /scores. FlapLog carries the
// epoch-millisecond timestamp of each player input, in recorded order.
type SubmitScoreRequest struct {
	Name    string  `json:"name"`
	Score   int     `json:"score"`
	Token   string  `json:"token"`
	FlapLog []int64 `json:"flapLog"`
}

// SubmitScoreResponse is returned from POST /scores on admission.
type SubmitScoreResponse struct {
	Success bool `json:"success"`
}

// LeaderboardEntry is one row in the leaderboard read response.
type LeaderboardEntry struct {
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LeaderboardResponse is returned from GET /leaderboard.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
