package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstern/flapgate/admit"
	"github.com/dstern/flapgate/api"
	"github.com/dstern/flapgate/storage/memory"
	"github.com/dstern/flapgate/token"
)

const testSecret = "test-secret"

func setupServer(t *testing.T) (*httptest.Server, *memory.Board) {
	t.Helper()
	issuer, err := token.NewIssuer([]byte(testSecret))
	require.NoError(t, err)
	board := memory.NewBoard()
	controller := admit.New(issuer, board)

	a := api.New(issuer, controller, board,
		api.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, board
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// mintToken signs a token with the shared test secret for a session that
// began at the given instant, the same way the server would have.
func mintToken(t *testing.T, secret string, issuedAt time.Time) string {
	t.Helper()
	issuer, err := token.NewIssuer([]byte(secret))
	require.NoError(t, err)
	tok, err := issuer.IssueAt(issuedAt)
	require.NoError(t, err)
	return tok.String()
}

func submitBody(name string, score int, tok string, flapLog []int64) map[string]any {
	return map[string]any{
		"name":    name,
		"score":   score,
		"token":   tok,
		"flapLog": flapLog,
	}
}

func TestSessionSubmitLeaderboardFlow(t *testing.T) {
	srv, _ := setupServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/session", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session api.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.NotEmpty(t, session.Token)

	// Score at the scrutiny threshold needs no gameplay log.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores",
		submitBody("ada", 3, session.Token, nil))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var submit api.SubmitScoreResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submit))
	assert.True(t, submit.Success)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/leaderboard", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board api.LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "ada", board.Entries[0].Name)
	assert.Equal(t, 3, board.Entries[0].Score)
}

func TestSubmitAcceptsPlausibleHighScore(t *testing.T) {
	srv, _ := setupServer(t)

	issued := time.Now().Add(-10 * time.Second)
	ms := issued.UnixMilli()
	tok := mintToken(t, testSecret, issued)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores",
		submitBody("ada", 6, tok, []int64{ms + 2000, ms + 4500, ms + 7000, ms + 9500}))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitRejectsForgedToken(t *testing.T) {
	srv, board := setupServer(t)

	tok := mintToken(t, "wrong-secret", time.Now())
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores",
		submitBody("mallory", 2, tok, nil))
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var errResp api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.NotEmpty(t, errResp.Error)
	assert.Zero(t, board.Len())
}

func TestSubmitRejectsMissingAndMalformedTokens(t *testing.T) {
	srv, _ := setupServer(t)

	for _, tok := range []string{"", "garbage"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores",
			submitBody("ada", 1, tok, nil))
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestSubmitRejectsImplausibleSessions(t *testing.T) {
	srv, _ := setupServer(t)

	issued := time.Now().Add(-10 * time.Second)
	ms := issued.UnixMilli()

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			"physics violation",
			submitBody("ada", 6, mintToken(t, testSecret, issued),
				[]int64{ms + 2000, ms + 8000, ms + 8500, ms + 9000}),
		},
		{
			"missing gameplay log",
			submitBody("ada", 6, mintToken(t, testSecret, issued), nil),
		},
		{
			"insufficient inputs",
			submitBody("ada", 8, mintToken(t, testSecret, issued),
				[]int64{ms + 3000, ms + 6000, ms + 9000}),
		},
		{
			"impossible score for duration",
			submitBody("ada", 50, mintToken(t, testSecret, issued),
				[]int64{ms + 2000, ms + 4500, ms + 7000, ms + 9500}),
		},
		{
			"negative score",
			submitBody("ada", -1, mintToken(t, testSecret, issued), nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSubmitRejectsInvalidJSON(t *testing.T) {
	srv, _ := setupServer(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		srv.URL+"/api/v1/scores", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitMethodNotAllowed(t *testing.T) {
	srv, _ := setupServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/scores", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDuplicateSubmissionsBothRecorded(t *testing.T) {
	srv, board := setupServer(t)

	issued := time.Now().Add(-10 * time.Second)
	ms := issued.UnixMilli()
	body := submitBody("ada", 6, mintToken(t, testSecret, issued),
		[]int64{ms + 2000, ms + 4500, ms + 7000, ms + 9500})

	for i := 0; i < 2; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores", body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, board.Len())
}

func TestLeaderboardLimit(t *testing.T) {
	srv, board := setupServer(t)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, board.Insert(ctx, fmt.Sprintf("p%d", i), i))
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/leaderboard?limit=2", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lb api.LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lb))
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, 4, lb.Entries[0].Score)

	for _, bad := range []string{"0", "-3", "abc"} {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/leaderboard?limit="+bad, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestRepeatedRejectionsAreRateLimited(t *testing.T) {
	srv, _ := setupServer(t)

	tok := mintToken(t, "wrong-secret", time.Now())
	body := submitBody("mallory", 2, tok, nil)

	// Ten rejections exhaust the per-IP budget.
	for i := 0; i < 10; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores", body)
		resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scores", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}
