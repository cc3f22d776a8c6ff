package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dstern/flapgate/admit"
	"github.com/dstern/flapgate/token"
)

// maxBodyBytes caps the submission body. A full flap log for a long session
// is a few KB; anything near this limit is garbage.
const maxBodyBytes = 1 << 20

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// NewSession handles GET /session: issue a signed session token bound to the
// current server clock. No state is retained.
func (a *API) NewSession(w http.ResponseWriter, r *http.Request) {
	tok, err := a.issuer.Issue()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue session token")
		return
	}
	a.audit.log(AuditSessionIssued, r)
	writeJSON(w, http.StatusOK, SessionResponse{Token: tok.String()})
}

// SubmitScore handles POST /scores: decode, run the admission ladder, and
// report the decision. Exactly one store write happens on acceptance.
func (a *API) SubmitScore(w http.ResponseWriter, r *http.Request) {
	ip := a.clientIP(r)
	if blocked, retryAfter := a.rateLimiter.check(ip); blocked {
		a.audit.logFailure(AuditSubmitRateLimited, r, "too many rejected submissions")
		writeRateLimited(w, retryAfter)
		return
	}

	var req SubmitScoreRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.rateLimiter.recordFailure(ip)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sub := admit.Submission{
		Name:    req.Name,
		Score:   req.Score,
		Token:   req.Token,
		FlapLog: req.FlapLog,
	}
	if err := a.controller.Admit(r.Context(), sub, time.Now()); err != nil {
		a.recordRejection(r, ip, req.Score, err)
		mapError(w, err)
		return
	}

	a.rateLimiter.recordSuccess(ip)
	a.audit.logEvent(AuditScoreAccepted, r, req.Name, slog.Int("score", req.Score))
	writeJSON(w, http.StatusOK, SubmitScoreResponse{Success: true})
}

// recordRejection audits a failed admission under the event matching its
// reject kind and charges the submitter's rate-limit budget. Store failures
// are the server's fault and are not charged to the client.
func (a *API) recordRejection(r *http.Request, ip string, score int, err error) {
	event := AuditScoreRejected
	switch {
	case errors.Is(err, token.ErrForged):
		event = AuditForgedToken
	case errors.Is(err, admit.ErrPhysicsViolation):
		event = AuditPhysicsViolation
	case errors.Is(err, admit.ErrStoreFailure):
		a.audit.logFailure(AuditStoreFailure, r, err.Error(), slog.Int("score", score))
		return
	}
	a.rateLimiter.recordFailure(ip)
	a.audit.logFailure(event, r, err.Error(), slog.Int("score", score))
}

// Leaderboard handles GET /leaderboard: the unauthenticated read path. It
// delegates straight to the store and bypasses the admission controller.
func (a *API) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxLeaderboardLimit {
			n = maxLeaderboardLimit
		}
		limit = n
	}

	entries, err := a.board.Top(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read leaderboard")
		return
	}

	resp := LeaderboardResponse{Entries: make([]LeaderboardEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, LeaderboardEntry{
			Name:       e.Name,
			Score:      e.Score,
			RecordedAt: e.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
