// Package admit implements the score admission decision that gates writes to
// the leaderboard. An admission is a total function from (submission, now) to
// accept or a specific reject reason: input validation, token authenticity,
// temporal plausibility, then input-activity plausibility, with a single
// forwarding attempt to the store on success. It holds no per-request state
// and is safe for arbitrary concurrent use.
package admit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dstern/flapgate/storage"
	"github.com/dstern/flapgate/token"
)

// Default thresholds for the plausibility checks.
const (
	// DefaultMinSecondsPerPoint is the fastest sustainable pace through
	// obstacles; the temporal check divides session duration by it.
	DefaultMinSecondsPerPoint = 1.2
	// DefaultScoreBuffer absorbs network and render jitter in the temporal check.
	DefaultScoreBuffer = 2
	// DefaultInputRatio is the minimum flaps-per-point ratio.
	DefaultInputRatio = 0.5
	// DefaultMaxIdleSeconds is the longest gap between inputs an alive
	// session can show; an idle character falls out of play well before it.
	DefaultMaxIdleSeconds = 3.5
	// DefaultScrutinyThreshold is the score at or below which temporal and
	// activity checks are skipped: very short sessions produce no reliable
	// signal and false positives must be avoided.
	DefaultScrutinyThreshold = 5
)

// Submission is one score submission as received from the client.
type Submission struct {
	Name    string
	Score   int
	Token   string
	FlapLog []int64 // epoch millis per input, in the order the client recorded them
}

// Controller is the authoritative gate between submitted scores and the
// leaderboard store.
type Controller struct {
	issuer *token.Issuer
	board  storage.Leaderboard

	minSecondsPerPoint float64
	scoreBuffer        int
	inputRatio         float64
	maxIdleSeconds     float64
	scrutinyThreshold  int
}

// New creates a Controller verifying tokens with issuer and forwarding
// admitted scores to board.
func New(issuer *token.Issuer, board storage.Leaderboard, opts ...Option) *Controller {
	c := &Controller{
		issuer:             issuer,
		board:              board,
		minSecondsPerPoint: DefaultMinSecondsPerPoint,
		scoreBuffer:        DefaultScoreBuffer,
		inputRatio:         DefaultInputRatio,
		maxIdleSeconds:     DefaultMaxIdleSeconds,
		scrutinyThreshold:  DefaultScrutinyThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Admit runs the full check ladder over sub and, when every check passes,
// forwards exactly one write to the leaderboard store. Any failed check is an
// outright rejection; nothing is retried. The returned error wraps one of the
// package sentinel errors or the token package's, nil means accepted.
func (c *Controller) Admit(ctx context.Context, sub Submission, now time.Time) error {
	name, err := normalizeName(sub.Name)
	if err != nil {
		return err
	}
	if sub.Score < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidInput)
	}

	tok, err := token.Parse(sub.Token)
	if err != nil {
		return err
	}
	if err := c.issuer.Verify(tok); err != nil {
		return err
	}

	if sub.Score > c.scrutinyThreshold {
		if err := c.checkDuration(sub.Score, tok.IssuedAt, now); err != nil {
			return err
		}
		if err := c.checkActivity(sub.Score, sub.FlapLog, tok.IssuedAt, now); err != nil {
			return err
		}
	}

	if err := c.board.Insert(ctx, name, sub.Score); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

// checkDuration rejects scores that could not have been reached in the time
// elapsed since the token was issued.
func (c *Controller) checkDuration(score int, issuedAt int64, now time.Time) error {
	durationSeconds := float64(now.UnixMilli()-issuedAt) / 1000
	maxPossible := int(math.Ceil(durationSeconds/c.minSecondsPerPoint)) + c.scoreBuffer
	if score > maxPossible {
		return fmt.Errorf("%w: score %d exceeds maximum %d for a %.1fs session",
			ErrImpossibleScore, score, maxPossible, durationSeconds)
	}
	return nil
}

// checkActivity rejects submissions whose input log does not look like a live
// player: enough inputs per point, and no gap longer than the game permits,
// including the stretch before the first input and after the last.
func (c *Controller) checkActivity(score int, flapLog []int64, issuedAt int64, now time.Time) error {
	if len(flapLog) == 0 {
		return ErrMissingLog
	}
	if !isOrdered(flapLog) {
		return fmt.Errorf("%w: timestamps out of order", ErrMissingLog)
	}
	if float64(len(flapLog)) < float64(score)*c.inputRatio {
		return fmt.Errorf("%w: %d inputs recorded for score %d",
			ErrInsufficientInputs, len(flapLog), score)
	}

	last := issuedAt
	for _, ts := range flapLog {
		if gap := float64(ts-last) / 1000; gap > c.maxIdleSeconds {
			return fmt.Errorf("%w: %.1fs gap between inputs", ErrPhysicsViolation, gap)
		}
		last = ts
	}
	// An idle tail at the end of the session is equally disqualifying.
	if gap := float64(now.UnixMilli()-last) / 1000; gap > c.maxIdleSeconds {
		return fmt.Errorf("%w: %.1fs idle tail before submission", ErrPhysicsViolation, gap)
	}
	return nil
}

func isOrdered(ts []int64) bool {
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			return false
		}
	}
	return true
}
