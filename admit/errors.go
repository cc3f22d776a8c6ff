package admit

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed name, or a negative score.
	ErrInvalidInput = errors.New("invalid name or score")
	// ErrImpossibleScore indicates the score exceeds what the session duration allows.
	ErrImpossibleScore = errors.New("score impossible for session duration")
	// ErrMissingLog indicates the gameplay log is absent or not an ordered sequence.
	ErrMissingLog = errors.New("gameplay log missing or malformed")
	// ErrInsufficientInputs indicates too few recorded inputs for the claimed score.
	ErrInsufficientInputs = errors.New("too few inputs for claimed score")
	// ErrPhysicsViolation indicates an idle gap longer than the game allows before
	// the character falls and the session ends.
	ErrPhysicsViolation = errors.New("implausible idle gap in gameplay log")
	// ErrStoreFailure indicates the leaderboard write failed after admission passed.
	ErrStoreFailure = errors.New("leaderboard store failure")
)
