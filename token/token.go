// Package token issues and verifies the stateless session tokens that bind a
// play session to its server-chosen start time. A token is the string
// "<issuedAtMillis>.<hexSignature>" where the signature is an HMAC-SHA256 over
// the decimal form of the timestamp. No server-side session state exists; a
// token is self-certifying and verified by recomputing the signature.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/awnumar/memguard"
)

var (
	// ErrMissing indicates no token was supplied with a submission.
	ErrMissing = errors.New("missing session token")
	// ErrMalformed indicates the token does not have the expected shape.
	ErrMalformed = errors.New("malformed session token")
	// ErrForged indicates the signature does not match the claimed timestamp.
	ErrForged = errors.New("forged session token")
)

// tokenRE matches "<decimal millis>.<64 lowercase hex chars>".
var tokenRE = regexp.MustCompile(`^(\d+)\.([0-9a-f]{64})$`)

// Token is a parsed session token.
type Token struct {
	IssuedAt  int64  // epoch milliseconds the session began
	Signature string // hex HMAC-SHA256 over the decimal IssuedAt string
}

func (t Token) String() string {
	return fmt.Sprintf("%d.%s", t.IssuedAt, t.Signature)
}

// Parse splits a token string into its timestamp and signature parts.
// It validates shape only; signature verification is the Issuer's job.
func Parse(s string) (Token, error) {
	if s == "" {
		return Token{}, ErrMissing
	}
	m := tokenRE.FindStringSubmatch(s)
	if m == nil {
		return Token{}, ErrMalformed
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: timestamp out of range", ErrMalformed)
	}
	return Token{IssuedAt: ms, Signature: m[2]}, nil
}

// Issuer signs and verifies session tokens with a shared secret. The secret
// is held in a memguard Enclave so it is encrypted at rest in memory.
type Issuer struct {
	secret *memguard.Enclave
}

// NewIssuer creates an Issuer from the shared secret. The secret slice is
// wiped after it is sealed into the enclave; callers must not reuse it.
// An empty secret is refused: the service fails closed rather than signing
// with a guessable default.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret must not be empty")
	}
	return &Issuer{secret: memguard.NewEnclave(secret)}, nil
}

// Issue returns a token bound to the current clock.
func (i *Issuer) Issue() (Token, error) {
	return i.IssueAt(time.Now())
}

// IssueAt returns a token bound to the given instant.
func (i *Issuer) IssueAt(at time.Time) (Token, error) {
	ms := at.UnixMilli()
	sig, err := i.sign(ms)
	if err != nil {
		return Token{}, err
	}
	return Token{IssuedAt: ms, Signature: sig}, nil
}

// Verify recomputes the signature for t.IssuedAt and compares it against the
// supplied one. A mismatch is ErrForged.
func (i *Issuer) Verify(t Token) error {
	want, err := i.sign(t.IssuedAt)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(t.Signature)) {
		return ErrForged
	}
	return nil
}

func (i *Issuer) sign(issuedAt int64) (string, error) {
	buf, err := i.secret.Open()
	if err != nil {
		return "", fmt.Errorf("opening secret enclave: %w", err)
	}
	defer buf.Destroy()

	mac := hmac.New(sha256.New, buf.Bytes())
	mac.Write([]byte(strconv.FormatInt(issuedAt, 10)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
