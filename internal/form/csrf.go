// internal/form/csrf.go
//
// Contact – stateless CSRF tokens.
//
// Context
//   The rendered form embeds a hidden `csrf_token` input.  POST /contact and
//   POST /contact/validate reject any request whose token does not verify.
//   The token is stateless:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes.  Also the coalescing key for double submits.
//   •  unixMicro – microseconds since Unix epoch, 8 bytes, big-endian.
//   •  HMAC – keyed with security.csrf_key.  Verifies authenticity.
//
//   Verification checks the signature and that the timestamp is within
//   MaxAge.  No server-side state, so any instance can verify any token.
//
// Workflow
//   •  NewTokens(key, maxAge) → *Tokens.
//   •  Generate()             → token string for the renderer.
//   •  Verify(tok)            → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	tokenBytes    = 16 + 8 + sha256.Size // nonce + ts + sig
	DefaultMaxAge = 2 * time.Hour        // token valid window
)

// ErrShortCSRFKey is returned when the CSRF key is under 32 bytes.
var ErrShortCSRFKey = errors.New("form: csrf key must be at least 32 bytes")

// Tokens issues and verifies CSRF tokens.  Safe for concurrent use.
type Tokens struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewTokens returns a Tokens keyed with key.  maxAge <= 0 selects
// DefaultMaxAge.
func NewTokens(key []byte, maxAge time.Duration) (*Tokens, error) {
	if len(key) < 32 {
		return nil, ErrShortCSRFKey
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tokens{key: append([]byte(nil), key...), maxAge: maxAge, now: time.Now}, nil
}

// Generate creates a new token.  Call once per form render.
func (t *Tokens) Generate() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(t.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, t.mac(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify returns true if tok passes HMAC and age checks.
func (t *Tokens) Verify(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	now := t.now()
	if now.Sub(issued) > t.maxAge || issued.Sub(now) > time.Minute {
		// Expired, or from the future beyond clock skew.
		return false
	}

	return hmac.Equal(sig, t.mac(nonce, tsBytes))
}

func (t *Tokens) mac(nonce, ts []byte) []byte {
	m := hmac.New(sha256.New, t.key)
	m.Write(nonce)
	m.Write(ts)
	return m.Sum(nil)
}
