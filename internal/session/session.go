// internal/session/session.go
//
// Contact – session-scoped “submitted” flag.
//
// Context
//   After a successful submission the controller records that fact so the
//   confirmation page can tell a real submission from a direct visit.  The
//   flag lives in a cookie named “isSubmitted” whose logical value is
//   “true”.  It carries no Expires or Max-Age, so the browser drops it when
//   the session ends.
//
//   The value is signed and unique per submission:
//
//      true.base64url( nonce | unixMicro | HMAC_SHA256(key, "isSubmitted=true" | nonce | unixMicro) )
//
//   •  nonce – 16 random bytes.
//   •  unixMicro – issue time, 8 bytes, big-endian.  A flag older than
//      MaxAge is refused.
//
//   The confirmation page reads the flag and deletes it in the same
//   response, and the nonce is recorded as spent, so neither a reload nor a
//   captured cookie opens the page twice.  Spent nonces are kept only until
//   their flag would have expired anyway.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// FlagName is the cookie key shared with the confirmation page.
	FlagName = "isSubmitted"
	// FlagValue is the logical value of a set flag.
	FlagValue = "true"
	// DefaultMaxAge bounds how long a flag stays redeemable.
	DefaultMaxAge = 30 * time.Minute

	nonceBytes = 16
	flagBytes  = nonceBytes + 8 + sha256.Size // nonce + ts + sig
)

// ErrShortKey is returned by New when the signing key is too short.
var ErrShortKey = errors.New("session: key must be at least 32 bytes")

// Flags signs, reads, and clears the submitted flag.  Safe for concurrent
// use.
type Flags struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time

	mu    sync.Mutex
	spent map[string]time.Time // nonce → issue time
}

// New returns Flags signing with key.
func New(key []byte) (*Flags, error) {
	if len(key) < 32 {
		return nil, ErrShortKey
	}
	return &Flags{
		key:    append([]byte(nil), key...),
		maxAge: DefaultMaxAge,
		now:    time.Now,
		spent:  make(map[string]time.Time),
	}, nil
}

// SetSubmitted writes a fresh signed flag cookie.
func (f *Flags) SetSubmitted(w http.ResponseWriter, r *http.Request) error {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(f.now().UnixMicro()))

	buf := make([]byte, 0, flagBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, f.mac(nonce, ts)...)

	http.SetCookie(w, &http.Cookie{
		Name:     FlagName,
		Value:    FlagValue + "." + base64.RawURLEncoding.EncodeToString(buf),
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r), // only send over HTTPS
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// IsSubmitted reports whether r carries a valid, unspent flag.
func (f *Flags) IsSubmitted(r *http.Request) bool {
	nonce, _, ok := f.parse(r)
	if !ok {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, used := f.spent[nonce]
	return !used
}

// ConsumeSubmitted reports whether r carries a valid, unspent flag and, if
// it does, spends it and deletes the cookie.  A forged, expired, spent, or
// absent flag is left alone.
func (f *Flags) ConsumeSubmitted(w http.ResponseWriter, r *http.Request) bool {
	nonce, issued, ok := f.parse(r)
	if !ok || !f.spend(nonce, issued) {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlagName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

// Writer binds Flags to one exchange so it satisfies contact.FlagStore.
func (f *Flags) Writer(w http.ResponseWriter, r *http.Request) *Writer {
	return &Writer{flags: f, w: w, r: r}
}

// Writer is a per-request FlagStore.
type Writer struct {
	flags *Flags
	w     http.ResponseWriter
	r     *http.Request
}

// SetSubmitted implements contact.FlagStore.
func (fw *Writer) SetSubmitted() error {
	return fw.flags.SetSubmitted(fw.w, fw.r)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// parse verifies the flag on r and returns its nonce and issue time.
func (f *Flags) parse(r *http.Request) (string, time.Time, bool) {
	c, err := r.Cookie(FlagName)
	if err != nil {
		return "", time.Time{}, false
	}
	val, enc, ok := strings.Cut(c.Value, ".")
	if !ok || val != FlagValue {
		return "", time.Time{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil || len(raw) != flagBytes {
		return "", time.Time{}, false
	}

	nonce := raw[:nonceBytes]
	ts := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]
	if !hmac.Equal(sig, f.mac(nonce, ts)) {
		return "", time.Time{}, false
	}

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := f.now()
	if now.Sub(issued) > f.maxAge || issued.Sub(now) > time.Minute {
		// Expired, or from the future beyond clock skew.
		return "", time.Time{}, false
	}
	return string(nonce), issued, true
}

// spend records nonce as used.  False if it already was.
func (f *Flags) spend(nonce string, issued time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, used := f.spent[nonce]; used {
		return false
	}
	now := f.now()
	for n, at := range f.spent {
		if now.Sub(at) > f.maxAge {
			delete(f.spent, n)
		}
	}
	f.spent[nonce] = issued
	return true
}

func (f *Flags) mac(nonce, ts []byte) []byte {
	m := hmac.New(sha256.New, f.key)
	m.Write([]byte(FlagName + "=" + FlagValue))
	m.Write(nonce)
	m.Write(ts)
	return m.Sum(nil)
}

// isSecure matches middleware.ForceHTTPS: direct TLS or a TLS-terminating
// proxy that sets X-Forwarded-Proto.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
