package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// kvServer mimics a KV-v2 mount named "secret" holding one secret at
// "contact".  Token renewal is refused so the background loop idles.
func kvServer(t *testing.T, reads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/secret/data/contact":
			reads.Add(1)
			_, _ = w.Write([]byte(`{"data":{"data":{"csrf_key":"` + strings.Repeat("k", 32) + `","n":7},` +
				`"metadata":{"created_time":"2024-01-01T00:00:00Z","deletion_time":"","destroyed":false,"version":1}}}`))
		case strings.HasPrefix(r.URL.Path, "/v1/auth/token/renew-self"):
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	t.Setenv("VAULT_ADDR", srv.URL)
	t.Setenv("VAULT_TOKEN", "test-token")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c, err := New(ctx, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetKV(t *testing.T) {
	var reads atomic.Int32
	c := newTestClient(t, kvServer(t, &reads))

	got, err := c.GetKV(context.Background(), "secret/contact", "csrf_key", 0)
	if err != nil {
		t.Fatalf("GetKV: %v", err)
	}
	if got != strings.Repeat("k", 32) {
		t.Fatalf("GetKV = %q", got)
	}
}

func TestGetKVCachesWithTTL(t *testing.T) {
	var reads atomic.Int32
	c := newTestClient(t, kvServer(t, &reads))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.GetKV(ctx, "secret/contact", "csrf_key", time.Minute); err != nil {
			t.Fatalf("GetKV: %v", err)
		}
	}
	if n := reads.Load(); n != 1 {
		t.Fatalf("reads = %d, want 1", n)
	}
}

func TestGetKVErrors(t *testing.T) {
	var reads atomic.Int32
	c := newTestClient(t, kvServer(t, &reads))
	ctx := context.Background()

	cases := map[string][2]string{
		"empty path":   {"", "csrf_key"},
		"empty key":    {"secret/contact", ""},
		"mount only":   {"secret", "csrf_key"},
		"missing key":  {"secret/contact", "nope"},
		"non-string":   {"secret/contact", "n"},
		"missing path": {"secret/other", "csrf_key"},
	}
	for name, in := range cases {
		if _, err := c.GetKV(ctx, in[0], in[1], 0); err == nil {
			t.Errorf("%s: GetKV = nil error", name)
		}
	}
}

func TestSplitMount(t *testing.T) {
	cases := map[string][2]string{
		"secret/contact":   {"secret", "contact"},
		"/kv/app/contact/": {"kv", "app/contact"},
		"secret":           {"secret", ""},
	}
	for in, want := range cases {
		m, r := splitMount(in)
		if m != want[0] || r != want[1] {
			t.Errorf("splitMount(%q) = %q, %q", in, m, r)
		}
	}
}
