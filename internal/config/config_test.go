package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
http:
  listen_addr: ":8080"
  force_https: true
endpoint:
  url: "https://forms.example.com/submit"
  timeout: 5s
security:
  csrf_key: "cccccccccccccccccccccccccccccccc"
  session_key: "ssssssssssssssssssssssssssssssss"
form:
  definition: conf/contact.yaml
`

// writeRoot lays out <dir>/conf/global.yaml and points CONTACT_ROOT at it.
func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "conf", "global.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONTACT_ROOT", dir)
	return dir
}

func TestLoadYAML(t *testing.T) {
	dir := writeRoot(t, sampleYAML)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" || !cfg.HTTP.ForceHTTPS {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.Endpoint.Timeout != 5*time.Second || cfg.Endpoint.StrictStatus {
		t.Fatalf("endpoint = %+v", cfg.Endpoint)
	}
	if cfg.Paths.Root != dir {
		t.Fatalf("root = %q, want %q", cfg.Paths.Root, dir)
	}
	if want := filepath.Join(dir, "conf", "contact.yaml"); cfg.Form.Definition != want {
		t.Fatalf("form definition = %q, want %q", cfg.Form.Definition, want)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level default = %q", cfg.Log.Level)
	}
	if Get() != cfg {
		t.Fatal("Get() did not return the cached config")
	}
}

func TestEnvOverrides(t *testing.T) {
	writeRoot(t, sampleYAML)
	t.Setenv("CONTACT_ENDPOINT__URL", "https://override.example.com/in")
	t.Setenv("CONTACT_ENDPOINT__STRICT_STATUS", "true")
	t.Setenv("CONTACT_LOG__LEVEL", "debug")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint.URL != "https://override.example.com/in" {
		t.Fatalf("url = %q", cfg.Endpoint.URL)
	}
	if !cfg.Endpoint.StrictStatus {
		t.Fatal("strict_status override ignored")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level = %q", cfg.Log.Level)
	}
}

func TestValidationRejects(t *testing.T) {
	cases := map[string]string{
		"plain http endpoint": strings.Replace(sampleYAML, "https://forms", "http://forms", 1),
		"short csrf key":      strings.Replace(sampleYAML, `"cccccccccccccccccccccccccccccccc"`, `"short"`, 1),
		"bad listen addr":     strings.Replace(sampleYAML, `":8080"`, `"nope"`, 1),
		"unknown log level":   sampleYAML + "log:\n  level: loud\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, yml)
			if _, err := Load(context.Background()); err == nil {
				t.Fatal("Load accepted invalid config")
			}
		})
	}
}

func TestMissingYAML(t *testing.T) {
	t.Setenv("CONTACT_ROOT", t.TempDir())
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load succeeded without conf/global.yaml")
	}
}

/*──────────────────────────── vault references ─────────────────────────────*/

type fakeResolver struct {
	data  map[string]string // path#key → value
	calls int
}

func (f *fakeResolver) GetKV(_ context.Context, p, k string, _ time.Duration) (string, error) {
	f.calls++
	v, ok := f.data[p+"#"+k]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func useResolver(t *testing.T, r SecretResolver) {
	t.Helper()
	orig := newResolver
	newResolver = func(context.Context) (SecretResolver, error) { return r, nil }
	t.Cleanup(func() { newResolver = orig })
}

func TestVaultReferencesResolved(t *testing.T) {
	yml := strings.Replace(sampleYAML, `"cccccccccccccccccccccccccccccccc"`, `"vault:secret/contact#csrf_key"`, 1)
	writeRoot(t, yml)
	t.Setenv("CONTACT_SECURITY__SESSION_KEY", "vault:secret/contact#session_key")

	fr := &fakeResolver{data: map[string]string{
		"secret/contact#csrf_key":    strings.Repeat("x", 32),
		"secret/contact#session_key": strings.Repeat("y", 40),
	}}
	useResolver(t, fr)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Security.CSRFKey != strings.Repeat("x", 32) || cfg.Security.SessionKey != strings.Repeat("y", 40) {
		t.Fatalf("security = %+v", cfg.Security)
	}
	if fr.calls != 2 {
		t.Fatalf("resolver calls = %d, want 2", fr.calls)
	}
}

func TestVaultReferenceErrors(t *testing.T) {
	cases := map[string]string{
		"malformed": "vault:secret/contact",
		"missing":   "vault:secret/contact#nope",
	}
	for name, ref := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, sampleYAML)
			t.Setenv("CONTACT_SECURITY__CSRF_KEY", ref)
			useResolver(t, &fakeResolver{})
			if _, err := Load(context.Background()); err == nil {
				t.Fatalf("Load accepted %q", ref)
			}
		})
	}
}

func TestPlainSecretsSkipVault(t *testing.T) {
	writeRoot(t, sampleYAML)
	orig := newResolver
	newResolver = func(context.Context) (SecretResolver, error) {
		t.Fatal("vault client built for plain-text secrets")
		return nil, nil
	}
	t.Cleanup(func() { newResolver = orig })

	if _, err := Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
