package contact

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/metrics"
	"github.com/yanizio/contactform/internal/relay"
	"github.com/yanizio/contactform/internal/session"
)

// endpoint is a TLS stand-in for the remote submission service.
type endpoint struct {
	srv *httptest.Server

	mu     sync.Mutex
	bodies []map[string]string
}

func newEndpoint(t *testing.T) *endpoint {
	t.Helper()
	e := &endpoint{}
	e.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		e.mu.Lock()
		e.bodies = append(e.bodies, body)
		e.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *endpoint) calls() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]map[string]string(nil), e.bodies...)
}

type harness struct {
	router chi.Router
	tokens *form.Tokens
	ep     *endpoint
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ep := newEndpoint(t)

	tokens, err := form.NewTokens([]byte(strings.Repeat("c", 32)), 0)
	if err != nil {
		t.Fatal(err)
	}
	flags, err := session.New([]byte(strings.Repeat("s", 32)))
	if err != nil {
		t.Fatal(err)
	}

	c := &Comp{}
	err = c.Init(component.Deps{
		Form:   form.Default(),
		Tokens: tokens,
		Flags:  flags,
		Sender: relay.New(ep.srv.URL, relay.WithHTTPClient(ep.srv.Client())),
		Logger: zaptest.NewLogger(t).Sugar(),
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &harness{router: c.Routes(), tokens: tokens, ep: ep}
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	tok, err := h.tokens.Generate()
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (h *harness) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, r)
	return rec
}

func (h *harness) post(path string, vals url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return h.do(r)
}

func (h *harness) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return h.do(r)
}

func submission(tok, name, email, message string) url.Values {
	return url.Values{
		"csrf_token": {tok},
		"name":       {name},
		"email":      {email},
		"message":    {message},
	}
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func body(rec *httptest.ResponseRecorder) string {
	b, _ := io.ReadAll(rec.Result().Body)
	return string(b)
}

/*──────────────────────────── page load ────────────────────────────────────*/

func TestGetForm(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/contact")

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	out := body(rec)
	for _, want := range []string{
		`<title>Contact us</title>`,
		`<meta name="contact-validate-url" content="/contact/validate">`,
		`<script src="/contact/contact.js" defer></script>`,
		`<form id="contact-form" action="/contact" method="post" novalidate>`,
		`name="csrf_token" value="`,
		`<span id="email-error" class="field-error" aria-live="polite" hidden>`,
		`<button type="submit" class="submit-btn">Send</button>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("form page cacheable")
	}
}

func TestRootRedirects(t *testing.T) {
	rec := newHarness(t).get("/")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/contact" {
		t.Fatalf("GET / = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestScriptServed(t *testing.T) {
	rec := newHarness(t).get("/contact/contact.js")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/javascript") {
		t.Fatalf("script = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(body(rec), "contact-validate-url") {
		t.Fatal("script body unexpected")
	}
}

/*──────────────────────────── submit ───────────────────────────────────────*/

func TestSubmitSuccessFlow(t *testing.T) {
	h := newHarness(t)
	before := testutil.ToFloat64(metrics.ConfirmationsTotal.WithLabelValues("shown"))

	rec := h.post("/contact", submission(h.token(t), "  Ada  ", " ada@example.com ", " Hello "))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/contact/thanks" {
		t.Fatalf("submit = %d %q\n%s", rec.Code, rec.Header().Get("Location"), body(rec))
	}

	calls := h.ep.calls()
	if len(calls) != 1 {
		t.Fatalf("endpoint calls = %d", len(calls))
	}
	if calls[0]["name"] != "Ada" || calls[0]["email"] != "ada@example.com" || calls[0]["message"] != "Hello" {
		t.Fatalf("payload = %v", calls[0])
	}

	flag := cookieNamed(rec, session.FlagName)
	if flag == nil || !strings.HasPrefix(flag.Value, session.FlagValue+".") {
		t.Fatalf("flag cookie = %+v", flag)
	}

	// First visit shows the page and clears the flag.
	thanks := h.get("/contact/thanks", flag)
	if thanks.Code != http.StatusOK || !strings.Contains(body(thanks), "Thank you") {
		t.Fatalf("thanks = %d", thanks.Code)
	}
	if del := cookieNamed(thanks, session.FlagName); del == nil || del.MaxAge >= 0 {
		t.Fatalf("flag not deleted: %+v", del)
	}
	if got := testutil.ToFloat64(metrics.ConfirmationsTotal.WithLabelValues("shown")) - before; got != 1 {
		t.Fatalf("shown delta = %v", got)
	}

	// Reload without the flag goes back to the form.
	again := h.get("/contact/thanks")
	if again.Code != http.StatusSeeOther || again.Header().Get("Location") != "/contact" {
		t.Fatalf("reload = %d %q", again.Code, again.Header().Get("Location"))
	}

	// So does replaying the captured flag.
	replay := h.get("/contact/thanks", flag)
	if replay.Code != http.StatusSeeOther || replay.Header().Get("Location") != "/contact" {
		t.Fatalf("replay = %d %q", replay.Code, replay.Header().Get("Location"))
	}
}

func TestSubmitInvalid(t *testing.T) {
	h := newHarness(t)
	rec := h.post("/contact", submission(h.token(t), "Ada", "not-an-email", "   "))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d", rec.Code)
	}
	if n := len(h.ep.calls()); n != 0 {
		t.Fatalf("endpoint called %d times for invalid input", n)
	}
	if cookieNamed(rec, session.FlagName) != nil {
		t.Fatal("flag set on invalid submit")
	}

	out := body(rec)
	for _, want := range []string{
		`<span id="email-error" class="field-error" aria-live="polite">`,
		`<span id="message-error" class="field-error" aria-live="polite">`,
		`<span id="name-error" class="field-error" aria-live="polite" hidden>`,
		`value="not-an-email"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestSubmitRelayFailure(t *testing.T) {
	h := newHarness(t)
	h.ep.srv.Close()

	rec := h.post("/contact", submission(h.token(t), "Ada", "ada@example.com", "Hi"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
	if cookieNamed(rec, session.FlagName) != nil {
		t.Fatal("flag set after failure")
	}

	out := body(rec)
	for _, want := range []string{
		`role="alert">Sorry, your message could not be sent.`,
		`<button type="submit" class="submit-btn">Send</button>`,
		`value="ada@example.com"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestSubmitBadToken(t *testing.T) {
	h := newHarness(t)
	for _, tok := range []string{"", "forged"} {
		rec := h.post("/contact", submission(tok, "Ada", "ada@example.com", "Hi"))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("token %q: code = %d", tok, rec.Code)
		}
	}
	if n := len(h.ep.calls()); n != 0 {
		t.Fatalf("endpoint called %d times", n)
	}
}

func TestForgedFlagRedirects(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/contact/thanks", &http.Cookie{Name: session.FlagName, Value: "true"})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
}

/*──────────────────────────── live input ───────────────────────────────────*/

func TestValidateEndpoint(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t)

	cases := []struct {
		name         string
		field, value string
		visible      string
		want         validateResponse
	}{
		{"valid clears", "email", "ada@example.com", "true",
			validateResponse{Field: "email", Valid: true, ErrorVisible: false}},
		{"invalid keeps shown", "email", "ada@", "true",
			validateResponse{Field: "email", Valid: false, ErrorVisible: true}},
		{"invalid never raises", "name", "   ", "false",
			validateResponse{Field: "name", Valid: false, ErrorVisible: false}},
		{"message valid", "message", "hi", "",
			validateResponse{Field: "message", Valid: true, ErrorVisible: false}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := h.post("/contact/validate", url.Values{
				"csrf_token":    {tok},
				"field":         {c.field},
				"value":         {c.value},
				"error_visible": {c.visible},
			})
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d", rec.Code)
			}
			var got validateResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Fatalf("got %+v, want %+v", got, c.want)
			}
		})
	}
	if n := len(h.ep.calls()); n != 0 {
		t.Fatalf("live input reached the endpoint %d times", n)
	}
}

func TestValidateRejects(t *testing.T) {
	h := newHarness(t)

	rec := h.post("/contact/validate", url.Values{"csrf_token": {h.token(t)}, "field": {"phone"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: code = %d", rec.Code)
	}
	rec = h.post("/contact/validate", url.Values{"field": {"name"}, "value": {"x"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing token: code = %d", rec.Code)
	}
}
