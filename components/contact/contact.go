// components/contact/contact.go
//
// Contact Component – serves the contact form, its live validation
// endpoint, and the confirmation page.
//
// Context
//   Every exchange builds a fresh contact.Form from the posted values, binds
//   a contact.Controller to an event Bus, and dispatches one event:
//
//     • POST <action>            – submit intent.  303 to the confirmation
//                                  page on success, 422 with inline errors
//                                  when invalid, 502 with an alert banner
//                                  when the relay fails.
//     • POST <action>/validate   – one input event.  Replies with the
//                                  field's new validity as JSON.
//     • GET  <confirm_path>      – shown once per successful submission,
//                                  gated by the signed session flag.
//
//   The relay Sender is wrapped in a Coalescer keyed by the CSRF token, so
//   two concurrent posts of the same rendered form share one network call.
//
// Workflow
//   Init(deps) → Routes() → mounted at “/” by cmd/web.
//
//------------------------------------------------------------------------------

package contact

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/component"
	"github.com/yanizio/contactform/internal/contact"
	"github.com/yanizio/contactform/internal/form"
	"github.com/yanizio/contactform/internal/head"
	"github.com/yanizio/contactform/internal/metrics"
	"github.com/yanizio/contactform/internal/relay"
	"github.com/yanizio/contactform/internal/requestinfo"
	"github.com/yanizio/contactform/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/contact.js
var script []byte

const (
	defaultHeading = "Contact us"
	maxBodyBytes   = 64 << 10
	tokenField     = "csrf_token"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	def    *form.Definition
	tokens *form.Tokens
	flags  *session.Flags
	relay  *relay.Coalescer
	log    *zap.SugaredLogger
	pages  *template.Template
	opts   contact.Options
}

func (c *Comp) Name() string { return "contact" }

// Init stores shared services and parses the page templates.
func (c *Comp) Init(d component.Deps) error {
	c.def = d.Form
	if c.def == nil {
		c.def = form.Default()
	}
	if err := c.def.Validate(); err != nil {
		return err
	}
	c.tokens = d.Tokens
	c.flags = d.Flags
	c.relay = relay.NewCoalescer(d.Sender)
	c.log = d.Logger
	if c.log == nil {
		c.log = zap.S()
	}

	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	c.pages = pages

	c.opts = contact.Options{
		BusyLabel:   c.def.Submit.BusyLabel,
		FailureText: c.def.Alert,
		ConfirmPath: c.def.ConfirmPath,
	}
	return nil
}

// Routes mounts the form, validation, confirmation, and script endpoints.
func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, c.def.Action, http.StatusSeeOther)
	})
	r.Get(c.def.Action, c.getForm)
	r.Post(c.def.Action, c.postForm)
	r.Post(c.validatePath(), c.postValidate)
	r.Get(c.scriptPath(), c.getScript)
	r.Get(c.def.ConfirmPath, c.getThanks)

	return r
}

func (c *Comp) validatePath() string { return path.Join(c.def.Action, "validate") }
func (c *Comp) scriptPath() string   { return path.Join(c.def.Action, "contact.js") }

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (c *Comp) getForm(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, http.StatusOK, contact.NewForm(c.def.Submit.Label))
}

func (c *Comp) postForm(w http.ResponseWriter, r *http.Request) {
	token, ok := c.readPost(w, r)
	if !ok {
		return
	}

	fm := contact.NewForm(c.def.Submit.Label)
	for _, f := range contact.Fields {
		fm.SetValue(f, r.PostForm.Get(f.String()))
	}

	nav := &redirect{}
	ctrl := contact.NewController(fm, contact.Deps{
		Sender:    c.relay.For(token),
		Flags:     c.flags.Writer(w, r),
		Navigator: nav,
		Logger:    c.log,
	}, c.opts)

	bus := contact.NewBus()
	ctrl.Bind(bus)
	bus.DispatchSubmit(r.Context())

	state, err := ctrl.Outcome()
	c.logSubmission(r, state, fm, err)

	switch state {
	case contact.StateSubmitted:
		http.Redirect(w, r, nav.to, http.StatusSeeOther)
	case contact.StateInvalid:
		c.renderForm(w, http.StatusUnprocessableEntity, fm)
	default:
		c.renderForm(w, http.StatusBadGateway, fm)
	}
}

// validateResponse is the body of POST <action>/validate.
type validateResponse struct {
	Field        string `json:"field"`
	Valid        bool   `json:"valid"`
	ErrorVisible bool   `json:"error_visible"`
}

func (c *Comp) postValidate(w http.ResponseWriter, r *http.Request) {
	if _, ok := c.readPost(w, r); !ok {
		return
	}

	f, ok := contact.ParseField(r.PostForm.Get("field"))
	if !ok {
		http.Error(w, "unknown field", http.StatusBadRequest)
		return
	}

	fm := contact.NewForm(c.def.Submit.Label)
	if r.PostForm.Get("error_visible") == "true" {
		fm.SetFieldError(f)
	}

	ctrl := contact.NewController(fm, contact.Deps{
		Sender:    c.relay.For(""),
		Flags:     c.flags.Writer(w, r),
		Navigator: &redirect{},
		Logger:    c.log,
	}, c.opts)

	bus := contact.NewBus()
	ctrl.Bind(bus)
	bus.DispatchInput(f, r.PostForm.Get("value"))

	st := fm.Field(f)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(validateResponse{
		Field:        f.String(),
		Valid:        st.IsValid,
		ErrorVisible: st.ErrorVisible,
	})
}

func (c *Comp) getThanks(w http.ResponseWriter, r *http.Request) {
	if !c.flags.ConsumeSubmitted(w, r) {
		metrics.ConfirmationsTotal.WithLabelValues("redirected").Inc()
		http.Redirect(w, r, c.def.Action, http.StatusSeeOther)
		return
	}
	metrics.ConfirmationsTotal.WithLabelValues("shown").Inc()

	hb := head.New()
	hb.SetTitle("Thank you")
	hb.Meta("robots", "noindex")

	c.render(w, http.StatusOK, "thanks.html", thanksPage{Head: hb, Back: c.def.Action})
}

func (c *Comp) getScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write(script)
}

/*──────────────────────────── rendering ────────────────────────────────────*/

type formPage struct {
	Head    *head.Builder
	Heading string
	Form    template.HTML
}

type thanksPage struct {
	Head *head.Builder
	Back string
}

// renderForm writes the form page with a fresh CSRF token.
func (c *Comp) renderForm(w http.ResponseWriter, status int, fm *contact.Form) {
	token, err := c.tokens.Generate()
	if err != nil {
		c.log.Errorw("csrf token generation failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	heading := c.def.Title
	if heading == "" {
		heading = defaultHeading
	}

	hb := head.New()
	hb.SetTitle(heading)
	hb.Meta("contact-form-id", c.def.ID)
	hb.Meta("contact-error-class", c.def.ErrorClass)
	hb.Meta("contact-busy-label", c.def.Submit.BusyLabel)
	hb.Meta("contact-validate-url", c.validatePath())
	hb.Script(c.scriptPath())

	c.render(w, status, "contact.html", formPage{
		Head:    hb,
		Heading: heading,
		Form:    form.Render(c.def, fm, token),
	})
}

// render executes name into a buffer so a template error never leaves a
// half-written page behind.
func (c *Comp) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := c.pages.ExecuteTemplate(&buf, name, data); err != nil {
		c.log.Errorw("template render failed", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// readPost parses the body and verifies the CSRF token.  On failure it has
// already written the response.
func (c *Comp) readPost(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return "", false
	}
	token := r.PostForm.Get(tokenField)
	if !c.tokens.Verify(token) {
		http.Error(w, "Security token invalid.  Please refresh and try again.", http.StatusForbidden)
		return "", false
	}
	return token, true
}

// logSubmission writes one line per submit.  Field values stay out of the
// log; only which fields failed is recorded.
func (c *Comp) logSubmission(r *http.Request, state contact.State, fm *contact.Form, err error) {
	kv := []any{
		"outcome", state.String(),
		"request_id", chimw.GetReqID(r.Context()),
	}
	if state == contact.StateInvalid {
		names := make([]string, 0, len(contact.Fields))
		for _, f := range fm.ErrorFields() {
			names = append(names, f.String())
		}
		kv = append(kv, "fields", names)
	}
	if ri := requestinfo.FromContext(r.Context()); ri != nil {
		kv = append(kv,
			"browser", ri.UA.Browser,
			"device", ri.UA.Device,
			"bot", ri.UA.IsBot,
			"country", ri.Geo.CountryISO,
		)
	}
	if err != nil {
		kv = append(kv, "err", err)
		c.log.Warnw("contact submission", kv...)
		return
	}
	c.log.Infow("contact submission", kv...)
}

// redirect captures the controller's navigation target.
type redirect struct{ to string }

func (n *redirect) Navigate(to string) { n.to = to }

// Register component at package init.
func init() {
	component.Register(&Comp{})
}
