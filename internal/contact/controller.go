// internal/contact/controller.go
//
// Contact form – submission controller.
//
// Context
//   The controller owns the submit flow:
//
//      Idle → Validating → (Invalid | Submitting) → (Submitted | SubmitFailed) → Idle
//
//   Validating re-reads every field from the Form and runs all three
//   predicates, so a stale result from an earlier input event can never let
//   an invalid value through.  Submitting disables the control, swaps its
//   label, and hands the trimmed payload to the Sender.  Success sets the
//   session flag and navigates to the confirmation path.  Failure restores
//   the control and raises the alert.
//
//   The Sender reports only transport-level failure by default.  A response
//   carrying an error status still counts as Submitted unless the Sender is
//   configured to inspect it (see internal/relay).
//
// Workflow
//   •  NewController binds a Form and its collaborators once.
//   •  Bind subscribes Submit and Input to a Bus.
//   •  Submit runs one pass of the state machine and reports where it ended.
//   •  Input re-validates one field and only ever clears its error.
//
//------------------------------------------------------------------------------

package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/metrics"
)

// ErrBusy is returned by Submit while a previous submission is in flight.
var ErrBusy = errors.New("contact: submission already in progress")

// State is a step of the submit flow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateSubmitting
	StateSubmitted
	StateSubmitFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateSubmitFailed:
		return "submit_failed"
	default:
		return "unknown"
	}
}

// Sender delivers a payload to the remote endpoint.
type Sender interface {
	Send(ctx context.Context, p SubmissionPayload) error
}

// FlagStore persists the session-scoped “submitted” flag.
type FlagStore interface {
	SetSubmitted() error
}

// Navigator moves the user agent to another location.
type Navigator interface {
	Navigate(location string)
}

// Alerter shows a blocking, user-facing message.
type Alerter interface {
	Alert(message string)
}

// Deps bundles the collaborators a controller needs.  Alerter defaults to
// the Form itself; Logger defaults to zap.S().
type Deps struct {
	Sender    Sender
	Flags     FlagStore
	Navigator Navigator
	Alerter   Alerter
	Logger    *zap.SugaredLogger
}

// Options carries the user-facing copy and the confirmation location.
type Options struct {
	BusyLabel   string // submit label while the request is in flight
	FailureText string // alert text after a failed submission
	ConfirmPath string // navigation target after success
}

// Controller drives one Form.  Safe for concurrent use, although a Form is
// normally driven from a single goroutine.
type Controller struct {
	form *Form
	deps Deps
	opts Options

	mu      sync.Mutex
	state   State
	outcome State
	err     error
}

// NewController binds form and deps.  Sender, Flags, and Navigator are
// required; NewController panics without them, since a controller missing
// its elements cannot run at all.
func NewController(form *Form, deps Deps, opts Options) *Controller {
	if form == nil || deps.Sender == nil || deps.Flags == nil || deps.Navigator == nil {
		panic("contact: NewController requires form, sender, flags, and navigator")
	}
	if deps.Alerter == nil {
		deps.Alerter = form
	}
	if deps.Logger == nil {
		deps.Logger = zap.S()
	}
	return &Controller{form: form, deps: deps, opts: opts, state: StateIdle, outcome: StateIdle}
}

// Bind subscribes the controller's handlers to b.
func (c *Controller) Bind(b *Bus) {
	b.OnSubmit(func(ctx context.Context) { _, _ = c.Submit(ctx) })
	for _, f := range Fields {
		b.OnInput(f, func(v string) { c.Input(f, v) })
	}
}

// State returns the current step of the flow.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Outcome returns where the last Submit ended and the error it carried.
func (c *Controller) Outcome() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.err
}

// Submit runs the flow once.  It returns StateInvalid, StateSubmitted, or
// StateSubmitFailed; the error is non-nil only for StateSubmitFailed.  A
// call made while a submission is in flight (or after success) returns the
// current state and ErrBusy.
func (c *Controller) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		s := c.state
		c.mu.Unlock()
		return s, ErrBusy
	}
	c.state = StateValidating

	// Every predicate runs so every failing field lights up.
	nameOK := c.form.ValidateField(IsValidName(c.form.Value(FieldName)), FieldName)
	emailOK := c.form.ValidateField(IsValidEmail(Trim(c.form.Value(FieldEmail))), FieldEmail)
	msgOK := c.form.ValidateField(IsValidMessage(Trim(c.form.Value(FieldMessage))), FieldMessage)

	if !(nameOK && emailOK && msgOK) {
		for _, f := range c.form.ErrorFields() {
			metrics.FieldErrorsTotal.WithLabelValues(f.String()).Inc()
		}
		metrics.SubmissionsTotal.WithLabelValues(StateInvalid.String()).Inc()
		c.finish(StateInvalid, nil)
		c.mu.Unlock()
		return StateInvalid, nil
	}

	label := c.form.SubmitLabel
	c.form.SubmitDisabled = true
	c.form.SubmitLabel = c.opts.BusyLabel
	payload := c.form.Payload()
	c.state = StateSubmitting
	c.mu.Unlock()

	start := time.Now()
	err := c.deps.Sender.Send(ctx, payload)
	metrics.RelayDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		if ferr := c.deps.Flags.SetSubmitted(); ferr != nil {
			err = fmt.Errorf("persist submitted flag: %w", ferr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.form.SubmitDisabled = false
		c.form.SubmitLabel = label
		c.deps.Alerter.Alert(c.opts.FailureText)
		c.deps.Logger.Warnw("contact submission failed", "error", err)
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		c.finish(StateSubmitFailed, err)
		return StateSubmitFailed, err
	}

	c.outcome, c.err = StateSubmitted, nil
	c.state = StateSubmitted
	metrics.SubmissionsTotal.WithLabelValues(StateSubmitted.String()).Inc()
	c.deps.Navigator.Navigate(c.opts.ConfirmPath)
	return StateSubmitted, nil
}

// finish records the outcome and returns to Idle.  Caller holds c.mu.
func (c *Controller) finish(outcome State, err error) {
	c.outcome, c.err = outcome, err
	c.state = StateIdle
}

// Input stores value for f and clears f's error when value now passes.  It
// never raises an error; that only happens on submit.  Reports validity.
func (c *Controller) Input(f Field, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.SetValue(f, value)
	ok := Validator(f)(Trim(value))
	if ok {
		c.form.ClearFieldError(f)
	} else {
		c.form.markInvalid(f)
	}
	return ok
}
