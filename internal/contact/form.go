// internal/contact/form.go
//
// Contact form – field identities, per-field state, and error presentation.
//
// Context
//   A Form is the in-memory stand-in for the rendered page: three fields,
//   one submit control, and an optional alert.  The renderer in internal/form
//   turns it into markup; the controller mutates it.  A Form lives for one
//   exchange and is never shared between requests.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package contact

// Field identifies one of the three inputs.
type Field int

const (
	FieldName Field = iota
	FieldEmail
	FieldMessage
)

// Fields lists every field in render order.
var Fields = [...]Field{FieldName, FieldEmail, FieldMessage}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldEmail:
		return "email"
	case FieldMessage:
		return "message"
	default:
		return "unknown"
	}
}

// ParseField maps a submission key to its Field.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// FieldState mirrors one input and its error element.
type FieldState struct {
	RawValue     string // value as typed, untrimmed
	IsValid      bool   // result of the last predicate run
	ErrorVisible bool   // error class on the input and error text shown
}

// SubmissionPayload is the JSON body sent to the remote endpoint.
type SubmissionPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Form holds the state of every element the controller binds to.
type Form struct {
	fields [len(Fields)]FieldState

	SubmitDisabled bool
	SubmitLabel    string
	AlertText      string // non-empty when a failure alert is pending
}

// NewForm returns a Form with an enabled submit control labelled label.
func NewForm(label string) *Form {
	return &Form{SubmitLabel: label}
}

// Field returns a copy of the state for f.
func (fm *Form) Field(f Field) FieldState { return fm.fields[f] }

// Value returns the raw value of f.
func (fm *Form) Value(f Field) string { return fm.fields[f].RawValue }

// SetValue stores v as the raw value of f.  It does not validate.
func (fm *Form) SetValue(f Field, v string) { fm.fields[f].RawValue = v }

// SetFieldError marks f as errored: error class on, error text shown.
func (fm *Form) SetFieldError(f Field) {
	fm.fields[f].IsValid = false
	fm.fields[f].ErrorVisible = true
}

// ClearFieldError removes the error class and hides the error text of f.
func (fm *Form) ClearFieldError(f Field) {
	fm.fields[f].IsValid = true
	fm.fields[f].ErrorVisible = false
}

// markInvalid records a failed predicate without touching presentation.
func (fm *Form) markInvalid(f Field) { fm.fields[f].IsValid = false }

// Alert raises msg as the pending alert.  *Form satisfies Alerter.
func (fm *Form) Alert(msg string) { fm.AlertText = msg }

// ValidateField applies isValid to f's presentation and returns it unchanged
// so callers can AND the results together.
func (fm *Form) ValidateField(isValid bool, f Field) bool {
	if !isValid {
		fm.SetFieldError(f)
		return false
	}
	fm.ClearFieldError(f)
	return true
}

// Payload builds the submission body from the trimmed field values.
func (fm *Form) Payload() SubmissionPayload {
	return SubmissionPayload{
		Name:    Trim(fm.Value(FieldName)),
		Email:   Trim(fm.Value(FieldEmail)),
		Message: Trim(fm.Value(FieldMessage)),
	}
}

// ErrorFields returns the fields currently showing an error, in render order.
func (fm *Form) ErrorFields() []Field {
	var out []Field
	for _, f := range Fields {
		if fm.fields[f].ErrorVisible {
			out = append(out, f)
		}
	}
	return out
}
