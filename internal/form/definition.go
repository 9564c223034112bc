// internal/form/definition.go
//
// Contact – form definition and element contract.
//
// Context
//   The controller binds to a fixed set of elements: the form container, the
//   submit control, three inputs, three error elements, and the class that
//   flags an input as errored.  Those identifiers, plus the copy shown to
//   the user, live in a Definition.  Default() returns the built-in one;
//   Load parses a YAML override.
//
//   Every identifier is a precondition.  A definition missing one of them,
//   or missing one of the three fields, fails validation and startup stops
//   there.  Nothing downstream checks for absent elements.
//
// Workflow
//   •  Structs mirror the YAML schema: Definition → SubmitDef / FieldDef.
//   •  Load reads one file with unknown keys rejected, then Validate.
//   •  Field returns the FieldDef bound to a contact.Field.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/contactform/internal/contact"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// Definition describes the form, its elements, and its copy.
type Definition struct {
	ID          string     `yaml:"id"`           // form container id
	Action      string     `yaml:"action"`       // POST target
	Title       string     `yaml:"title"`        // page heading, optional
	ErrorClass  string     `yaml:"error_class"`  // class added to errored inputs
	Alert       string     `yaml:"alert"`        // failure alert text
	ConfirmPath string     `yaml:"confirm_path"` // navigation target on success
	Submit      SubmitDef  `yaml:"submit"`
	Fields      []FieldDef `yaml:"fields"`
}

// SubmitDef describes the submit control.
type SubmitDef struct {
	Class     string `yaml:"class"`
	Label     string `yaml:"label"`
	BusyLabel string `yaml:"busy_label"`
}

// FieldDef describes one input and its error element.
type FieldDef struct {
	Name        string `yaml:"name"`     // name, email, or message
	ID          string `yaml:"id"`       // input element id
	Label       string `yaml:"label"`    // visible label
	Type        string `yaml:"type"`     // text, email, or textarea
	Placeholder string `yaml:"placeholder"`
	ErrorID     string `yaml:"error_id"` // error element id
	ErrorMsg    string `yaml:"error"`    // error text
}

// DefinitionError reports a definition that cannot be bound.
type DefinitionError struct {
	Source string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("form definition %s: %s", e.Source, e.Reason)
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// Default returns the built-in definition.
func Default() *Definition {
	return &Definition{
		ID:          "contact-form",
		Action:      "/contact",
		Title:       "Contact us",
		ErrorClass:  "error",
		Alert:       "Sorry, your message could not be sent.  Please try again.",
		ConfirmPath: "/contact/thanks",
		Submit: SubmitDef{
			Class:     "submit-btn",
			Label:     "Send",
			BusyLabel: "Sending…",
		},
		Fields: []FieldDef{
			{Name: "name", ID: "name", Label: "Name", Type: "text",
				ErrorID: "name-error", ErrorMsg: "Please enter your name."},
			{Name: "email", ID: "email", Label: "Email", Type: "email",
				ErrorID: "email-error", ErrorMsg: "Please enter a valid email address."},
			{Name: "message", ID: "message", Label: "Message", Type: "textarea",
				ErrorID: "message-error", ErrorMsg: "Please enter a message."},
		},
	}
}

// Load parses path and validates the result.  Unknown keys are an error.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", path, err)
	}

	if err := def.validate(path); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks that every element the controller binds to is named.
func (d *Definition) Validate() error { return d.validate("(inline)") }

// Field returns the FieldDef for f.  Only valid after Validate.
func (d *Definition) Field(f contact.Field) FieldDef {
	for _, fd := range d.Fields {
		if fd.Name == f.String() {
			return fd
		}
	}
	return FieldDef{}
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

func (d *Definition) validate(src string) error {
	fail := func(format string, a ...any) error {
		return &DefinitionError{Source: src, Reason: fmt.Sprintf(format, a...)}
	}

	required := []struct{ key, val string }{
		{"id", d.ID},
		{"action", d.Action},
		{"error_class", d.ErrorClass},
		{"alert", d.Alert},
		{"confirm_path", d.ConfirmPath},
		{"submit.class", d.Submit.Class},
		{"submit.label", d.Submit.Label},
		{"submit.busy_label", d.Submit.BusyLabel},
	}
	for _, r := range required {
		if r.val == "" {
			return fail("missing required '%s'", r.key)
		}
	}

	if len(d.Fields) != len(contact.Fields) {
		return fail("want %d fields, got %d", len(contact.Fields), len(d.Fields))
	}

	seenField := make(map[contact.Field]bool)
	seenID := map[string]bool{d.ID: true}
	for _, fd := range d.Fields {
		f, ok := contact.ParseField(fd.Name)
		if !ok {
			return fail("unknown field '%s'", fd.Name)
		}
		if seenField[f] {
			return fail("duplicate field '%s'", fd.Name)
		}
		seenField[f] = true

		switch {
		case fd.ID == "":
			return fail("field '%s' missing 'id'", fd.Name)
		case fd.ErrorID == "":
			return fail("field '%s' missing 'error_id'", fd.Name)
		case fd.Label == "":
			return fail("field '%s' missing 'label'", fd.Name)
		case fd.ErrorMsg == "":
			return fail("field '%s' missing 'error'", fd.Name)
		}
		switch fd.Type {
		case "text", "email", "textarea":
		default:
			return fail("field '%s' has unsupported type '%s'", fd.Name, fd.Type)
		}

		for _, id := range []string{fd.ID, fd.ErrorID} {
			if seenID[id] {
				return fail("element id '%s' used twice", id)
			}
			seenID[id] = true
		}
	}
	return nil
}
