// internal/form/renderer.go
//
// Contact – HTML renderer.
//
// Context
//   Render turns a Definition plus the current contact.Form into markup.
//   Error state is carried by two things per field, exactly as the element
//   contract says: the input gains the definition's error class (and
//   aria-invalid), and the error element loses its `hidden` attribute.
//   The submit control reflects SubmitDisabled and SubmitLabel, and a
//   pending alert is written as a role="alert" banner above the fields.
//
// Style
//   Output HTML is deliberately plain so themes can style by id or class.
//   Each field is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"html"
	"html/template"

	"github.com/yanizio/contactform/internal/contact"
)

// Render returns the form markup for fm.  def must have passed Validate.
func Render(def *Definition, fm *contact.Form, csrfToken string) template.HTML {
	var buf bytes.Buffer

	buf.WriteString(`<form id="` + esc(def.ID) + `" action="` + esc(def.Action) + `" method="post" novalidate>` + "\n")

	if fm.AlertText != "" {
		buf.WriteString(`<div class="alert" role="alert">` + esc(fm.AlertText) + `</div>` + "\n")
	}

	for _, f := range contact.Fields {
		writeField(&buf, def, def.Field(f), fm.Field(f))
	}

	buf.WriteString(`<input type="hidden" name="csrf_token" value="` + esc(csrfToken) + `">` + "\n")

	buf.WriteString(`<button type="submit" class="` + esc(def.Submit.Class) + `"`)
	if fm.SubmitDisabled {
		buf.WriteString(` disabled`)
	}
	buf.WriteString(`>` + esc(fm.SubmitLabel) + `</button>` + "\n")

	buf.WriteString(`</form>`)
	return template.HTML(buf.String())
}

// writeField emits one labelled input and its error element.
func writeField(buf *bytes.Buffer, def *Definition, fd FieldDef, st contact.FieldState) {
	buf.WriteString(`<div class="form-field">` + "\n")
	buf.WriteString(`<label for="` + esc(fd.ID) + `">` + esc(fd.Label) + `</label>` + "\n")

	// Shared attributes
	attrs := `id="` + esc(fd.ID) + `" name="` + esc(fd.Name) + `" aria-describedby="` + esc(fd.ErrorID) + `"`
	if fd.Placeholder != "" {
		attrs += ` placeholder="` + esc(fd.Placeholder) + `"`
	}
	if st.ErrorVisible {
		attrs += ` class="` + esc(def.ErrorClass) + `" aria-invalid="true"`
	}

	if fd.Type == "textarea" {
		buf.WriteString(`<textarea ` + attrs + `>` + esc(st.RawValue) + `</textarea>` + "\n")
	} else {
		buf.WriteString(`<input ` + attrs + ` type="` + esc(fd.Type) + `" value="` + esc(st.RawValue) + `">` + "\n")
	}

	buf.WriteString(`<span id="` + esc(fd.ErrorID) + `" class="field-error" aria-live="polite"`)
	if !st.ErrorVisible {
		buf.WriteString(` hidden`)
	}
	buf.WriteString(`>` + esc(fd.ErrorMsg) + `</span>` + "\n")

	buf.WriteString(`</div>` + "\n")
}

func esc(s string) string { return html.EscapeString(s) }
