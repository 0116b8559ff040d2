package email

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// TemplateError names the message part whose placeholders do not parse.
type TemplateError struct {
	Field string
	Err   error
}

func (e *TemplateError) Error() string { return fmt.Sprintf("parsing %s: %v", e.Field, e.Err) }

func (e *TemplateError) Unwrap() error { return e.Err }

// Templates is a personalized message ready to render per recipient.
// Placeholders see a Recipient, e.g. {{.User.Name}}.
type Templates struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

// ParseTemplates parses every part of a templated message. Parse
// failures are reported as *TemplateError, one per bad part.
func ParseTemplates(subject, text, html string) (*Templates, error) {
	var (
		t    Templates
		errs []error
		err  error
	)
	if t.subject, err = template.New("subject").Parse(subject); err != nil {
		errs = append(errs, &TemplateError{Field: "subject", Err: err})
	}
	if t.text, err = template.New("text_content").Parse(text); err != nil {
		errs = append(errs, &TemplateError{Field: "text_content", Err: err})
	}
	if t.html, err = htmltemplate.New("html_content").Parse(html); err != nil {
		errs = append(errs, &TemplateError{Field: "html_content", Err: err})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &t, nil
}

// Rendered is one recipient's copy of a templated message.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

func (t *Templates) Render(r Recipient) (Rendered, error) {
	var subject, text, html bytes.Buffer
	if err := t.subject.Execute(&subject, r); err != nil {
		return Rendered{}, err
	}
	if err := t.text.Execute(&text, r); err != nil {
		return Rendered{}, err
	}
	if err := t.html.Execute(&html, r); err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}

// UndeliveredError reports the addresses or recipients a delivery could
// not reach. Everything not listed was sent.
type UndeliveredError struct {
	Emails     []string
	Recipients []Recipient
	Err        error
}

func (e *UndeliveredError) Error() string {
	return fmt.Sprintf("%d addresses and %d recipients undelivered: %v", len(e.Emails), len(e.Recipients), e.Err)
}

func (e *UndeliveredError) Unwrap() error { return e.Err }

// templateErrors lists each part whose placeholders do not parse.
func templateErrors(m *Message) []*TemplateError {
	_, err := ParseTemplates(m.Subject, m.TextContent, m.HTMLContent)
	if err == nil {
		return nil
	}
	var out []*TemplateError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var te *TemplateError
			if errors.As(e, &te) {
				out = append(out, te)
			}
		}
	}
	return out
}
