// Package i18n resolves human-readable labels and error messages through a
// key lookup with a default fallback string.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the locales with a catalog, in preference order.
var Supported = []language.Tag{language.English, language.Spanish}

// Translator looks up messages for one locale.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
	keys    map[string]struct{}
	title   cases.Caser
}

// New returns a Translator for the best supported match of locale.
// Unknown or empty locales fall back to English.
func New(locale string) *Translator {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, conf := language.NewMatcher(Supported).Match(parsed)
			if conf != language.No {
				tag = Supported[idx]
			}
		}
	}

	// English fills any key the selected locale lacks.
	merged := make(map[string]string, len(messages[language.English]))
	for key, msg := range messages[language.English] {
		merged[key] = msg
	}
	for key, msg := range messages[tag] {
		merged[key] = msg
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make(map[string]struct{}, len(merged))
	for key, msg := range merged {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(fmt.Sprintf("i18n: registering %q: %v", key, err))
		}
		keys[key] = struct{}{}
	}

	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		keys:    keys,
		title:   cases.Title(tag),
	}
}

// Tag reports the resolved locale.
func (t *Translator) Tag() language.Tag { return t.tag }

// T resolves key, formatting args into the message. When key is unknown
// the default string is formatted instead.
func (t *Translator) T(key, def string, args ...any) string {
	if _, ok := t.keys[key]; ok {
		return t.printer.Sprintf(key, args...)
	}
	if len(args) == 0 {
		return def
	}
	return fmt.Sprintf(def, args...)
}

// Scoped joins a scope and a key with dots, skipping empty parts.
func Scoped(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.Trim(p, "."); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// Humanize turns "awaiting_approval" into "Awaiting approval".
func Humanize(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), "_id")
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Titleize capitalizes every word of the humanized form.
func (t *Translator) Titleize(s string) string {
	return t.title.String(Humanize(s))
}

// Pluralize applies the English plural rules needed for role and
// resource names.
func Pluralize(s string) string {
	switch {
	case s == "":
		return s
	case strings.HasSuffix(s, "y") && !strings.HasSuffix(s, "ey") && !strings.HasSuffix(s, "ay"):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"), strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}
