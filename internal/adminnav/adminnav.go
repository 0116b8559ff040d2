// Package adminnav builds the sidebar menus shown next to admin resource
// pages. The menus are plain data; the SPA renders them.
package adminnav

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/bighelpmob/missionhub/internal/i18n"
)

type Link struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Method  string `json:"method,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// Resource describes an admin controller.
type Resource struct {
	// Path is the controller path, e.g. "admin/missions". It scopes the
	// label lookup.
	Path string `json:"path"`
	// Class is the model name, e.g. "MissionParticipation".
	Class string `json:"class"`
	URL   string `json:"url"`
}

// Parent is the enclosing record of a nested resource.
type Parent struct {
	Resource Resource
	ID       int64
}

func (p *Parent) url() string { return p.Resource.URL + "/" + strconv.FormatInt(p.ID, 10) }

// Page is the admin page a sidebar is built for. ID is zero on
// collection pages.
type Page struct {
	Resource Resource
	Parent   *Parent
	ID       int64
}

func (pg Page) collectionURL() string {
	if pg.Parent == nil {
		return pg.Resource.URL
	}
	return pg.Parent.url() + "/" + lastSegment(pg.Resource.URL)
}

func (pg Page) objectURL() string {
	return pg.collectionURL() + "/" + strconv.FormatInt(pg.ID, 10)
}

type Builder struct {
	tr *i18n.Translator
}

func New(tr *i18n.Translator) *Builder {
	return &Builder{tr: tr}
}

// ClassName is the display name of r: the sidebar translation for its
// controller path, or the humanized singular model name.
func (b *Builder) ClassName(r Resource) string {
	def := i18n.Humanize(singularize(underscore(r.Class)))
	key := i18n.Scoped("sidebar", strings.ReplaceAll(r.Path, "/", "."))
	return b.tr.T(key, def)
}

func (b *Builder) name(r Resource) string {
	return b.tr.Titleize(b.ClassName(r))
}

// Collection builds the sidebar for a resource index page.
func (b *Builder) Collection(pg Page) []Link {
	return append(b.parentLinks(pg), b.resourcesLinks(pg, b.name(pg.Resource))...)
}

// Object builds the sidebar for a single record page.
func (b *Builder) Object(pg Page) []Link {
	name := b.name(pg.Resource)
	links := b.parentLinks(pg)
	links = append(links, b.resourcesLinks(pg, name)...)
	return append(links, b.resourceLinks(pg, name)...)
}

// IndividualLinks are the per-row actions shown in index tables.
func (b *Builder) IndividualLinks(pg Page) []Link {
	name := b.name(pg.Resource)
	url := pg.objectURL()
	return []Link{
		{Label: "View", URL: url},
		{Label: "Edit", URL: url + "/edit"},
		{Label: "Remove", URL: url, Method: "delete", Confirm: b.confirmRemove(name)},
	}
}

func (b *Builder) parentLinks(pg Page) []Link {
	if pg.Parent == nil {
		return nil
	}
	name := b.name(pg.Parent.Resource)
	url := pg.Parent.url()
	return []Link{
		{Label: "View " + name, URL: url},
		{Label: "Edit " + name, URL: url + "/edit"},
	}
}

func (b *Builder) resourcesLinks(pg Page, name string) []Link {
	url := pg.collectionURL()
	return []Link{
		{Label: "All " + i18n.Pluralize(name), URL: url},
		{Label: "Add " + name, URL: url + "/new"},
	}
}

func (b *Builder) resourceLinks(pg Page, name string) []Link {
	url := pg.objectURL()
	return []Link{
		{Label: "View " + name, URL: url},
		{Label: "Edit " + name, URL: url + "/edit"},
		{Label: "Remove " + name, URL: url, Method: "delete", Confirm: b.confirmRemove(name)},
	}
}

func (b *Builder) confirmRemove(name string) string {
	return b.tr.T(i18n.KeyRemoveConfirmation, "Are you sure you want to remove this %s?", name)
}

// underscore turns "MissionParticipation" into "mission_participation".
func underscore(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ches"), strings.HasSuffix(s, "shes"), strings.HasSuffix(s, "xes"), strings.HasSuffix(s, "sses"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s"):
		return s[:len(s)-1]
	}
	return s
}

func lastSegment(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
