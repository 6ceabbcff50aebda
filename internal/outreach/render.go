package outreach

import (
	"regexp"

	"github.com/unclebandit/outreach-backend/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders from vars. A
// placeholder missing from vars renders as an empty string; rendering
// never fails.
func RenderTemplate(body string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(body, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		return vars[key]
	})
}

// BindVars builds the placeholder map for one contact: name (with a
// fallback when the contact has none), handle, resolved address, then
// any caller-supplied extras on top.
func BindVars(c *model.Contact, address string, extra map[string]string) map[string]string {
	name := c.Name
	if name == "" {
		name = "there"
	}
	vars := map[string]string{
		"name":    name,
		"handle":  c.Handle,
		"address": address,
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}
