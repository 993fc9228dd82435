// Package baseconfig renders the bootstrap configuration a freshly
// discovered switch needs to reach the controller's management plane,
// before any Task has touched it. Templates are embedded at build time
// rather than read from a runtime directory, following the teacher's
// boot-patch precedent of shipping templates inside the binary.
package baseconfig

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates
var templatesFS embed.FS

// Vars holds the placeholders available to every base config template.
type Vars struct {
	Hostname     string
	AdoptDN      string
	InitUsername string
	InitPassword string
}

// Render loads templates/<name> and substitutes vars into it.
func Render(name string, vars Vars) (string, error) {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("baseconfig: %w", err)
	}

	tmpl, err := template.New(name).Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("baseconfig: parsing %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("baseconfig: rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
