// Package lintdoc prints rule documentation and checks that every
// rule has a documentation resource and vice versa.
package lintdoc

import (
	"fmt"
	"io"
	"text/template"

	"github.com/go-lintpack/rulepack"
)

var docTemplate = template.Must(template.New("doc").Parse(`{{.Info.ID}} {{.Info.Name}} rule documentation
Severity: {{.Info.Severity}}
Tags: {{.Info.Tags}}
Enabled by default: {{.Info.EnabledByDefault}}

{{.Info.Title}}.
{{- if .Params }}

Rule parameters:
{{- range .Params }}
  -@{{$.Info.ID}}.{{.Name}} {{.Type}}
    	{{.Description}} (default {{printf "%q" .Default}})
{{- end }}
{{- end }}
`))

// PrintShortDoc writes one line per catalog rule.
func PrintShortDoc(w io.Writer, c *rulepack.Catalog) error {
	for _, r := range c.Rules() {
		info := r.Descriptor()
		if _, err := fmt.Fprintf(w, "%s %s %v\n", info.ID, info.Name, info.Tags); err != nil {
			return err
		}
	}
	return nil
}

// PrintDoc writes the documentation of a single rule.
func PrintDoc(w io.Writer, r rulepack.Rule) error {
	var templateData struct {
		Info   *rulepack.Descriptor
		Params []rulepack.ParamSpec
	}
	templateData.Info = r.Descriptor()
	if conf, ok := r.(rulepack.Configurable); ok {
		templateData.Params = conf.Params()
	}
	if err := docTemplate.Execute(w, templateData); err != nil {
		return fmt.Errorf("executing rule doc template: %w", err)
	}
	return nil
}
