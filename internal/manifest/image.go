package manifest

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultImageTemplate renders <group>/<name>:<version>, omitting an empty group.
const DefaultImageTemplate = `{{ with .Group }}{{ . }}/{{ end }}{{ .Name }}:{{ .Version }}`

// RenderImage returns the descriptor's explicit image, or renders tmpl with the
// descriptor as data. All sprig functions are available to the template.
func RenderImage(d *Descriptor, tmpl string) (string, error) {
	if d.Image != "" {
		return d.Image, nil
	}
	if tmpl == "" {
		tmpl = DefaultImageTemplate
	}

	t, err := template.New("image").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", &ConfigurationError{Field: "image", Reason: fmt.Sprintf("parse template: %v", err)}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", &ConfigurationError{Field: "image", Reason: fmt.Sprintf("render template: %v", err)}
	}

	image := strings.TrimSpace(buf.String())
	if image == "" {
		return "", &ConfigurationError{Field: "image", Reason: "template rendered an empty reference"}
	}

	return image, nil
}
