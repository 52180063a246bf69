package main

import (
	"fmt"
	"io"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

const reportTemplate = `fslice rewrite report
======================
functions rewritten: {{ .OK }}
functions failed:    {{ .Failed }}
shadow slots total:  {{ .Slots }}
{{- if .Failures }}

failures:
{{- range .Failures }}
  - {{ . | trunc 120 }}
{{- end }}
{{- end }}
`

type reportData struct {
	OK       int
	Failed   int
	Slots    int
	Failures []string
}

// renderReport writes a prose summary of the rewrite run to w, using the
// same text/template plus sprig-helper combination many CLIs in the
// ecosystem reach for when a one-line Printf summary stops being enough.
func renderReport(w io.Writer, results []functionResult) error {
	data := reportData{}
	for _, r := range results {
		if r.err != nil {
			data.Failed++
			data.Failures = append(data.Failures, fmt.Sprintf("%s: %v", r.name, r.err))
			continue
		}
		data.OK++
		if r.plan != nil {
			data.Slots += r.plan.SlotCount
		}
	}

	tmpl, err := template.New("report").Funcs(sprig.TxtFuncMap()).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}
	return tmpl.Execute(w, data)
}
