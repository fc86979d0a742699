package web

import (
	"embed"
	"html/template"

	"price-dashboard/internal/tracker"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func pageTemplates() *template.Template {
	funcs := template.FuncMap{
		"price":   formatPrice,
		"relTime": formatRelativeTime,
		"pct":     formatPct,
		"maybePrice": func(v *float64) string {
			if v == nil {
				return "Unavailable"
			}
			return formatPrice(*v)
		},
		"statusLabel": func(s tracker.JobStatus) string {
			switch s {
			case tracker.JobSuccess:
				return "Success"
			case tracker.JobFailed:
				return "Failed"
			case tracker.JobInProgress:
				return "In Progress"
			default:
				return string(s)
			}
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}
