package reports

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/worlddoor/fulfillment/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

var monthlyTemplate = template.Must(template.New("monthly.html").Funcs(template.FuncMap{
	"yen": shared.FormatYen,
	"pct": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"signed": func(v float64) string {
		if v >= 0 {
			return fmt.Sprintf("+%.1f", v)
		}
		return fmt.Sprintf("%.1f", v)
	},
	"jpDate": func(t time.Time) string { return t.Format("2006/1/2") },
}).ParseFS(templateFS, "templates/monthly.html"))

type monthlyView struct {
	Report      Monthly
	GeneratedAt time.Time
}

// RenderHTML renders the report as a standalone Japanese HTML document.
func RenderHTML(report Monthly, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := monthlyTemplate.Execute(&buf, monthlyView{Report: report, GeneratedAt: generatedAt}); err != nil {
		return nil, fmt.Errorf("render monthly report: %w", err)
	}
	return buf.Bytes(), nil
}
