package output

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/vsinha/zevledger/pkg/application/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

// HTMLReport renders a self-contained HTML model year report
type HTMLReport struct {
	chart *StageChart
}

// TemplateData contains all data for rendering the HTML template
type TemplateData struct {
	*dto.Assessment
	StageChart  template.HTML
	DataJSON    template.JS
	GeneratedAt string
}

// NewHTMLReport creates a new HTML report generator
func NewHTMLReport() *HTMLReport {
	return &HTMLReport{chart: NewStageChart()}
}

// Render executes the embedded report template
func (hr *HTMLReport) Render(a *dto.Assessment) (string, error) {
	jsonData, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report data: %w", err)
	}

	data := &TemplateData{
		Assessment:  a,
		StageChart:  template.HTML(hr.chart.GenerateSVG(a.Stages)),
		DataJSON:    template.JS(jsonData),
		GeneratedAt: a.ComputedAt.Format("2006-01-02 15:04:05"),
	}

	tmpl, err := template.ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
