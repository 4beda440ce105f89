package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/zevledger/pkg/domain/services/ledger"
)

// StageChart draws the credit units consumed by each offsetting stage as
// horizontal bars.
type StageChart struct {
	Width       int
	MarginLeft  int
	MarginTop   int
	MarginRight int
	RowHeight   int
}

// StageBar is one stage row of the chart
type StageBar struct {
	Stage string
	Units decimal.Decimal
	Y     int
	Width int
	Color string
}

// NewStageChart creates a chart sized for the four offsetting stages
func NewStageChart() *StageChart {
	return &StageChart{
		Width:       900,
		MarginLeft:  280,
		MarginTop:   40,
		MarginRight: 80,
		RowHeight:   30,
	}
}

var stageColors = map[string]string{
	ledger.StageSpecialDebits:           "#e74c3c",
	ledger.StageUnspecifiedDebits:       "#3498db",
	ledger.StageOtherViaUnspecified:     "#9b59b6",
	ledger.StageOtherViaMatchingCredits: "#2ecc71",
}

// Bars lays out one bar per stage, scaled to the largest stage
func (sc *StageChart) Bars(stages []ledger.StageAudit) []StageBar {
	totals := make([]decimal.Decimal, len(stages))
	largest := decimal.Zero
	for i, stage := range stages {
		totals[i] = ledger.Total(stage.Consumed)
		if totals[i].GreaterThan(largest) {
			largest = totals[i]
		}
	}

	plotWidth := decimal.NewFromInt(int64(sc.Width - sc.MarginLeft - sc.MarginRight))
	bars := make([]StageBar, len(stages))
	for i, stage := range stages {
		width := 0
		if largest.IsPositive() {
			width = int(totals[i].Div(largest).Mul(plotWidth).IntPart())
		}
		color, ok := stageColors[stage.Stage]
		if !ok {
			color = "#95a5a6"
		}
		bars[i] = StageBar{
			Stage: stage.Stage,
			Units: totals[i],
			Y:     sc.MarginTop + i*sc.RowHeight,
			Width: width,
			Color: color,
		}
	}
	return bars
}

// GenerateSVG renders the chart as an inline SVG document
func (sc *StageChart) GenerateSVG(stages []ledger.StageAudit) string {
	bars := sc.Bars(stages)
	height := sc.MarginTop + len(bars)*sc.RowHeight + 20

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, sc.Width, height))
	svg.WriteString(`<style>`)
	svg.WriteString(`.stage-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.units-label { font-family: Arial, sans-serif; font-size: 11px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 14px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`</style>`)
	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, sc.Width, height))
	svg.WriteString(`<text x="10" y="20" class="title">Credits consumed by offsetting stage</text>`)

	barHeight := sc.RowHeight - 8
	for _, bar := range bars {
		svg.WriteString(fmt.Sprintf(`<text x="10" y="%d" class="stage-label">%s</text>`,
			bar.Y+barHeight-6, html.EscapeString(bar.Stage)))
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
			sc.MarginLeft, bar.Y, bar.Width, barHeight, bar.Color))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="units-label">%s</text>`,
			sc.MarginLeft+bar.Width+6, bar.Y+barHeight-6, bar.Units.StringFixed(2)))
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}
