package models

import (
	"time"

	"github.com/google/uuid"
)

// Chart type constants. The set is closed: the frontend's chart dispatcher
// branches over exactly these values, so anything else is rejected at write
// time rather than failing silently at render time.
const (
	ChartTable         = "table"
	ChartLine          = "line"
	ChartBar           = "bar"
	ChartHorizontalBar = "horizontal_bar"
	ChartStackedBar    = "stacked_bar"
	ChartGroupedBar    = "grouped_bar"
	ChartPie           = "pie"
	ChartDonut         = "donut"
	ChartArea          = "area"
	ChartStackedArea   = "stacked_area"
	ChartScatter       = "scatter"
	ChartBubble        = "bubble"
	ChartHeatmap       = "heatmap"
	ChartTreemap       = "treemap"
	ChartSunburst      = "sunburst"
	ChartSankey        = "sankey"
	ChartFunnel        = "funnel"
	ChartRadar         = "radar"
	ChartGauge         = "gauge"
	ChartCandlestick   = "candlestick"
	ChartBoxplot       = "boxplot"
	ChartWaterfall     = "waterfall"
)

// ValidChartTypes contains every chart type the API accepts.
var ValidChartTypes = []string{
	ChartTable, ChartLine, ChartBar, ChartHorizontalBar, ChartStackedBar,
	ChartGroupedBar, ChartPie, ChartDonut, ChartArea, ChartStackedArea,
	ChartScatter, ChartBubble, ChartHeatmap, ChartTreemap, ChartSunburst,
	ChartSankey, ChartFunnel, ChartRadar, ChartGauge, ChartCandlestick,
	ChartBoxplot, ChartWaterfall,
}

// IsValidChartType checks if the given chart type is supported.
func IsValidChartType(t string) bool {
	for _, v := range ValidChartTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Visualization maps a query's result set onto a chart. It has no user_id
// column: ownership is derived through query -> user, so every authorization
// check joins through queries.
type Visualization struct {
	ID        uuid.UUID      `json:"id"`
	QueryID   uuid.UUID      `json:"query_id"`
	Name      string         `json:"name"`
	ChartType string         `json:"chart_type"`
	Config    map[string]any `json:"config"` // axis mapping, title, colors
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
