package httpx

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/afuentes/mktpulse/internal/models"
	"github.com/afuentes/mktpulse/internal/pipeline"
)

// Server-rendered dashboard page. Thin consumer of the same snapshot the
// JSON API serves: cards, channel table, spend-vs-revenue chart, insights.

var pageTpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"money": fmtMoney,
	"num":   fmtNum,
	"pct":   fmtPct,
	"chart": svgChart,
}).Parse(`<!doctype html><html><head>
<meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>mktpulse</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Arial;background:#0b1020;color:#e8ecff;margin:0;padding:20px}
.card{background:#111837;border:1px solid #203063;border-radius:14px;padding:16px;margin:12px 0}
h1{margin:0 0 10px 0} .muted{color:#9aa7cf} table{width:100%;border-collapse:collapse}
th,td{border-bottom:1px solid #22305f;padding:8px;text-align:left}
.badge{display:inline-block;background:#1b2a59;padding:4px 8px;border-radius:8px;margin-right:6px}
a{color:#7aa2ff} svg{max-width:100%}
</style>
</head><body>
<h1>mktpulse</h1>
<p class="muted">Channels:
<a href="/">All</a>{{range .AllChannels}} | <a href="/?channel={{.}}">{{.}}</a>{{end}}
{{if .Filter}} — showing {{.Filter}}{{end}}</p>

<div class="card">
  <div class="badge">Spend: {{money .KPIs.Totals.Spend}}</div>
  <div class="badge">Attributed Revenue: {{money .KPIs.Totals.AttributedRevenue}}</div>
  <div class="badge">Business Revenue: {{money .KPIs.Totals.TotalRevenue}}</div>
  <div class="badge">ROAS: {{num .KPIs.Totals.BlendedROAS}}</div>
  <div class="badge">CAC: {{num .KPIs.CAC}}</div>
  <div class="badge">Margin/Order: {{num .KPIs.GrossMarginPerOrder}}</div>
</div>

<div class="card">
  <h3>Spend vs Revenue over time</h3>
  {{chart .Facts}}
</div>

<div class="card">
  <h3>Channels</h3>
  <table><thead><tr><th>Channel</th><th>ROAS</th><th>Spend share</th><th>Revenue share</th></tr></thead><tbody>
  {{range .Channels}}<tr><td>{{.Name}}</td><td>{{num .ROAS}}</td><td>{{pct .SpendShare}}</td><td>{{pct .RevenueShare}}</td></tr>{{end}}
  </tbody></table>
</div>

<div class="card">
  <h3>Campaign Performance</h3>
  <table><thead><tr><th>Channel</th><th>Campaign</th><th>Impressions</th><th>Clicks</th><th>Spend</th><th>Attributed Revenue</th><th>CTR</th><th>ROAS</th></tr></thead><tbody>
  {{range .Campaigns}}<tr><td>{{.Channel}}</td><td>{{.Campaign}}</td><td>{{.Impressions}}</td><td>{{.Clicks}}</td><td>${{.Spend}}</td><td>${{.AttributedRevenue}}</td><td>{{pct .CTR}}</td><td>{{num .ROAS}}</td></tr>{{end}}
  </tbody></table>
</div>

<div class="card">
  <h3>Attribution gap</h3>
  <table><thead><tr><th>Date</th><th>Gap</th></tr></thead><tbody>
  {{range .KPIs.AttributionGapByDate}}<tr><td>{{.Date}}</td><td>{{money .Value}}</td></tr>{{end}}
  </tbody></table>
</div>

<div class="card">
  <h3>Recommendations</h3>
  <ul>{{range .Insights}}<li>{{.}}</li>{{end}}</ul>
</div>

<div class="card">
  <h3>Sources</h3>
  <table><thead><tr><th>Source</th><th>Rows</th><th>Status</th></tr></thead><tbody>
  {{range .Sources}}<tr><td>{{.Name}}</td><td>{{.Rows}}</td><td>{{if .Skipped}}skipped: {{.Error}}{{else}}ok{{end}}</td></tr>{{end}}
  </tbody></table>
</div>
</body></html>
`))

type channelRow struct {
	Name         models.Channel
	ROAS         *float64
	SpendShare   *float64
	RevenueShare *float64
}

type pageData struct {
	Filter      string
	AllChannels []models.Channel
	KPIs        models.KPISet
	Facts       []models.FactRow
	Campaigns   []models.CampaignRow
	Channels    []channelRow
	Insights    []string
	Sources     []pipeline.SourceStatus
}

func renderDashboard(w http.ResponseWriter, snap *pipeline.Snapshot, filter string) {
	data := pageData{
		Filter:      filter,
		AllChannels: models.Channels,
		KPIs:        snap.KPIs,
		Facts:       snap.Facts,
		Campaigns:   snap.Campaigns,
		Insights:    snap.Insights,
		Sources:     snap.Sources,
	}
	for _, c := range models.Channels {
		data.Channels = append(data.Channels, channelRow{
			Name:         c,
			ROAS:         snap.KPIs.RoasByChannel[c],
			SpendShare:   snap.KPIs.SpendShareByChannel[c],
			RevenueShare: snap.KPIs.RevenueShareByChannel[c],
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pageTpl.Execute(w, data)
}

func fmtMoney(v float64) string { return fmt.Sprintf("$%.2f", v) }

func fmtNum(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func fmtPct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// svgChart draws spend and business revenue per date as two polylines.
func svgChart(facts []models.FactRow) template.HTML {
	type point struct{ spend, revenue float64 }
	perDay := map[string]*point{}
	var order []string
	for _, row := range facts {
		pt, ok := perDay[row.Day]
		if !ok {
			pt = &point{}
			perDay[row.Day] = pt
			order = append(order, row.Day)
		}
		if row.Spend.Valid {
			pt.spend += row.Spend.Decimal.InexactFloat64()
		}
		if row.TotalRevenue.Valid {
			// Business side repeats per channel within a date.
			pt.revenue = row.TotalRevenue.Decimal.InexactFloat64()
		}
	}
	if len(order) == 0 {
		return template.HTML("<p class='muted'>No data.</p>")
	}

	maxV := 0.0
	for _, pt := range perDay {
		if pt.spend > maxV {
			maxV = pt.spend
		}
		if pt.revenue > maxV {
			maxV = pt.revenue
		}
	}
	if maxV == 0 {
		maxV = 1
	}

	w, h := 600.0, 140.0
	step := w
	if len(order) > 1 {
		step = w / float64(len(order)-1)
	}
	line := func(get func(*point) float64) string {
		var pts []string
		for i, day := range order {
			px := float64(i) * step
			py := h - 8 - get(perDay[day])/maxV*(h-16)
			pts = append(pts, fmt.Sprintf("%.1f,%.1f", px, py))
		}
		return strings.Join(pts, " ")
	}
	svg := fmt.Sprintf(`<svg viewBox="0 0 %.0f %.0f">`+
		`<polyline points="%s" fill="none" stroke="#7aa2ff" stroke-width="2"/>`+
		`<polyline points="%s" fill="none" stroke="#5ad1a5" stroke-width="2"/>`+
		`</svg><p class="muted">blue: spend, green: business revenue</p>`,
		w, h, line(func(p *point) float64 { return p.spend }), line(func(p *point) float64 { return p.revenue }))
	return template.HTML(svg)
}
