package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/model"
)

// Items ending within this many hours are highlighted.
const veryUrgentHours = 6

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func maxMargin(items []model.UrgentItem) float64 {
	best := items[0].Analysis.ProfitMargin
	for _, it := range items[1:] {
		if it.Analysis.ProfitMargin > best {
			best = it.Analysis.ProfitMargin
		}
	}
	return best
}

// desktopText builds the short popup title and body.
func desktopText(items []model.UrgentItem) (title, body string) {
	n := len(items)
	first := items[0]
	title = fmt.Sprintf("%d Urgent Auction Alert%s", n, plural(n))
	if n == 1 {
		body = fmt.Sprintf("%s\nCurrent: $%.2f\nProfit: %.1f%%\nTime: %.1fh remaining",
			helpers.Truncate(first.Item.Title, 50),
			first.Item.CurrentBid,
			first.Analysis.ProfitMargin,
			first.HoursRemaining)
		return title, body
	}
	body = fmt.Sprintf("Most urgent: %s\nTime: %.1fh remaining\nUp to %.1f%% profit",
		helpers.Truncate(first.Item.Title, 40),
		first.HoursRemaining,
		maxMargin(items))
	return title, body
}

// consoleText renders the operator-facing alert block.
func consoleText(items []model.UrgentItem) string {
	rule := strings.Repeat("=", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n*** URGENT AUCTION ALERTS ***\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Found %d profitable item%s ending soon!\n%s\n", len(items), plural(len(items)), strings.Repeat("-", 80))
	for i, it := range items {
		marker := ">>"
		if it.HoursRemaining < veryUrgentHours {
			marker = ">>>"
		}
		fmt.Fprintf(&b, "\n%s ALERT #%d:\n", marker, i+1)
		fmt.Fprintf(&b, "   Item: %s\n", helpers.Truncate(it.Item.Title, 60))
		fmt.Fprintf(&b, "   Current Bid: $%.2f\n", it.Item.CurrentBid)
		fmt.Fprintf(&b, "   Profit Margin: %.1f%%\n", it.Analysis.ProfitMargin)
		fmt.Fprintf(&b, "   Time Left: %.1f hours\n", it.HoursRemaining)
		if it.Item.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", it.Item.URL)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

func emailSubject(items []model.UrgentItem) string {
	return fmt.Sprintf("%d Urgent Auction Alert%s", len(items), plural(len(items)))
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"hours": func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(`<html>
<head>
<style>
body { font-family: Arial, sans-serif; }
.header { background-color: #ff4444; color: white; padding: 15px; text-align: center; }
.item { border: 1px solid #ddd; margin: 10px 0; padding: 15px; background-color: #f9f9f9; }
.urgent { border-left: 5px solid #ff4444; }
.profit { color: #22aa22; font-weight: bold; }
.time { color: #ff6600; font-weight: bold; }
</style>
</head>
<body>
<div class="header">
<h2>Urgent Auction Alerts - {{len .Items}} Item{{.Plural}}</h2>
<p>High-profit items ending soon!</p>
</div>
{{range .Items}}<div class="item{{if lt .HoursRemaining $.VeryUrgent}} urgent{{end}}">
<h3>{{.Item.Title}}</h3>
<p><strong>Current Bid:</strong> {{money .Item.CurrentBid}}</p>
<p><strong>Estimated Value:</strong> {{money .Analysis.EstimatedValue}}</p>
<p class="profit"><strong>Profit Margin:</strong> {{pct .Analysis.ProfitMargin}}</p>
<p class="time"><strong>Time Remaining:</strong> {{hours .HoursRemaining}} hours</p>
<p><strong>Confidence:</strong> {{pct .Confidence}}</p>
{{if .Item.URL}}<p><a href="{{.Item.URL}}">View Item</a></p>{{end}}
<p><small>Auction ID: {{.Item.ExternalID}}</small></p>
</div>
{{end}}<div style="text-align: center; margin-top: 20px; color: #666;">
<p>Generated at {{.Generated}}</p>
</div>
</body>
</html>
`))

type emailRow struct {
	model.UrgentItem
	Confidence float64
}

// emailHTML renders the alert body; titles and URLs are escaped.
func emailHTML(items []model.UrgentItem, now time.Time) (string, error) {
	rows := make([]emailRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, emailRow{UrgentItem: it, Confidence: it.Analysis.ConfidenceScore * 100})
	}
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, map[string]interface{}{
		"Items":      rows,
		"Plural":     plural(len(items)),
		"VeryUrgent": float64(veryUrgentHours),
		"Generated":  now.Format("2006-01-02 15:04:05"),
	})
	return buf.String(), err
}
