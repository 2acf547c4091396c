package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"tickdash/internal/dashboard"
	"tickdash/internal/memorystore"
	"tickdash/internal/ticks"
	"tickdash/pkg/coincap"
	"tickdash/pkg/newsdata"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultMaxPoints = 12

// Renderer draws dashboard panels as text tables.
type Renderer struct {
	// MaxPoints caps how many of a chart's newest points are listed.
	MaxPoints int
	Location  *time.Location

	printer *message.Printer
}

func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{
		MaxPoints: defaultMaxPoints,
		Location:  loc,
		printer:   message.NewPrinter(language.English),
	}
}

// Events writes the event log oldest first.
func (r *Renderer) Events(w io.Writer, events []ticks.Event) {
	fmt.Fprintln(w, "Events:")
	if len(events) == 0 {
		fmt.Fprintln(w, "  no events yet")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Kind", "Detail"})
	table.SetAutoWrapText(false)

	for _, ev := range memorystore.Chronological(events) {
		table.Append([]string{
			time.UnixMilli(ev.ReceivedAt).In(r.Location).Format("15:04:05"),
			string(ev.Kind),
			detail(ev),
		})
	}
	table.Render()
}

func detail(ev ticks.Event) string {
	if ev.Kind != ticks.KindPriceTick {
		return ev.Message
	}
	syms := make([]string, 0, len(ev.Prices))
	for sym := range ev.Prices {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	parts := make([]string, 0, len(syms))
	for _, sym := range syms {
		parts = append(parts, sym+"="+ev.Prices[sym])
	}
	return strings.Join(parts, " ")
}

// Chart writes one chart panel: a title with the percent change badge and the newest points.
func (r *Renderer) Chart(w io.Writer, view dashboard.ChartView) {
	fmt.Fprintf(w, "%s (%s) %s\n", strings.ToUpper(view.Symbol), view.Granularity, Badge(view))

	if view.Error != "" {
		fmt.Fprintf(w, "  %s\n", view.Error)
		return
	}
	if len(view.Points) == 0 {
		fmt.Fprintln(w, "  loading...")
		return
	}

	points := view.Points
	if r.MaxPoints > 0 && len(points) > r.MaxPoints {
		points = points[len(points)-r.MaxPoints:]
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Price"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, pt := range points {
		table.Append([]string{
			time.UnixMilli(pt.Time).In(r.Location).Format(view.Layout),
			r.USD(pt.Price),
		})
	}
	table.Render()
}

// USD formats d as dollars with two decimals and thousands separators.
// Only the integer part goes through the printer, so no digit is lost to float rounding.
func (r *Renderer) USD(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	fixed := rounded.StringFixed(2)
	frac := fixed[len(fixed)-3:]
	return sign + "$" + r.printer.Sprintf("%d", rounded.Truncate(0).IntPart()) + frac
}

// Assets writes the market summary. A symbol's price comes from latest when a
// tick has been seen for it, otherwise from the REST snapshot.
func (r *Renderer) Assets(w io.Writer, assets []coincap.Asset, latest map[string]string) {
	fmt.Fprintln(w, "Markets:")
	if len(assets) == 0 {
		fmt.Fprintln(w, "  no market data")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Asset", "Price", "24h Change", "Market Cap"})
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for _, a := range assets {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		if a.Symbol != "" {
			name += " (" + a.Symbol + ")"
		}

		price := "-"
		if live, ok := latest[a.ID]; ok {
			if d, err := decimal.NewFromString(live); err == nil {
				price = r.USD(d) + " (Live)"
			}
		} else if d, ok := parseDecimal(a.PriceUsd); ok {
			price = r.USD(d)
		}

		change := "-"
		if d, ok := parseDecimal(a.ChangePercent24Hr); ok {
			change = d.StringFixed(2) + "%"
		}

		marketCap := "-"
		if d, ok := parseDecimal(a.MarketCapUsd); ok {
			marketCap = r.USD(d)
		}

		table.Append([]string{name, price, change, marketCap})
	}
	table.Render()
}

func parseDecimal(s *string) (decimal.Decimal, bool) {
	if s == nil || *s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Badge formats the percent change as an up or down arrow with two decimals.
func Badge(view dashboard.ChartView) string {
	if !view.HasChange {
		return "--"
	}
	if view.PercentChange.IsNegative() {
		return "↓ " + view.PercentChange.Abs().StringFixed(2) + "%"
	}
	return "↑ " + view.PercentChange.StringFixed(2) + "%"
}

// News writes the news panel.
func (r *Renderer) News(w io.Writer, articles []newsdata.Article) {
	fmt.Fprintln(w, "News:")
	if len(articles) == 0 {
		fmt.Fprintln(w, "  no news")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Title", "Link"})
	table.SetAutoWrapText(false)
	for _, a := range articles {
		table.Append([]string{a.Date, a.Title, a.Link})
	}
	table.Render()
}
