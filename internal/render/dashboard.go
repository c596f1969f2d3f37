package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/audit"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// BarWidth is the number of cells in a full chart bar
const BarWidth = 40

// Money formats an amount in rupees with thousands separators
func Money(v float64) string {
	return "₹" + humanize.Commaf(v)
}

// Cell is Money, or a dash for zero
func Cell(v float64) string {
	if v == 0 {
		return "—"
	}
	return Money(v)
}

// DisplayDate renders YYYY-MM-DD as DD/MM/YYYY, or the raw value if it
// cannot be parsed
func DisplayDate(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}

// Percent formats an efficiency figure with one decimal
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Dashboard draws the headline cards, the unit chart and the log
func Dashboard(res aggregate.Result, th Theme) string {
	focus := "Aggregate view"
	if res.Filter.Unit != models.AllUnits && res.Filter.Unit != "" {
		focus = string(res.Filter.Unit) + " facility"
	}
	title := th.Title.Render(fmt.Sprintf("Dispatch dashboard · %s · %s", res.Filter.Label(), focus))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		Cards(res, th),
		"",
		th.Title.Render("Unit performance (order vs dispatch)"),
		Chart(res, th),
		"",
		th.Title.Render(fmt.Sprintf("Operational log · %d entries", len(res.Records))),
		Log(res.Records, th),
	)
}

// Cards draws total orders, total dispatches and efficiency side by side
func Cards(res aggregate.Result, th Theme) string {
	card := func(label, value string, style lipgloss.Style) string {
		return th.Card.Render(th.Label.Render(label) + "\n" + style.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("TOTAL ORDERS", Money(res.Totals.Order), th.Order),
		" ",
		card("TOTAL DISPATCHES", Money(res.Totals.Dispatch), th.Dispatch),
		" ",
		card("EFFICIENCY", Percent(res.Efficiency), th.Order),
	)
}

// Chart draws one order bar and one dispatch bar per unit, scaled to
// res.ChartScale
func Chart(res aggregate.Result, th Theme) string {
	var sb strings.Builder
	for _, b := range res.Breakdown {
		fmt.Fprintf(&sb, "%-4s ORD  %s %s\n", b.Unit,
			th.Order.Render(bar(b.Order, res.ChartScale)), th.Muted.Render(Money(b.Order)))
		fmt.Fprintf(&sb, "%-4s DISP %s %s\n", "",
			th.Dispatch.Render(bar(b.Dispatch, res.ChartScale)), th.Muted.Render(Money(b.Dispatch)))
	}
	sb.WriteString(th.Muted.Render(fmt.Sprintf("scale %s", Money(res.ChartScale))))
	return sb.String()
}

func bar(value, scale float64) string {
	pct := aggregate.BarPercent(value, scale)
	filled := int(math.Round(pct / 100 * BarWidth))
	if filled < 1 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat(" ", BarWidth-filled)
}

// Log draws the record table: date, per-unit order/dispatch, totals and id
func Log(records models.RecordSet, th Theme) string {
	if len(records) == 0 {
		return th.Muted.Render("No matching records for selected period")
	}

	var sb strings.Builder
	header := fmt.Sprintf("%-10s", "DATE")
	for _, u := range models.Units {
		header += fmt.Sprintf("  %10s %10s", u+" ORD", u+" DISP")
	}
	header += fmt.Sprintf("  %12s %12s  %s", "T-ORD", "T-DISP", "ID")
	sb.WriteString(th.Label.Render(header))
	sb.WriteString("\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%-10s", DisplayDate(r.Date)))
		for _, u := range models.Units {
			v := r.Unit(u)
			sb.WriteString("  ")
			sb.WriteString(th.Muted.Render(fmt.Sprintf("%10s", Cell(v.OrderValue))))
			sb.WriteString(" ")
			sb.WriteString(fmt.Sprintf("%10s", Cell(v.DispatchValue)))
		}
		sb.WriteString("  ")
		sb.WriteString(th.Order.Render(fmt.Sprintf("%12s", Money(r.TotalOrder))))
		sb.WriteString(" ")
		sb.WriteString(th.Dispatch.Render(fmt.Sprintf("%12s", Money(r.TotalDispatch))))
		sb.WriteString("  ")
		sb.WriteString(th.Muted.Render(r.ID))
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Record draws a single record as a unit-by-unit summary
func Record(r models.Record, th Theme) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (id %s)\n", th.Title.Render("Record"), DisplayDate(r.Date), r.ID)
	for _, u := range models.Units {
		v := r.Unit(u)
		fmt.Fprintf(&sb, "  %-4s order %12s  dispatch %12s\n", u, Cell(v.OrderValue), Cell(v.DispatchValue))
	}
	fmt.Fprintf(&sb, "  %-4s order %12s  dispatch %12s", "ALL",
		th.Order.Render(Money(r.TotalOrder)), th.Dispatch.Render(Money(r.TotalDispatch)))
	return sb.String()
}

// Audit draws an AI summary
func Audit(rep *audit.Report, th Theme) string {
	status := th.Muted
	switch rep.Status {
	case audit.StatusExcellent:
		status = th.Success
	case audit.StatusWarning:
		status = th.Warning
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", th.Title.Render("Audit"), status.Render(strings.ToUpper(string(rep.Status))))
	sb.WriteString(rep.Summary)
	for _, insight := range rep.Insights {
		sb.WriteString("\n  • ")
		sb.WriteString(insight)
	}
	return sb.String()
}
