package render

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jgoulah/dispatchtracker/internal/aggregate"
	"github.com/jgoulah/dispatchtracker/internal/audit"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0"},
		{1234, "₹1,234"},
		{1234567.5, "₹1,234,567.5"},
	}
	for _, tt := range tests {
		if got := Money(tt.in); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Cell(0); got != "—" {
		t.Errorf("Cell(0) = %q, want dash", got)
	}
}

func TestDisplayDate(t *testing.T) {
	if got := DisplayDate("2025-03-01"); got != "01/03/2025" {
		t.Errorf("DisplayDate = %q, want 01/03/2025", got)
	}
	if got := DisplayDate("garbage"); got != "garbage" {
		t.Errorf("DisplayDate(garbage) = %q", got)
	}
}

func TestBarWidth(t *testing.T) {
	if got := strings.Count(bar(0, 1100), "█"); got != 1 {
		t.Errorf("zero bar has %d cells, want a 1-cell sliver", got)
	}
	if got := strings.Count(bar(550, 1100), "█"); got != BarWidth/2 {
		t.Errorf("half bar has %d cells, want %d", got, BarWidth/2)
	}
	if got := lipgloss.Width(bar(5000, 1100)); got != BarWidth {
		t.Errorf("bar width = %d, want %d", got, BarWidth)
	}
}

func TestDashboardPlain(t *testing.T) {
	r := models.NewRecord(time.UnixMilli(1740787200000), "2025-03-01", map[models.UnitKey]models.UnitValue{
		models.UnitSUR: {OrderValue: 100, DispatchValue: 50},
	})
	f := models.FilterCriteria{Unit: models.AllUnits, Range: models.RangeMonth, SelectedMonth: 2, SelectedYear: 2025}

	out := Dashboard(aggregate.Compute(models.RecordSet{r}, f), PlainTheme())

	for _, want := range []string{"March 2025", "₹100", "₹50", "50.0%", "01/03/2025", r.ID, "1 entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain theme should not emit escape codes")
	}
}

func TestLogEmpty(t *testing.T) {
	if got := Log(nil, PlainTheme()); !strings.Contains(got, "No matching records") {
		t.Errorf("Log(nil) = %q", got)
	}
}

func TestAudit(t *testing.T) {
	rep := &audit.Report{Summary: "Steady day.", Insights: []string{"SUR led orders"}, Status: audit.StatusExcellent}
	out := Audit(rep, PlainTheme())
	for _, want := range []string{"EXCELLENT", "Steady day.", "• SUR led orders"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit output missing %q:\n%s", want, out)
		}
	}
}
