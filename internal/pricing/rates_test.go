package pricing

import "testing"

func TestRateFor(t *testing.T) {
	table := RateTable{DayRate: 80, EveningRate: 120, EveningStart: 17 * 60}

	if got := table.RateFor(10 * 60); got != 80 {
		t.Fatalf("morning rate: expected 80, got %v", got)
	}
	if got := table.RateFor(17 * 60); got != 120 {
		t.Fatalf("evening boundary: expected 120, got %v", got)
	}
	if got := table.RateFor(22 * 60); got != 120 {
		t.Fatalf("late evening: expected 120, got %v", got)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	table := FromEnv()
	if table.DayRate <= 0 || table.EveningRate <= 0 {
		t.Fatalf("expected positive default rates, got %+v", table)
	}
	if table.EveningStart != 17*60 {
		t.Fatalf("expected evening start 17:00, got %d", table.EveningStart)
	}
}
