package pricing

import (
	"github.com/TaherAlradaei/studio-sub000/libs/config"
)

// RateTable supplies the default hourly rate shown to an administrator when
// quoting a reservation. Evening slots carry a higher rate. The quote itself
// is whatever the administrator submits; this table is a default, not a cap.
type RateTable struct {
	DayRate      float64
	EveningRate  float64
	EveningStart int // minutes since midnight
}

func Default() RateTable {
	return RateTable{
		DayRate:      100,
		EveningRate:  150,
		EveningStart: 17 * 60,
	}
}

// FromEnv reads PRICING_DAY_RATE, PRICING_EVENING_RATE, and
// PRICING_EVENING_START_HOUR, falling back to the defaults.
func FromEnv() RateTable {
	t := Default()
	t.DayRate = config.Float("PRICING_DAY_RATE", t.DayRate)
	t.EveningRate = config.Float("PRICING_EVENING_RATE", t.EveningRate)
	if h := config.Int("PRICING_EVENING_START_HOUR", t.EveningStart/60); h >= 0 && h <= 24 {
		t.EveningStart = h * 60
	}
	return t
}

// RateFor returns the default hourly rate for a slot starting at the given
// minutes-since-midnight.
func (t RateTable) RateFor(startMinutes int) float64 {
	if startMinutes >= t.EveningStart {
		return t.EveningRate
	}
	return t.DayRate
}
