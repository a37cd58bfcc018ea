package economy

import "math"

const (
	// BasePricePerUnit is the unmodified price of one bungeoppang.
	BasePricePerUnit = 500

	MinPriceModifier     = 0.5
	MaxPriceModifier     = 1.5
	DefaultPriceModifier = 1.0

	MinDaySeconds     = 30
	MaxDaySeconds     = 180
	DaySecondsStep    = 15
	DefaultDaySeconds = 90
)

var fixedGoals = [...]int{5000, 7500, 10000}

// GoalForDay is the revenue target of a day. The first three days use fixed
// goals, afterwards the target grows by 20% per day.
func GoalForDay(day int) int {
	if day < 1 {
		day = 1
	}
	if day <= len(fixedGoals) {
		return fixedGoals[day-1]
	}
	last := fixedGoals[len(fixedGoals)-1]
	return int(math.Floor(float64(last) * math.Pow(1.2, float64(day-len(fixedGoals)))))
}

// PricePerUnit applies a price modifier to the base price. The modifier is
// clamped and rounded to a tenth.
func PricePerUnit(modifier float64) int {
	if math.IsNaN(modifier) {
		modifier = DefaultPriceModifier
	}
	modifier = min(max(modifier, MinPriceModifier), MaxPriceModifier)
	modifier = math.Round(modifier*10) / 10
	return int(math.Round(BasePricePerUnit * modifier))
}

// DaySeconds clamps a requested day length and snaps it to the slider step.
// Zero selects the default length.
func DaySeconds(requested int) int {
	if requested == 0 {
		return DefaultDaySeconds
	}
	requested = min(max(requested, MinDaySeconds), MaxDaySeconds)
	steps := (requested - MinDaySeconds + DaySecondsStep/2) / DaySecondsStep
	return MinDaySeconds + steps*DaySecondsStep
}
