package reflection

import (
	"math"

	"github.com/JonnyWalker81/daylog/internal/analysis"
	"github.com/JonnyWalker81/daylog/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Signal types emitted by the catalog rules
const (
	SignalSleepDeficit       = "sleep-deficit"
	SignalSleepIrregularity  = "sleep-irregularity"
	SignalLowEnergy          = "low-energy"
	SignalElevatedAnxiety    = "elevated-anxiety"
	SignalFocusDip           = "focus-dip"
	SignalRecoveryGap        = "recovery-gap"
	SignalActivityWithdrawal = "activity-withdrawal"
	SignalSocialDip          = "social-dip"
	SignalLowMood            = "low-mood"
	SignalMovementDrop       = "movement-drop"
	SignalMoodVolatility     = "mood-volatility"
	SignalCaffeineLoad       = "caffeine-load"
	SignalScreenHeavy        = "screen-heavy"
)

// User-defined metric and exposure ids the rules read. States are rated 1-5.
const (
	MetricEnergy       = "energy"
	MetricAnxiety      = "anxiety"
	MetricFocus        = "focus"
	MetricMood         = "mood"
	MetricSocial       = "social"
	ExposureCaffeine   = "caffeine"
	ExposureScreenTime = "screen_time"
)

const (
	minStateSamples = 3

	sleepTargetHours        = 7.0
	sleepIrregularStdDev    = 1.0
	lowStateMean            = 2.5
	elevatedStateMean       = 3.5
	focusDipDrop            = 0.75
	recoveryMinLogs         = 5
	recoveryFrequency       = 0.3
	withdrawalMinLogs       = 6
	withdrawalBaseFrequency = 0.3
	movementMinLogs         = 5
	movementFrequency       = 0.25
	moodVolatilityVariance  = 1.0
	caffeineCupsPerDay      = 3.0
	screenMinutesPerDay     = 240.0
)

// DefaultStrength is used when a rule has no strength function or its
// strength cannot be computed
const DefaultStrength = 0.5

// Rule is one predicate of a rule set together with the signal it emits.
// Condition and Strength are pure functions over the window. ID names the rule
// in logs and fault metrics; NewCatalog fills an empty ID with
// "<rule set id>.<signal type>", so a shared rule gets one ID per rule set.
type Rule struct {
	ID          string
	SignalType  string
	Description string
	Weight      float64
	Condition   func(Window) bool
	Strength    func(Window) float64
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// meanOf returns the mean of a metric when at least min values are present
func meanOf(w Window, ref string, min int) (float64, bool) {
	values := w.Values(ref)
	if len(values) < min {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

func hasWorkout(log models.DailyLog) bool {
	v, ok := analysis.Value(log, analysis.MetricWorkout)
	return ok && v > 0
}

func hasRestorativeActivity(log models.DailyLog) bool {
	if hasWorkout(log) {
		return true
	}
	v, ok := analysis.Value(log, analysis.MetricMeditation)
	return ok && v > 0
}

// lowState builds the condition and strength pair for a 1-5 state averaging low
func lowState(ref string) (func(Window) bool, func(Window) float64) {
	cond := func(w Window) bool {
		m, ok := meanOf(w, ref, minStateSamples)
		return ok && m <= lowStateMean
	}
	strength := func(w Window) float64 {
		m, _ := meanOf(w, ref, minStateSamples)
		return clamp01((3 - m) / 2)
	}
	return cond, strength
}

func sleepDeficitRule() Rule {
	return Rule{
		SignalType:  SignalSleepDeficit,
		Description: "sleep averaged under seven hours",
		Weight:      1.0,
		Condition: func(w Window) bool {
			m, ok := meanOf(w, analysis.MetricSleep, minStateSamples)
			return ok && m < sleepTargetHours
		},
		Strength: func(w Window) float64 {
			m, _ := meanOf(w, analysis.MetricSleep, minStateSamples)
			return clamp01((sleepTargetHours - m) / 3)
		},
	}
}

func sleepIrregularityRule() Rule {
	return Rule{
		SignalType:  SignalSleepIrregularity,
		Description: "sleep length varied a lot from night to night",
		Weight:      0.8,
		Condition: func(w Window) bool {
			values := w.Values(analysis.MetricSleep)
			return len(values) >= 4 && stat.StdDev(values, nil) >= sleepIrregularStdDev
		},
		Strength: func(w Window) float64 {
			return clamp01(stat.StdDev(w.Values(analysis.MetricSleep), nil) / 2.5)
		},
	}
}

func lowEnergyRule() Rule {
	cond, strength := lowState(MetricEnergy)
	return Rule{
		SignalType:  SignalLowEnergy,
		Description: "energy ratings sat on the low side",
		Weight:      1.0,
		Condition:   cond,
		Strength:    strength,
	}
}

func elevatedAnxietyRule() Rule {
	return Rule{
		SignalType:  SignalElevatedAnxiety,
		Description: "anxiety ratings ran higher than the midpoint",
		Weight:      1.0,
		Condition: func(w Window) bool {
			m, ok := meanOf(w, MetricAnxiety, minStateSamples)
			return ok && m >= elevatedStateMean
		},
		Strength: func(w Window) float64 {
			m, _ := meanOf(w, MetricAnxiety, minStateSamples)
			return clamp01((m - 3) / 2)
		},
	}
}

// focusDrop is how much the later half's mean focus sits below the earlier half's
func focusDrop(w Window) (float64, bool) {
	earlier, later := w.Halves()
	before, ok := meanOf(earlier, MetricFocus, 2)
	if !ok {
		return 0, false
	}
	after, ok := meanOf(later, MetricFocus, 2)
	if !ok {
		return 0, false
	}
	return before - after, true
}

func focusDipRule() Rule {
	return Rule{
		SignalType:  SignalFocusDip,
		Description: "focus ratings eased off in the later part of the window",
		Weight:      0.8,
		Condition: func(w Window) bool {
			drop, ok := focusDrop(w)
			return ok && drop >= focusDipDrop
		},
		Strength: func(w Window) float64 {
			drop, _ := focusDrop(w)
			return clamp01(drop / 2)
		},
	}
}

func recoveryGapRule() Rule {
	return Rule{
		SignalType:  SignalRecoveryGap,
		Description: "few days included meditation or a workout",
		Weight:      0.6,
		Condition: func(w Window) bool {
			return w.Len() >= recoveryMinLogs && w.Fraction(hasRestorativeActivity) < recoveryFrequency
		},
		Strength: func(w Window) float64 {
			return clamp01(1 - w.Fraction(hasRestorativeActivity)/recoveryFrequency)
		},
	}
}

// workoutFrequencies returns the share of workout days in each half of the window
func workoutFrequencies(w Window) (before, after float64) {
	earlier, later := w.Halves()
	return earlier.Fraction(hasWorkout), later.Fraction(hasWorkout)
}

func activityWithdrawalRule() Rule {
	return Rule{
		SignalType:  SignalActivityWithdrawal,
		Description: "workouts became less frequent than earlier in the window",
		Weight:      1.0,
		Condition: func(w Window) bool {
			if w.Len() < withdrawalMinLogs {
				return false
			}
			before, after := workoutFrequencies(w)
			return before >= withdrawalBaseFrequency && after <= before/2
		},
		Strength: func(w Window) float64 {
			before, after := workoutFrequencies(w)
			return clamp01((before - after) / before)
		},
	}
}

func socialDipRule() Rule {
	cond, strength := lowState(MetricSocial)
	return Rule{
		SignalType:  SignalSocialDip,
		Description: "connection ratings sat on the low side",
		Weight:      1.0,
		Condition:   cond,
		Strength:    strength,
	}
}

func lowMoodRule() Rule {
	cond, strength := lowState(MetricMood)
	return Rule{
		SignalType:  SignalLowMood,
		Description: "mood ratings sat on the low side",
		Weight:      1.0,
		Condition:   cond,
		Strength:    strength,
	}
}

func movementDropRule() Rule {
	return Rule{
		SignalType:  SignalMovementDrop,
		Description: "workouts were logged on only a few days",
		Weight:      1.0,
		Condition: func(w Window) bool {
			return w.Len() >= movementMinLogs && w.Fraction(hasWorkout) < movementFrequency
		},
		Strength: func(w Window) float64 {
			return clamp01(1 - w.Fraction(hasWorkout)/movementFrequency)
		},
	}
}

func moodVolatilityRule() Rule {
	return Rule{
		SignalType:  SignalMoodVolatility,
		Description: "mood ratings swung widely between days",
		Weight:      1.2,
		Condition: func(w Window) bool {
			values := w.Values(MetricMood)
			return len(values) >= 4 && stat.Variance(values, nil) >= moodVolatilityVariance
		},
		Strength: func(w Window) float64 {
			return clamp01(stat.Variance(w.Values(MetricMood), nil) / 4)
		},
	}
}

func caffeineLoadRule() Rule {
	return Rule{
		SignalType:  SignalCaffeineLoad,
		Description: "caffeine averaged three or more servings a day",
		Weight:      0.8,
		Condition: func(w Window) bool {
			m, ok := meanOf(w, ExposureCaffeine, minStateSamples)
			return ok && m >= caffeineCupsPerDay
		},
		Strength: func(w Window) float64 {
			m, _ := meanOf(w, ExposureCaffeine, minStateSamples)
			return clamp01((m - 2) / 3)
		},
	}
}

func screenHeavyRule() Rule {
	return Rule{
		SignalType:  SignalScreenHeavy,
		Description: "screen time averaged four hours or more a day",
		Weight:      0.8,
		Condition: func(w Window) bool {
			m, ok := meanOf(w, ExposureScreenTime, minStateSamples)
			return ok && m >= screenMinutesPerDay
		},
		Strength: func(w Window) float64 {
			m, _ := meanOf(w, ExposureScreenTime, minStateSamples)
			return clamp01((m - 180) / 180)
		},
	}
}
