// Package logic contains the pure decision logic of the controller.
// This package has NO external dependencies (no GPIO, PWM, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

// Indicator is the state of the three-color status LED.
type Indicator int

const (
	IndicatorCold Indicator = iota
	IndicatorNormal
	IndicatorHot
)

// Temperature thresholds in degrees Celsius.
const (
	ColdBelow   = 25.0 // below: COLD
	HotAbove    = 30.0 // above: HOT
	FanStartAt  = 25.0 // at or below: fan stopped
	FanFullAt   = 35.0 // at or above: fan at 100%
	DutyPerStep = 10.0 // percent per degree above FanStartAt
)

// Indicators lists every indicator in line order.
var Indicators = []Indicator{IndicatorCold, IndicatorNormal, IndicatorHot}

// String returns the indicator name.
func (i Indicator) String() string {
	switch i {
	case IndicatorCold:
		return "COLD"
	case IndicatorNormal:
		return "NORMAL"
	case IndicatorHot:
		return "HOT"
	default:
		return "UNKNOWN"
	}
}

// Color returns the LED color published in telemetry.
func (i Indicator) Color() string {
	switch i {
	case IndicatorCold:
		return "BLUE"
	case IndicatorNormal:
		return "GREEN"
	case IndicatorHot:
		return "RED"
	default:
		return ""
	}
}

// Select maps a temperature to the indicator state and the fan duty cycle.
// The indicator and duty thresholds are independent of each other.
func Select(celsius float64) (Indicator, float64) {
	return SelectIndicator(celsius), Duty(celsius)
}

// SelectIndicator returns the indicator for a temperature.
func SelectIndicator(celsius float64) Indicator {
	switch {
	case celsius < ColdBelow:
		return IndicatorCold
	case celsius <= HotAbove:
		return IndicatorNormal
	default:
		return IndicatorHot
	}
}

// Duty returns the fan duty cycle in percent for a temperature.
// 25.0 maps to 0 (stopped), 35.0 and above map to 100.
func Duty(celsius float64) float64 {
	switch {
	case celsius <= FanStartAt:
		return 0
	case celsius <= FanFullAt:
		return (celsius - FanStartAt) * DutyPerStep
	default:
		return 100
	}
}

// ClampDuty limits a duty cycle to [0, 100].
func ClampDuty(duty float64) float64 {
	if duty < 0 {
		return 0
	}
	if duty > 100 {
		return 100
	}
	return duty
}
