package logic

import (
	"regexp"
	"time"
)

// AlarmLayout formats a time as the hour.minute string used for alarm matching.
const AlarmLayout = "15.04"

// DisplayLayout is the human readable timestamp published in telemetry.
const DisplayLayout = time.ANSIC

// MaxAlarmPayload is the largest alarm-set payload that is considered at all.
// Longer payloads are rejected instead of being truncated.
const MaxAlarmPayload = 32

// alarmPattern accepts two 1-2 digit groups separated by a period.
// Numerically invalid values such as "25.00" or "99.99" still match.
var alarmPattern = regexp.MustCompile(`^\d{1,2}\.\d{1,2}$`)

// AlarmVerdict is the outcome of validating an alarm-set payload.
type AlarmVerdict string

const (
	AlarmValid     AlarmVerdict = "VALID"
	AlarmMalformed AlarmVerdict = "MALFORMED"
	AlarmTooLong   AlarmVerdict = "TOO_LONG"
)

// AlarmValidation is the tagged result of ValidateAlarmTime.
type AlarmValidation struct {
	Verdict AlarmVerdict
	Value   string // payload as received; only meaningful when Verdict is AlarmValid
}

// OK reports whether the payload may be stored as the alarm time.
func (v AlarmValidation) OK() bool {
	return v.Verdict == AlarmValid
}

// ValidateAlarmTime checks a raw alarm-set payload against the hour.minute pattern.
func ValidateAlarmTime(payload []byte) AlarmValidation {
	if len(payload) > MaxAlarmPayload {
		return AlarmValidation{Verdict: AlarmTooLong}
	}
	if !alarmPattern.Match(payload) {
		return AlarmValidation{Verdict: AlarmMalformed}
	}
	return AlarmValidation{Verdict: AlarmValid, Value: string(payload)}
}

// FormatAlarmClock returns the hour.minute string for t, zero padded, 24-hour.
func FormatAlarmClock(t time.Time) string {
	return t.Format(AlarmLayout)
}

// FormatDisplayTime returns the timestamp string published in telemetry.
func FormatDisplayTime(t time.Time) string {
	return t.Format(DisplayLayout)
}
