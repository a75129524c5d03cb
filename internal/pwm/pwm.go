// Package pwm drives pulse-width modulated outputs.
// The real implementation drives hardware PWM pins through periph.io.
package pwm

// Channel is one PWM output.
type Channel interface {
	// SetDuty drives the output with the given duty cycle in percent.
	SetDuty(percent float64) error

	// Low forces the output continuously low.
	Low() error

	// Close disables the output and releases it.
	Close() error
}

// Defaults for the fan bridge. GPIO12 and GPIO13 are the two hardware PWM
// pins of a Raspberry Pi header.
const (
	DefaultPinA        = "GPIO12"
	DefaultPinB        = "GPIO13"
	DefaultFrequencyHz = 1000
)
