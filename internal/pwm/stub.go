//go:build !linux

package pwm

import "errors"

// RealChannel is not available on non-Linux platforms.
type RealChannel struct{}

// NewRealChannel returns an error on non-Linux platforms.
func NewRealChannel(pin string, frequencyHz int) (*RealChannel, error) {
	return nil, errors.New("pwm: not supported on this platform (requires Linux)")
}

// SetDuty is not implemented on non-Linux platforms.
func (c *RealChannel) SetDuty(percent float64) error {
	return errors.New("pwm: not supported")
}

// Low is not implemented on non-Linux platforms.
func (c *RealChannel) Low() error {
	return errors.New("pwm: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChannel) Close() error {
	return nil
}
