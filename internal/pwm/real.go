//go:build linux

package pwm

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// hostInit loads the periph host drivers once per process.
var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// RealChannel drives one hardware PWM capable pin.
type RealChannel struct {
	pin  gpio.PinIO
	freq physic.Frequency
}

// NewRealChannel looks up the named pin (for example "GPIO12") and drives
// it low until the first SetDuty.
func NewRealChannel(pin string, frequencyHz int) (*RealChannel, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("pwm: host init: %w", err)
	}
	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("pwm: unknown pin %q", pin)
	}
	return newChannel(p, frequencyHz)
}

func newChannel(p gpio.PinIO, frequencyHz int) (*RealChannel, error) {
	if frequencyHz <= 0 {
		return nil, fmt.Errorf("pwm: invalid frequency %d", frequencyHz)
	}
	c := &RealChannel{pin: p, freq: physic.Frequency(frequencyHz) * physic.Hertz}
	if err := c.Low(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDuty drives the pin with the given duty cycle in percent.
func (c *RealChannel) SetDuty(percent float64) error {
	duty := gpio.Duty(math.Round(percent * float64(gpio.DutyMax) / 100))
	if err := c.pin.PWM(duty, c.freq); err != nil {
		return fmt.Errorf("pwm %s: %w", c.pin.Name(), err)
	}
	return nil
}

// Low forces the output continuously low.
func (c *RealChannel) Low() error {
	if err := c.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("pwm %s low: %w", c.pin.Name(), err)
	}
	return nil
}

// Close stops the PWM generator and leaves the pin low.
func (c *RealChannel) Close() error {
	var errs []error
	if err := c.pin.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("pwm %s halt: %w", c.pin.Name(), err))
	}
	if err := c.Low(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
