// Package actuator applies controller decisions to the status LEDs and the
// fan bridge. It owns the invariants that at most one indicator LED is lit
// and that the duty cycle handed to the hardware is within [0, 100].
package actuator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/wannalog/internal/gpio"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/pwm"
)

// Pins maps each output to a GPIO line offset.
type Pins struct {
	Cold   int
	Normal int
	Hot    int
	Aux    int
}

// DefaultPins returns the board wiring.
func DefaultPins() Pins {
	return Pins{
		Cold:   gpio.DefaultPinCold,
		Normal: gpio.DefaultPinNormal,
		Hot:    gpio.DefaultPinHot,
		Aux:    gpio.DefaultPinAux,
	}
}

// Offsets returns every pin in request order.
func (p Pins) Offsets() []int {
	return []int{p.Cold, p.Normal, p.Hot, p.Aux}
}

// Validate rejects wiring where two outputs share a line.
func (p Pins) Validate() error {
	seen := make(map[int]bool, 4)
	for _, o := range p.Offsets() {
		if o < 0 {
			return fmt.Errorf("pin %d is negative", o)
		}
		if seen[o] {
			return fmt.Errorf("pin %d assigned twice", o)
		}
		seen[o] = true
	}
	return nil
}

func (p Pins) indicator(i logic.Indicator) int {
	switch i {
	case logic.IndicatorCold:
		return p.Cold
	case logic.IndicatorNormal:
		return p.Normal
	default:
		return p.Hot
	}
}

// Driver drives the indicator LEDs, the auxiliary LED and the fan.
type Driver struct {
	mu     sync.Mutex
	lines  gpio.Writer
	phaseA pwm.Channel
	phaseB pwm.Channel
	pins   Pins

	active    logic.Indicator
	hasActive bool
	duty      float64
	aux       bool
}

// New creates a Driver. All outputs are assumed low.
func New(lines gpio.Writer, phaseA, phaseB pwm.Channel, pins Pins) (*Driver, error) {
	if lines == nil || phaseA == nil || phaseB == nil {
		return nil, errors.New("actuator: nil output")
	}
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("actuator: %w", err)
	}
	return &Driver{lines: lines, phaseA: phaseA, phaseB: phaseB, pins: pins}, nil
}

// ApplyIndicator lights exactly one indicator LED.
// All three lines are driven low first, then the selected one high.
func (d *Driver) ApplyIndicator(i logic.Indicator) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hasActive = false
	for _, ind := range logic.Indicators {
		if err := d.lines.Set(d.pins.indicator(ind), false); err != nil {
			return fmt.Errorf("clear %s led: %w", ind, err)
		}
	}
	if err := d.lines.Set(d.pins.indicator(i), true); err != nil {
		return fmt.Errorf("set %s led: %w", i, err)
	}
	d.active = i
	d.hasActive = true
	return nil
}

// ApplyDuty runs the fan forward at duty percent, or stops it when duty is 0.
// Stopping forces both bridge phases low; running holds phase B low and
// drives phase A with the clamped duty.
func (d *Driver) ApplyDuty(duty float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if duty == 0 {
		if err := d.phaseA.Low(); err != nil {
			return fmt.Errorf("stop phase A: %w", err)
		}
		if err := d.phaseB.Low(); err != nil {
			return fmt.Errorf("stop phase B: %w", err)
		}
		d.duty = 0
		return nil
	}

	duty = logic.ClampDuty(duty)
	if err := d.phaseB.Low(); err != nil {
		return fmt.Errorf("hold phase B low: %w", err)
	}
	if err := d.phaseA.SetDuty(duty); err != nil {
		return fmt.Errorf("set phase A duty: %w", err)
	}
	d.duty = duty
	return nil
}

// SetAux drives the auxiliary LED.
func (d *Driver) SetAux(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.lines.Set(d.pins.Aux, on); err != nil {
		return fmt.Errorf("set aux led: %w", err)
	}
	d.aux = on
	return nil
}

// Active returns the lit indicator. ok is false before the first successful
// ApplyIndicator or after a failed one.
func (d *Driver) Active() (logic.Indicator, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active, d.hasActive
}

// Duty returns the duty cycle last applied to the hardware.
func (d *Driver) Duty() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.duty
}

// Running reports whether the fan is driven.
func (d *Driver) Running() bool {
	return d.Duty() > 0
}

// Off stops the fan and darkens every LED.
func (d *Driver) Off() error {
	var errs []error
	if err := d.ApplyDuty(0); err != nil {
		errs = append(errs, err)
	}

	d.mu.Lock()
	for _, ind := range logic.Indicators {
		if err := d.lines.Set(d.pins.indicator(ind), false); err != nil {
			errs = append(errs, err)
		}
	}
	d.hasActive = false
	d.mu.Unlock()

	if err := d.SetAux(false); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
