//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives GPIO outputs using Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	order []int
}

// NewRealWriter requests the given offsets as outputs, initially low.
func NewRealWriter(chip string, offsets ...int) (*RealWriter, error) {
	if chip == "" {
		chip = DefaultChip
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: c, lines: make(map[int]*gpiocdev.Line, len(offsets))}
	for _, offset := range offsets {
		if _, dup := w.lines[offset]; dup {
			w.Close()
			return nil, fmt.Errorf("pin %d requested twice", offset)
		}
		line, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request pin %d: %w", offset, err)
		}
		w.lines[offset] = line
		w.order = append(w.order, offset)
	}
	return w, nil
}

// Set drives the line high or low.
func (w *RealWriter) Set(offset int, high bool) error {
	line, ok := w.lines[offset]
	if !ok {
		return fmt.Errorf("pin %d not requested", offset)
	}
	v := 0
	if high {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", offset, err)
	}
	return nil
}

// Close releases GPIO resources.
// Lines are driven low and reconfigured to input with pull-down (matching
// Pi boot defaults) before closing, so LEDs are left dark.
func (w *RealWriter) Close() error {
	var errs []error

	for _, offset := range w.order {
		line := w.lines[offset]
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive pin %d low: %w", offset, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", offset, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", offset, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
