// Package gpio provides digital output lines with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives digital output lines.
type Writer interface {
	// Set drives the line at offset high (true) or low (false).
	Set(offset int, high bool) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (chip line offsets)
const (
	DefaultPinCold   = 5  // blue LED
	DefaultPinNormal = 18 // green LED
	DefaultPinHot    = 19 // red LED
	DefaultPinAux    = 2  // remotely toggled LED
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"
