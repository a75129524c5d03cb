//go:build !linux

package sensor

import "errors"

// DefaultIIODevice is unused on non-Linux platforms.
const DefaultIIODevice = ""

// RealADC is not available on non-Linux platforms.
type RealADC struct{}

// NewRealADC returns an error on non-Linux platforms.
func NewRealADC(device string, channel int) (*RealADC, error) {
	return nil, errors.New("adc: not supported on this platform (requires Linux)")
}

// ReadRaw is not implemented on non-Linux platforms.
func (a *RealADC) ReadRaw() (int, error) {
	return 0, errors.New("adc: not supported")
}

// Close is not implemented on non-Linux platforms.
func (a *RealADC) Close() error {
	return nil
}
