//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultIIODevice is the sysfs directory of the first IIO device.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// RealADC reads raw conversions from a Linux IIO voltage channel.
type RealADC struct {
	path string
	f    *os.File
}

// NewRealADC opens in_voltage<channel>_raw of the given IIO device directory.
func NewRealADC(device string, channel int) (*RealADC, error) {
	if device == "" {
		device = DefaultIIODevice
	}
	path := filepath.Join(device, fmt.Sprintf("in_voltage%d_raw", channel))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open adc channel %d: %w", channel, err)
	}
	return &RealADC{path: path, f: f}, nil
}

// ReadRaw triggers one conversion by re-reading the sysfs attribute.
func (a *RealADC) ReadRaw() (int, error) {
	buf := make([]byte, 16)
	n, err := a.f.ReadAt(buf, 0)
	if n == 0 && err != nil {
		return 0, fmt.Errorf("read %s: %w", a.path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", a.path, err)
	}
	return v, nil
}

// Close releases the sysfs file.
func (a *RealADC) Close() error {
	return a.f.Close()
}
