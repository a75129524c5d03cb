// Package sensor reads the LM35 temperature sensor through an ADC.
// The real ADC uses the Linux IIO sysfs interface.
// The fake ADC allows testing without hardware.
package sensor

import (
	"errors"
	"fmt"
)

// DefaultSamples is the number of raw conversions averaged per reading.
const DefaultSamples = 64

// Transfer function of the analog front end.
const (
	OpAmpGain       = 2.0  // op-amp output = 2 x LM35 output
	MillivoltsPerC  = 10.0 // LM35: 10 mV per degree Celsius
	DefaultVrefMV   = 1100
	DefaultADCWidth = 12
)

// ErrNoCalibration is returned when a Reader is built without a calibration.
var ErrNoCalibration = errors.New("sensor: calibration not available")

// ADC performs single raw analog-to-digital conversions.
type ADC interface {
	// ReadRaw returns one raw conversion.
	ReadRaw() (int, error)

	// Close releases ADC resources.
	Close() error
}

// Calibration converts a raw ADC value to millivolts.
type Calibration interface {
	RawToMillivolts(raw int) float64
}

// CalibrationFunc adapts a plain function to Calibration.
type CalibrationFunc func(raw int) float64

// RawToMillivolts calls f(raw).
func (f CalibrationFunc) RawToMillivolts(raw int) float64 {
	return f(raw)
}

// LinearCalibration scales raw values linearly against a reference voltage.
type LinearCalibration struct {
	VrefMillivolts float64
	Bits           int
}

// RawToMillivolts converts a raw reading to millivolts.
func (c LinearCalibration) RawToMillivolts(raw int) float64 {
	full := float64(int(1)<<c.Bits - 1)
	return float64(raw) * c.VrefMillivolts / full
}

// Validate checks that the calibration can be used.
func (c LinearCalibration) Validate() error {
	if c.VrefMillivolts <= 0 {
		return fmt.Errorf("calibration: vref must be positive, got %v", c.VrefMillivolts)
	}
	if c.Bits < 1 || c.Bits > 24 {
		return fmt.Errorf("calibration: bits must be in [1,24], got %d", c.Bits)
	}
	return nil
}

// Sample is one oversampled reading and the values derived from it.
type Sample struct {
	Raw              int     // mean of the raw conversions
	Millivolts       float64 // calibrated ADC input voltage
	SensorMillivolts float64 // LM35 output voltage
	Celsius          float64
}

// Reader produces temperature samples.
type Reader struct {
	adc     ADC
	cal     Calibration
	samples int
}

// NewReader creates a Reader that averages n conversions per sample.
// It fails if the calibration is missing.
func NewReader(adc ADC, cal Calibration, n int) (*Reader, error) {
	if adc == nil {
		return nil, errors.New("sensor: adc is nil")
	}
	if cal == nil {
		return nil, ErrNoCalibration
	}
	if n <= 0 {
		n = DefaultSamples
	}
	return &Reader{adc: adc, cal: cal, samples: n}, nil
}

// Read performs the oversampled conversion and derives the temperature.
func (r *Reader) Read() (Sample, error) {
	sum := 0
	for i := 0; i < r.samples; i++ {
		v, err := r.adc.ReadRaw()
		if err != nil {
			return Sample{}, fmt.Errorf("read adc: %w", err)
		}
		sum += v
	}
	raw := sum / r.samples

	mv := r.cal.RawToMillivolts(raw)
	sensorMV := mv / OpAmpGain
	return Sample{
		Raw:              raw,
		Millivolts:       mv,
		SensorMillivolts: sensorMV,
		Celsius:          sensorMV / MillivoltsPerC,
	}, nil
}

// RawForCelsius returns the raw value that a LinearCalibration maps closest
// to the given temperature. Used to script fake ADCs.
func RawForCelsius(cal LinearCalibration, celsius float64) int {
	mv := celsius * MillivoltsPerC * OpAmpGain
	full := float64(int(1)<<cal.Bits - 1)
	return int(mv*full/cal.VrefMillivolts + 0.5)
}
