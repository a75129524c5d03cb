// Package config loads the daemon settings from a YAML file and fills in
// defaults for everything the file leaves out.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/wannalog/internal/actuator"
	"github.com/sweeney/wannalog/internal/gpio"
	"github.com/sweeney/wannalog/internal/logger"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/mqtt"
	"github.com/sweeney/wannalog/internal/pwm"
	"github.com/sweeney/wannalog/internal/sensor"
)

const (
	// DefaultConfigFilename is read when no path is given.
	DefaultConfigFilename = "wannalog.yaml"

	DefaultBroker   = "tcp://broker.emqx.io:1883"
	DefaultPeriod   = time.Second
	DefaultHTTPAddr = ":8080"
	DefaultLogLevel = "info"
	DefaultTimezone = "Local"

	// DefaultIIODevice and DefaultADCChannel select in_voltage6_raw on
	// iio:device0, the channel the sensor is wired to.
	DefaultIIODevice  = 0
	DefaultADCChannel = 6

	clientIDPrefix = "wannalog-"
)

// ADC selects the IIO input the sensor is wired to.
type ADC struct {
	Device  int `yaml:"device"`
	Channel int `yaml:"channel"`
}

// Calibration describes the linear ADC transfer.
type Calibration struct {
	VrefMV float64 `yaml:"vref_mv"`
	Bits   int     `yaml:"bits"`
}

// GPIO names the chip and line offsets of the LEDs.
type GPIO struct {
	Chip   string `yaml:"chip"`
	Cold   int    `yaml:"cold"`
	Normal int    `yaml:"normal"`
	Hot    int    `yaml:"hot"`
	Aux    int    `yaml:"aux"`
}

// PWM names the hardware PWM pins driving the two phases of the fan bridge.
type PWM struct {
	PinA        string `yaml:"pin_a"`
	PinB        string `yaml:"pin_b"`
	FrequencyHz int    `yaml:"frequency_hz"`
}

// Config holds every daemon setting.
type Config struct {
	// Broker is the MQTT broker URL.
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	Topics mqtt.Topics `yaml:"topics"`

	// Period is the control cycle interval.
	Period time.Duration `yaml:"period"`
	// RestartAfter is the watchdog limit in cycles. Negative disables it.
	RestartAfter int `yaml:"restart_after"`
	// Samples is the number of ADC conversions averaged per reading.
	Samples int `yaml:"samples"`

	ADC         ADC         `yaml:"adc"`
	Calibration Calibration `yaml:"calibration"`
	GPIO        GPIO        `yaml:"gpio"`
	PWM         PWM         `yaml:"pwm"`

	// HTTP is the status server address; empty disables it.
	HTTP     string `yaml:"http"`
	LogLevel string `yaml:"log_level"`
	// Timezone is an IANA zone name, "Local" or "UTC".
	Timezone string `yaml:"timezone"`
}

var (
	errConfigIsNotSet = errors.New("configuration is not set")
	errBrokerRequired = errors.New("broker must be provided")
)

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Broker:       DefaultBroker,
		Topics:       mqtt.DefaultTopics(),
		Period:       DefaultPeriod,
		RestartAfter: logic.DefaultRestartAfter,
		Samples:      sensor.DefaultSamples,
		ADC:          ADC{Device: DefaultIIODevice, Channel: DefaultADCChannel},
		Calibration:  Calibration{VrefMV: sensor.DefaultVrefMV, Bits: sensor.DefaultADCWidth},
		GPIO: GPIO{
			Chip:   gpio.DefaultChip,
			Cold:   gpio.DefaultPinCold,
			Normal: gpio.DefaultPinNormal,
			Hot:    gpio.DefaultPinHot,
			Aux:    gpio.DefaultPinAux,
		},
		PWM: PWM{
			PinA:        pwm.DefaultPinA,
			PinB:        pwm.DefaultPinB,
			FrequencyHz: pwm.DefaultFrequencyHz,
		},
		HTTP:     DefaultHTTPAddr,
		LogLevel: DefaultLogLevel,
		Timezone: DefaultTimezone,
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path means DefaultConfigFilename, which may be absent;
// an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := Default()
	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings and fills defaults for zero values that
// have no meaning of their own.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Broker == "" {
		return errBrokerRequired
	}
	u, err := url.Parse(cfg.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid broker url %q", cfg.Broker)
	}

	if cfg.ClientID == "" {
		cfg.ClientID = clientIDPrefix + uuid.NewString()
	}

	def := mqtt.DefaultTopics()
	fillString(&cfg.Topics.Telemetry, def.Telemetry)
	fillString(&cfg.Topics.Toggle, def.Toggle)
	fillString(&cfg.Topics.ToggleStatus, def.ToggleStatus)
	fillString(&cfg.Topics.AlarmSet, def.AlarmSet)
	if cfg.Topics.Toggle == cfg.Topics.AlarmSet {
		return fmt.Errorf("toggle and alarm_set topics must differ, both are %q", cfg.Topics.Toggle)
	}

	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.RestartAfter == 0 {
		cfg.RestartAfter = logic.DefaultRestartAfter
	}
	if cfg.Samples <= 0 {
		cfg.Samples = sensor.DefaultSamples
	}

	if cfg.ADC.Device < 0 || cfg.ADC.Channel < 0 {
		return fmt.Errorf("invalid adc device %d channel %d", cfg.ADC.Device, cfg.ADC.Channel)
	}
	if err := cfg.LinearCalibration().Validate(); err != nil {
		return err
	}

	fillString(&cfg.GPIO.Chip, gpio.DefaultChip)
	if err := cfg.Pins().Validate(); err != nil {
		return fmt.Errorf("gpio: %w", err)
	}

	if cfg.PWM.FrequencyHz <= 0 {
		cfg.PWM.FrequencyHz = pwm.DefaultFrequencyHz
	}
	fillString(&cfg.PWM.PinA, pwm.DefaultPinA)
	fillString(&cfg.PWM.PinB, pwm.DefaultPinB)
	if cfg.PWM.PinA == cfg.PWM.PinB {
		return fmt.Errorf("pwm: pin_a and pin_b must differ, both are %s", cfg.PWM.PinA)
	}

	fillString(&cfg.LogLevel, DefaultLogLevel)
	if _, ok := logger.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	fillString(&cfg.Timezone, DefaultTimezone)
	if _, err := cfg.Location(); err != nil {
		return err
	}

	return nil
}

// Pins returns the actuator wiring.
func (c *Config) Pins() actuator.Pins {
	return actuator.Pins{Cold: c.GPIO.Cold, Normal: c.GPIO.Normal, Hot: c.GPIO.Hot, Aux: c.GPIO.Aux}
}

// LinearCalibration returns the ADC calibration.
func (c *Config) LinearCalibration() sensor.LinearCalibration {
	return sensor.LinearCalibration{VrefMillivolts: c.Calibration.VrefMV, Bits: c.Calibration.Bits}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func fillString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
