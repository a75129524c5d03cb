// Command wannalog reads an LM35 temperature sensor, drives the status LEDs
// and fan, and publishes telemetry to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/wannalog/internal/actuator"
	"github.com/sweeney/wannalog/internal/alarm"
	"github.com/sweeney/wannalog/internal/command"
	"github.com/sweeney/wannalog/internal/config"
	"github.com/sweeney/wannalog/internal/gpio"
	"github.com/sweeney/wannalog/internal/logger"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/loop"
	"github.com/sweeney/wannalog/internal/metrics"
	"github.com/sweeney/wannalog/internal/mqtt"
	"github.com/sweeney/wannalog/internal/pwm"
	"github.com/sweeney/wannalog/internal/sensor"
	"github.com/sweeney/wannalog/internal/status"
	"github.com/sweeney/wannalog/internal/web"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	broker     string
	httpAddr   string
	logLevel   string
	printState bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "wannalog",
		Short: "Temperature monitor and fan controller with MQTT telemetry.",
		Long: `Samples the LM35 sensor once per period, lights the BLUE, GREEN or RED
status LED, drives the fan in proportion to the temperature and publishes
every reading to MQTT. The auxiliary LED and a daily alarm are controlled
over MQTT. The process restarts itself after a fixed number of cycles.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			if err := applyFlags(cmd, opts, cfg); err != nil {
				return err
			}

			level, _ := logger.ParseLevel(cfg.LogLevel)
			log := logger.New(level)
			defer log.Sync() //nolint:errcheck // stdout sync errors are not actionable

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return supervise(log, func() error {
				return run(ctx, cfg, opts.printState, log, cmd.OutOrStdout())
			}, restart)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+" if present)")
	cmd.Flags().StringVar(&opts.broker, "broker", config.DefaultBroker, "MQTT broker address")
	cmd.Flags().StringVar(&opts.httpAddr, "http", config.DefaultHTTPAddr, "HTTP status address (empty to disable)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&opts.printState, "print-state", false, "Print one reading and the selected mode, then exit")
	return cmd
}

// supervise calls run again after every watchdog restart and returns the
// first other result. Each run builds its state from scratch.
func supervise(log *zap.SugaredLogger, run func() error, restart func(*zap.SugaredLogger) error) error {
	for {
		err := run()
		if !errors.Is(err, loop.ErrRestart) {
			if err != nil {
				log.Errorf("fatal: %v", err)
			}
			return err
		}
		if err := restart(log); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}
}

// applyFlags overrides settings with flags given on the command line.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("broker") {
		cfg.Broker = opts.broker
	}
	if flags.Changed("http") {
		cfg.HTTP = opts.httpAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	return config.Validate(cfg)
}

// hardware holds the opened peripherals.
type hardware struct {
	adc            sensor.ADC
	lines          gpio.Writer
	phaseA, phaseB pwm.Channel
}

func openHardware(cfg *config.Config) (_ *hardware, err error) {
	hw := &hardware{}
	defer func() {
		if err != nil {
			hw.Close()
		}
	}()

	device := fmt.Sprintf("/sys/bus/iio/devices/iio:device%d", cfg.ADC.Device)
	adc, err := sensor.NewRealADC(device, cfg.ADC.Channel)
	if err != nil {
		return nil, fmt.Errorf("init adc: %w", err)
	}
	hw.adc = adc

	lines, err := gpio.NewRealWriter(cfg.GPIO.Chip, cfg.Pins().Offsets()...)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	hw.lines = lines

	phaseA, err := pwm.NewRealChannel(cfg.PWM.PinA, cfg.PWM.FrequencyHz)
	if err != nil {
		return nil, fmt.Errorf("init pwm phase A: %w", err)
	}
	hw.phaseA = phaseA

	phaseB, err := pwm.NewRealChannel(cfg.PWM.PinB, cfg.PWM.FrequencyHz)
	if err != nil {
		return nil, fmt.Errorf("init pwm phase B: %w", err)
	}
	hw.phaseB = phaseB
	return hw, nil
}

// Close releases every opened peripheral.
func (h *hardware) Close() {
	if h.phaseB != nil {
		h.phaseB.Close()
	}
	if h.phaseA != nil {
		h.phaseA.Close()
	}
	if h.lines != nil {
		h.lines.Close()
	}
	if h.adc != nil {
		h.adc.Close()
	}
}

// broker is the MQTT side of the daemon.
type broker interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
	Connect(handler mqtt.Handler, aux func() bool, timeout time.Duration) error
}

func run(ctx context.Context, cfg *config.Config, printState bool, log *zap.SugaredLogger, out io.Writer) error {
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	reader, err := sensor.NewReader(hw.adc, cfg.LinearCalibration(), cfg.Samples)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	if printState {
		return printReading(out, reader)
	}

	client := mqtt.NewRealClient(mqtt.Options{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password,
		Topics:   cfg.Topics,
		Logger:   log,
	})

	ticker := time.NewTicker(cfg.Period)
	defer ticker.Stop()

	return serve(ctx, cfg, log, hw, reader, client, ticker.C)
}

func printReading(out io.Writer, reader loop.Sensor) error {
	s, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read sensor: %w", err)
	}
	ind, duty := logic.Select(s.Celsius)
	fmt.Fprintf(out, "ADC: %d (%.2f mV), LM35: %.2f mV, temperature: %.2f C, LED: %s, fan: %.2f%%\n",
		s.Raw, s.Millivolts, s.SensorMillivolts, s.Celsius, ind.Color(), duty)
	return nil
}

// serve wires the components and runs the control loop until ctx is done
// or the watchdog asks for a restart. Outputs are switched off on return.
func serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, hw *hardware, reader loop.Sensor, client broker, tick <-chan time.Time) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	m := metrics.New()
	tracker := status.NewTracker(time.Now(), status.Config{
		PeriodMs:     cfg.Period.Milliseconds(),
		RestartAfter: cfg.RestartAfter,
		Samples:      cfg.Samples,
		Broker:       cfg.Broker,
		HTTPAddr:     cfg.HTTP,
		Timezone:     cfg.Timezone,
	})
	sched := alarm.NewScheduler()

	drv, err := actuator.New(hw.lines, hw.phaseA, hw.phaseB, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init actuator: %w", err)
	}
	defer func() {
		if err := drv.Off(); err != nil {
			log.Errorf("switch outputs off: %v", err)
		}
	}()

	interp := command.New(cfg.Topics, tracker, drv, sched, client, log)
	interp.OnAlarmRejected = m.AlarmRejected

	if c, ok := client.(interface {
		OnPublishError(func(topic string, err error))
	}); ok {
		c.OnPublishError(func(string, error) { m.PublishFailed() })
	}
	if err := client.Connect(interp.Handle, tracker.Aux, mqtt.DefaultConnectTimeout); err != nil {
		// paho keeps retrying; telemetry is buffered meanwhile.
		log.Warnf("mqtt: %v, retrying in background", err)
	}
	defer client.Close()

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, sched, m)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(sctx)
		}()
		log.Infof("http status server listening on %s", cfg.HTTP)
	}

	l, err := loop.New(loop.Deps{
		Sensor:       reader,
		Actuator:     drv,
		Alarm:        sched,
		Tracker:      tracker,
		Publisher:    client,
		Connection:   client,
		Metrics:      m,
		Log:          log,
		Location:     loc,
		RestartAfter: cfg.RestartAfter,
	})
	if err != nil {
		return err
	}

	log.Infof("started: period=%v broker=%s client=%s restart_after=%d", cfg.Period, cfg.Broker, cfg.ClientID, cfg.RestartAfter)
	return l.Run(ctx, tick)
}
