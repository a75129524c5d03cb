//go:build linux

package pwm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func TestRealChannelLifecycle(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO12", Num: 12, L: gpio.High}

	c, err := newChannel(p, DefaultFrequencyHz)
	require.NoError(t, err)
	require.Equal(t, gpio.Low, p.Read(), "channel starts low")

	require.NoError(t, c.SetDuty(30))
	require.Equal(t, gpio.Duty(5033165), p.D, "30% of DutyMax")
	require.Equal(t, 1000*physic.Hertz, p.F)

	require.NoError(t, c.SetDuty(100))
	require.Equal(t, gpio.DutyMax, p.D)

	require.NoError(t, c.Low())
	require.Equal(t, gpio.Low, p.Read())

	require.NoError(t, c.Close())
	require.Equal(t, gpio.Low, p.Read())
}

func TestRealChannelInvalidFrequency(t *testing.T) {
	_, err := newChannel(&gpiotest.Pin{N: "GPIO12"}, 0)
	require.Error(t, err)
}

