package actuator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sweeney/wannalog/internal/gpio"
	"github.com/sweeney/wannalog/internal/logic"
	"github.com/sweeney/wannalog/internal/pwm"
)

type rig struct {
	lines *gpio.FakeWriter
	a, b  *pwm.FakeChannel
	pins  Pins
	d     *Driver
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		lines: gpio.NewFakeWriter(),
		a:     pwm.NewFakeChannel(),
		b:     pwm.NewFakeChannel(),
		pins:  DefaultPins(),
	}
	d, err := New(r.lines, r.a, r.b, r.pins)
	require.NoError(t, err)
	r.d = d
	return r
}

func (r *rig) lit() []int {
	return r.lines.High(r.pins.Cold, r.pins.Normal, r.pins.Hot)
}

func TestNewRejectsBadWiring(t *testing.T) {
	t.Parallel()

	pins := DefaultPins()
	pins.Hot = pins.Cold
	_, err := New(gpio.NewFakeWriter(), pwm.NewFakeChannel(), pwm.NewFakeChannel(), pins)
	require.Error(t, err)

	_, err = New(nil, pwm.NewFakeChannel(), pwm.NewFakeChannel(), DefaultPins())
	require.Error(t, err)
}

func TestApplyIndicatorLightsSelectedLine(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	_, ok := r.d.Active()
	require.False(t, ok)

	tests := []struct {
		ind  logic.Indicator
		line int
	}{
		{logic.IndicatorCold, r.pins.Cold},
		{logic.IndicatorNormal, r.pins.Normal},
		{logic.IndicatorHot, r.pins.Hot},
	}
	for _, tt := range tests {
		require.NoError(t, r.d.ApplyIndicator(tt.ind))
		require.Equal(t, []int{tt.line}, r.lit(), "indicator %s", tt.ind)
		got, ok := r.d.Active()
		require.True(t, ok)
		require.Equal(t, tt.ind, got)
	}
}

func TestApplyIndicatorClearsBeforeSetting(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyIndicator(logic.IndicatorHot))
	r.lines.Writes = nil

	require.NoError(t, r.d.ApplyIndicator(logic.IndicatorCold))
	require.Equal(t, []gpio.Write{
		{Offset: r.pins.Cold, High: false},
		{Offset: r.pins.Normal, High: false},
		{Offset: r.pins.Hot, High: false},
		{Offset: r.pins.Cold, High: true},
	}, r.lines.Writes)
}

func TestApplyIndicatorMutualExclusionRandomSequence(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ind := logic.Indicators[rng.Intn(len(logic.Indicators))]
		require.NoError(t, r.d.ApplyIndicator(ind))
		require.Len(t, r.lit(), 1, "step %d", i)
	}
}

func TestApplyIndicatorErrorClearsActive(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyIndicator(logic.IndicatorNormal))
	r.lines.SetError = errors.New("line fault")

	require.Error(t, r.d.ApplyIndicator(logic.IndicatorHot))
	_, ok := r.d.Active()
	require.False(t, ok)
}

func TestApplyDutyStopForcesBothPhasesLow(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyDuty(50))
	require.NoError(t, r.d.ApplyDuty(0))

	require.Equal(t, 0.0, r.a.Current())
	require.Equal(t, 0.0, r.b.Current())
	require.Equal(t, 1, r.a.Lows)
	require.Equal(t, 2, r.b.Lows)
	require.False(t, r.d.Running())
}

func TestApplyDutyForward(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyDuty(30))
	require.Equal(t, 30.0, r.a.Current())
	require.Equal(t, 0.0, r.b.Current())
	require.Equal(t, 1, r.b.Lows)
	require.True(t, r.d.Running())
	require.Equal(t, 30.0, r.d.Duty())
}

func TestApplyDutyClamps(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyDuty(250))
	require.Equal(t, 100.0, r.a.Current())
	require.Equal(t, 100.0, r.d.Duty())

	require.NoError(t, r.d.ApplyDuty(-20))
	require.Equal(t, 0.0, r.a.Current())
}

func TestApplyDutyError(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	r.a.SetError = errors.New("pwm fault")
	require.Error(t, r.d.ApplyDuty(40))
	require.Equal(t, 0.0, r.d.Duty())
}

func TestSetAux(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.SetAux(true))
	require.True(t, r.lines.Level(r.pins.Aux))
	require.Empty(t, r.lit(), "aux must not light an indicator")

	require.NoError(t, r.d.SetAux(false))
	require.False(t, r.lines.Level(r.pins.Aux))
}

func TestOff(t *testing.T) {
	t.Parallel()
	r := newRig(t)

	require.NoError(t, r.d.ApplyIndicator(logic.IndicatorHot))
	require.NoError(t, r.d.ApplyDuty(100))
	require.NoError(t, r.d.SetAux(true))

	require.NoError(t, r.d.Off())
	require.Empty(t, r.lit())
	require.False(t, r.lines.Level(r.pins.Aux))
	require.False(t, r.d.Running())
	_, ok := r.d.Active()
	require.False(t, ok)
}
