package alarm

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)

func TestUnsetNeverMatches(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	_, ok := s.Get()
	require.False(t, ok)
	require.False(t, s.Check("07.30", t0))
	require.False(t, s.Check("", t0), "empty time must not match an unset alarm")
	require.Equal(t, StateUnset, s.Snapshot().State)
}

func TestSetAndMatch(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	s.Set("07.30")

	got, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "07.30", got)

	require.False(t, s.Check("07.29", t0))
	require.True(t, s.Check("07.30", t0))
	require.Equal(t, 1, s.Snapshot().Triggers)
	require.Equal(t, t0, s.Snapshot().LastTrigger)
}

func TestMatchIsStringEquality(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	s.Set("7.30")
	require.False(t, s.Check("07.30", t0), "7.30 and 07.30 differ as strings")
}

func TestMatchesEveryCycleWithinMinute(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	s.Set("07.30")
	for i := 0; i < 60; i++ {
		require.True(t, s.Check("07.30", t0.Add(time.Duration(i)*time.Second)))
	}
	require.False(t, s.Check("07.31", t0.Add(time.Minute)))
	require.Equal(t, 60, s.Snapshot().Triggers)
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	s.Set("07.30")
	s.Set("18.45")

	got, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "18.45", got)
	require.False(t, s.Check("07.30", t0))
	require.True(t, s.Check("18.45", t0))
}

func TestConcurrentSetAndCheck(t *testing.T) {
	t.Parallel()

	s := NewScheduler()
	values := []string{"01.01", "22.22"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Set(values[i%2])
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			got, ok := s.Get()
			if ok && got != values[0] && got != values[1] {
				panic(fmt.Sprintf("torn alarm value %q", got))
			}
			s.Check(values[i%2], t0)
		}
	}()
	wg.Wait()
}
