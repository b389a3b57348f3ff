package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supcal/internal/services"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
	at    []time.Time
}

func (l *callLog) add(name string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
	l.at = append(l.at, now)
}

type fakeRollover struct {
	log *callLog
	err error
}

func (f fakeRollover) ProcessDue(_ context.Context, now time.Time) (services.RolloverReport, error) {
	f.log.add("rollover", now)
	return services.RolloverReport{Checked: 1}, f.err
}

type fakeReminders struct{ log *callLog }

func (f fakeReminders) NotifyCritical(_ context.Context, now time.Time) (int, error) {
	f.log.add("reminders", now)
	return 0, nil
}

func TestNew_InvalidSpec(t *testing.T) {
	log := &callLog{}
	_, err := New(Config{RolloverSpec: "not a cron expression"}, fakeRollover{log: log}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollover job")

	_, err = New(Config{RolloverSpec: "@every 1h", ReminderSpec: "61 * * * *"},
		fakeRollover{log: log}, fakeReminders{log: log}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reminder job")
}

func TestScheduler_RegistersConfiguredJobs(t *testing.T) {
	log := &callLog{}
	s, err := New(Config{RolloverSpec: "@every 1h", ReminderSpec: "0 9 * * *"},
		fakeRollover{log: log}, fakeReminders{log: log}, nil)
	require.NoError(t, err)
	assert.Len(t, s.engine.Entries(), 2)

	s, err = New(Config{RolloverSpec: "@every 1h"}, fakeRollover{log: log}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, s.engine.Entries(), 1)
}

func TestScheduler_RunOnceOrdersRolloverFirst(t *testing.T) {
	log := &callLog{}
	s, err := New(Config{RolloverSpec: "@every 1h", ReminderSpec: "0 9 * * *"},
		fakeRollover{log: log, err: errors.New("db down")}, fakeReminders{log: log}, nil)
	require.NoError(t, err)

	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	s.RunOnce()

	assert.Equal(t, []string{"rollover", "reminders"}, log.calls)
	for _, at := range log.at {
		assert.True(t, at.Equal(fixed))
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(Config{RolloverSpec: "@every 1h"}, fakeRollover{log: &callLog{}}, nil, nil)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
