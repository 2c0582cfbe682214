package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingReminders struct {
	calls atomic.Int32
	err   error
}

func (c *countingReminders) SendReminders(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestReminderWorker_RunsImmediatelyAndOnTick(t *testing.T) {
	r := &countingReminders{err: errors.New("database is locked")}
	w := NewReminderWorker(r, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestReminderWorker_DefaultInterval(t *testing.T) {
	w := NewReminderWorker(&countingReminders{}, 0, testLogger())
	assert.Equal(t, 30*time.Minute, w.interval)
}
