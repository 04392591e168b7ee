package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

func init() {
	logger.Init()
}

type fakeTrigger struct {
	calls    atomic.Int32
	err      error
	triggers chan string
}

func (f *fakeTrigger) TriggerScraping(ctx context.Context, trigger string) (service.TriggerResult, error) {
	f.calls.Add(1)
	if f.triggers != nil {
		select {
		case f.triggers <- trigger:
		default:
		}
	}
	return service.TriggerResult{Message: "ok"}, f.err
}

func TestRunNowUsesScheduledTrigger(t *testing.T) {
	ft := &fakeTrigger{triggers: make(chan string, 1)}
	s := New(ft, "0 0 * * * *", time.Second)

	require.NoError(t, s.RunNow())
	assert.Equal(t, "scheduled", <-ft.triggers)
	assert.False(t, s.LastRun().IsZero())
}

func TestRunNowReportsError(t *testing.T) {
	boom := errors.New("webhook down")
	s := New(&fakeTrigger{err: boom}, "0 0 * * * *", time.Second)

	assert.ErrorIs(t, s.RunNow(), boom)
	assert.ErrorIs(t, s.LastError(), boom)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&fakeTrigger{}, "every now and then", time.Second)
	assert.Error(t, s.Start())
}

func TestScheduleFires(t *testing.T) {
	ft := &fakeTrigger{triggers: make(chan string, 1)}
	s := New(ft, "* * * * * *", time.Second)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case trigger := <-ft.triggers:
		assert.Equal(t, "scheduled", trigger)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}

func TestRunNowAgainstDisabledService(t *testing.T) {
	svc := service.New(dal.NewMemoryStore(), nil, service.Options{IngestionEnabled: false})
	s := New(svc, "0 0 * * * *", time.Second)

	assert.ErrorIs(t, s.RunNow(), errs.ErrIngestionDisabled)
}
