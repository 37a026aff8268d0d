// Package alarm rings the terminal bell while a distress signal is being
// sent, until the owner silences it.
package alarm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Daskott/sos/colors"
	"go.uber.org/zap"
)

const (
	BELL             = "\a"
	DEFAULT_INTERVAL = time.Second
)

type Alarm struct {
	out      io.Writer
	interval time.Duration
	logg     *zap.SugaredLogger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func New(out io.Writer, interval time.Duration, logg *zap.SugaredLogger) *Alarm {
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}

	return &Alarm{out: out, interval: interval, logg: logg}
}

// Start rings once right away and then every interval until Stop is called or
// ctx is done. Starting an alarm that is already ringing does nothing.
func (alarm *Alarm) Start(ctx context.Context) {
	alarm.mu.Lock()
	defer alarm.mu.Unlock()

	if alarm.stop != nil {
		return
	}

	alarm.stop = make(chan struct{})
	alarm.done = make(chan struct{})

	alarm.logg.Infof(colors.Prefix(colors.Blue, "alarm") + "ringing")
	alarm.ring()

	go alarm.loop(ctx, alarm.stop, alarm.done)
}

// Stop silences the alarm and waits for the last ring to finish.
func (alarm *Alarm) Stop() {
	alarm.mu.Lock()
	stop, done := alarm.stop, alarm.done
	alarm.stop, alarm.done = nil, nil
	alarm.mu.Unlock()

	if stop == nil {
		return
	}

	close(stop)
	<-done
	alarm.logg.Infof(colors.Prefix(colors.Blue, "alarm") + "stopped")
}

func (alarm *Alarm) Ringing() bool {
	alarm.mu.Lock()
	defer alarm.mu.Unlock()
	return alarm.stop != nil
}

func (alarm *Alarm) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(alarm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			alarm.ring()
		}
	}
}

func (alarm *Alarm) ring() {
	if _, err := fmt.Fprint(alarm.out, BELL); err != nil {
		alarm.logg.Warnf(colors.Prefix(colors.Yellow, "alarm")+"unable to ring: %v", err)
	}
}
