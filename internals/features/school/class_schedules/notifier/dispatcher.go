// file: internals/features/school/class_schedules/notifier/dispatcher.go
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jadwalku_backend/internals/configs"
	"jadwalku_backend/internals/features/school/class_schedules/service"
)

const DefaultDispatchTimeout = 10 * time.Second

type (
	EventSender interface {
		Send(ctx context.Context, e service.Event) error
	}
	EventSyncer interface {
		Sync(ctx context.Context, e service.Event) error
	}
	EventLogger interface {
		Log(ctx context.Context, e service.Event) error
	}
)

type Options struct {
	Settings  *configs.IntegrationSettings
	Broadcast EventSender
	Calendar  EventSyncer
	Activity  EventLogger
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Dispatcher menjalankan event pasca-commit di goroutine terpisah. Gagal di sini hanya di-log,
// mutasi yang sudah commit tidak pernah dibatalkan.
type Dispatcher struct {
	settings  *configs.IntegrationSettings
	broadcast EventSender
	calendar  EventSyncer
	activity  EventLogger
	timeout   time.Duration
	log       *slog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultDispatchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		settings:  opts.Settings,
		broadcast: opts.Broadcast,
		calendar:  opts.Calendar,
		activity:  opts.Activity,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
}

func (d *Dispatcher) handlerFor(kind service.EventKind, flags configs.IntegrationFlags) func(context.Context, service.Event) error {
	switch kind {
	case service.EventBroadcast:
		if flags.BroadcastEnabled && d.broadcast != nil {
			return d.broadcast.Send
		}
	case service.EventCalendarSync:
		if flags.CalendarSyncEnabled && d.calendar != nil {
			return d.calendar.Sync
		}
	case service.EventActivityLog:
		if flags.ActivityLogEnabled && d.activity != nil {
			return d.activity.Log
		}
	}
	return nil
}

// Dispatch tidak menunggu. Flag integrasi dibaca sekali per panggilan.
func (d *Dispatcher) Dispatch(ctx context.Context, events []service.Event) {
	if d == nil || len(events) == 0 {
		return
	}
	flags := d.settings.Get(ctx)
	base := context.WithoutCancel(ctx)

	for _, e := range events {
		h := d.handlerFor(e.Kind, flags)
		if h == nil {
			continue
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("panic in class schedule event handler",
						slog.String("kind", string(e.Kind)), slog.String("panic", fmt.Sprint(r)))
				}
			}()

			hctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				d.log.Warn("class schedule event failed",
					slog.String("kind", string(e.Kind)),
					slog.String("action", string(e.Action)),
					slog.String("schedule_id", e.EntityID.String()),
					slog.Any("error", err),
				)
			}
		}()
	}
}

// Wait menunggu semua handler yang sedang jalan (graceful shutdown & test).
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
