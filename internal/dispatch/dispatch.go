// Package dispatch executes the side effects of a lifecycle plan. Every
// effect is best-effort: failures are logged and counted, never returned.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/metrics"
	"github.com/OpenClique85/openclique-sub010/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AuditSink interface {
	InsertAuditRecord(ctx context.Context, record *model.AuditRecord) error
}

type OpsEventSink interface {
	InsertOpsEvent(ctx context.Context, event *model.OpsEvent) error
}

type NotificationSink interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
}

// NotificationMirror receives all notifications of one plan in a single call,
// for channels that should see an event once rather than once per recipient.
type NotificationMirror interface {
	MirrorNotifications(ctx context.Context, ns []model.Notification) error
}

const mirrorKind = "notification_mirror"

type Config struct {
	Async       bool `mapstructure:"async"`
	Concurrency int  `mapstructure:"concurrency"`
}

type Dispatcher struct {
	audit  AuditSink
	ops    OpsEventSink
	notify NotificationSink
	mirror NotificationMirror
	cfg    Config
	log    *zap.Logger
	wg     sync.WaitGroup
}

func New(audit AuditSink, ops OpsEventSink, notify NotificationSink, cfg Config, log *zap.Logger) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		audit:  audit,
		ops:    ops,
		notify: notify,
		cfg:    cfg,
		log:    log,
	}
}

// WithMirror registers a mirror that runs after the plan's effects. Its
// failures are counted under their own kind and never mark the durable
// notification effects as failed.
func (d *Dispatcher) WithMirror(m NotificationMirror) *Dispatcher {
	d.mirror = m
	return d
}

// Dispatch runs the effects. In async mode it returns immediately and the
// effects run on a context detached from the caller's cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, effects []lifecycle.SideEffect) {
	if len(effects) == 0 {
		return
	}
	if !d.cfg.Async {
		d.run(ctx, effects)
		return
	}

	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(detached, effects)
	}()
}

// Wait blocks until every async dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, effects []lifecycle.SideEffect) {
	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)

	for _, effect := range effects {
		effect := effect
		g.Go(func() error {
			d.record(effect.Kind(), d.apply(ctx, effect))
			return nil
		})
	}

	_ = g.Wait()

	if d.mirror != nil {
		if ns := notifications(effects); len(ns) > 0 {
			d.record(mirrorKind, d.mirrorPlan(ctx, ns))
		}
	}
}

func (d *Dispatcher) record(kind string, err error) {
	if err != nil {
		metrics.SideEffectsTotal.WithLabelValues(kind, "failed").Inc()
		d.log.Warn("lifecycle side effect failed",
			zap.String("kind", kind),
			zap.Error(err))
		return
	}
	metrics.SideEffectsTotal.WithLabelValues(kind, "ok").Inc()
}

func (d *Dispatcher) mirrorPlan(ctx context.Context, ns []model.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification mirror panicked: %v", r)
		}
	}()
	return d.mirror.MirrorNotifications(ctx, ns)
}

func notifications(effects []lifecycle.SideEffect) []model.Notification {
	var out []model.Notification
	for _, effect := range effects {
		if n, ok := effect.(lifecycle.NotificationEffect); ok {
			out = append(out, n.Notification)
		}
	}
	return out
}

func (d *Dispatcher) apply(ctx context.Context, effect lifecycle.SideEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("side effect panicked: %v", r)
		}
	}()

	switch e := effect.(type) {
	case lifecycle.AuditEffect:
		if d.audit == nil {
			return nil
		}
		return d.audit.InsertAuditRecord(ctx, &e.Record)
	case lifecycle.OpsEventEffect:
		if d.ops == nil {
			return nil
		}
		return d.ops.InsertOpsEvent(ctx, &e.Event)
	case lifecycle.NotificationEffect:
		if d.notify == nil {
			return nil
		}
		return d.notify.InsertNotification(ctx, &e.Notification)
	default:
		return fmt.Errorf("unsupported side effect %q", effect.Kind())
	}
}

// OpsFanout writes an ops event to every sink and joins their errors.
type OpsFanout []OpsEventSink

func (f OpsFanout) InsertOpsEvent(ctx context.Context, event *model.OpsEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.InsertOpsEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotificationFanout delivers a notification to every sink in order. The
// first sink is expected to be the durable store; later sinks see the id it
// assigned.
type NotificationFanout []NotificationSink

func (f NotificationFanout) InsertNotification(ctx context.Context, n *model.Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.InsertNotification(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
