// Package scheduler fires the daily update on a cron spec inside the daemon.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

// Job is one scheduled unit; the context is cancelled on Stop.
type Job func(ctx context.Context) error

type Component struct {
	*core.BaseComponent
	spec     string
	location *time.Location
	job      Job
	timeout  time.Duration

	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates spec (standard five fields) eagerly so a typo fails at boot.
func New(spec, timeZone string, timeout time.Duration, job Job, deps ...string) (*Component, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	loc := time.Local
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %s: %w", timeZone, err)
		}
		loc = l
	}
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_SCHEDULER, append([]string{consts.COMPONENT_LOGGING}, deps...)...),
		spec:          spec,
		location:      loc,
		job:           job,
		timeout:       timeout,
	}, nil
}

func (c *Component) Start(ctx context.Context) error {
	if c.IsActive() {
		return nil
	}
	if err := c.BaseComponent.Start(ctx); err != nil {
		return err
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))

	logger := cronLogger{ctx: c.ctx}
	c.cron = cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.cron.AddFunc(c.spec, c.fire)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}
	c.entry = id
	c.cron.Start()
	logging.Infof(ctx, "[scheduler] started, spec=%q next=%s", c.spec, c.Next().Format(time.RFC3339))
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if !c.IsActive() {
		return nil
	}
	c.cancel()
	<-c.cron.Stop().Done()
	c.wg.Wait()
	logging.Infof(ctx, "[scheduler] stopped")
	return c.BaseComponent.Stop(ctx)
}

// Next is the next planned fire time, zero before Start.
func (c *Component) Next() time.Time {
	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entry).Next
}

// RunNow fires the job synchronously, outside the schedule.
func (c *Component) RunNow() { c.fire() }

func (c *Component) fire() {
	c.wg.Add(1)
	defer c.wg.Done()
	ctx := logging.WithRunID(c.ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	logging.Infof(ctx, "[scheduler] daily update started")
	if err := c.job(ctx); err != nil {
		logging.Errorf(ctx, "[scheduler] daily update finished with errors after %s: %v", time.Since(start).Round(time.Second), err)
		return
	}
	logging.Infof(ctx, "[scheduler] daily update done in %s", time.Since(start).Round(time.Second))
}

// cronLogger routes robfig/cron messages into the zap logger.
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debugf(l.ctx, "[cron] %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Errorf(l.ctx, "[cron] %s: %v %v", msg, err, keysAndValues)
}
