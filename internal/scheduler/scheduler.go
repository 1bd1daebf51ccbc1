package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultMaintenanceSpec = "0 * * * *"
	Timezone               = "UTC"
	TimezoneOffsetSeconds  = 0
	maintenanceTimeout     = 5 * time.Minute
)

type Store interface {
	CountRecords(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	Optimize(ctx context.Context) error
}

type Scheduler struct {
	ctx   context.Context
	cron  *cron.Cron
	store Store
	spec  string
	log   *slog.Logger
}

func New(ctx context.Context, store Store, spec string, log *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultMaintenanceSpec
	}

	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:   ctx,
		cron:  c,
		store: store,
		spec:  spec,
		log:   log,
	}
}

func (s *Scheduler) Spec() string {
	return s.spec
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runMaintenance); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runMaintenance() {
	ctx, cancel := context.WithTimeout(s.ctx, maintenanceTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	records, err := s.store.CountRecords(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to count records",
			"error", err)
	}

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to count users",
			"error", err)
	}

	s.log.InfoContext(ctx, "Store stats",
		"records", records,
		"users", users)

	if err = s.store.Optimize(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to optimize store",
			"error", err)
	}
}
