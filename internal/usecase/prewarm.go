package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ApexPick/internal/domain/models"
	domsvc "ApexPick/internal/domain/service"
	"ApexPick/pkg/logger"
)

// Prewarmer rebuilds the profiles of a fixed entity list on a cron schedule
// so requests for popular teams hit a warm cache. Every run goes to the
// sources, whatever the cache TTL.
type Prewarmer struct {
	profiles domsvc.ProfileRefresher
	entities []models.EntitySpec
	schedule string
	log      *logger.Logger

	cron    *cron.Cron
	baseCtx context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

func NewPrewarmer(profiles domsvc.ProfileRefresher, schedule string, entities []models.EntitySpec, log *logger.Logger) *Prewarmer {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Prewarmer{
		profiles: profiles,
		entities: append([]models.EntitySpec(nil), entities...),
		schedule: schedule,
		log:      log,
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start registers the job and starts the scheduler. An invalid schedule is
// reported and nothing is started.
func (p *Prewarmer) Start() error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(p.baseCtx) }); err != nil {
		return fmt.Errorf("prewarm schedule %q: %w", p.schedule, err)
	}
	p.cron.Start()
	p.log.Info("prewarm scheduler started",
		logger.String("schedule", p.schedule),
		logger.Int("entities", len(p.entities)),
	)
	return nil
}

// Stop cancels a running refresh and waits for it, bounded by ctx.
func (p *Prewarmer) Stop(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		p.cancel()
		done := p.cron.Stop()
		select {
		case <-done.Done():
			p.log.Info("prewarm scheduler stopped")
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// RunOnce refreshes every entity and returns how many profiles had data.
func (p *Prewarmer) RunOnce(ctx context.Context) int {
	start := time.Now()
	warmed := 0
	for _, spec := range p.entities {
		if ctx.Err() != nil {
			break
		}
		profile, err := p.profiles.RefreshProfile(ctx, spec)
		if err != nil {
			p.log.Warn("prewarm skipped entity",
				logger.String("sport", spec.Sport),
				logger.String("entity", spec.EntityName),
				logger.Error(err),
			)
			continue
		}
		if !profile.Insufficient() {
			warmed++
		}
	}
	p.log.Info("prewarm finished",
		logger.Int("warmed", warmed),
		logger.Int("entities", len(p.entities)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return warmed
}
