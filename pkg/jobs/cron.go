package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/email"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
	"github.com/getflash/salesops/pkg/workflow"
)

// Store is the record-store surface the jobs need.
type Store interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron       *cron.Cron
	store      Store
	cache      domain.CacheRepository
	mailer     domain.Mailer
	recipients []string
	log        logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(store Store, cache domain.CacheRepository, mailer domain.Mailer, recipients []string, log logger.Logger) *CronManager {
	return &CronManager{
		cron:       cron.New(),
		store:      store,
		cache:      cache,
		mailer:     mailer,
		recipients: recipients,
		log:        log,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	// Daily at 7 AM: mail the stale-lead digest to managers
	if _, err := cm.cron.AddFunc("0 7 * * *", cm.runStaleLeadDigest); err != nil {
		return err
	}

	// Hourly: drop cached analytics so overnight imports surface
	if _, err := cm.cron.AddFunc("0 * * * *", cm.runCachePurge); err != nil {
		return err
	}

	cm.log.Info("cron jobs configured",
		"stale_digest", "daily 07:00",
		"analytics_cache_purge", "hourly")
	return nil
}

// runStaleLeadDigest mails the list of leads that have gone quiet for
// more than 30 days without converting.
func (cm *CronManager) runStaleLeadDigest() {
	if len(cm.recipients) == 0 {
		cm.log.Debug("stale lead digest skipped, no recipients configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	plan := &query.Plan{Sort: query.SortKey{Field: query.FieldCreatedAt, Desc: false}}
	subs, _, err := cm.store.Find(ctx, plan)
	if err != nil {
		cm.log.Error("stale lead digest failed to load submissions", "error", err)
		return
	}

	now := time.Now()
	stale := make([]models.Submission, 0)
	for i := range subs {
		if workflow.IsStaleLeadAt(&subs[i], now) {
			stale = append(stale, subs[i])
		}
	}
	if len(stale) == 0 {
		cm.log.Info("stale lead digest skipped, no stale leads")
		return
	}

	subject, body := email.StaleLeadDigest(stale, now)
	if err := cm.mailer.Send(ctx, cm.recipients, subject, body); err != nil {
		cm.log.Error("stale lead digest delivery failed", "error", err)
		return
	}
	cm.log.Info("stale lead digest sent", "leads", len(stale), "recipients", len(cm.recipients))
}

// runCachePurge invalidates cached analytics aggregates.
func (cm *CronManager) runCachePurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cm.cache.DeletePattern(ctx, "analytics:*"); err != nil {
		cm.log.Warn("analytics cache purge failed", "error", err)
	}
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.log.Info("stopping cron scheduler")
	cm.cron.Stop()
}
