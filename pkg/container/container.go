package container

import (
	"context"

	"github.com/getflash/salesops/config"
	"github.com/getflash/salesops/pkg/analytics"
	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/cache"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/email"
	"github.com/getflash/salesops/pkg/export"
	"github.com/getflash/salesops/pkg/jobs"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/pipeline"
	"github.com/getflash/salesops/pkg/query"
	"github.com/getflash/salesops/pkg/reptracking"
	"github.com/getflash/salesops/pkg/store"
	"github.com/getflash/salesops/pkg/submissions"
	"github.com/getflash/salesops/pkg/users"
)

// RecordStore is the full persistence surface, satisfied by both the
// Postgres and the in-memory store.
type RecordStore interface {
	Find(ctx context.Context, plan *query.Plan) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	Insert(ctx context.Context, sub *models.Submission) error
	Update(ctx context.Context, sub *models.Submission) error
	Delete(ctx context.Context, id string) error
	LookupUser(ctx context.Context, username, email string) (*models.Identity, error)
	CreateUser(ctx context.Context, id *models.Identity) error
	ListRepWeeks(ctx context.Context, f models.RepTrackingFilters) ([]models.RepWeeklyData, error)
	UpsertRepWeek(ctx context.Context, w *models.RepWeeklyData) (*models.RepWeeklyData, error)
}

// Container wires configuration, infrastructure and services.
type Container struct {
	Config *config.Config
	Log    logger.Logger

	Store RecordStore
	Cache *cache.Client

	Compiler  *query.Compiler
	Blacklist *auth.TokenBlacklist

	Submissions *submissions.Service
	Analytics   *analytics.Service
	Pipeline    *pipeline.Service
	RepTracking *reptracking.Service
	Users       *users.Service
	Export      *export.Service
	Email       *email.Service
	Cron        *jobs.CronManager

	pg *store.PostgresStore
}

// New builds the full dependency graph. The record store is Postgres
// unless the config asks for the in-memory store.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	if cfg.UseMemoryStore {
		c.Store = store.NewMemoryStore()
		log.Warn("using in-memory record store, data will not persist")
	} else {
		pg, err := store.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		c.pg = pg
		c.Store = pg
	}

	redisClient, err := cache.NewClient(cfg.RedisURL, log)
	if err != nil {
		return nil, err
	}
	c.Cache = redisClient

	c.Compiler = query.NewCompiler(c.Store, cfg.IdentityEmailDomain, log)
	c.Blacklist = auth.NewTokenBlacklist(redisClient)

	c.Email = email.NewService(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName, log)
	c.Submissions = submissions.NewService(c.Store, c.Compiler, c.Store, redisClient, cfg.IdentityEmailDomain, log)
	c.Analytics = analytics.NewService(c.Store, c.Compiler, redisClient, log)
	c.Pipeline = pipeline.NewService(c.Store, c.Compiler, log)
	c.RepTracking = reptracking.NewService(c.Store, log)
	c.Users = users.NewService(c.Store, c.Blacklist, cfg.JWTSecret, cfg.JWTExpirationHours, cfg.IdentityEmailDomain, log)
	c.Export = export.NewService(c.Store, c.Compiler, log)
	c.Cron = jobs.NewCronManager(c.Store, redisClient, c.Email, cfg.DigestRecipients, log)

	return c, nil
}

// Ping verifies the backing services are reachable.
func (c *Container) Ping(ctx context.Context) error {
	if c.pg != nil {
		if _, err := c.pg.FindByID(ctx, "ping"); err != nil && !domain.IsNotFound(err) {
			return err
		}
	}
	return c.Cache.Redis.Ping(ctx).Err()
}

// Close releases held resources.
func (c *Container) Close() {
	if c.Cron != nil {
		c.Cron.Stop()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.pg != nil {
		_ = c.pg.Close()
	}
}
