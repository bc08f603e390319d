package domain

import (
	"context"
	"time"

	"github.com/getflash/salesops/pkg/models"
)

// CacheRepository abstracts the cache layer
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// UserDirectory resolves human-entered rep names to stable identities.
// A nil identity with a nil error means the name matched nobody; an
// error means the directory itself could not answer.
type UserDirectory interface {
	LookupUser(ctx context.Context, username, email string) (*models.Identity, error)
}

// Mailer sends operational email (stale-lead digests and the like).
type Mailer interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}
