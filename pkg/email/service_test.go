package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

func TestSendWithoutAPIKeyIsNoop(t *testing.T) {
	svc := NewService("", "noreply@getflash.io", "Flash Sales Ops", logger.Default())

	err := svc.Send(context.Background(), []string{"ops@getflash.io"}, "subject", "<p>body</p>")
	assert.NoError(t, err)
}

func TestStaleLeadDigest(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	stale := []models.Submission{
		{OwnerName: "Acme", Username: "jdoe", Territory: "Kingston", Timestamp: now.AddDate(0, 0, -40)},
		{OwnerName: "Harbour", Username: "jdoe", Territory: "St. James", InterestLevel: 3, Timestamp: now.AddDate(0, 0, -35)},
		{OwnerName: "Sunrise", Timestamp: now.AddDate(0, 0, -50)},
	}

	subject, body := StaleLeadDigest(stale, now)
	assert.Equal(t, "Stale lead digest: 3 leads need attention", subject)

	// Grouped under each rep, with age and derived stage per lead.
	assert.Contains(t, body, "<h3>jdoe</h3>")
	assert.Contains(t, body, "<h3>Unassigned</h3>")
	assert.Contains(t, body, "Acme (Kingston): 40 days old, stage new")
	assert.Contains(t, body, "Harbour (St. James): 35 days old, stage qualified")
	assert.Contains(t, body, "Sunrise (Unassigned): 50 days old, stage new")
}

func TestStaleLeadDigestEmpty(t *testing.T) {
	subject, body := StaleLeadDigest(nil, time.Now())
	assert.Equal(t, "Stale lead digest: 0 leads need attention", subject)
	require.Contains(t, body, "0 leads have had no activity")
}
