package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

func init() {
	logger.Init()
}

func TestOptions(t *testing.T) {
	opts := Options("ch:9000", "scores", "writer", "pw")

	assert.Equal(t, []string{"ch:9000"}, opts.Addr)
	assert.Equal(t, "scores", opts.Auth.Database)
	assert.Equal(t, "writer", opts.Auth.Username)
	assert.Equal(t, "pw", opts.Auth.Password)
	assert.Equal(t, 10*time.Second, opts.DialTimeout)
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NoError(t, (&AuditSink{}).Close())
}

// TestAuditSinkRoundTrip needs a live server: CLICKHOUSE_TEST_ADDR=localhost:9000
func TestAuditSinkRoundTrip(t *testing.T) {
	addr := os.Getenv("CLICKHOUSE_TEST_ADDR")
	if addr == "" {
		t.Skip("CLICKHOUSE_TEST_ADDR not set")
	}
	ctx := context.Background()

	sink, err := NewAuditSink(ctx, addr, "default", "default", "")
	require.NoError(t, err)
	defer sink.Close()

	since := time.Now().Add(-time.Second)
	target := "target_test_" + time.Now().Format("150405.000")
	require.NoError(t, sink.RecordIngest(ctx, models.IngestEvent{
		TargetID:   target,
		MatchID:    "scraped_1",
		Operation:  "created",
		Confidence: "high",
		At:         time.Now(),
	}))
	require.NoError(t, sink.RecordHealth(ctx, models.HealthRecord{
		ID:        "health_1",
		Status:    models.HealthCompleted,
		Workflow:  "ppa-live",
		Timestamp: models.Timestamp(time.Now()),
	}))

	counts, err := sink.IngestCounts(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), counts[target])
}
