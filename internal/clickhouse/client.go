// Package clickhouse records scrape ingest and scraper health events in
// ClickHouse for long-term auditing and reporting.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

const (
	ingestTable = "scrape_ingest_events"
	healthTable = "scraper_health_events"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + ingestTable + ` (
		at              DateTime64(3, 'UTC'),
		target_id       String,
		match_id        String,
		tournament_name String,
		operation       LowCardinality(String),
		auto_approved   Bool,
		confidence      LowCardinality(String)
	) ENGINE = MergeTree
	ORDER BY (target_id, at)`,
	`CREATE TABLE IF NOT EXISTS ` + healthTable + ` (
		at                DateTime64(3, 'UTC'),
		id                String,
		workflow          LowCardinality(String),
		status            LowCardinality(String),
		execution_id      String,
		matches_processed Int32,
		duration_ms       Int64,
		error             String
	) ENGINE = MergeTree
	ORDER BY (workflow, at)`,
}

// AuditSink writes audit rows to ClickHouse
type AuditSink struct {
	conn driver.Conn
}

// Options builds the connection options for one ClickHouse node.
func Options(addr, database, username, password string) *clickhouse.Options {
	return &clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}
}

// NewAuditSink connects, pings and creates the audit tables.
func NewAuditSink(ctx context.Context, addr, database, username, password string) (*AuditSink, error) {
	conn, err := clickhouse.Open(Options(addr, database, username, password))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	for _, ddl := range schema {
		if err := conn.Exec(ctx, ddl); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create audit tables: %w", err)
		}
	}

	logger.Info("ClickHouse audit tables ready", "database", database)
	return &AuditSink{conn: conn}, nil
}

// RecordIngest appends one reconciled scrape payload.
func (a *AuditSink) RecordIngest(ctx context.Context, e models.IngestEvent) error {
	return a.conn.Exec(ctx,
		`INSERT INTO `+ingestTable+` (at, target_id, match_id, tournament_name, operation, auto_approved, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.At.UTC(), e.TargetID, e.MatchID, e.TournamentName, e.Operation, e.AutoApproved, e.Confidence,
	)
}

// RecordHealth appends one scraper workflow report.
func (a *AuditSink) RecordHealth(ctx context.Context, r models.HealthRecord) error {
	at, err := time.Parse(models.TimestampLayout, r.Timestamp)
	if err != nil {
		at = time.Now().UTC()
	}
	var processed int32
	var duration int64
	if r.Metrics != nil {
		if r.Metrics.MatchesProcessed != nil {
			processed = int32(*r.Metrics.MatchesProcessed)
		}
		if r.Metrics.Duration != nil {
			duration = *r.Metrics.Duration
		}
	}

	return a.conn.Exec(ctx,
		`INSERT INTO `+healthTable+` (at, id, workflow, status, execution_id, matches_processed, duration_ms, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		at, r.ID, r.Workflow, r.Status, r.ExecutionID, processed, duration, r.Error,
	)
}

// IngestCounts returns the number of ingested payloads per scrape target
// since the given time.
func (a *AuditSink) IngestCounts(ctx context.Context, since time.Time) (map[string]uint64, error) {
	counts := make(map[string]uint64)

	rows, err := a.conn.Query(ctx, `
		SELECT target_id, count() AS ingests
		FROM `+ingestTable+`
		WHERE at >= $1
		GROUP BY target_id
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n uint64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}

	return counts, rows.Err()
}

// Ping checks the connection
func (a *AuditSink) Ping(ctx context.Context) error {
	return a.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (a *AuditSink) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}
