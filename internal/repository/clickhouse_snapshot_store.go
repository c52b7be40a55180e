package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domrepo "github.com/narayanprabad/InvestWise/internal/domain/repository"
	pkgch "github.com/narayanprabad/InvestWise/pkg/clickhouse"
	applogger "github.com/narayanprabad/InvestWise/pkg/logger"
)

const snapshotColumns = "id, symbol, ts, condition, mode, vix, change_pct, trend, trend_conf, sentiment, sentiment_conf"

// insertChunk bounds the number of rows per multi-VALUES insert.
const insertChunk = 1000

// CHSnapshotStore implements SnapshotStore on ClickHouse.
type CHSnapshotStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHSnapshotStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHSnapshotStore{ch: ch, db: ch.DB(), database: ch.Database(), table: table, l: l}
}

func (s *CHSnapshotStore) qualified() string {
	if s.database == "" {
		return s.table
	}
	return s.database + "." + s.table
}

// Init creates the database and snapshot table if missing.
func (s *CHSnapshotStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id String,
            symbol LowCardinality(String),
            ts DateTime64(3, 'UTC'),
            condition LowCardinality(String),
            mode LowCardinality(String),
            vix Float64,
            change_pct Float64,
            trend LowCardinality(String),
            trend_conf Float64,
            sentiment Float64,
            sentiment_conf Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts, id)`, s.qualified()),
	}
	if s.database != "" {
		stmts = append([]string{"CREATE DATABASE IF NOT EXISTS " + s.database}, stmts...)
	}
	if err := s.ch.InitSchema(ctx, stmts); err != nil {
		return fmt.Errorf("snapshot table: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) Store(ctx context.Context, snap *models.ConditionSnapshot) error {
	return s.StoreBatch(ctx, []*models.ConditionSnapshot{snap})
}

// StoreBatch inserts snapshots with multi-row VALUES statements. Rows without a symbol or
// timestamp are skipped.
func (s *CHSnapshotStore) StoreBatch(ctx context.Context, snaps []*models.ConditionSnapshot) error {
	start := time.Now()
	written := 0
	for from := 0; from < len(snaps); from += insertChunk {
		to := from + insertChunk
		if to > len(snaps) {
			to = len(snaps)
		}

		values := make([]string, 0, to-from)
		args := make([]interface{}, 0, (to-from)*11)
		for _, sn := range snaps[from:to] {
			if sn == nil || sn.Symbol == "" || sn.Timestamp.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sn.ID,
				sn.Symbol,
				sn.Timestamp.UTC(),
				string(sn.Condition),
				string(sn.Mode),
				sn.Volatility,
				sn.ChangePercent,
				sn.Trend,
				sn.TrendConfidence,
				sn.Sentiment,
				sn.SentimentConfidence,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.qualified(), snapshotColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse snapshot insert error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err))
			return fmt.Errorf("insert snapshots: %w", err)
		}
		written += len(values)
	}
	if written > 0 {
		s.l.Debug("clickhouse snapshots stored",
			applogger.Int("rows", written),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return nil
}

// Query returns snapshots for symbol in [from, to], newest first.
func (s *CHSnapshotStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.ConditionSnapshot, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT ?`, snapshotColumns, s.qualified())
	rows, err := s.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse snapshot query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ConditionSnapshot, 0, limit)
	for rows.Next() {
		var (
			sn              models.ConditionSnapshot
			condition, mode string
		)
		if err := rows.Scan(&sn.ID, &sn.Symbol, &sn.Timestamp, &condition, &mode,
			&sn.Volatility, &sn.ChangePercent, &sn.Trend, &sn.TrendConfidence,
			&sn.Sentiment, &sn.SentimentConfidence); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		sn.Condition = models.MarketCondition(condition)
		sn.Mode = models.ClassificationMode(mode)
		out = append(out, &sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHSnapshotStore) Close() error { return nil }

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
