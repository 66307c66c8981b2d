package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ApexPick/internal/domain/models"
	domrepo "ApexPick/internal/domain/repository"
	pkgch "ApexPick/pkg/clickhouse"
	applogger "ApexPick/pkg/logger"
	pkgpg "ApexPick/pkg/postgres"
)

const DefaultPredictionsTable = "apex_predictions"

// dialect holds what differs between the SQL backends.
type dialect struct {
	name        string
	schema      func(table string) []string
	placeholder func(i int) string
}

var clickhouseDialect = dialect{
	name: "clickhouse",
	schema: func(table string) []string {
		return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id               String,
            sport            LowCardinality(String),
            match            String,
            bet_type         LowCardinality(String),
            best_odds        Float64,
            edge             Float64,
            confidence_score Float64,
            data             String,
            created_at       DateTime64(3, 'UTC'),
            expires_at       DateTime64(3, 'UTC')
        )
        ENGINE = ReplacingMergeTree(created_at)
        ORDER BY (sport, id)
        TTL toDateTime(expires_at)
    `, table)}
	},
	placeholder: func(int) string { return "?" },
}

var postgresDialect = dialect{
	name: "postgres",
	schema: func(table string) []string {
		return []string{
			fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id               TEXT PRIMARY KEY,
            sport            TEXT NOT NULL,
            match            TEXT NOT NULL,
            bet_type         TEXT NOT NULL,
            best_odds        DOUBLE PRECISION NOT NULL,
            edge             DOUBLE PRECISION NOT NULL,
            confidence_score DOUBLE PRECISION NOT NULL,
            data             JSONB NOT NULL,
            created_at       TIMESTAMPTZ NOT NULL,
            expires_at       TIMESTAMPTZ NOT NULL
        )`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_expires_at_idx ON %s (expires_at)`, table, table),
		}
	},
	placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
}

var predictionColumns = []string{
	"id", "sport", "match", "bet_type", "best_odds", "edge",
	"confidence_score", "data", "created_at", "expires_at",
}

// SQLPredictionStore persists PredictionRecords through database/sql.
type SQLPredictionStore struct {
	db      *sql.DB
	table   string
	dialect dialect
	l       *applogger.Logger
}

// NewClickHousePredictionStore stores predictions in a ReplacingMergeTree
// table whose rows expire at expires_at.
func NewClickHousePredictionStore(ch *pkgch.Client, table string, l *applogger.Logger) *SQLPredictionStore {
	return newSQLPredictionStore(ch.DB(), table, clickhouseDialect, l)
}

// NewPostgresPredictionStore stores predictions in Postgres with the full
// prediction in a JSONB column.
func NewPostgresPredictionStore(pg *pkgpg.Client, table string, l *applogger.Logger) *SQLPredictionStore {
	return newSQLPredictionStore(pg.DB(), table, postgresDialect, l)
}

func newSQLPredictionStore(db *sql.DB, table string, d dialect, l *applogger.Logger) *SQLPredictionStore {
	if table == "" {
		table = DefaultPredictionsTable
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SQLPredictionStore{db: db, table: table, dialect: d, l: l}
}

func (s *SQLPredictionStore) Init(ctx context.Context) error {
	for _, stmt := range s.dialect.schema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s init %s: %w", s.dialect.name, s.table, err)
		}
	}
	return nil
}

func (s *SQLPredictionStore) insertQuery() string {
	ph := make([]string, len(predictionColumns))
	for i := range ph {
		ph[i] = s.dialect.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(predictionColumns, ", "), strings.Join(ph, ", "))
}

func (s *SQLPredictionStore) Save(ctx context.Context, rec models.PredictionRecord) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.insertQuery(),
		rec.ID,
		rec.Sport,
		rec.Match,
		rec.BetType,
		rec.BestOdds,
		rec.Edge,
		rec.ConfidenceScore,
		string(rec.Data),
		rec.CreatedAt.UTC(),
		rec.ExpiresAt.UTC(),
	)
	if err != nil {
		s.l.Error("prediction insert error",
			applogger.String("backend", s.dialect.name),
			applogger.String("table", s.table),
			applogger.String("id", rec.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("save prediction %s: %w", rec.ID, err)
	}
	s.l.Debug("prediction stored",
		applogger.String("backend", s.dialect.name),
		applogger.String("id", rec.ID),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *SQLPredictionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to the pkg client.
func (s *SQLPredictionStore) Close() error {
	return nil
}

var _ domrepo.PredictionStore = (*SQLPredictionStore)(nil)
