package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/domain/repository"
)

type sqliteTranscriptRepository struct {
	db *sql.DB
}

// NewSQLiteTranscriptRepository SQLite-backed exchange archive
func NewSQLiteTranscriptRepository(dbPath string) (repository.TranscriptRepository, error) {
	if dbPath == "" {
		return nil, errors.New("db path must not be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := createTranscriptSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteTranscriptRepository{db: db}, nil
}

func createTranscriptSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id TEXT PRIMARY KEY,
	widget_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	outcome TEXT NOT NULL,
	asked_at TIMESTAMP NOT NULL,
	answered_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_widget_asked ON exchanges (widget_id, asked_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveExchange appends one exchange
func (s *sqliteTranscriptRepository) SaveExchange(ctx context.Context, exchange entity.Exchange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, widget_id, question, answer, outcome, asked_at, answered_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exchange.ID, exchange.WidgetID, exchange.Question, exchange.Answer, string(exchange.Outcome),
		exchange.AskedAt.UTC(), exchange.AnsweredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// ListExchanges widget's exchanges oldest first; empty widgetID lists every widget
func (s *sqliteTranscriptRepository) ListExchanges(ctx context.Context, widgetID string, limit int) ([]entity.Exchange, error) {
	query := `SELECT id, widget_id, question, answer, outcome, asked_at, answered_at FROM exchanges`
	var args []any
	if widgetID != "" {
		query += ` WHERE widget_id = ?`
		args = append(args, widgetID)
	}
	query += ` ORDER BY asked_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []entity.Exchange
	for rows.Next() {
		var ex entity.Exchange
		var outcome string
		if err := rows.Scan(&ex.ID, &ex.WidgetID, &ex.Question, &ex.Answer, &outcome, &ex.AskedAt, &ex.AnsweredAt); err != nil {
			return nil, err
		}
		ex.Outcome = entity.Outcome(outcome)
		exchanges = append(exchanges, ex)
	}

	// newest-first from the query, reversed to oldest-first
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}

	return exchanges, rows.Err()
}

// Close closes the database
func (s *sqliteTranscriptRepository) Close() error {
	return s.db.Close()
}
