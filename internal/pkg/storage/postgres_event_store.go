package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	_ "github.com/lib/pq"
)

// Ensure PostgresEventStore implements EventStore
var _ EventStore = (*PostgresEventStore)(nil)

// PostgresEventStore keeps one row per event with the line history as a JSONB array.
type PostgresEventStore struct {
	db *sql.DB
}

// NewPostgresEventStore opens the connection and creates the schema if needed.
func NewPostgresEventStore(cfg *config.PostgresConfig) (*PostgresEventStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresEventStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL event store initialized successfully")
	return s, nil
}

func (s *PostgresEventStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		event_id VARCHAR(100) PRIMARY KEY,
		game_date VARCHAR(50) NOT NULL DEFAULT '',
		game_time VARCHAR(200) NOT NULL DEFAULT '',
		away_team VARCHAR(200) NOT NULL DEFAULT '',
		home_team VARCHAR(200) NOT NULL DEFAULT '',
		line_history JSONB NOT NULL DEFAULT '[]'::jsonb,
		betting_choices JSONB NOT NULL DEFAULT '{}'::jsonb,
		outcome JSONB,
		frozen BOOLEAN NOT NULL DEFAULT FALSE,
		last_updated TIMESTAMP NOT NULL DEFAULT NOW(),
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_events_game_date ON events(game_date);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresEventStore) FindEvent(ctx context.Context, eventID string) (*models.Event, error) {
	query := `
	SELECT event_id, game_date, game_time, away_team, home_team,
		line_history, betting_choices, outcome, frozen, last_updated
	FROM events WHERE event_id = $1
	`
	var (
		ev          models.Event
		history     []byte
		choices     []byte
		outcome     []byte
		lastUpdated time.Time
	)
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&ev.EventID, &ev.GameDate, &ev.GameTime, &ev.AwayTeam, &ev.HomeTeam,
		&history, &choices, &outcome, &ev.Frozen, &lastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event %s: %w", eventID, err)
	}

	if err := decodeEventColumns(&ev, history, choices, outcome); err != nil {
		return nil, fmt.Errorf("failed to decode event %s: %w", eventID, err)
	}
	ev.LastUpdated = lastUpdated
	return &ev, nil
}

// decodeEventColumns unpacks the JSONB columns of an events row.
func decodeEventColumns(ev *models.Event, history, choices, outcome []byte) error {
	if len(history) > 0 {
		if err := json.Unmarshal(history, &ev.LineHistory); err != nil {
			return fmt.Errorf("line_history: %w", err)
		}
	}
	if len(choices) > 0 {
		if err := json.Unmarshal(choices, &ev.Choices); err != nil {
			return fmt.Errorf("betting_choices: %w", err)
		}
	}
	if len(outcome) > 0 && string(outcome) != "null" {
		var o models.Outcome
		if err := json.Unmarshal(outcome, &o); err != nil {
			return fmt.Errorf("outcome: %w", err)
		}
		ev.Outcome = &o
	}
	return nil
}

// InsertEvent stores the event if its id is new. ON CONFLICT keeps the existing row.
func (s *PostgresEventStore) InsertEvent(ctx context.Context, ev *models.Event) (bool, error) {
	history := ev.LineHistory
	if history == nil {
		history = []models.LineSnapshot{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return false, fmt.Errorf("failed to marshal line history: %w", err)
	}
	choicesJSON, err := json.Marshal(ev.Choices)
	if err != nil {
		return false, fmt.Errorf("failed to marshal betting choices: %w", err)
	}
	lastUpdated := ev.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	query := `
	INSERT INTO events (
		event_id, game_date, game_time, away_team, home_team,
		line_history, betting_choices, last_updated
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (event_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		ev.EventID, ev.GameDate, ev.GameTime, ev.AwayTeam, ev.HomeTeam,
		string(historyJSON), string(choicesJSON), lastUpdated,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event %s: %w", ev.EventID, err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *PostgresEventStore) AppendSnapshot(ctx context.Context, eventID string, snap models.LineSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	query := `
	UPDATE events
	SET line_history = line_history || jsonb_build_array($2::jsonb),
		last_updated = $3
	WHERE event_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, eventID, string(data), snap.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to append snapshot to %s: %w", eventID, err)
	}
	return requireRow(res, eventID)
}

func (s *PostgresEventStore) FreezeEvent(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET frozen = TRUE WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to freeze event %s: %w", eventID, err)
	}
	return requireRow(res, eventID)
}

// SetIdentity only writes columns that are still empty.
func (s *PostgresEventStore) SetIdentity(ctx context.Context, id models.Identity) error {
	query := `
	UPDATE events SET
		game_date = CASE WHEN game_date = '' THEN $2 ELSE game_date END,
		game_time = CASE WHEN game_time = '' THEN $3 ELSE game_time END,
		away_team = CASE WHEN away_team = '' THEN $4 ELSE away_team END,
		home_team = CASE WHEN home_team = '' THEN $5 ELSE home_team END
	WHERE event_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id.EventID, id.GameDate, id.GameTime, id.AwayTeam, id.HomeTeam)
	if err != nil {
		return fmt.Errorf("failed to set identity of %s: %w", id.EventID, err)
	}
	return requireRow(res, id.EventID)
}

func (s *PostgresEventStore) SetBettingChoices(ctx context.Context, eventID string, choices models.BettingChoices) error {
	data, err := json.Marshal(choices)
	if err != nil {
		return fmt.Errorf("failed to marshal betting choices: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE events SET betting_choices = $2::jsonb WHERE event_id = $1`, eventID, string(data))
	if err != nil {
		return fmt.Errorf("failed to set betting choices of %s: %w", eventID, err)
	}
	return requireRow(res, eventID)
}

func (s *PostgresEventStore) SetOutcome(ctx context.Context, eventID string, outcome models.Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE events SET outcome = $2::jsonb WHERE event_id = $1 AND outcome IS NULL`, eventID, string(data))
	if err != nil {
		return fmt.Errorf("failed to set outcome of %s: %w", eventID, err)
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		return nil
	}

	// Nothing updated: either the event is missing or it already has an outcome.
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE event_id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check event %s: %w", eventID, err)
	}
	if !exists {
		return ErrEventNotFound
	}
	return ErrOutcomeAlreadySet
}

// Close closes the database connection.
func (s *PostgresEventStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, eventID string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", eventID, err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}
