package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"x-reply-bot/profile"
)

// DB wraps the SQLite database connection and provides storage operations
// for learned profiles and the responded-post set.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		handle TEXT PRIMARY KEY,
		sentiment TEXT NOT NULL,
		top_tokens TEXT NOT NULL DEFAULT '',
		avg_token_count REAL NOT NULL DEFAULT 0,
		punctuation TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS responded_posts (
		post_id TEXT PRIMARY KEY
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveProfiles replaces all stored profiles with the given set in one
// transaction. The table always mirrors the in-memory store wholesale;
// partial merges never happen.
func (db *DB) SaveProfiles(ctx context.Context, profiles map[string]profile.Profile) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("clear profiles: %w", err)
	}

	query := `
	INSERT INTO profiles (handle, sentiment, top_tokens, avg_token_count, punctuation)
	VALUES (?, ?, ?, ?, ?)
	`
	for handle, p := range profiles {
		_, err := tx.ExecContext(ctx, query,
			handle,
			string(p.Sentiment),
			strings.Join(p.TopTokens, ","),
			p.AvgTokenCount,
			string(p.Punctuation),
		)
		if err != nil {
			return fmt.Errorf("insert profile %s: %w", handle, err)
		}
	}

	return tx.Commit()
}

// LoadProfiles returns all stored profiles keyed by account handle.
func (db *DB) LoadProfiles(ctx context.Context) (map[string]profile.Profile, error) {
	query := `SELECT handle, sentiment, top_tokens, avg_token_count, punctuation FROM profiles`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make(map[string]profile.Profile)
	for rows.Next() {
		var handle, sentiment, topTokens, punctuation string
		var avgTokenCount float64
		if err := rows.Scan(&handle, &sentiment, &topTokens, &avgTokenCount, &punctuation); err != nil {
			return nil, err
		}

		p := profile.Profile{
			Sentiment:     profile.Sentiment(sentiment),
			AvgTokenCount: avgTokenCount,
			Punctuation:   profile.Punctuation(punctuation),
		}
		if topTokens != "" {
			p.TopTokens = strings.Split(topTokens, ",")
		}
		profiles[handle] = p
	}
	return profiles, rows.Err()
}

// SaveRespondedPosts replaces the persisted responded-post set. Only post IDs
// are stored; insertion timestamps are deliberately not persisted.
func (db *DB) SaveRespondedPosts(ctx context.Context, postIDs []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM responded_posts`); err != nil {
		return fmt.Errorf("clear responded posts: %w", err)
	}

	for _, id := range postIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO responded_posts (post_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("insert responded post %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// LoadRespondedPosts returns all persisted responded-post IDs.
func (db *DB) LoadRespondedPosts(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT post_id FROM responded_posts ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
