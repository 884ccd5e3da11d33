package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const defaultQueryTimeout = 5 * time.Second

// Preference is one stored option row.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// PrefsRepo stores user options as key-value rows. Get and Set satisfy
// prefs.KV and run synchronously with a bounded timeout.
type PrefsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewPrefsRepo(db *sql.DB) *PrefsRepo {
	return &PrefsRepo{db: db, now: time.Now}
}

func (r *PrefsRepo) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	return r.GetContext(ctx, key)
}

func (r *PrefsRepo) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	return r.SetContext(ctx, key, value)
}

func (r *PrefsRepo) GetContext(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %q: %w", key, err)
	}

	return value, true, nil
}

func (r *PrefsRepo) SetContext(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences(key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, toUnixMillis(r.now()))
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}

	return nil
}

func (r *PrefsRepo) List(ctx context.Context) ([]Preference, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Preference
	for rows.Next() {
		var (
			item      Preference
			updatedAt int64
		)
		if err := rows.Scan(&item.Key, &item.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		item.UpdatedAt = fromUnixMillis(updatedAt)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}

	return out, nil
}
