package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Result is a finished session as stored in the database.
type Result struct {
	ID            string         `json:"id"`
	Score         int            `json:"score"`
	TimeRemaining float64        `json:"timeRemaining"`
	Duration      float64        `json:"duration"`
	FruitsCut     int            `json:"fruitsCut"`
	BombsCut      int            `json:"bombsCut"`
	Fruits        map[string]int `json:"fruits,omitempty"`
	EndedAt       time.Time      `json:"endedAt"`
}

// ResultRepository provides access to session results.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Create inserts a result and its fruit breakdown. An empty ID is filled with
// a new UUID and a zero EndedAt with the current time.
func (r *ResultRepository) Create(res *Result) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.EndedAt.IsZero() {
		res.EndedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO results (id, score, time_remaining, duration, fruits_cut, bombs_cut, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Score, res.TimeRemaining, res.Duration, res.FruitsCut, res.BombsCut, res.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	fruits := make([]string, 0, len(res.Fruits))
	for f := range res.Fruits {
		fruits = append(fruits, f)
	}
	sort.Strings(fruits)
	for _, f := range fruits {
		if _, err := tx.Exec(
			`INSERT INTO result_fruits (result_id, fruit, count) VALUES (?, ?, ?)`,
			res.ID, f, res.Fruits[f],
		); err != nil {
			return fmt.Errorf("failed to insert fruit count: %w", err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a result and its fruit breakdown.
func (r *ResultRepository) GetByID(id string) (*Result, error) {
	res := &Result{}
	err := r.db.QueryRow(
		`SELECT id, score, time_remaining, duration, fruits_cut, bombs_cut, ended_at
		 FROM results WHERE id = ?`,
		id,
	).Scan(&res.ID, &res.Score, &res.TimeRemaining, &res.Duration, &res.FruitsCut, &res.BombsCut, &res.EndedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if res.Fruits, err = r.fruits(id); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ResultRepository) fruits(id string) (map[string]int, error) {
	rows, err := r.db.Query(`SELECT fruit, count FROM result_fruits WHERE result_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out map[string]int
	for rows.Next() {
		var fruit string
		var count int
		if err := rows.Scan(&fruit, &count); err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string]int)
		}
		out[fruit] = count
	}
	return out, rows.Err()
}

// Top returns up to limit results, highest score first. Ties go to the
// earlier session. The fruit breakdown is not loaded.
func (r *ResultRepository) Top(limit int) ([]*Result, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.Query(
		`SELECT id, score, time_remaining, duration, fruits_cut, bombs_cut, ended_at
		 FROM results ORDER BY score DESC, ended_at ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res := &Result{}
		if err := rows.Scan(&res.ID, &res.Score, &res.TimeRemaining, &res.Duration, &res.FruitsCut, &res.BombsCut, &res.EndedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Best returns the highest scoring result with its fruit breakdown, or
// ErrNotFound when none exist.
func (r *ResultRepository) Best() (*Result, error) {
	top, err := r.Top(1)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return nil, ErrNotFound
	}

	best := top[0]
	if best.Fruits, err = r.fruits(best.ID); err != nil {
		return nil, err
	}
	return best, nil
}

// Count returns the number of stored results.
func (r *ResultRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a result and, through the foreign key, its fruit counts.
func (r *ResultRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
