package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/septagon/TRACE/internal/gesture"
)

// Save replaces the stored vocabulary with s in a single transaction.
// Classes that survive keep their ID and creation time.
func (s *Store) Save(ctx context.Context, snap *gesture.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alphabet`); err != nil {
		return fmt.Errorf("clear alphabet: %w", err)
	}
	for i, v := range snap.Alphabet {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO alphabet (position, x, y, z) VALUES (?, ?, ?, ?)`,
			i, v[0], v[1], v[2],
		); err != nil {
			return fmt.Errorf("insert alphabet entry %d: %w", i, err)
		}
	}

	ids, err := classIDs(ctx, tx)
	if err != nil {
		return err
	}
	for name, id := range ids {
		if _, ok := snap.Classes[name]; !ok {
			if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id); err != nil {
				return fmt.Errorf("delete class %q: %w", name, err)
			}
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exemplars`); err != nil {
		return fmt.Errorf("clear exemplars: %w", err)
	}

	names := make([]string, 0, len(snap.Classes))
	for name := range snap.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	for _, name := range names {
		exemplars := snap.Classes[name]

		id, ok := ids[name]
		if ok {
			_, err = tx.ExecContext(ctx,
				`UPDATE classes SET exemplars = ?, updated_at = ? WHERE id = ?`,
				len(exemplars), now, id,
			)
		} else {
			id = uuid.NewString()
			_, err = tx.ExecContext(ctx,
				`INSERT INTO classes (id, name, exemplars, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?)`,
				id, name, len(exemplars), now, now,
			)
		}
		if err != nil {
			return fmt.Errorf("write class %q: %w", name, err)
		}

		for i, ex := range exemplars {
			levels, err := json.Marshal(ex)
			if err != nil {
				return fmt.Errorf("encode class %q exemplar %d: %w", name, i, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exemplars (id, class_id, position, levels) VALUES (?, ?, ?, ?)`,
				uuid.NewString(), id, i, string(levels),
			); err != nil {
				return fmt.Errorf("insert class %q exemplar %d: %w", name, i, err)
			}
		}
	}

	return tx.Commit()
}

func classIDs(ctx context.Context, tx *sql.Tx) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM classes`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// Load reads the stored vocabulary. It returns ErrNotFound when nothing has
// been saved yet.
func (s *Store) Load(ctx context.Context) (*gesture.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	alphabet, err := loadAlphabet(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(alphabet) == 0 {
		return nil, ErrNotFound
	}

	snap := &gesture.Snapshot{
		Alphabet: alphabet,
		Classes:  make(map[string][]gesture.Exemplar),
	}

	// Classes without exemplars are kept so an empty class survives a
	// round trip.
	names, err := classIDs(ctx, tx)
	if err != nil {
		return nil, err
	}
	for name := range names {
		snap.Classes[name] = []gesture.Exemplar{}
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT c.name, e.levels
		 FROM exemplars e JOIN classes c ON c.id = e.class_id
		 ORDER BY c.name, e.position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list exemplars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, levels string
		if err := rows.Scan(&name, &levels); err != nil {
			return nil, err
		}
		var ex gesture.Exemplar
		if err := json.Unmarshal([]byte(levels), &ex); err != nil {
			return nil, fmt.Errorf("%w: class %q: %w", gesture.ErrMalformedSnapshot, name, err)
		}
		snap.Classes[name] = append(snap.Classes[name], ex)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

func loadAlphabet(ctx context.Context, tx *sql.Tx) ([]gesture.Vec3, error) {
	rows, err := tx.QueryContext(ctx, `SELECT x, y, z FROM alphabet ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list alphabet: %w", err)
	}
	defer rows.Close()

	var alphabet []gesture.Vec3
	for rows.Next() {
		var v gesture.Vec3
		if err := rows.Scan(&v[0], &v[1], &v[2]); err != nil {
			return nil, err
		}
		alphabet = append(alphabet, v)
	}
	return alphabet, rows.Err()
}
