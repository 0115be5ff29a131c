package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Class is the stored summary of a gesture class.
type Class struct {
	ID        string
	Name      string
	Exemplars int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClassRepository reads class summaries without rebuilding a vocabulary.
type ClassRepository struct {
	db *sql.DB
}

// Classes returns the class repository for this store.
func (s *Store) Classes() *ClassRepository {
	return &ClassRepository{db: s.db}
}

// GetByName retrieves a class by its name.
func (r *ClassRepository) GetByName(ctx context.Context, name string) (*Class, error) {
	c := &Class{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, exemplars, created_at, updated_at
		 FROM classes WHERE name = ?`,
		name,
	).Scan(&c.ID, &c.Name, &c.Exemplars, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List retrieves all classes ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]*Class, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, exemplars, created_at, updated_at
		 FROM classes ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*Class
	for rows.Next() {
		c := &Class{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Exemplars, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return classes, nil
}
