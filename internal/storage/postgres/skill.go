package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

var (
	// ErrSkillNotFound is returned when a skill instance lookup yields no rows.
	ErrSkillNotFound = errors.New("skill instance not found")
	// ErrSkillExists is returned when an owner already holds the skill key.
	ErrSkillExists = errors.New("skill instance already exists")
)

const uniqueViolation = "23505"

// SkillRepository persists skill instances.
type SkillRepository struct {
	db *pgxpool.Pool
}

// NewSkillRepository creates a SkillRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewSkillRepository(db *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{db: db}
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create inserts rec.
//
// Precondition: rec.ID must be a UUID.
// Postcondition: Returns ErrSkillExists if the owner already holds rec.Key.
func (r *SkillRepository) Create(ctx context.Context, rec skill.Record) error {
	return create(ctx, r.db, rec)
}

func create(ctx context.Context, db execer, rec skill.Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("skill instance id %q: %w", rec.ID, err)
	}
	_, err = db.Exec(ctx,
		`INSERT INTO skill_instances (id, skill_key, owner_ref, is_default, cooldown_finish_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, rec.Key, string(rec.Owner), rec.IsDefault, nullTime(rec.CooldownFinish),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s holds %q", ErrSkillExists, rec.Owner, rec.Key)
	}
	if err != nil {
		return fmt.Errorf("inserting skill instance: %w", err)
	}
	return nil
}

// Get returns the record with id.
//
// Postcondition: Returns ErrSkillNotFound when no row matches.
func (r *SkillRepository) Get(ctx context.Context, id string) (skill.Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return skill.Record{}, fmt.Errorf("%w: %q", ErrSkillNotFound, id)
	}
	row := r.db.QueryRow(ctx,
		`SELECT id, skill_key, owner_ref, is_default, cooldown_finish_at
		 FROM skill_instances WHERE id = $1`, uid)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return skill.Record{}, fmt.Errorf("%w: %s", ErrSkillNotFound, id)
	}
	if err != nil {
		return skill.Record{}, fmt.Errorf("loading skill instance: %w", err)
	}
	return rec, nil
}

// ListByOwner returns every record held by owner, ordered by skill key.
func (r *SkillRepository) ListByOwner(ctx context.Context, owner skill.EntityRef) ([]skill.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, skill_key, owner_ref, is_default, cooldown_finish_at
		 FROM skill_instances WHERE owner_ref = $1 ORDER BY skill_key`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("listing skills for %s: %w", owner, err)
	}
	defer rows.Close()

	var out []skill.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning skill instance: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing skills for %s: %w", owner, err)
	}
	return out, nil
}

// SaveState writes the mutable fields of rec: owner, default flag and
// cooldown finish.
//
// Postcondition: Returns ErrSkillNotFound when no row matches rec.ID.
func (r *SkillRepository) SaveState(ctx context.Context, rec skill.Record) error {
	return saveState(ctx, r.db, rec)
}

func saveState(ctx context.Context, db execer, rec skill.Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrSkillNotFound, rec.ID)
	}
	tag, err := db.Exec(ctx,
		`UPDATE skill_instances
		 SET owner_ref = $2, is_default = $3, cooldown_finish_at = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, string(rec.Owner), rec.IsDefault, nullTime(rec.CooldownFinish),
	)
	if err != nil {
		return fmt.Errorf("saving skill instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, rec.ID)
	}
	return nil
}

// Delete removes the record with id.
//
// Postcondition: Returns ErrSkillNotFound when no row matches.
func (r *SkillRepository) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, r.db, id)
}

func deleteRecord(ctx context.Context, db execer, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrSkillNotFound, id)
	}
	tag, err := db.Exec(ctx, `DELETE FROM skill_instances WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("deleting skill instance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, id)
	}
	return nil
}

// Apply creates, updates and deletes records in one transaction.
//
// Postcondition: either every change is stored or none is.
func (r *SkillRepository) Apply(ctx context.Context, created, updated []skill.Record, deleted []string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, id := range deleted {
			if err := deleteRecord(ctx, tx, id); err != nil {
				return err
			}
		}
		for _, rec := range updated {
			if err := saveState(ctx, tx, rec); err != nil {
				return err
			}
		}
		for _, rec := range created {
			if err := create(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanRecord(row pgx.Row) (skill.Record, error) {
	var (
		rec    skill.Record
		id     uuid.UUID
		owner  string
		finish *time.Time
	)
	if err := row.Scan(&id, &rec.Key, &owner, &rec.IsDefault, &finish); err != nil {
		return skill.Record{}, err
	}
	rec.ID = id.String()
	rec.Owner = skill.EntityRef(owner)
	if finish != nil {
		rec.CooldownFinish = finish.UTC()
	}
	return rec, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
