package author

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraryapi/internal/dates"
	"libraryapi/internal/listing"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const authorColumns = "id, first_name, last_name, citizenship, date_of_birth, date_of_death"

func (r *PostgresRepo) List(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Author, int, error) {
	where, args, argn := crit.Where(1)

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM authors %s", where)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count authors: %w", err)
	}

	dataSQL := fmt.Sprintf("SELECT %s FROM authors %s %s LIMIT $%d OFFSET $%d",
		authorColumns, where, crit.OrderBy(), argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, limit, offset)
	rows, err := r.db.Query(ctx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Author, error) {
	query := fmt.Sprintf("SELECT %s FROM authors WHERE id = $1", authorColumns)

	a, err := scanAuthor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, fmt.Errorf("get author: %w", err)
	}
	return a, nil
}

func (r *PostgresRepo) Create(ctx context.Context, a *Author) error {
	const query = `
		INSERT INTO authors (first_name, last_name, citizenship, date_of_birth, date_of_death)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		a.FirstName, a.LastName, a.Citizenship, toTimePtr(a.DateOfBirth), toTimePtr(a.DateOfDeath),
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create author: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, a *Author) error {
	const query = `
		UPDATE authors
		SET first_name = $1, last_name = $2, citizenship = $3, date_of_birth = $4, date_of_death = $5
		WHERE id = $6`

	tag, err := r.db.Exec(ctx, query,
		a.FirstName, a.LastName, a.Citizenship, toTimePtr(a.DateOfBirth), toTimePtr(a.DateOfDeath), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Patch(ctx context.Context, id int64, p Patch) (Author, error) {
	var sets []string
	var args []any
	argn := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argn))
		args = append(args, value)
		argn++
	}

	if p.FirstName != nil {
		set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		set("last_name", *p.LastName)
	}
	if p.Citizenship != nil {
		set("citizenship", *p.Citizenship)
	}
	if p.DateOfBirth != nil {
		set("date_of_birth", p.DateOfBirth.Time)
	}
	if p.DateOfDeath != nil {
		set("date_of_death", p.DateOfDeath.Time)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	query := fmt.Sprintf("UPDATE authors SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), argn, authorColumns)
	args = append(args, id)

	a, err := scanAuthor(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, fmt.Errorf("patch author: %w", err)
	}
	return a, nil
}

// Delete removes the author; books referencing it go with it via the
// ON DELETE CASCADE constraint.
func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM authors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAuthor(row pgx.Row) (Author, error) {
	var a Author
	var birth, death *time.Time
	if err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Citizenship, &birth, &death); err != nil {
		return Author{}, err
	}
	a.DateOfBirth = toDatePtr(birth)
	a.DateOfDeath = toDatePtr(death)
	return a, nil
}

func toTimePtr(d *dates.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

func toDatePtr(t *time.Time) *dates.Date {
	if t == nil {
		return nil
	}
	d := dates.FromTime(*t)
	return &d
}
