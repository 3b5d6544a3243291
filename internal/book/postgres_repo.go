package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// The author join supplies the denormalized "last, first" display name and
// the columns the search whitelist reaches through.
const (
	bookColumns = `b.id, b.title, b.author_id, a.last_name || ', ' || a.first_name AS author_name,
		b.publication_date, b.created_at, b.updated_at`
	bookFrom = "FROM books b LEFT JOIN authors a ON a.id = b.author_id"
)

const foreignKeyViolation = "23503"

func (r *PostgresRepo) List(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Book, int, error) {
	where, args, argn := crit.Where(1)

	countSQL := fmt.Sprintf("SELECT COUNT(*) %s %s", bookFrom, where)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	dataSQL := fmt.Sprintf("SELECT %s %s %s %s LIMIT $%d OFFSET $%d",
		bookColumns, bookFrom, where, crit.OrderBy(), argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, limit, offset)
	rows, err := r.db.Query(ctx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Book, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.id = $1", bookColumns, bookFrom)

	b, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (title, author_id, publication_date)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query, b.Title, b.AuthorID, b.PublicationDate.Time).Scan(&id)
	if err != nil {
		return fmt.Errorf("create book: %w", mapForeignKey(err))
	}

	created, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	*b = created
	return nil
}

// Update replaces the mutable columns and refreshes updated_at; created_at
// is set once at insert and never touched again.
func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const query = `
		UPDATE books
		SET title = $1, author_id = $2, publication_date = $3, updated_at = now()
		WHERE id = $4`

	tag, err := r.db.Exec(ctx, query, b.Title, b.AuthorID, b.PublicationDate.Time, b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", mapForeignKey(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	updated, err := r.Get(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = updated
	return nil
}

func (r *PostgresRepo) Patch(ctx context.Context, id int64, p Patch) (Book, error) {
	var sets []string
	var args []any
	argn := 1

	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argn))
		args = append(args, value)
		argn++
	}

	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.AuthorID != nil {
		set("author_id", *p.AuthorID)
	}
	if p.PublicationDate != nil {
		set("publication_date", p.PublicationDate.Time)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d", strings.Join(sets, ", "), argn)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return Book{}, fmt.Errorf("patch book: %w", mapForeignKey(err))
	}
	if tag.RowsAffected() == 0 {
		return Book{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	var publicationDate time.Time
	if err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &b.AuthorName, &publicationDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Book{}, err
	}
	b.PublicationDate = dates.FromTime(publicationDate)
	return b, nil
}

func mapForeignKey(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrAuthorNotFound
	}
	return err
}
