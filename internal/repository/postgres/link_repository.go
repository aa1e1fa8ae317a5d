package postgres

import (
	"context"
	"fmt"

	"github.com/gabrielmatsan/brev-ly/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx, so single-statement
// methods and transaction-composed flows share the same query helpers.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const linkColumns = `id, original_url, short_url, visits, created_at, updated_at`

type LinkRepository struct {
	db *pgxpool.Pool
}

func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (id, original_url, short_url)
		VALUES ($1, $2, $3)
		RETURNING visits, created_at
	`

	return r.db.QueryRow(ctx, query, link.ID, link.OriginalURL, link.ShortURL).
		Scan(&link.Visits, &link.CreatedAt)
}

func (r *LinkRepository) FindByShortURL(ctx context.Context, shortURL string) (*domain.Link, error) {
	return findByShortURL(ctx, r.db, shortURL)
}

func (r *LinkRepository) List(ctx context.Context, page, limit int) ([]domain.Link, error) {
	offset := (page - 1) * limit

	query := `
		SELECT ` + linkColumns + `
		FROM links
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.Link
	for rows.Next() {
		var link domain.Link
		if err := scanLink(rows, &link); err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func (r *LinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM links`).Scan(&count)
	return count, err
}

// ResolveAndIncrement looks up a link by short code and bumps its visit
// counter, both inside one transaction. The increment is expressed as
// visits = visits + 1 in SQL, so concurrent resolutions of the same code
// never lose updates regardless of isolation level.
func (r *LinkRepository) ResolveAndIncrement(ctx context.Context, shortURL string) (*domain.Link, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	link, err := findByShortURL(ctx, tx, shortURL)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE links
		SET visits = visits + 1, updated_at = now()
		WHERE id = $1
		RETURNING visits, updated_at
	`

	if err := tx.QueryRow(ctx, query, link.ID).Scan(&link.Visits, &link.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return link, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id string) (*domain.Link, error) {
	query := `
		DELETE FROM links
		WHERE id = $1
		RETURNING ` + linkColumns

	var link domain.Link
	if err := scanLink(r.db.QueryRow(ctx, query, id), &link); err != nil {
		return nil, err
	}

	return &link, nil
}

// StreamAll invokes fn for every link, in listing order, without
// materializing the full result set. pgx streams rows from the server,
// so memory stays bounded however large the table is. Returning an
// error from fn stops the iteration.
func (r *LinkRepository) StreamAll(ctx context.Context, fn func(*domain.Link) error) error {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var link domain.Link
		if err := scanLink(rows, &link); err != nil {
			return err
		}
		if err := fn(&link); err != nil {
			return err
		}
	}

	return rows.Err()
}

func findByShortURL(ctx context.Context, q querier, shortURL string) (*domain.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE short_url = $1
	`

	var link domain.Link
	if err := scanLink(q.QueryRow(ctx, query, shortURL), &link); err != nil {
		return nil, err
	}

	return &link, nil
}

func scanLink(row pgx.Row, link *domain.Link) error {
	return row.Scan(
		&link.ID,
		&link.OriginalURL,
		&link.ShortURL,
		&link.Visits,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
}
