package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/repository"
)

const (
	createBusinessesTable = `
CREATE TABLE IF NOT EXISTS businesses (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	searchable INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createBusinessesOwnerIndex = `CREATE INDEX IF NOT EXISTS idx_businesses_owner ON businesses(owner_id);`

	businessColumns = `id, owner_id, name, description, category_id, city, address, phone, searchable, created_at, updated_at`
)

type BusinessRepository struct {
	db *sql.DB
}

func NewBusinessRepository(db *sql.DB) repository.BusinessRepository {
	return &BusinessRepository{db: db}
}

func (r *BusinessRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createBusinessesTable); err != nil {
		return fmt.Errorf("create businesses table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createBusinessesOwnerIndex); err != nil {
		return fmt.Errorf("create businesses index: %w", err)
	}
	return nil
}

func (r *BusinessRepository) Create(ctx context.Context, business *domain.Business) error {
	now := time.Now().UTC()
	business.CreatedAt = now
	business.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO businesses (`+businessColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		business.ID,
		business.OwnerID,
		business.Name,
		business.Description,
		business.CategoryID,
		business.City,
		business.Address,
		business.Phone,
		business.Searchable,
		business.CreatedAt,
		business.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (r *BusinessRepository) Get(ctx context.Context, id string) (*domain.Business, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	return scanBusiness(row)
}

func (r *BusinessRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+businessColumns+`
FROM businesses
WHERE owner_id = ?
ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list businesses by owner: %w", err)
	}
	return collectBusinesses(rows)
}

func (r *BusinessRepository) Search(ctx context.Context, filter domain.BusinessFilter, page, limit int) ([]domain.Business, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = domain.BusinessPageSize
	}

	var (
		where = []string{"searchable = 1"}
		args  []any
	)
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(city) LIKE ?)")
		args = append(args, like, like, like)
	}
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM businesses WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count businesses: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, `
SELECT `+businessColumns+`
FROM businesses
WHERE `+clause+`
ORDER BY created_at DESC, id ASC
LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search businesses: %w", err)
	}
	businesses, err := collectBusinesses(rows)
	if err != nil {
		return nil, 0, err
	}
	return businesses, total, nil
}

func (r *BusinessRepository) SetSearchable(ctx context.Context, id string, searchable bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE businesses SET searchable = ?, updated_at = ? WHERE id = ?`,
		searchable,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update business searchable: %w", err)
	}
	return expectAffected(res, "business")
}

func (r *BusinessRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	return expectAffected(res, "business")
}

func (r *BusinessRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("delete businesses by owner: %w", err)
	}
	return nil
}

func collectBusinesses(rows *sql.Rows) ([]domain.Business, error) {
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

func scanBusiness(row interface {
	Scan(dest ...any) error
}) (*domain.Business, error) {
	var b domain.Business
	if err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Description,
		&b.CategoryID,
		&b.City,
		&b.Address,
		&b.Phone,
		&b.Searchable,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("business: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	return &b, nil
}
