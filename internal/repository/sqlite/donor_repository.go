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
	createDonorsTable = `
CREATE TABLE IF NOT EXISTS donors (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	blood_group TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	village TEXT NOT NULL DEFAULT '',
	available INTEGER NOT NULL DEFAULT 1,
	last_donation_date DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	donorColumns = `id, user_id, name, phone, blood_group, city, village, available, last_donation_date, created_at, updated_at`
)

type DonorRepository struct {
	db *sql.DB
}

func NewDonorRepository(db *sql.DB) repository.DonorRepository {
	return &DonorRepository{db: db}
}

func (r *DonorRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDonorsTable); err != nil {
		return fmt.Errorf("create donors table: %w", err)
	}
	return nil
}

// Upsert registers the donor, replacing an earlier registration of the same user.
func (r *DonorRepository) Upsert(ctx context.Context, donor *domain.Donor) error {
	now := time.Now().UTC()
	if donor.CreatedAt.IsZero() {
		donor.CreatedAt = now
	}
	donor.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO donors (`+donorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	name = excluded.name,
	phone = excluded.phone,
	blood_group = excluded.blood_group,
	city = excluded.city,
	village = excluded.village,
	available = excluded.available,
	last_donation_date = excluded.last_donation_date,
	updated_at = excluded.updated_at`,
		donor.ID,
		donor.UserID,
		donor.Name,
		donor.Phone,
		donor.BloodGroup,
		donor.City,
		donor.Village,
		donor.Available,
		nullableTime(donor.LastDonationDate),
		donor.CreatedAt,
		donor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert donor: %w", err)
	}
	return nil
}

func (r *DonorRepository) GetByUser(ctx context.Context, userID string) (*domain.Donor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+donorColumns+` FROM donors WHERE user_id = ?`, userID)
	return scanDonor(row)
}

func (r *DonorRepository) SetAvailable(ctx context.Context, userID string, available bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE donors SET available = ?, updated_at = ? WHERE user_id = ?`,
		available,
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update donor availability: %w", err)
	}
	return expectAffected(res, "donor")
}

func (r *DonorRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM donors WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete donor: %w", err)
	}
	return nil
}

func (r *DonorRepository) Search(ctx context.Context, filter domain.DonorFilter) ([]domain.Donor, error) {
	var (
		where = []string{"available = 1"}
		args  []any
	)
	if filter.BloodGroup != "" {
		where = append(where, "blood_group = ?")
		args = append(args, filter.BloodGroup)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(name)+"%")
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		like := "%" + strings.ToLower(loc) + "%"
		where = append(where, "(LOWER(city) LIKE ? OR LOWER(village) LIKE ?)")
		args = append(args, like, like)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+donorColumns+`
FROM donors
WHERE `+strings.Join(where, " AND ")+`
ORDER BY updated_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}
	defer rows.Close()

	var donors []domain.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donors: %w", err)
	}
	return donors, nil
}

func scanDonor(row interface {
	Scan(dest ...any) error
}) (*domain.Donor, error) {
	var (
		d         domain.Donor
		lastDonor sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Phone,
		&d.BloodGroup,
		&d.City,
		&d.Village,
		&d.Available,
		&lastDonor,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donor: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan donor: %w", err)
	}
	if lastDonor.Valid {
		t := lastDonor.Time
		d.LastDonationDate = &t
	}
	return &d, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
