package postgres

import (
	"context"
	"database/sql"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/internal/repository/database"
)

var _ database.UserDirectory = (*UserDirectory)(nil)

type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (r *UserDirectory) PhonesByBarangay(ctx context.Context, barangay string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT phone FROM users WHERE barangay = $1`,
		barangay,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}
