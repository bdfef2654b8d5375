package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpauth/internal/identity/entity"
)

const (
	queryFindUserByIdentifier = `
SELECT id, username, phone_number, password_hash, created_at, updated_at
FROM users
WHERE username = $1 OR phone_number = $1
LIMIT 1`

	queryGetUserByID = `
SELECT id, username, phone_number, password_hash, created_at, updated_at
FROM users
WHERE id = $1`

	queryCreateUser = `
INSERT INTO users (id, username, phone_number, password_hash)
VALUES ($1, $2, $3, $4)`
)

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.Username, &u.PhoneNumber, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIdentifier matches identifier against both the username and the phone number.
// Usernames must contain a letter, so the two columns never match different rows.
func (s *DB) FindByIdentifier(ctx context.Context, identifier string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "FindByIdentifier")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, queryFindUserByIdentifier, identifier))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, queryGetUserByID, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) CreateUser(ctx context.Context, in entity.CreateUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateUser, in.ID, in.Username, in.PhoneNumber, in.PasswordHash)
	err = s.mapError(err)
	return err
}
