package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const create = `
INSERT INTO users (username, name, email, password_hash, is_staff)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, username, name, email, password_hash, is_staff, created_at, updated_at
`

type CreateParams struct {
	Username     string
	Name         pgtype.Text
	Email        pgtype.Text
	PasswordHash string
	IsStaff      bool
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (User, error) {
	row := q.db.QueryRow(ctx, create, arg.Username, arg.Name, arg.Email, arg.PasswordHash, arg.IsStaff)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getByID = `
SELECT id, username, name, email, password_hash, is_staff, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getByUsername = `
SELECT id, username, name, email, password_hash, is_staff, created_at, updated_at
FROM users
WHERE username = $1
`

func (q *Queries) GetByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsStaff, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const existsByID = `
SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
`

func (q *Queries) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, existsByID, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createProfile = `
INSERT INTO profiles (user_id, user_type)
VALUES ($1, $2)
RETURNING user_id, user_type
`

type CreateProfileParams struct {
	UserID   uuid.UUID
	UserType UserType
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	row := q.db.QueryRow(ctx, createProfile, arg.UserID, arg.UserType)
	var p Profile
	err := row.Scan(&p.UserID, &p.UserType)
	return p, err
}

const getProfileByUserID = `
SELECT user_id, user_type
FROM profiles
WHERE user_id = $1
`

func (q *Queries) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfileByUserID, userID)
	var p Profile
	err := row.Scan(&p.UserID, &p.UserType)
	return p, err
}
