package jwt

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type RefreshToken struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	IsActive       bool
	ExpirationDate pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
}
