package user

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// UserType classifies a respondent's role in the community. It is a closed
// set; surveys target these values plus the extra "ALL" audience.
type UserType string

const (
	UserTypeStudent       UserType = "STUDENT"
	UserTypeFaculty       UserType = "FACULTY"
	UserTypeStaff         UserType = "STAFF"
	UserTypeSurveyCreator UserType = "SURVEY_CREATOR"
	UserTypeOther         UserType = "OTHER"
)

func IsValidUserType(t UserType) bool {
	switch t {
	case UserTypeStudent, UserTypeFaculty, UserTypeStaff, UserTypeSurveyCreator, UserTypeOther:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Username     string
	Name         pgtype.Text
	Email        pgtype.Text
	PasswordHash string
	IsStaff      bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

// Profile extends a user account with its community role. Exactly one per
// user, created in the same transaction as the account itself.
type Profile struct {
	UserID   uuid.UUID
	UserType UserType
}
