package survey

import (
	"amusurvey/backend/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Audience is the targeting enum: every user type plus ALL. ALL is reserved
// for targeting and never appears on a profile.
type Audience string

const (
	AudienceStudent       Audience = "STUDENT"
	AudienceFaculty       Audience = "FACULTY"
	AudienceStaff         Audience = "STAFF"
	AudienceSurveyCreator Audience = "SURVEY_CREATOR"
	AudienceOther         Audience = "OTHER"
	AudienceAll           Audience = "ALL"
)

func IsValidAudience(a Audience) bool {
	switch a {
	case AudienceStudent, AudienceFaculty, AudienceStaff, AudienceSurveyCreator, AudienceOther, AudienceAll:
		return true
	}
	return false
}

// Matches reports whether a respondent of the given user type falls inside
// the audience.
func (a Audience) Matches(t user.UserType) bool {
	return a == AudienceAll || string(a) == string(t)
}

// AccessMode distinguishes how a respondent reached the survey: normal
// platform navigation or the shareable public link.
type AccessMode int

const (
	AccessAuthenticated AccessMode = iota
	AccessPublicLink
)

type Survey struct {
	ID             uuid.UUID
	Title          string
	Description    string
	CreatorID      uuid.UUID
	TargetAudience Audience
	StartDate      pgtype.Timestamptz
	EndDate        pgtype.Timestamptz
	IsActive       bool
	IsPublic       bool
	PublicID       uuid.UUID
	CreatedAt      pgtype.Timestamptz
}
