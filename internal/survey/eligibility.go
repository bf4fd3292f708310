package survey

import (
	"time"

	"amusurvey/backend/internal/user"

	"github.com/google/uuid"
)

// EligibilityInput bundles everything canRespond needs so the decision itself
// stays pure; the service performs the reads.
type EligibilityInput struct {
	Survey       Survey
	RespondentID uuid.UUID
	UserType     user.UserType
	HasProfile   bool
	HasResponded bool
	Now          time.Time
	Mode         AccessMode
}

// canRespond decides whether the respondent may submit, evaluating rules in
// order and stopping at the first failure:
//  1. the creator never responds to their own survey;
//  2. an existing response blocks a second one (the unique constraint on
//     (survey, respondent) is the storage-level backstop);
//  3. public-link access to a public, active survey is eligible without
//     further checks — the time window and audience targeting are
//     intentionally skipped so a shared link acts as an open invite while
//     the survey stays active;
//  4. authenticated access requires the survey to be active, the current
//     time to fall inside [start_date, end_date] where set, and the
//     audience to be ALL or to match the respondent's profile user type.
//     A respondent without a profile only matches ALL.
func canRespond(in EligibilityInput) bool {
	s := in.Survey

	if s.CreatorID == in.RespondentID {
		return false
	}
	if in.HasResponded {
		return false
	}

	if in.Mode == AccessPublicLink {
		return s.IsPublic && s.IsActive
	}

	if !s.IsActive {
		return false
	}
	if s.StartDate.Valid && in.Now.Before(s.StartDate.Time) {
		return false
	}
	if s.EndDate.Valid && in.Now.After(s.EndDate.Time) {
		return false
	}
	if s.TargetAudience == AudienceAll {
		return true
	}
	return in.HasProfile && s.TargetAudience.Matches(in.UserType)
}
