package survey

import (
	"testing"
	"time"

	"amusurvey/backend/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func Test_canRespond(t *testing.T) {
	creatorID := uuid.New()
	respondentID := uuid.New()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	base := Survey{
		ID:             uuid.New(),
		CreatorID:      creatorID,
		TargetAudience: AudienceAll,
		IsActive:       true,
	}

	at := func(t time.Time) pgtype.Timestamptz {
		return pgtype.Timestamptz{Time: t, Valid: true}
	}

	testCases := []struct {
		name string
		in   EligibilityInput
		want bool
	}{
		{
			name: "creator cannot respond to own survey",
			in: EligibilityInput{
				Survey:       base,
				RespondentID: creatorID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "existing response blocks resubmission",
			in: EligibilityInput{
				Survey:       base,
				RespondentID: respondentID,
				HasResponded: true,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "active ALL survey accepts any authenticated user",
			in: EligibilityInput{
				Survey:       base,
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: true,
		},
		{
			name: "inactive survey rejects authenticated access",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.IsActive = false
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "student rejected before start date",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.TargetAudience = AudienceStudent
					s.StartDate = at(now.Add(24 * time.Hour))
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "student accepted after start date",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.TargetAudience = AudienceStudent
					s.StartDate = at(now.Add(-24 * time.Hour))
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: true,
		},
		{
			name: "rejected after end date",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.EndDate = at(now.Add(-time.Hour))
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "audience mismatch rejected",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.TargetAudience = AudienceFaculty
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "no profile only matches ALL",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.TargetAudience = AudienceStudent
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   false,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: false,
		},
		{
			name: "no profile accepted for ALL",
			in: EligibilityInput{
				Survey:       base,
				RespondentID: respondentID,
				HasProfile:   false,
				Now:          now,
				Mode:         AccessAuthenticated,
			},
			want: true,
		},
		{
			name: "public link bypasses audience mismatch",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.TargetAudience = AudienceFaculty
					s.IsPublic = true
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: true,
		},
		{
			name: "public link bypasses time window",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.IsPublic = true
					s.StartDate = at(now.Add(24 * time.Hour))
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: true,
		},
		{
			name: "public link requires is_public",
			in: EligibilityInput{
				Survey:       base,
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: false,
		},
		{
			name: "public link requires is_active",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.IsPublic = true
					s.IsActive = false
					return s
				}(),
				RespondentID: respondentID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: false,
		},
		{
			name: "public link still blocks the creator",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.IsPublic = true
					return s
				}(),
				RespondentID: creatorID,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: false,
		},
		{
			name: "public link still blocks duplicates",
			in: EligibilityInput{
				Survey: func() Survey {
					s := base
					s.IsPublic = true
					return s
				}(),
				RespondentID: respondentID,
				HasResponded: true,
				HasProfile:   true,
				UserType:     user.UserTypeStudent,
				Now:          now,
				Mode:         AccessPublicLink,
			},
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, canRespond(tc.in))
		})
	}
}

func TestAudience_Matches(t *testing.T) {
	require.True(t, AudienceAll.Matches(user.UserTypeStudent))
	require.True(t, AudienceAll.Matches(user.UserType("")))
	require.True(t, AudienceStudent.Matches(user.UserTypeStudent))
	require.False(t, AudienceStudent.Matches(user.UserTypeFaculty))
	require.False(t, AudienceFaculty.Matches(user.UserTypeStaff))
}
