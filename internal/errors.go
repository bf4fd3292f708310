package internal

import (
	"errors"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

var (
	// Auth Errors
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInternalServerError = errors.New("internal server error")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// JWT Authentication Errors
	ErrMissingAuthHeader       = errors.New("missing access token")
	ErrInvalidAuthHeaderFormat = errors.New("invalid access token")
	ErrInvalidJWTToken         = errors.New("invalid JWT token")
	ErrInvalidAuthUser         = errors.New("invalid authenticated user")

	// User Errors
	ErrUserNotFound     = errors.New("user not found")
	ErrNoUserInContext  = errors.New("no user found in request context")
	ErrUsernameConflict = errors.New("username already taken")
	ErrInvalidUserType  = errors.New("invalid user type")

	// Survey Errors
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrSurveyNotAvailable = errors.New("survey is not available")
	ErrNoQuestions        = errors.New("survey must have at least one question")

	// Question Errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidChoice    = errors.New("choice does not belong to the question")

	// Response Errors
	ErrDuplicateSubmission = errors.New("respondent already has a response for this survey")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

func ErrorHandler(err error) problem.Problem {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return problem.NewForbiddenProblem("permission denied")
	case errors.Is(err, ErrInternalServerError):
		return problem.NewInternalServerProblem("internal server error")
	case errors.Is(err, ErrInvalidCredentials):
		return problem.NewUnauthorizedProblem("invalid username or password")
	case errors.Is(err, ErrInvalidRefreshToken):
		return problem.NewUnauthorizedProblem("invalid refresh token")

	// JWT Authentication Errors
	case errors.Is(err, ErrMissingAuthHeader):
		return problem.NewUnauthorizedProblem("missing access token")
	case errors.Is(err, ErrInvalidAuthHeaderFormat):
		return problem.NewUnauthorizedProblem("invalid access token")
	case errors.Is(err, ErrInvalidJWTToken):
		return problem.NewUnauthorizedProblem("invalid JWT token")
	case errors.Is(err, ErrInvalidAuthUser):
		return problem.NewUnauthorizedProblem("invalid authenticated user")

	// User Errors
	case errors.Is(err, ErrUserNotFound):
		return problem.NewNotFoundProblem("user not found")
	case errors.Is(err, ErrNoUserInContext):
		return problem.NewUnauthorizedProblem("no user found in request context")
	case errors.Is(err, ErrUsernameConflict):
		return problem.NewValidateProblem("username already taken")
	case errors.Is(err, ErrInvalidUserType):
		return problem.NewValidateProblem("invalid user type")

	// Survey Errors
	case errors.Is(err, ErrSurveyNotFound):
		return problem.NewNotFoundProblem("survey not found")
	case errors.Is(err, ErrSurveyNotAvailable):
		return problem.NewForbiddenProblem("survey is not available")
	case errors.Is(err, ErrNoQuestions):
		return problem.NewValidateProblem("survey must have at least one question")

	// Question Errors
	case errors.Is(err, ErrQuestionNotFound):
		return problem.NewNotFoundProblem("question not found")
	case errors.Is(err, ErrValidationFailed):
		return problem.NewValidateProblem("validation failed")
	case errors.Is(err, ErrInvalidChoice):
		return problem.NewValidateProblem("choice does not belong to the question")

	// Response Errors
	case errors.Is(err, ErrDuplicateSubmission):
		return problem.NewValidateProblem("respondent already has a response for this survey")
	}
	return problem.Problem{}
}
