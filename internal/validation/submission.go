// Package validation checks waitlist input before anything is sent over the network.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/akeren/klyr-waitlist/internal/models"
	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Input holds candidate values exactly as the capture form or an API caller supplied them.
type Input struct {
	Email       string `json:"email" validate:"required,email,waitlist_email"`
	Role        string `json:"role"`
	Meetings    string `json:"meetings"`
	Suggestions string `json:"suggestions"`
	Source      string `json:"source"`
}

// Submission is an accepted waitlist submission. The zero value is never valid;
// obtain one from NewSubmission.
type Submission struct {
	email       string
	role        string
	meetings    string
	suggestions string
	source      string
}

func (s Submission) Email() string       { return s.email }
func (s Submission) Role() string        { return s.role }
func (s Submission) Meetings() string    { return s.meetings }
func (s Submission) Suggestions() string { return s.suggestions }
func (s Submission) Source() string      { return s.source }

// Input returns the wire form of the accepted submission.
func (s Submission) Input() Input {
	return Input{
		Email:       s.email,
		Role:        s.role,
		Meetings:    s.meetings,
		Suggestions: s.suggestions,
		Source:      s.source,
	}
}

func (s Submission) Model() *models.WaitlistSubmission {
	return &models.WaitlistSubmission{
		Email:       s.email,
		Role:        s.role,
		Meetings:    s.meetings,
		Suggestions: s.suggestions,
		Source:      s.source,
	}
}

// ValidationError names the first field that failed and a message fit for the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Response() apperrors.ValidationErrorResponse {
	return apperrors.ValidationErrorResponse{Field: e.Field, Message: e.Message}
}

// IsValidationError reports whether err (or anything it wraps) is a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("waitlist_email", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// NewSubmission normalises in and either accepts it or returns a *ValidationError
// describing the first failing field. Only the email is constrained.
func NewSubmission(in Input) (Submission, error) {
	in = normalise(in)

	if err := engine().Struct(in); err != nil {
		first, ok := apperrors.FirstValidationError(err, &in)
		if !ok {
			return Submission{}, &ValidationError{Field: "email", Message: "Invalid email address"}
		}
		if first.Field == "email" && in.Email == "" {
			first.Message = "Email is required"
		}
		return Submission{}, &ValidationError{Field: first.Field, Message: first.Message}
	}

	return Submission{
		email:       in.Email,
		role:        in.Role,
		meetings:    in.Meetings,
		suggestions: in.Suggestions,
		source:      in.Source,
	}, nil
}

// normalise trims only the email. The optional fields are stored exactly as
// entered, apart from NFC normalisation of the free-text suggestions.
func normalise(in Input) Input {
	in.Email = strings.TrimSpace(in.Email)
	in.Suggestions = norm.NFC.String(in.Suggestions)
	if in.Source == "" {
		in.Source = constants.DefaultSource
	}
	return in
}
