package waitlist

import (
	"github.com/akeren/klyr-waitlist/internal/models"
	"github.com/akeren/klyr-waitlist/internal/validation"
	"github.com/akeren/klyr-waitlist/pkg/constants"
	"github.com/akeren/klyr-waitlist/pkg/counter"
)

// SubmitWaitlistRequest is bound from the request body and checked by validation.NewSubmission.
type SubmitWaitlistRequest = validation.Input

type WaitlistSubmissionResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Meetings    string `json:"meetings"`
	Suggestions string `json:"suggestions"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}

type WaitlistCountResponse struct {
	Count   int64  `json:"count"`
	Display string `json:"display"`
}

// ========================================
// Mappers
// ========================================

func ToWaitlistSubmissionResponse(m *models.WaitlistSubmission) WaitlistSubmissionResponse {
	if m == nil {
		return WaitlistSubmissionResponse{}
	}
	return WaitlistSubmissionResponse{
		ID:          m.ID,
		Email:       m.Email,
		Role:        m.Role,
		Meetings:    m.Meetings,
		Suggestions: m.Suggestions,
		Source:      m.Source,
		CreatedAt:   m.CreatedAt.UTC().Format(constants.RFC3339DateTimeFormat),
	}
}

func ToWaitlistCountResponse(count int64) WaitlistCountResponse {
	return WaitlistCountResponse{Count: count, Display: counter.FormatCount(count, true)}
}
