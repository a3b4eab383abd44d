package waitlist

import (
	"context"

	"github.com/akeren/klyr-waitlist/internal/models"
	apperrors "github.com/akeren/klyr-waitlist/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// Insert appends one row. Duplicate emails are allowed.
	Insert(ctx context.Context, submission *models.WaitlistSubmission) (*models.WaitlistSubmission, error)
	// Count returns the number of rows in waitlist_submissions.
	Count(ctx context.Context) (int64, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) Insert(ctx context.Context, submission *models.WaitlistSubmission) (*models.WaitlistSubmission, error) {
	if err := wr.db.WithContext(ctx).Create(submission).Error; err != nil {
		return nil, apperrors.NewDatabaseError("unable to insert waitlist submission", err)
	}
	return submission, nil
}

func (wr *waitlistRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := wr.db.WithContext(ctx).Model(&models.WaitlistSubmission{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist submissions", err)
	}
	return count, nil
}
