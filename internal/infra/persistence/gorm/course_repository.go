package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

// GormCourseRepository is the gorm implementation of CourseRepository.
type GormCourseRepository struct {
	db *gorm.DB
}

func NewGormCourseRepository(db *gorm.DB) *GormCourseRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCourseRepository")
	}
	return &GormCourseRepository{db: db}
}

func (r *GormCourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCourseNotFound
		}
		return nil, fmt.Errorf("gorm: find course by id %s: %w", id, err)
	}
	return &course, nil
}

func (r *GormCourseRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Course{}).Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list course ids: %w", err)
	}
	return ids, nil
}

func (r *GormCourseRepository) GetActiveCode(ctx context.Context, courseID string) (*domain.ActiveCode, error) {
	course, err := r.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	// NULL code means no rotation has happened for this course yet. Distinct
	// from the course itself being unknown.
	if course.ConfirmationCode == nil || course.ConfirmationCodeExpiresAt == nil {
		return nil, nil
	}
	return &domain.ActiveCode{
		Code:      *course.ConfirmationCode,
		ExpiresAt: *course.ConfirmationCodeExpiresAt,
	}, nil
}

func (r *GormCourseRepository) SetActiveCode(ctx context.Context, courseID, code string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"confirmation_code":            code,
			"confirmation_code_expires_at": expiresAt,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: set active code for course %s: %w", courseID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrCourseNotFound
	}
	return nil
}
