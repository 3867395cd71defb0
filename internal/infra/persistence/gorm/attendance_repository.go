package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/repository"
)

// GormAttendanceRepository is the gorm implementation of AttendanceRepository.
type GormAttendanceRepository struct {
	db *gorm.DB
}

func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAttendanceRepository")
	}
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) Insert(ctx context.Context, record *domain.AttendanceRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: insert attendance record (course %s, student %s): %w",
			record.CourseID, record.StudentID, err)
	}
	return nil
}

func (r *GormAttendanceRepository) CountDistinctStudentsToday(ctx context.Context, courseID, day string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.AttendanceRecord{}).
		Where("course_id = ? AND attendance_date = ?", courseID, day).
		Distinct("student_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count distinct students (course %s, day %s): %w", courseID, day, err)
	}
	return count, nil
}

func (r *GormAttendanceRepository) HasStudentRecordToday(ctx context.Context, courseID, studentID, day string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.AttendanceRecord{}).
		Where("course_id = ? AND student_id = ? AND attendance_date = ?", courseID, studentID, day).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check student record (course %s, student %s, day %s): %w",
			courseID, studentID, day, err)
	}
	return count > 0, nil
}

// GormDeviceSubmissionRepository is the gorm implementation of
// DeviceSubmissionRepository.
type GormDeviceSubmissionRepository struct {
	db *gorm.DB
}

func NewGormDeviceSubmissionRepository(db *gorm.DB) *GormDeviceSubmissionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormDeviceSubmissionRepository")
	}
	return &GormDeviceSubmissionRepository{db: db}
}

func (r *GormDeviceSubmissionRepository) InsertClaim(ctx context.Context, courseID, ipAddress, day string) error {
	claim := domain.DeviceSubmission{
		CourseID:       courseID,
		IPAddress:      ipAddress,
		SubmissionDate: day,
	}
	err := r.db.WithContext(ctx).Create(&claim).Error
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: insert device claim (course %s, ip %s, day %s): %w",
			courseID, ipAddress, day, err)
	}
	return nil
}

func (r *GormDeviceSubmissionRepository) PurgeBefore(ctx context.Context, day string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("submission_date < ?", day).
		Delete(&domain.DeviceSubmission{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: purge device claims before %s: %w", day, result.Error)
	}
	return result.RowsAffected, nil
}
