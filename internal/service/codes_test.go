package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/repository"
	"github.com/panchi64/attendance-tracker/internal/repository/mocks"
	"github.com/panchi64/attendance-tracker/internal/service"
)

var codePattern = regexp.MustCompile(`^[0-9A-Z]{6}$`)

func TestCodeService_GenerateAndStore_Success(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	interval := 5 * time.Minute
	codeService := service.NewCodeService(mockCourseRepo, interval, false)

	ctx := context.Background()
	courseID := "course-1"
	before := time.Now().UTC()

	mockCourseRepo.On("SetActiveCode", ctx, courseID,
		mock.MatchedBy(func(code string) bool { return codePattern.MatchString(code) }),
		mock.MatchedBy(func(expiresAt time.Time) bool {
			// Expiry must land interval from now, give or take test slack.
			return expiresAt.After(before.Add(interval-time.Second)) &&
				expiresAt.Before(before.Add(interval+time.Second))
		})).
		Return(nil).
		Once()

	active, err := codeService.GenerateAndStore(ctx, courseID)

	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Regexp(t, codePattern, active.Code)
	assert.WithinDuration(t, before.Add(interval), active.ExpiresAt, time.Second)
	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_GenerateAndStore_CourseNotFound(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("SetActiveCode", ctx, "ghost", mock.Anything, mock.Anything).
		Return(repository.ErrCourseNotFound).
		Once()

	active, err := codeService.GenerateAndStore(ctx, "ghost")

	assert.Nil(t, active)
	assert.ErrorIs(t, err, service.ErrCourseNotFound)
	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_RotateAll_ContinuesPastFailures(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("ListIDs", ctx).
		Return([]string{"c1", "c2", "c3"}, nil).
		Once()
	mockCourseRepo.On("SetActiveCode", ctx, "c1", mock.Anything, mock.Anything).
		Return(nil).Once()
	// The failing course must not stop rotation for the one after it.
	mockCourseRepo.On("SetActiveCode", ctx, "c2", mock.Anything, mock.Anything).
		Return(errors.New("db gone")).Once()
	mockCourseRepo.On("SetActiveCode", ctx, "c3", mock.Anything, mock.Anything).
		Return(nil).Once()

	codeService.RotateAll(ctx)

	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_RotateAll_NoCourses(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("ListIDs", ctx).Return([]string{}, nil).Once()

	codeService.RotateAll(ctx)

	mockCourseRepo.AssertNotCalled(t, "SetActiveCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCodeService_Validate_Success_CaseInsensitive(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").
		Return(&domain.ActiveCode{
			Code:      "Z9Q2KP",
			ExpiresAt: time.Now().UTC().Add(2 * time.Minute),
		}, nil).
		Once()

	err := codeService.Validate(ctx, "course-1", "z9q2kp")

	assert.NoError(t, err)
	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_Validate_CaseSensitiveRejectsLowercase(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, true)
	ctx := context.Background()

	active := &domain.ActiveCode{
		Code:      "Z9Q2KP",
		ExpiresAt: time.Now().UTC().Add(2 * time.Minute),
	}
	mockCourseRepo.On("GetActiveCode", ctx, "course-1").Return(active, nil).Twice()

	assert.ErrorIs(t, codeService.Validate(ctx, "course-1", "z9q2kp"), service.ErrInvalidCode)
	assert.NoError(t, codeService.Validate(ctx, "course-1", "Z9Q2KP"))
}

func TestCodeService_Validate_WrongCode(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").
		Return(&domain.ActiveCode{
			Code:      "Z9Q2KP",
			ExpiresAt: time.Now().UTC().Add(2 * time.Minute),
		}, nil).
		Once()

	err := codeService.Validate(ctx, "course-1", "AAAAAA")

	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestCodeService_Validate_ExpiredCode(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").
		Return(&domain.ActiveCode{
			Code:      "Z9Q2KP",
			ExpiresAt: time.Now().UTC().Add(-time.Second),
		}, nil).
		Once()

	// Expired wins over mismatch: even the correct characters are rejected
	// as expired, not invalid.
	err := codeService.Validate(ctx, "course-1", "Z9Q2KP")

	assert.ErrorIs(t, err, service.ErrExpiredCode)
}

func TestCodeService_Validate_NoCodeGeneratedYet(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").Return(nil, nil).Once()

	err := codeService.Validate(ctx, "course-1", "Z9Q2KP")

	assert.ErrorIs(t, err, service.ErrInvalidCode)
}

func TestCodeService_Validate_UnknownCourse(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "ghost").
		Return(nil, repository.ErrCourseNotFound).
		Once()

	err := codeService.Validate(ctx, "ghost", "Z9Q2KP")

	assert.ErrorIs(t, err, service.ErrCourseNotFound)
}

func TestCodeService_CurrentCode_ReturnsStoredCode(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	interval := 5 * time.Minute
	codeService := service.NewCodeService(mockCourseRepo, interval, false)
	ctx := context.Background()

	expiresAt := time.Now().UTC().Add(interval / 2)
	mockCourseRepo.On("GetActiveCode", ctx, "course-1").
		Return(&domain.ActiveCode{Code: "Z9Q2KP", ExpiresAt: expiresAt}, nil).
		Once()

	status, err := codeService.CurrentCode(ctx, "course-1")

	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "Z9Q2KP", status.Code)
	assert.True(t, status.IsValid)
	// Half the window remains, so progress sits near 50.
	assert.InDelta(t, 50, status.ProgressPercent, 2)
	mockCourseRepo.AssertNotCalled(t, "SetActiveCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCodeService_CurrentCode_GeneratesWhenMissing(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").Return(nil, nil).Once()
	mockCourseRepo.On("SetActiveCode", ctx, "course-1", mock.Anything, mock.Anything).
		Return(nil).
		Once()

	status, err := codeService.CurrentCode(ctx, "course-1")

	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Regexp(t, codePattern, status.Code)
	assert.True(t, status.IsValid)
	assert.InDelta(t, 100, status.ProgressPercent, 2)
	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_CurrentCode_RegeneratesWhenExpired(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	codeService := service.NewCodeService(mockCourseRepo, 5*time.Minute, false)
	ctx := context.Background()

	mockCourseRepo.On("GetActiveCode", ctx, "course-1").
		Return(&domain.ActiveCode{
			Code:      "OLDOLD",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}, nil).
		Once()
	mockCourseRepo.On("SetActiveCode", ctx, "course-1", mock.Anything, mock.Anything).
		Return(nil).
		Once()

	status, err := codeService.CurrentCode(ctx, "course-1")

	require.NoError(t, err)
	require.NotNil(t, status)
	assert.NotEqual(t, "OLDOLD", status.Code)
	assert.True(t, status.IsValid)
	mockCourseRepo.AssertExpectations(t)
}

func TestCodeService_RunRotation_RotatesImmediatelyAndStopsOnCancel(t *testing.T) {
	mockCourseRepo := new(mocks.CourseRepository)
	// Long interval: only the immediate boot pass fires during the test.
	codeService := service.NewCodeService(mockCourseRepo, time.Hour, false)

	ctx, cancel := context.WithCancel(context.Background())
	rotated := make(chan struct{})

	mockCourseRepo.On("ListIDs", ctx).Return([]string{"c1"}, nil).Once()
	mockCourseRepo.On("SetActiveCode", ctx, "c1", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(rotated) }).
		Return(nil).
		Once()

	done := make(chan struct{})
	go func() {
		codeService.RunRotation(ctx)
		close(done)
	}()

	select {
	case <-rotated:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate rotation pass on startup")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rotator did not stop after context cancellation")
	}
	mockCourseRepo.AssertExpectations(t)
}
