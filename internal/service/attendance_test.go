package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/panchi64/attendance-tracker/internal/domain"
	"github.com/panchi64/attendance-tracker/internal/dto"
	"github.com/panchi64/attendance-tracker/internal/repository"
	"github.com/panchi64/attendance-tracker/internal/repository/mocks"
	"github.com/panchi64/attendance-tracker/internal/service"
)

// mockBroadcaster records BroadcastCount calls.
type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastCount(courseID string, presentCount int64) {
	m.Called(courseID, presentCount)
}

// submissionFixture bundles the mocks behind one AttendanceService. The code
// service is real, backed by the mocked course repository.
type submissionFixture struct {
	courseRepo     *mocks.CourseRepository
	attendanceRepo *mocks.AttendanceRepository
	deviceRepo     *mocks.DeviceSubmissionRepository
	broadcaster    *mockBroadcaster
	svc            *service.AttendanceService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	f := &submissionFixture{
		courseRepo:     new(mocks.CourseRepository),
		attendanceRepo: new(mocks.AttendanceRepository),
		deviceRepo:     new(mocks.DeviceSubmissionRepository),
		broadcaster:    new(mockBroadcaster),
	}
	codes := service.NewCodeService(f.courseRepo, 5*time.Minute, false)
	f.svc = service.NewAttendanceService(codes, f.attendanceRepo, f.deviceRepo, f.broadcaster)
	return f
}

func (f *submissionFixture) expectValidCode(ctx context.Context, courseID, code string) {
	f.courseRepo.On("GetActiveCode", ctx, courseID).
		Return(&domain.ActiveCode{
			Code:      code,
			ExpiresAt: time.Now().UTC().Add(2 * time.Minute),
		}, nil).
		Once()
}

var validSubmission = dto.AttendanceSubmission{
	CourseID:         "3c9f2b1e-8a4d-4e6f-9b0a-1c2d3e4f5a6b",
	StudentName:      "Alice Rivera",
	StudentID:        "802-19-1234",
	ConfirmationCode: "Z9Q2KP",
}

func TestAttendanceService_Submit_Success(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.expectValidCode(ctx, validSubmission.CourseID, "Z9Q2KP")
	f.deviceRepo.On("InsertClaim", ctx, validSubmission.CourseID, "192.168.1.10", today).
		Return(nil).Once()
	f.attendanceRepo.On("HasStudentRecordToday", ctx, validSubmission.CourseID, validSubmission.StudentID, today).
		Return(false, nil).Once()
	f.attendanceRepo.On("Insert", ctx, mock.MatchedBy(func(r *domain.AttendanceRecord) bool {
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, validSubmission.CourseID, r.CourseID)
		assert.Equal(t, validSubmission.StudentID, r.StudentID)
		assert.Equal(t, today, r.AttendanceDate)
		assert.Equal(t, "192.168.1.10", r.IPAddress)
		return true
	})).Return(nil).Once()
	f.attendanceRepo.On("CountDistinctStudentsToday", ctx, validSubmission.CourseID, today).
		Return(int64(3), nil).Once()
	f.broadcaster.On("BroadcastCount", validSubmission.CourseID, int64(3)).Return().Once()

	record, err := f.svc.Submit(ctx, validSubmission, "192.168.1.10:54321")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, validSubmission.StudentName, record.StudentName)
	f.deviceRepo.AssertExpectations(t)
	f.attendanceRepo.AssertExpectations(t)
	f.broadcaster.AssertExpectations(t)
}

func TestAttendanceService_Submit_InvalidCodeConsumesNothing(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	f.expectValidCode(ctx, validSubmission.CourseID, "OTHER1")

	record, err := f.svc.Submit(ctx, validSubmission, "192.168.1.10")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, service.ErrInvalidCode)
	// A rejected code must not burn the device's daily claim.
	f.deviceRepo.AssertNotCalled(t, "InsertClaim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.attendanceRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.broadcaster.AssertNotCalled(t, "BroadcastCount", mock.Anything, mock.Anything)
}

func TestAttendanceService_Submit_DeviceConflict(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.expectValidCode(ctx, validSubmission.CourseID, "Z9Q2KP")
	f.deviceRepo.On("InsertClaim", ctx, validSubmission.CourseID, "192.168.1.10", today).
		Return(repository.ErrDuplicateEntry).Once()

	record, err := f.svc.Submit(ctx, validSubmission, "192.168.1.10")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, service.ErrDeviceConflict)
	f.attendanceRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	f.broadcaster.AssertNotCalled(t, "BroadcastCount", mock.Anything, mock.Anything)
}

func TestAttendanceService_Submit_StudentAlreadyPresent(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.expectValidCode(ctx, validSubmission.CourseID, "Z9Q2KP")
	f.deviceRepo.On("InsertClaim", ctx, validSubmission.CourseID, "10.0.0.7", today).
		Return(nil).Once()
	f.attendanceRepo.On("HasStudentRecordToday", ctx, validSubmission.CourseID, validSubmission.StudentID, today).
		Return(true, nil).Once()

	record, err := f.svc.Submit(ctx, validSubmission, "10.0.0.7")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, service.ErrStudentConflict)
	f.attendanceRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAttendanceService_Submit_StudentRaceLosesOnInsert(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.expectValidCode(ctx, validSubmission.CourseID, "Z9Q2KP")
	f.deviceRepo.On("InsertClaim", ctx, validSubmission.CourseID, "10.0.0.7", today).
		Return(nil).Once()
	// The fast-path check saw nothing, but a concurrent submission landed
	// first and the unique index rejects this insert.
	f.attendanceRepo.On("HasStudentRecordToday", ctx, validSubmission.CourseID, validSubmission.StudentID, today).
		Return(false, nil).Once()
	f.attendanceRepo.On("Insert", ctx, mock.Anything).
		Return(repository.ErrDuplicateEntry).Once()

	record, err := f.svc.Submit(ctx, validSubmission, "10.0.0.7")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, service.ErrStudentConflict)
	f.broadcaster.AssertNotCalled(t, "BroadcastCount", mock.Anything, mock.Anything)
}

func TestAttendanceService_Submit_UnresolvableClientIP(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	record, err := f.svc.Submit(ctx, validSubmission, "not-an-ip")

	assert.Nil(t, record)
	assert.ErrorIs(t, err, service.ErrBadInput)
	f.courseRepo.AssertNotCalled(t, "GetActiveCode", mock.Anything, mock.Anything)
}

func TestAttendanceService_Submit_BroadcastFailureDoesNotFailSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.expectValidCode(ctx, validSubmission.CourseID, "Z9Q2KP")
	f.deviceRepo.On("InsertClaim", ctx, validSubmission.CourseID, "10.0.0.7", today).
		Return(nil).Once()
	f.attendanceRepo.On("HasStudentRecordToday", ctx, validSubmission.CourseID, validSubmission.StudentID, today).
		Return(false, nil).Once()
	f.attendanceRepo.On("Insert", ctx, mock.Anything).Return(nil).Once()
	// Count failing after the record is durable only skips the broadcast.
	f.attendanceRepo.On("CountDistinctStudentsToday", ctx, validSubmission.CourseID, today).
		Return(int64(0), assert.AnError).Once()

	record, err := f.svc.Submit(ctx, validSubmission, "10.0.0.7")

	require.NoError(t, err)
	require.NotNil(t, record)
	f.broadcaster.AssertNotCalled(t, "BroadcastCount", mock.Anything, mock.Anything)
}

func TestAttendanceService_CountToday(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	today := domain.Day(time.Now().UTC())

	f.attendanceRepo.On("CountDistinctStudentsToday", ctx, "course-1", today).
		Return(int64(17), nil).Once()

	count, err := f.svc.CountToday(ctx, "course-1")

	require.NoError(t, err)
	assert.Equal(t, int64(17), count)
}
