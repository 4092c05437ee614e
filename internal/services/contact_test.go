package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"pickleballshannon/internal/domain"
	apperrors "pickleballshannon/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        ":memory:",
		Conn:       sqlDB,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&domain.Inquiry{}))
	return db
}

type fakeVerifier struct {
	enabled bool
	ok      bool
	err     error
	calls   int
}

func (f *fakeVerifier) IsEnabled() bool { return f.enabled }

func (f *fakeVerifier) Verify(ctx context.Context, token string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

type sentEmail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

type fakeMailer struct {
	enabled bool
	err     error
	sent    []sentEmail
}

func (f *fakeMailer) IsEnabled() bool { return f.enabled }

func (f *fakeMailer) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, htmlBody: htmlBody, textBody: textBody})
	return nil
}

func validRequest() *SubmitRequest {
	return &SubmitRequest{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		Phone:           "(612) 555-1234",
		ServiceInterest: "Private Lessons",
		Message:         "I'd like to book a lesson next week.",
	}
}

func countInquiries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Inquiry{}).Count(&count).Error)
	return count
}

func TestSubmitStoresInquiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db, &fakeVerifier{}, &fakeMailer{}, "shannon@pickleballshannon.com")

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Thank you! Shannon will get back to you within 24 hours.", result.Message)

	var inquiry domain.Inquiry
	require.NoError(t, db.First(&inquiry).Error)
	assert.Equal(t, "Jane Doe", inquiry.Name)
	assert.Equal(t, "jane@example.com", inquiry.Email)
	assert.Equal(t, "Private Lessons", inquiry.ServiceInterest)
	require.NotNil(t, inquiry.Phone)
	assert.Equal(t, "(612) 555-1234", *inquiry.Phone)
	assert.False(t, inquiry.CreatedAt.IsZero())
}

func TestSubmitEmptyPhoneStoredAsAbsent(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db, &fakeVerifier{}, &fakeMailer{}, "shannon@pickleballshannon.com")

	req := validRequest()
	req.Phone = "   "
	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	var inquiry domain.Inquiry
	require.NoError(t, db.First(&inquiry).Error)
	assert.Nil(t, inquiry.Phone)
}

func TestSubmitNotConfigured(t *testing.T) {
	svc := NewContactService(nil, &fakeVerifier{}, &fakeMailer{}, "shannon@pickleballshannon.com")

	_, err := svc.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotConfigured, apperrors.Code(err))
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubmitRequest)
		field  string
	}{
		{"empty name", func(r *SubmitRequest) { r.Name = "" }, "name"},
		{"one-char name", func(r *SubmitRequest) { r.Name = "J" }, "name"},
		{"long name", func(r *SubmitRequest) { r.Name = strings.Repeat("a", 101) }, "name"},
		{"missing email", func(r *SubmitRequest) { r.Email = "" }, "email"},
		{"invalid email", func(r *SubmitRequest) { r.Email = "not-an-email" }, "email"},
		{"long phone", func(r *SubmitRequest) { r.Phone = strings.Repeat("1", 21) }, "phone"},
		{"missing service", func(r *SubmitRequest) { r.ServiceInterest = "  " }, "service_interest"},
		{"short message", func(r *SubmitRequest) { r.Message = "hey" }, "message"},
		{"long message", func(r *SubmitRequest) { r.Message = strings.Repeat("a", 2001) }, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			svc := NewContactService(db, &fakeVerifier{}, &fakeMailer{}, "shannon@pickleballshannon.com")

			req := validRequest()
			tt.mutate(req)

			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeValidation, apperrors.Code(err))

			appErr := err.(*apperrors.AppError)
			require.Len(t, appErr.Details, 1)
			assert.Equal(t, tt.field, appErr.Details[0].Field)

			assert.Equal(t, int64(0), countInquiries(t, db), "no row may be created")
		})
	}
}

func TestSubmitVerificationRequired(t *testing.T) {
	db := newTestDB(t)
	verifier := &fakeVerifier{enabled: true, ok: true}
	svc := NewContactService(db, verifier, &fakeMailer{}, "shannon@pickleballshannon.com")

	req := validRequest()
	req.TurnstileToken = ""

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeVerificationRequired, apperrors.Code(err))
	assert.Equal(t, 0, verifier.calls, "verification service must not be called without a token")
	assert.Equal(t, int64(0), countInquiries(t, db))
}

func TestSubmitVerificationFailed(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db, &fakeVerifier{enabled: true, ok: false}, &fakeMailer{}, "shannon@pickleballshannon.com")

	req := validRequest()
	req.TurnstileToken = "token-123"

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeVerificationFailed, apperrors.Code(err))
	assert.Equal(t, int64(0), countInquiries(t, db))
}

func TestSubmitVerificationErrorFailsClosed(t *testing.T) {
	db := newTestDB(t)
	verifier := &fakeVerifier{enabled: true, ok: false, err: errors.New("connection refused")}
	svc := NewContactService(db, verifier, &fakeMailer{}, "shannon@pickleballshannon.com")

	req := validRequest()
	req.TurnstileToken = "token-123"

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeVerificationFailed, apperrors.Code(err))
	assert.Equal(t, int64(0), countInquiries(t, db))
}

func TestSubmitVerificationSuccessProceeds(t *testing.T) {
	db := newTestDB(t)
	verifier := &fakeVerifier{enabled: true, ok: true}
	svc := NewContactService(db, verifier, &fakeMailer{}, "shannon@pickleballshannon.com")

	req := validRequest()
	req.TurnstileToken = "token-123"

	result, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, int64(1), countInquiries(t, db))
}

func TestSubmitSkipsVerificationWhenDisabled(t *testing.T) {
	db := newTestDB(t)
	verifier := &fakeVerifier{enabled: false}
	svc := NewContactService(db, verifier, &fakeMailer{}, "shannon@pickleballshannon.com")

	// No token at all, verification not configured: open by default.
	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, verifier.calls)
}

func TestSubmitEmailFailureDoesNotChangeOutcome(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{enabled: true, err: errors.New("smtp: connection reset")}
	svc := NewContactService(db, &fakeVerifier{}, mailer, "shannon@pickleballshannon.com")

	result, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), countInquiries(t, db))
}

func TestSubmitNotificationContent(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{enabled: true}
	svc := NewContactService(db, &fakeVerifier{}, mailer, "shannon@pickleballshannon.com")

	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	email := mailer.sent[0]
	assert.Equal(t, "shannon@pickleballshannon.com", email.to)
	assert.Equal(t, "New Inquiry: Private Lessons from Jane Doe", email.subject)
	assert.Contains(t, email.htmlBody, "jane@example.com")
	assert.Contains(t, email.htmlBody, "(612) 555-1234")
	assert.Contains(t, email.textBody, "I'd like to book a lesson next week.")
	assert.Contains(t, email.textBody, "CT via pickleballshannon.com")
}

func TestSubmitNoDeduplication(t *testing.T) {
	db := newTestDB(t)
	svc := NewContactService(db, &fakeVerifier{}, &fakeMailer{}, "shannon@pickleballshannon.com")

	_, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(2), countInquiries(t, db), "identical submissions produce distinct rows")
}
