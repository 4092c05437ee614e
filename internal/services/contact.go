package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"pickleballshannon/internal/domain"
	"pickleballshannon/internal/metrics"
	apperrors "pickleballshannon/pkg/errors"
)

// Mailer sends notification emails. Implementations absorb the disabled
// state themselves; callers only decide what to send.
type Mailer interface {
	IsEnabled() bool
	SendHTMLEmail(to, subject, htmlBody, textBody string) error
}

// SubmitRequest is the contact form payload posted by the site.
type SubmitRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	ServiceInterest string `json:"service_interest"`
	Message         string `json:"message"`
	TurnstileToken  string `json:"turnstileToken,omitempty"`
}

// SubmitResult is the success response for an accepted submission.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// displayLocation is the timezone the notification email renders the
// submission timestamp in.
var displayLocation = func() *time.Location {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// ContactService implements the contact submission pipeline: validate,
// verify the challenge token, persist, then best-effort notify.
type ContactService struct {
	db       *gorm.DB
	verifier Verifier
	mailer   Mailer
	notifyTo string
}

// NewContactService creates a new contact service. A nil db means the data
// store is not configured; submissions are rejected until it is.
func NewContactService(db *gorm.DB, verifier Verifier, mailer Mailer, notifyTo string) *ContactService {
	return &ContactService{
		db:       db,
		verifier: verifier,
		mailer:   mailer,
		notifyTo: notifyTo,
	}
}

// Submit runs one submission through the pipeline. Each gate fails fast;
// only the persistence step may abort with a server error, and notification
// failures never change the outcome.
func (s *ContactService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	log.Printf("[CONTACT] Submit request: name=%s, email=%s, service=%s",
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), strings.TrimSpace(req.ServiceInterest))

	// Configuration gate
	if s.db == nil {
		log.Printf("[CONTACT] Submit rejected: data store not configured")
		metrics.RecordInquiryRejected("not_configured")
		return nil, apperrors.New(apperrors.ErrCodeNotConfigured, "Service not configured. Please contact support.")
	}

	// Schema validation (the trust boundary; client checks are advisory)
	if issues := validateSubmitRequest(req); len(issues) > 0 {
		log.Printf("[CONTACT] Submit rejected: validation failed: %d issue(s)", len(issues))
		metrics.RecordInquiryRejected("validation")
		return nil, apperrors.NewValidation("Please fill in all required fields correctly.", issues)
	}

	// Challenge verification, only when a secret is configured for the
	// deployment. Unconfigured means open by default; that is an explicit
	// operational choice, not a gap.
	if s.verifier.IsEnabled() {
		if req.TurnstileToken == "" {
			log.Printf("[CONTACT] Submit rejected: verification required but no token supplied")
			metrics.RecordInquiryRejected("verification")
			return nil, apperrors.New(apperrors.ErrCodeVerificationRequired, "Security verification required.")
		}

		ok, err := s.verifier.Verify(ctx, req.TurnstileToken)
		if err != nil {
			// Fail closed: a broken verification call rejects the request.
			log.Printf("[CONTACT] Submit rejected: verification error: %v", err)
			metrics.RecordTurnstileVerification(false)
			metrics.RecordInquiryRejected("verification")
			return nil, apperrors.Wrap(apperrors.ErrCodeVerificationFailed, "Security verification failed. Please try again.", err)
		}
		metrics.RecordTurnstileVerification(ok)
		if !ok {
			log.Printf("[CONTACT] Submit rejected: verification failed")
			metrics.RecordInquiryRejected("verification")
			return nil, apperrors.New(apperrors.ErrCodeVerificationFailed, "Security verification failed. Please try again.")
		}
	}

	// Persistence. The inserted row is never read back.
	inquiry := &domain.Inquiry{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		ServiceInterest: strings.TrimSpace(req.ServiceInterest),
		Message:         strings.TrimSpace(req.Message),
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		inquiry.Phone = &phone
	}

	if err := s.db.WithContext(ctx).Create(inquiry).Error; err != nil {
		log.Printf("[CONTACT] Submit failed: database error: %v", err)
		metrics.RecordInquiryRejected("persistence")
		return nil, apperrors.Wrap(apperrors.ErrCodePersistence,
			fmt.Sprintf("Failed to save your request: %v", err), err)
	}

	log.Printf("[CONTACT] Submit successful: id=%d, name=%s, email=%s", inquiry.ID, inquiry.Name, inquiry.Email)
	metrics.RecordInquirySubmitted()

	// Best-effort notification; failures are logged and otherwise ignored.
	if err := s.sendInquiryNotification(inquiry); err != nil {
		log.Printf("[CONTACT] Warning: failed to send notification email: %v", err)
		metrics.RecordNotificationEmail(false)
	} else if s.mailer.IsEnabled() {
		log.Printf("[CONTACT] Notification email sent for inquiry id=%d", inquiry.ID)
		metrics.RecordNotificationEmail(true)
	}

	return &SubmitResult{
		Success: true,
		Message: "Thank you! Shannon will get back to you within 24 hours.",
	}, nil
}

// validateSubmitRequest validates the contact form input and returns one
// issue per invalid field.
func validateSubmitRequest(req *SubmitRequest) []apperrors.FieldIssue {
	var issues []apperrors.FieldIssue

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		issues = append(issues, apperrors.FieldIssue{Field: "name", Message: "Name is required"})
	} else if len(name) > 100 {
		issues = append(issues, apperrors.FieldIssue{Field: "name", Message: "Name must be at most 100 characters"})
	}

	email := strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(email) {
		issues = append(issues, apperrors.FieldIssue{Field: "email", Message: "Valid email is required"})
	}

	if phone := strings.TrimSpace(req.Phone); phone != "" && len(phone) > 20 {
		issues = append(issues, apperrors.FieldIssue{Field: "phone", Message: "Phone must be at most 20 characters"})
	}

	if strings.TrimSpace(req.ServiceInterest) == "" {
		issues = append(issues, apperrors.FieldIssue{Field: "service_interest", Message: "Please select a service"})
	}

	message := strings.TrimSpace(req.Message)
	if len(message) < 5 {
		issues = append(issues, apperrors.FieldIssue{Field: "message", Message: "Message is required"})
	} else if len(message) > 2000 {
		issues = append(issues, apperrors.FieldIssue{Field: "message", Message: "Message must be at most 2000 characters"})
	}

	return issues
}

// sendInquiryNotification sends an email notification to the operator about
// a new inquiry
func (s *ContactService) sendInquiryNotification(inquiry *domain.Inquiry) error {
	if !s.mailer.IsEnabled() {
		log.Printf("[CONTACT] New inquiry from %s (%s): %s", inquiry.Name, inquiry.Email, inquiry.ServiceInterest)
		return nil
	}

	subject := fmt.Sprintf("New Inquiry: %s from %s", inquiry.ServiceInterest, inquiry.Name)
	submittedAt := inquiry.CreatedAt.In(displayLocation).Format("January 2, 2006 at 3:04 PM")

	phoneRow := ""
	phoneInfo := "Not provided"
	if inquiry.Phone != nil && *inquiry.Phone != "" {
		phoneInfo = *inquiry.Phone
		phoneRow = fmt.Sprintf(`<p><strong>Phone:</strong> %s</p>`, *inquiry.Phone)
	}

	htmlBody := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #2A9D8F;">New Coaching Inquiry</h2>
    <hr style="border: 1px solid #e5e7eb;" />

    <h3 style="color: #374151;">Contact Information</h3>
    <p><strong>Name:</strong> %s</p>
    <p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
    %s

    <h3 style="color: #374151;">Inquiry Details</h3>
    <p><strong>Service:</strong> %s</p>
    <p><strong>Message:</strong> %s</p>

    <hr style="border: 1px solid #e5e7eb;" />
    <p style="color: #6b7280; font-size: 12px;">
        Submitted at %s CT via pickleballshannon.com
    </p>
</div>`, inquiry.Name, inquiry.Email, inquiry.Email, phoneRow, inquiry.ServiceInterest, inquiry.Message, submittedAt)

	textBody := fmt.Sprintf(`New Coaching Inquiry

Name: %s
Email: %s
Phone: %s

Service: %s
Message:
%s

Submitted at %s CT via pickleballshannon.com`,
		inquiry.Name, inquiry.Email, phoneInfo, inquiry.ServiceInterest, inquiry.Message, submittedAt)

	return s.mailer.SendHTMLEmail(s.notifyTo, subject, htmlBody, textBody)
}
