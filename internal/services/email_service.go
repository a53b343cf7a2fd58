package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rmejia/labtrack-api/internal/config"
	"github.com/rmejia/labtrack-api/internal/models"
	"github.com/rmejia/labtrack-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

func getStringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *EmailService) SendRecoveryCode(ctx context.Context, user *models.User, code string) error {
	data := struct {
		Name    string
		Code    string
		Minutes int
		AppURL  string
	}{
		Name:    user.FullName,
		Code:    code,
		Minutes: 15,
		AppURL:  s.config.AppURL,
	}
	return s.send(user.Email, "Password reset code", "reset_code.html", data)
}

func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User) error {
	data := struct {
		Name   string
		AppURL string
	}{
		Name:   user.FullName,
		AppURL: s.config.AppURL,
	}
	return s.send(user.Email, "Welcome to LabTrack", "account_created.html", data)
}

func (s *EmailService) SendRequestApproved(ctx context.Context, request *models.IssueRequest) error {
	data := struct {
		Name                   string
		ItemName               string
		ItemManualID           string
		RequestedDays          int
		CollectionInstructions string
		AppURL                 string
	}{
		Name:                   request.User.FullName,
		ItemName:               request.Item.Name,
		ItemManualID:           request.Item.ManualID,
		RequestedDays:          request.RequestedDays,
		CollectionInstructions: getStringValue(request.CollectionInstructions),
		AppURL:                 s.config.AppURL,
	}
	return s.send(request.User.Email, "Borrow request approved", "request_approved.html", data)
}

func (s *EmailService) SendRequestRejected(ctx context.Context, request *models.IssueRequest) error {
	data := struct {
		Name     string
		ItemName string
		Reason   string
		AppURL   string
	}{
		Name:     request.User.FullName,
		ItemName: request.Item.Name,
		Reason:   getStringValue(request.RejectionReason),
		AppURL:   s.config.AppURL,
	}
	return s.send(request.User.Email, "Borrow request rejected", "request_rejected.html", data)
}

func (s *EmailService) SendLateReturnBan(ctx context.Context, user *models.User, record *models.IssueRecord, daysLate int, bannedUntil time.Time) error {
	data := struct {
		Name        string
		ItemName    string
		DaysLate    int
		BannedUntil string
		AppURL      string
	}{
		Name:        user.FullName,
		ItemName:    record.Item.Name,
		DaysLate:    daysLate,
		BannedUntil: bannedUntil.Format("02 Jan 2006"),
		AppURL:      s.config.AppURL,
	}
	return s.send(user.Email, "Late return: borrowing suspended", "late_return_ban.html", data)
}

func (s *EmailService) SendCompensationBan(ctx context.Context, user *models.User, record *models.IssueRecord) error {
	data := struct {
		Name     string
		ItemName string
		Remarks  string
		AppURL   string
	}{
		Name:     user.FullName,
		ItemName: record.Item.Name,
		Remarks:  getStringValue(record.DamageRemarks),
		AppURL:   s.config.AppURL,
	}
	return s.send(user.Email, "Replacement pending: borrowing suspended", "compensation_ban.html", data)
}

type OverdueItemData struct {
	ItemName     string
	ItemManualID string
	DueDate      string
	DaysOverdue  int
}

func (s *EmailService) SendOverdueReminder(ctx context.Context, user *models.User, records []models.IssueRecord) error {
	now := time.Now()
	var items []OverdueItemData
	for _, r := range records {
		items = append(items, OverdueItemData{
			ItemName:     r.Item.Name,
			ItemManualID: r.Item.ManualID,
			DueDate:      r.ExpectedReturnDate.Format("02 Jan 2006"),
			DaysOverdue:  r.DaysOverdue(now),
		})
	}

	data := struct {
		Name   string
		Items  []OverdueItemData
		AppURL string
	}{
		Name:   user.FullName,
		Items:  items,
		AppURL: s.config.AppURL,
	}
	subject := fmt.Sprintf("Overdue items (%d)", len(records))
	return s.send(user.Email, subject, "overdue_reminder.html", data)
}

func (s *EmailService) send(to, subject, templateName string, data interface{}) error {
	if !s.config.EnableEmailNotifications {
		logger.Info(fmt.Sprintf("Email notifications disabled, skipping %q to %s", subject, to))
		return nil
	}

	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
