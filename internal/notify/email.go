package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/bindisa/agritech-api/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional email
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail over SMTP using gomail
type SMTPSender struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopSender is used when SMTP is not configured
type NoopSender struct{}

func (NoopSender) Send(_, _, _ string) error { return nil }

var emailVerificationTmpl = template.Must(template.New("email-verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2e7d32;">Welcome to {{.AppName}}!</h2>
  <p>Hi {{.Name}},</p>
  <p>Thank you for registering. Please verify your email address by clicking the button below:</p>
  <p style="text-align: center;">
    <a href="{{.VerificationURL}}" style="background-color: #2e7d32; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verify Email</a>
  </p>
  <p>If you did not create an account, you can safely ignore this email.</p>
</div>
`))

var passwordResetTmpl = template.Must(template.New("password-reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2e7d32;">Password Reset Request</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset your password. Click the button below to choose a new one:</p>
  <p style="text-align: center;">
    <a href="{{.ResetURL}}" style="background-color: #2e7d32; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a>
  </p>
  <p>This link expires in 1 hour. If you did not request a reset, you can safely ignore this email.</p>
</div>
`))

var soilConfirmationTmpl = template.Must(template.New("soil-analysis-confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2e7d32;">Soil Analysis Request Received</h2>
  <p>Hi {{.Name}},</p>
  <p>We have received your soil sample submission. Your sample ID is:</p>
  <p style="text-align: center; font-size: 20px; font-weight: bold;">{{.SampleID}}</p>
  <p>Our team will process your sample and you will be notified when results are ready. Typical turnaround is 3-5 business days.</p>
</div>
`))

var soilCompletedTmpl = template.Must(template.New("soil-analysis-completed").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2e7d32;">Your Soil Analysis is Ready</h2>
  <p>Hi {{.Name}},</p>
  <p>The analysis of sample <strong>{{.SampleID}}</strong> is complete.</p>
  {{if .HealthScore}}<p>Soil health score: <strong>{{.HealthScore}}/100</strong></p>{{end}}
  <p>Log in to your account to view the full report and recommendations.</p>
</div>
`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

// Mailer composes and sends the application's transactional emails
type Mailer struct {
	sender  Sender
	appName string
}

// NewMailer creates a new mailer
func NewMailer(sender Sender, appName string) *Mailer {
	return &Mailer{sender: sender, appName: appName}
}

func (m *Mailer) SendEmailVerification(to, name, verificationURL string) error {
	body, err := render(emailVerificationTmpl, map[string]any{
		"AppName":         m.appName,
		"Name":            name,
		"VerificationURL": verificationURL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(to, fmt.Sprintf("Verify your %s account", m.appName), body)
}

func (m *Mailer) SendPasswordReset(to, name, resetURL string) error {
	body, err := render(passwordResetTmpl, map[string]any{
		"Name":     name,
		"ResetURL": resetURL,
	})
	if err != nil {
		return err
	}
	return m.sender.Send(to, "Password Reset Request", body)
}

func (m *Mailer) SendSoilConfirmation(to, name, sampleID string) error {
	body, err := render(soilConfirmationTmpl, map[string]any{
		"Name":     name,
		"SampleID": sampleID,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Soil Analysis Request Received - Sample %s", sampleID)
	return m.sender.Send(to, subject, body)
}

func (m *Mailer) SendSoilCompleted(to, name, sampleID string, healthScore *int) error {
	body, err := render(soilCompletedTmpl, map[string]any{
		"Name":        name,
		"SampleID":    sampleID,
		"HealthScore": healthScore,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Soil Analysis Completed - Sample %s", sampleID)
	return m.sender.Send(to, subject, body)
}
