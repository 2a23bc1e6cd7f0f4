package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"heather-backend/config"
	"heather-backend/internal/domain"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends transactional mail over SMTP (Brevo relay).
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	appURL    string
	send      sendMailFunc
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
		appURL:    cfg.FrontendURL,
		send:      smtp.SendMail,
	}
}

type newConversationData struct {
	DoctorName  string
	PatientName string
	MessagesURL string
}

var newConversationTemplate = template.Must(template.New("new_conversation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New patient conversation</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9fafb; }
        .button { display: inline-block; padding: 10px 18px; background: #0f766e; color: white; text-decoration: none; border-radius: 4px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>HEATHER</h1></div>
        <div class="content">
            <p>Hello {{.DoctorName}},</p>
            <p>{{.PatientName}} has started a conversation with you.</p>
            <p><a class="button" href="{{.MessagesURL}}">Open messages</a></p>
        </div>
        <div class="footer">
            <p>Message contents are never included in email notifications.</p>
        </div>
    </div>
</body>
</html>`))

// NotifyNewConversation emails the doctor that a patient opened a thread.
// The message body stays out of email.
func (s *EmailService) NotifyNewConversation(ctx context.Context, doctor, patient *domain.ProfileRow) error {
	if doctor == nil || doctor.Email == "" {
		return fmt.Errorf("doctor has no email address")
	}
	patientName := "A patient"
	if patient != nil && patient.Name != "" {
		patientName = patient.Name
	}

	var body bytes.Buffer
	if err := newConversationTemplate.Execute(&body, newConversationData{
		DoctorName:  doctor.Name,
		PatientName: patientName,
		MessagesURL: s.appURL + domain.PathMessages,
	}); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: HEATHER <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		doctor.Email,
		"New conversation on HEATHER",
		body.String(),
	))

	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{doctor.Email}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}
