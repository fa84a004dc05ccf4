package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/schoolapply/registration-api/internal/logging"
)

// Service sends transactional mail over SMTP.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
	}
}

// SendConfirmationLink sends an email-confirmation link to the applicant.
func (s *Service) SendConfirmationLink(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	// net/smtp carries no context; honor cancellation up front at least
	if err := ctx.Err(); err != nil {
		return err
	}

	confirmationLink := fmt.Sprintf("%s/confirm?token=%s", s.frontendURL, token)

	subject := "Bitte bestätigen Sie Ihre E-Mail-Adresse"
	body, err := s.renderConfirmationTemplate(confirmationLink)
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send confirmation email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

func (s *Service) renderConfirmationTemplate(confirmationLink string) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #1D4E89;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #1D4E89;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Anmeldung</h1>
    </div>
    <div class="content">
        <h2>E-Mail-Adresse bestätigen</h2>
        <p>Vielen Dank für Ihre Anmeldung! Bitte klicken Sie auf die Schaltfläche, um Ihre E-Mail-Adresse zu bestätigen.</p>

        <a href="{{.ConfirmationLink}}" class="button" style="color: white !important;">E-Mail bestätigen</a>

        <p>Oder kopieren Sie diesen Link in Ihren Browser:</p>
        <p style="word-break: break-all; color: #1D4E89;">{{.ConfirmationLink}}</p>

        <p style="margin-top: 30px;">Falls Sie sich nicht angemeldet haben, können Sie diese E-Mail ignorieren.</p>
    </div>
    <div class="footer">
        <p>Dieser Link ist 24 Stunden gültig.</p>
    </div>
</body>
</html>
`

	t, err := template.New("confirmation").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		ConfirmationLink string
	}{
		ConfirmationLink: confirmationLink,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
