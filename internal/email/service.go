package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/redmonkez12/go-auth-api/internal/config"
	"github.com/redmonkez12/go-auth-api/internal/logging"
)

const passwordResetSubject = "Password Reset Request"

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	smtpHost      string
	smtpPort      string
	smtpUser      string
	smtpPassword  string
	fromEmail     string
	frontendURL   string
	resetTokenTTL time.Duration
	send          sendFunc
}

func NewService(cfg config.EmailConfig, resetTokenTTL time.Duration) *Service {
	return &Service{
		smtpHost:      cfg.SMTPHost,
		smtpPort:      cfg.SMTPPort,
		smtpUser:      cfg.SMTPUser,
		smtpPassword:  cfg.SMTPPassword,
		fromEmail:     cfg.From,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		resetTokenTTL: resetTokenTTL,
		send:          smtp.SendMail,
	}
}

// ResetURL is the frontend page that accepts the reset token
func (s *Service) ResetURL(token string) string {
	return fmt.Sprintf("%s/resetpassword/%s", s.frontendURL, token)
}

// SendPasswordResetEmail sends a password reset link to the user. It blocks
// until the SMTP server accepts or rejects the message.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.renderPasswordResetEmailTemplate(name, s.ResetURL(token))
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, passwordResetSubject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, buildMessage(s.fromEmail, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		from, to, subject, body,
	))
}

var passwordResetTemplate = template.Must(template.New("passwordReset").Parse(`
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
            background-color: #4F46E5;
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
            background-color: #4F46E5;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>Password Reset Request</h1>
    </div>
    <div class="content">
        <h2>Hello {{.Name}}</h2>
        <p>Please use the url below to reset your password.</p>
        <p>This reset link is valid for only {{.ValidFor}}.</p>

        <a href="{{.ResetLink}}" class="button" style="color: white !important;">Reset Password</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #4F46E5;">{{.ResetLink}}</p>

        <p style="margin-top: 30px;">If you didn't request a password reset, you can safely ignore this email.</p>
        <p>Regards...</p>
    </div>
</body>
</html>
`))

func (s *Service) renderPasswordResetEmailTemplate(name, resetLink string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name      string
		ResetLink string
		ValidFor  string
	}{
		Name:      name,
		ResetLink: resetLink,
		ValidFor:  humanizeDuration(s.resetTokenTTL),
	}

	if err := passwordResetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// humanizeDuration renders whole hours or minutes, e.g. "30 minutes"
func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
