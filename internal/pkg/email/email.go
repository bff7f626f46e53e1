package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/studentrecords/backend/internal/pkg/emailcheck"
)

// Service defines the interface for email operations
type Service interface {
	SendCredentialsEmail(ctx context.Context, toEmail, username, password string) error
}

// SMTPConfig holds configuration for the SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// SMTPService implements Service over plain SMTP
type SMTPService struct {
	config    SMTPConfig
	validator *emailcheck.Validator
	logger    zerolog.Logger
}

// NewSMTPService creates a new SMTPService
func NewSMTPService(config SMTPConfig, validator *emailcheck.Validator, logger zerolog.Logger) *SMTPService {
	return &SMTPService{
		config:    config,
		validator: validator,
		logger:    logger,
	}
}

// SendCredentialsEmail sends the initial login credentials to a newly
// registered user. The recipient address is verified (format + MX) first.
func (s *SMTPService) SendCredentialsEmail(ctx context.Context, toEmail, username, password string) error {
	if !s.validator.IsReal(ctx, toEmail) {
		return fmt.Errorf("invalid or non-existent email address: %s", toEmail)
	}

	subject := "Your Account Credentials"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Your Login Credentials</h2>
			<p><strong>Email:</strong> %s</p>
			<p><strong>Username:</strong> %s</p>
			<p><strong>Password:</strong> %s</p>
			<br />
			<p>Please change your password after first login.</p>
		</body>
		</html>`, toEmail, username, password)

	return s.send(toEmail, subject, body)
}

func (s *SMTPService) send(toEmail, subject, htmlBody string) error {
	// Without credentials configured, log instead of sending (local development)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP credentials not configured - email not sent")
		return nil
	}

	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	from := s.config.FromEmail
	msg := []byte("From: " + s.config.FromName + " <" + from + ">\r\n" +
		"To: " + toEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		htmlBody)

	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, msg); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
