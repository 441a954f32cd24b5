package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations. Delivery is
// fire-and-forget from the caller's perspective: a failed send is logged and
// never rolls back the data change that triggered it.
type EmailService interface {
	SendVerificationEmail(toEmail, toName, token string) error
	SendCollaboratorInvite(toEmail, projectName, roleName, actionURL string) error
	SendAdminInvite(toEmail, communityName, actionURL string) error
	SendAdminGranted(toEmail, communityName string) error
}

// SMTPConfig holds configuration for the SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendVerificationEmail sends an email with a verification link/token
func (s *EmailServiceImpl) SendVerificationEmail(toEmail, toName, token string) error {
	verificationURL := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", s.config.BaseURL, token)

	if s.unconfigured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("verificationURL", verificationURL).
			Msg("SMTP credentials not configured - verification email not sent")
		return nil
	}

	subject := "Verify Your Email Address - Wellspring"
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>Hello %s,</p>
			<p>Thank you for registering with Wellspring. Please verify your email address:</p>
			<p><a href="%s">Verify Email</a></p>
			<p>This link expires in 48 hours. If you did not register, please ignore this email.</p>
		</body>
		</html>
	`, toName, verificationURL)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendCollaboratorInvite notifies an email address of a pending project invitation
func (s *EmailServiceImpl) SendCollaboratorInvite(toEmail, projectName, roleName, actionURL string) error {
	if s.unconfigured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("project", projectName).
			Str("actionURL", actionURL).
			Msg("SMTP credentials not configured - collaborator invite not sent")
		return nil
	}

	subject := fmt.Sprintf("You've been invited to collaborate on %s", projectName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>You have been invited to join the project <strong>%s</strong> as %s.</p>
			<p><a href="%s">Accept invitation</a></p>
		</body>
		</html>
	`, projectName, roleName, actionURL)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendAdminInvite notifies an email address of a pending community-admin invitation
func (s *EmailServiceImpl) SendAdminInvite(toEmail, communityName, actionURL string) error {
	if s.unconfigured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("community", communityName).
			Str("actionURL", actionURL).
			Msg("SMTP credentials not configured - admin invite not sent")
		return nil
	}

	subject := fmt.Sprintf("You've been invited to administer %s", communityName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>You have been invited to become an administrator of the community <strong>%s</strong>.</p>
			<p>Administrators have admin access to every project in the community.</p>
			<p><a href="%s">Accept invitation</a></p>
		</body>
		</html>
	`, communityName, actionURL)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendAdminGranted notifies a user that they now administer a community
func (s *EmailServiceImpl) SendAdminGranted(toEmail, communityName string) error {
	if s.unconfigured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("community", communityName).
			Msg("SMTP credentials not configured - admin notification not sent")
		return nil
	}

	subject := fmt.Sprintf("You are now an administrator of %s", communityName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>You have been made an administrator of the community <strong>%s</strong> and now
			have admin access to all of its projects.</p>
		</body>
		</html>
	`, communityName)

	return s.sendHTMLEmail(toEmail, subject, body)
}

func (s *EmailServiceImpl) unconfigured() bool {
	return s.config.Username == "" || s.config.Password == ""
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth(
		"",
		s.config.Username,
		s.config.Password,
		s.config.Host,
	)

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		"To":           toEmail,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         s.config.Host,
		}

		conn, err := tls.Dial("tcp", serverAddress, tlsConfig)
		if err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create SMTP client")
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Quit()

		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}

		if err = client.Mail(s.config.FromEmail); err != nil {
			return fmt.Errorf("failed to set sender: %w", err)
		}
		if err = client.Rcpt(toEmail); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("failed to get data writer: %w", err)
		}
		if _, err = w.Write([]byte(message)); err != nil {
			return fmt.Errorf("failed to write email message: %w", err)
		}
		if err = w.Close(); err != nil {
			return fmt.Errorf("failed to close data writer: %w", err)
		}

		return nil
	}

	if err := smtp.SendMail(
		serverAddress,
		auth,
		s.config.FromEmail,
		[]string{toEmail},
		[]byte(message),
	); err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
