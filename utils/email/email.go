// Package email delivers transactional mail. The provider is picked by
// EMAIL_PROVIDER; callers only see Mailer.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursedelivery/config"
	"coursedelivery/logger"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNotConfigured is returned by every Send of the mailer New builds when a
// production provider is missing its credentials.
var ErrNotConfigured = errors.New("email provider is not configured")

// New builds the configured mailer. Outside production, sendgrid and http fall
// back to the console mailer when their credentials are missing. In
// production they get a mailer that always fails, so nothing is logged in
// place of being sent.
func New(cfg *config.Config, log *logger.Logger) Mailer {
	switch cfg.EmailProvider {
	case "sendgrid":
		if cfg.SendGridAPIKey != "" {
			return NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailSender, cfg.EmailSenderName)
		}
		return unconfigured(cfg, log, "SENDGRID_API_KEY")
	case "http":
		if cfg.EmailRelayURL != "" {
			return NewRelayMailer(cfg.EmailRelayURL, cfg.EmailRelayToken, cfg.EmailSender, 10*time.Second)
		}
		return unconfigured(cfg, log, "EMAIL_RELAY_URL")
	}
	if cfg.IsProduction() {
		log.Warn("Console mailer in production, mail is not delivered", "provider", cfg.EmailProvider)
	}
	return NewConsoleMailer(log)
}

func unconfigured(cfg *config.Config, log *logger.Logger, setting string) Mailer {
	if cfg.IsProduction() {
		log.Error(setting+" missing, outgoing mail will fail", "provider", cfg.EmailProvider)
		return failingMailer{err: ErrNotConfigured}
	}
	log.Warn(setting+" missing, using console mailer", "provider", cfg.EmailProvider)
	return NewConsoleMailer(log)
}

type failingMailer struct {
	err error
}

func (m failingMailer) Send(context.Context, Message) error {
	return m.err
}

func OTPMessage(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		To:      to,
		Subject: "Your sign-in code",
		Text:    fmt.Sprintf("Your sign-in code is %s. It expires in %d minutes.", code, minutes),
		HTML: layout("Your sign-in code", fmt.Sprintf(`
			<p>Use this code to sign in:</p>
			<h1 style="text-align: center; letter-spacing: 8px; font-size: 40px; margin: 20px 0;">%s</h1>
			<p>It expires in %d minutes. Do not share it with anyone.</p>
		`, code, minutes)),
	}
}

func AccessGrantedMessage(to, courseTitle string) Message {
	return Message{
		To:      to,
		Subject: "You now have access to " + courseTitle,
		Text:    fmt.Sprintf("You have been given access to %s. Sign in with your email to start learning.", courseTitle),
		HTML: layout("Course access granted", fmt.Sprintf(`
			<p>You have been given access to:</p>
			<h3 style="text-align: center; margin: 20px 0;">%s</h3>
			<p>Sign in with your email address to start learning.</p>
		`, courseTitle)),
	}
}

func layout(title, body string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
		<div style="max-width: 600px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
			<h2 style="color: #333333; text-align: center;">%s</h2>
			%s
			<p style="text-align: center; font-size: 12px; color: #bbbbbb; margin-top: 30px;">This is an automated message.</p>
		</div>
	</body>
	</html>
	`, title, body)
}
