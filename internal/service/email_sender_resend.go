package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/resendlabs/resend-go"
)

var ErrEmailSenderNotConfigured = errors.New("email sender not configured")

type emailTransport interface {
	Send(request *resend.SendEmailRequest) error
}

type resendTransport struct {
	client *resend.Client
}

func (t resendTransport) Send(request *resend.SendEmailRequest) error {
	_, err := t.client.Emails.Send(request)
	return err
}

type ResendEmailSender struct {
	From         string
	AppBaseURL   string
	ActivatePath string
	transport    emailTransport
}

func NewResendEmailSender(apiKey string, from string, appBaseURL string) *ResendEmailSender {
	sender := &ResendEmailSender{
		From:         from,
		AppBaseURL:   strings.TrimRight(appBaseURL, "/"),
		ActivatePath: "/activate",
	}
	if strings.TrimSpace(apiKey) != "" && strings.TrimSpace(from) != "" {
		sender.transport = resendTransport{client: resend.NewClient(apiKey)}
	}
	return sender
}

func (s *ResendEmailSender) SendActivationEmail(ctx context.Context, email string, code string) error {
	if s.transport == nil {
		return ErrEmailSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	link := s.buildURL(email)
	subject := "Your activation code"
	html := fmt.Sprintf("<p>Your activation code is:</p><h2>%s</h2><p>It expires in a few minutes.</p>", code)
	text := fmt.Sprintf("Your activation code is %s", code)
	if link != "" {
		html += fmt.Sprintf("<p><a href=\"%s\">Activate your account</a></p>", link)
		text += fmt.Sprintf("\nActivate your account: %s", link)
	}
	return s.transport.Send(&resend.SendEmailRequest{
		From:    s.From,
		To:      []string{email},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
}

// buildURL points at the activation screen with the email prefilled. The
// code is never put in the link.
func (s *ResendEmailSender) buildURL(email string) string {
	if s.AppBaseURL == "" {
		return ""
	}
	path := s.ActivatePath
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s%s?email=%s", s.AppBaseURL, path, url.QueryEscape(email))
}
