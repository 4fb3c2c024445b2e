package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"piggybank/internal/models"
	"piggybank/internal/repository"
)

// sesSender is the part of the SES client used here
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        zerolog.Logger
}

// NewEmailService creates a new email service. It is disabled when fromEmail is empty.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log zerolog.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		log:        log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendTransactionNotice tells a parent that a transaction was recorded for their kid
func (s *EmailService) SendTransactionNotice(ctx context.Context, toEmail, toName string, kid *models.Kid, tx *models.Transaction) error {
	if !s.enabled {
		s.log.Debug().Str("to", toEmail).Msg("Skipping email send (service disabled)")
		return nil
	}

	subject := fmt.Sprintf("%s: %s $%s", kid.Name, tx.Kind, tx.Amount.StringFixed(2))
	balance := kid.Balance.StringFixed(2)
	dashboard := s.appBaseURL + "/dashboard"

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>A %s of <strong>$%s</strong> was recorded for %s: %s</p>
	<p>New balance: <strong>$%s</strong></p>
	<p><a href="%s">Open the dashboard</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from Piggybank. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(toName), tx.Kind, tx.Amount.StringFixed(2), html.EscapeString(kid.Name),
		html.EscapeString(tx.Description), balance, dashboard)

	textBody := fmt.Sprintf(`Hi %s,

A %s of $%s was recorded for %s: %s

New balance: $%s

Open the dashboard: %s

---
This is an automated email from Piggybank. Please do not reply.
`, toName, tx.Kind, tx.Amount.StringFixed(2), kid.Name, tx.Description, balance, dashboard)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.log.Info().Str("to", toEmail).Str("message_id", aws.ToString(result.MessageId)).Msg("Email sent")
	return nil
}

// TransactionEmailNotifier emails the parent about each recorded transaction
type TransactionEmailNotifier struct {
	userRepo *repository.UserRepository
	email    *EmailService
}

// NewTransactionEmailNotifier creates a notifier backed by the email service
func NewTransactionEmailNotifier(userRepo *repository.UserRepository, email *EmailService) *TransactionEmailNotifier {
	return &TransactionEmailNotifier{userRepo: userRepo, email: email}
}

// NotifyTransaction implements TransactionNotifier
func (n *TransactionEmailNotifier) NotifyTransaction(ctx context.Context, userID string, kid *models.Kid, tx *models.Transaction) error {
	if !n.email.IsEnabled() {
		return nil
	}
	user, err := n.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Email == "" {
		return nil
	}
	return n.email.SendTransactionNotice(ctx, user.Email, user.Name, kid, tx)
}
