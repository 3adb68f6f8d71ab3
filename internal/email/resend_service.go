package email

import (
	"context"
	"fmt"
	"html"

	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// ResendService maneja el envío de correos electrónicos usando Resend API
type ResendService struct {
	client    *resend.Client
	fromEmail string
	logger    *logrus.Logger
}

// NewResendService crea una nueva instancia de ResendService
func NewResendService(apiKey, fromEmail string, logger *logrus.Logger) *ResendService {
	return &ResendService{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// SendWelcomeEmail envía el correo de bienvenida a un cliente recién registrado
func (s *ResendService) SendWelcomeEmail(ctx context.Context, data models.ClientEventData) (string, error) {
	subject, htmlContent := welcomeEmail(data)

	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{data.Email},
		Subject: subject,
		Html:    htmlContent,
		Tags: []resend.Tag{
			{Name: "category", Value: "client_welcome"},
		},
	}

	result, err := s.client.Emails.SendWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id":  result.Id,
		"client_id": data.ClientID,
		"subject":   subject,
	}).Info("Welcome email sent successfully via Resend")

	return result.Id, nil
}

// welcomeEmail construye el asunto y el HTML del correo de bienvenida
func welcomeEmail(data models.ClientEventData) (string, string) {
	subject := fmt.Sprintf("Welcome, %s", data.FullName)

	htmlContent := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
        .content { padding: 20px; }
        .footer { margin-top: 30px; padding: 20px; background-color: #f8f9fa; border-radius: 8px; font-size: 14px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Welcome aboard</h1>
        </div>

        <div class="content">
            <h2>Hello %s,</h2>

            <p>Your client profile has been registered with the following details:</p>

            <ul>
                <li><strong>Email:</strong> %s</li>
                <li><strong>Country:</strong> %s (%s)</li>
                <li><strong>Client ID:</strong> %s</li>
            </ul>
        </div>

        <div class="footer">
            <p>This is an automated message. Please do not reply.</p>
        </div>
    </div>
</body>
</html>`,
		html.EscapeString(data.FullName),
		html.EscapeString(data.Email),
		html.EscapeString(data.CountryCode),
		html.EscapeString(data.Demonym),
		html.EscapeString(data.ClientID),
	)

	return subject, htmlContent
}
