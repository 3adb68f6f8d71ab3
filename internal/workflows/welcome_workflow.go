package workflows

import (
	"context"
	"fmt"

	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/sirupsen/logrus"
)

// WelcomeFunctionID identifica la función de bienvenida en Inngest
const WelcomeFunctionID = "client-welcome-email"

// WelcomeSender envía el correo de bienvenida de un cliente
type WelcomeSender interface {
	SendWelcomeEmail(ctx context.Context, data models.ClientEventData) (string, error)
}

// WelcomeWorkflow envía un correo de bienvenida cuando se registra un cliente
type WelcomeWorkflow struct {
	sender WelcomeSender
	logger *logrus.Logger
}

// WelcomeResult es el resultado del workflow de bienvenida
type WelcomeResult struct {
	ClientID string `json:"client_id"`
	EmailID  string `json:"email_id,omitempty"`
	Skipped  bool   `json:"skipped"`
}

// NewWelcomeWorkflow crea una nueva instancia del workflow de bienvenida
func NewWelcomeWorkflow(sender WelcomeSender, logger *logrus.Logger) *WelcomeWorkflow {
	return &WelcomeWorkflow{
		sender: sender,
		logger: logger,
	}
}

// Register crea la función de Inngest disparada por clients/client.created
func (w *WelcomeWorkflow) Register(client inngestgo.Client) (inngestgo.ServableFunction, error) {
	return inngestgo.CreateFunction(
		client,
		inngestgo.FunctionOpts{
			ID:   WelcomeFunctionID,
			Name: "Send client welcome email",
		},
		inngestgo.EventTrigger(models.EventClientCreated, nil),
		func(ctx context.Context, input inngestgo.Input[models.ClientEventData]) (any, error) {
			data := input.Event.Data
			return step.Run(ctx, "send-welcome-email", func(ctx context.Context) (WelcomeResult, error) {
				return w.Send(ctx, data)
			})
		},
	)
}

// Send envía el correo de bienvenida; sin remitente configurado el paso se omite
func (w *WelcomeWorkflow) Send(ctx context.Context, data models.ClientEventData) (WelcomeResult, error) {
	result := WelcomeResult{ClientID: data.ClientID}

	if w.sender == nil || data.Email == "" {
		w.logger.WithField("client_id", data.ClientID).Warn("Welcome email skipped")
		result.Skipped = true
		return result, nil
	}

	emailID, err := w.sender.SendWelcomeEmail(ctx, data)
	if err != nil {
		return result, fmt.Errorf("error sending welcome email: %w", err)
	}

	result.EmailID = emailID
	return result, nil
}
