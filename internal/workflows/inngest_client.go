package workflows

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hypernova-labs/client-service/internal/config"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// InngestClient maneja la configuración, publicación de eventos y registro de workflows
type InngestClient struct {
	client inngestgo.Client
	logger *logrus.Logger
}

// NewInngestClient crea una nueva instancia del cliente
func NewInngestClient(cfg *config.Config, logger *logrus.Logger) (*InngestClient, error) {
	// Verificar que las credenciales estén configuradas
	if cfg.Inngest.EventKey == "" {
		return nil, fmt.Errorf("INNGEST_EVENT_KEY not configured")
	}

	if cfg.Inngest.SigningKey == "" && !cfg.Inngest.Dev {
		return nil, fmt.Errorf("INNGEST_SIGNING_KEY not configured")
	}

	opts := inngestgo.ClientOpts{
		AppID:    cfg.Inngest.AppID,
		EventKey: &cfg.Inngest.EventKey,
		Dev:      &cfg.Inngest.Dev,
	}
	if cfg.Inngest.SigningKey != "" {
		opts.SigningKey = &cfg.Inngest.SigningKey
	}

	client, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestClient{
		client: client,
		logger: logger,
	}, nil
}

// Publish envía un evento del ciclo de vida de clientes a Inngest
func (c *InngestClient) Publish(ctx context.Context, name string, data map[string]interface{}) error {
	id, err := c.client.Send(ctx, inngestgo.Event{
		Name: name,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("error sending event %s: %w", name, err)
	}

	c.logger.WithFields(logrus.Fields{
		"event":    name,
		"event_id": id,
	}).Debug("Event sent to Inngest")

	return nil
}

// RegisterWorkflows registra todos los workflows con Inngest
func (c *InngestClient) RegisterWorkflows(sender WelcomeSender) error {
	c.logger.Info("Registering workflows with Inngest")

	welcome := NewWelcomeWorkflow(sender, c.logger)
	if _, err := welcome.Register(c.client); err != nil {
		return fmt.Errorf("error registering welcome workflow: %w", err)
	}

	c.logger.WithField("functions", 1).Info("Workflows registered successfully")
	return nil
}

// Handler retorna el handler HTTP que Inngest usa para invocar las funciones
func (c *InngestClient) Handler() http.Handler {
	return c.client.Serve()
}

// LogPublisher registra los eventos en el log cuando Inngest no está configurado
type LogPublisher struct {
	logger *logrus.Logger
}

// NewLogPublisher crea una nueva instancia de LogPublisher
func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish escribe el evento en el log y nunca falla
func (p *LogPublisher) Publish(ctx context.Context, name string, data map[string]interface{}) error {
	p.logger.WithFields(logrus.Fields{
		"event":     name,
		"client_id": data["client_id"],
	}).Info("Lifecycle event recorded")
	return nil
}
