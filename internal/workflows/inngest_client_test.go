package workflows

import (
	"testing"

	"github.com/hypernova-labs/client-service/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewInngestClient_RequiresCredentials(t *testing.T) {
	t.Run("missing event key", func(t *testing.T) {
		cfg := &config.Config{Inngest: config.InngestConfig{AppID: "client-service"}}
		_, err := NewInngestClient(cfg, newTestLogger())
		assert.EqualError(t, err, "INNGEST_EVENT_KEY not configured")
	})

	t.Run("missing signing key outside dev", func(t *testing.T) {
		cfg := &config.Config{Inngest: config.InngestConfig{AppID: "client-service", EventKey: "evt"}}
		_, err := NewInngestClient(cfg, newTestLogger())
		assert.EqualError(t, err, "INNGEST_SIGNING_KEY not configured")
	})
}
