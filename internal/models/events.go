package models

import "time"

// Nombres de los eventos del ciclo de vida de clientes
const (
	EventClientCreated = "clients/client.created"
	EventClientUpdated = "clients/client.updated"
	EventClientDeleted = "clients/client.deleted"
)

// ClientEventData es el payload publicado para cada evento del ciclo de vida
type ClientEventData struct {
	ClientID    string    `json:"client_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	CountryCode string    `json:"country_code"`
	Demonym     string    `json:"demonym"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewClientEventData construye el payload a partir del cliente
func NewClientEventData(c *Client) ClientEventData {
	return ClientEventData{
		ClientID:    c.ID.String(),
		FullName:    c.FullName(),
		Email:       c.Email,
		CountryCode: c.CountryCode,
		Demonym:     c.Demonym,
		OccurredAt:  c.UpdatedAt,
	}
}

// ToMap convierte el payload al formato genérico de eventos
func (d ClientEventData) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"client_id":    d.ClientID,
		"full_name":    d.FullName,
		"email":        d.Email,
		"country_code": d.CountryCode,
		"demonym":      d.Demonym,
		"occurred_at":  d.OccurredAt,
	}
}
