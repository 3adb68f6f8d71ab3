package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client representa un cliente registrado en el sistema
type Client struct {
	ID            uuid.UUID `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	SecondName    *string   `json:"second_name,omitempty" db:"second_name"`
	FirstSurname  string    `json:"first_surname" db:"first_surname"`
	SecondSurname *string   `json:"second_surname,omitempty" db:"second_surname"`
	Email         string    `json:"email" db:"email"`
	Address       string    `json:"address" db:"address"`
	Phone         string    `json:"phone" db:"phone"`
	CountryCode   string    `json:"country_code" db:"country_code"`
	Demonym       string    `json:"demonym" db:"demonym"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// NewClient construye un cliente activo a partir de un request ya normalizado.
// El ID y las marcas de tiempo se asignan aquí y nunca se reasignan.
func NewClient(req *CreateClientRequest, demonym string, now time.Time) *Client {
	return &Client{
		ID:            uuid.New(),
		FirstName:     req.FirstName,
		SecondName:    req.SecondName,
		FirstSurname:  req.FirstSurname,
		SecondSurname: req.SecondSurname,
		Email:         req.Email,
		Address:       req.Address,
		Phone:         req.Phone,
		CountryCode:   req.CountryCode,
		Demonym:       demonym,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// FullName retorna el nombre completo omitiendo las partes opcionales vacías
func (c *Client) FullName() string {
	parts := []string{c.FirstName}
	if c.SecondName != nil && strings.TrimSpace(*c.SecondName) != "" {
		parts = append(parts, *c.SecondName)
	}
	parts = append(parts, c.FirstSurname)
	if c.SecondSurname != nil && strings.TrimSpace(*c.SecondSurname) != "" {
		parts = append(parts, *c.SecondSurname)
	}
	return strings.Join(parts, " ")
}

// Touch actualiza updated_at sin permitir que quede antes de created_at
func (c *Client) Touch(now time.Time) {
	if now.Before(c.CreatedAt) {
		now = c.CreatedAt
	}
	c.UpdatedAt = now
}

// CreateClientRequest representa el request para crear un cliente.
// Las reglas validate se evalúan después de Normalize.
type CreateClientRequest struct {
	FirstName     string  `json:"first_name" validate:"required,min=2,max=100"`
	SecondName    *string `json:"second_name,omitempty" validate:"omitempty,max=100"`
	FirstSurname  string  `json:"first_surname" validate:"required,min=2,max=100"`
	SecondSurname *string `json:"second_surname,omitempty" validate:"omitempty,max=100"`
	Email         string  `json:"email" validate:"required,email,max=255"`
	Address       string  `json:"address" validate:"required,min=5,max=500"`
	Phone         string  `json:"phone" validate:"required,phone"`
	CountryCode   string  `json:"country_code" validate:"required,country_code"`
}

// Normalize recorta los campos de texto, pasa el email a minúsculas y el país a mayúsculas
func (r *CreateClientRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.SecondName = trimOptional(r.SecondName)
	r.FirstSurname = strings.TrimSpace(r.FirstSurname)
	r.SecondSurname = trimOptional(r.SecondSurname)
	r.Email = NormalizeEmail(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = NormalizePhone(r.Phone)
	r.CountryCode = NormalizeCountryCode(r.CountryCode)
}

// UpdateClientRequest representa el request para actualizar un cliente.
// Solo email, dirección, teléfono y país son modificables.
type UpdateClientRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Address     string `json:"address" validate:"required,min=5,max=500"`
	Phone       string `json:"phone" validate:"required,phone"`
	CountryCode string `json:"country_code" validate:"required,country_code"`
}

// Normalize aplica las mismas reglas de normalización que en la creación
func (r *UpdateClientRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = NormalizePhone(r.Phone)
	r.CountryCode = NormalizeCountryCode(r.CountryCode)
}

// ClientResponse representa un cliente en las respuestas de la API
type ClientResponse struct {
	ID            string    `json:"id"`
	FirstName     string    `json:"first_name"`
	SecondName    *string   `json:"second_name,omitempty"`
	FirstSurname  string    `json:"first_surname"`
	SecondSurname *string   `json:"second_surname,omitempty"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	CountryCode   string    `json:"country_code"`
	Demonym       string    `json:"demonym"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewClientResponse convierte la entidad en su representación pública
func NewClientResponse(c *Client) ClientResponse {
	return ClientResponse{
		ID:            c.ID.String(),
		FirstName:     c.FirstName,
		SecondName:    c.SecondName,
		FirstSurname:  c.FirstSurname,
		SecondSurname: c.SecondSurname,
		FullName:      c.FullName(),
		Email:         c.Email,
		Address:       c.Address,
		Phone:         c.Phone,
		CountryCode:   c.CountryCode,
		Demonym:       c.Demonym,
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewClientListResponse convierte una lista de entidades
func NewClientListResponse(clients []Client) []ClientResponse {
	items := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, NewClientResponse(&clients[i]))
	}
	return items
}

// NormalizeEmail recorta y pasa a minúsculas un email
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone recorta un teléfono
func NormalizePhone(phone string) string {
	return strings.TrimSpace(phone)
}

// NormalizeCountryCode recorta y pasa a mayúsculas un código de país
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
