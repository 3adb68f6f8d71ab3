package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/hypernova-labs/client-service/internal/services"
	"github.com/sirupsen/logrus"
)

const clientsBasePath = "/api/v1/clients"

// HealthChecker es una dependencia cuyo estado se reporta en /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// API maneja todos los endpoints de la API
type API struct {
	clientService *services.ClientService
	exportService *services.ExportService
	validator     *RequestValidator
	checks        map[string]HealthChecker
	logger        *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	clientService *services.ClientService,
	exportService *services.ExportService,
	checks map[string]HealthChecker,
	logger *logrus.Logger,
) *API {
	return &API{
		clientService: clientService,
		exportService: exportService,
		validator:     NewRequestValidator(),
		checks:        checks,
		logger:        logger,
	}
}

// CreateClient crea un nuevo cliente
func (api *API) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if !api.bindJSON(c, &req) {
		return
	}
	req.Normalize()
	if !api.validate(c, &req) {
		return
	}

	client, err := api.clientService.Create(c.Request.Context(), &req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.Header("Location", fmt.Sprintf("%s/%s", clientsBasePath, client.ID))
	c.JSON(http.StatusCreated, models.NewSuccessResponse(models.NewClientResponse(client), "Client created successfully"))
}

// ListClients obtiene todos los clientes activos
func (api *API) ListClients(c *gin.Context) {
	clients, err := api.clientService.ListAll(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(models.NewClientListResponse(clients), "Clients retrieved successfully"))
}

// ListClientsByCountry obtiene los clientes activos de un país
func (api *API) ListClientsByCountry(c *gin.Context) {
	code, ok := api.countryParam(c, c.Param("code"))
	if !ok {
		return
	}

	clients, err := api.clientService.ListByCountry(c.Request.Context(), code)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(models.NewClientListResponse(clients), "Clients retrieved successfully"))
}

// GetClient obtiene un cliente por ID
func (api *API) GetClient(c *gin.Context) {
	client, err := api.clientService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(models.NewClientResponse(client), "Client retrieved successfully"))
}

// UpdateClient actualiza email, dirección, teléfono y país de un cliente
func (api *API) UpdateClient(c *gin.Context) {
	var req models.UpdateClientRequest
	if !api.bindJSON(c, &req) {
		return
	}
	req.Normalize()
	if !api.validate(c, &req) {
		return
	}

	client, err := api.clientService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(models.NewClientResponse(client), "Client updated successfully"))
}

// DeleteClient desactiva un cliente
func (api *API) DeleteClient(c *gin.Context) {
	if err := api.clientService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(nil, "Client deleted successfully"))
}

// CountClients cuenta los clientes activos, opcionalmente por país
func (api *API) CountClients(c *gin.Context) {
	var (
		total int64
		err   error
	)

	if raw, present := c.GetQuery("country"); present {
		code, ok := api.countryParam(c, raw)
		if !ok {
			return
		}
		total, err = api.clientService.CountByCountry(c.Request.Context(), code)
	} else {
		total, err = api.clientService.Count(c.Request.Context())
	}
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(total, "Client count retrieved successfully"))
}

// ExportRoster descarga el listado PDF de clientes activos
func (api *API) ExportRoster(c *gin.Context) {
	code, ok := api.optionalCountry(c)
	if !ok {
		return
	}

	pdfData, err := api.exportService.RosterPDF(c.Request.Context(), code)
	if err != nil {
		api.respondError(c, err)
		return
	}

	name := "all"
	if code != "" {
		name = code
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=clients-roster-%s.pdf", name))
	c.Data(http.StatusOK, "application/pdf", pdfData)
}

// ArchiveRoster genera el listado PDF y lo guarda en el storage de objetos
func (api *API) ArchiveRoster(c *gin.Context) {
	code, ok := api.optionalCountry(c)
	if !ok {
		return
	}

	archive, err := api.exportService.ArchiveRoster(c.Request.Context(), code)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewSuccessResponse(archive, "Client roster archived successfully"))
}

// Health reporta el estado del servicio y sus dependencias
func (api *API) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	dependencies := make(map[string]string, len(api.checks))
	for name, checker := range api.checks {
		if err := checker.HealthCheck(ctx); err != nil {
			api.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			dependencies[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "healthy"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"timestamp":    time.Now().UTC(),
		"service":      "client-service",
		"dependencies": dependencies,
	})
}

// countryParam valida un código de país recibido en la ruta o en la query
func (api *API) countryParam(c *gin.Context, raw string) (string, bool) {
	if !countryCodePattern.MatchString(raw) {
		c.JSON(http.StatusBadRequest, models.NewValidationError(countryCodeMessage, []models.FieldError{
			{Field: "country_code", Message: countryCodeMessage, RejectedValue: raw},
		}))
		return "", false
	}
	return models.NormalizeCountryCode(raw), true
}

func (api *API) optionalCountry(c *gin.Context) (string, bool) {
	raw, present := c.GetQuery("country")
	if !present {
		return "", true
	}
	return api.countryParam(c, raw)
}
