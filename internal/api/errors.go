package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/models"
)

const (
	resolverUnavailableMessage = "Unable to fetch country information. Please try again later."
	internalErrorMessage       = "An unexpected error occurred. Please try again later."
)

// respondError traduce los errores del dominio al código HTTP y sobre correspondiente
func (api *API) respondError(c *gin.Context, err error) {
	log := logging.FromContext(c.Request.Context(), api.logger).WithError(err)

	switch {
	case errors.Is(err, models.ErrClientNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Client not found with id: %s", c.Param("id"))))

	case errors.Is(err, models.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, models.NewConflictError("A client with this email already exists"))

	case errors.Is(err, models.ErrDuplicatePhone):
		c.JSON(http.StatusConflict, models.NewConflictError("A client with this phone number already exists"))

	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, models.NewConflictError("A record with the provided data already exists"))

	case errors.Is(err, models.ErrInvalidCountryCode):
		code := ""
		var codeErr *models.CountryCodeError
		if errors.As(err, &codeErr) {
			code = codeErr.Code
		}
		message := fmt.Sprintf("Invalid country code: '%s'. Must be a valid ISO 3166-1 alpha-2 code.", code)
		c.JSON(http.StatusBadRequest, models.NewValidationError(message, []models.FieldError{
			{Field: "country_code", Message: message, RejectedValue: code},
		}))

	case errors.Is(err, models.ErrResolverUnavailable):
		log.Error("Country service error")
		c.JSON(http.StatusServiceUnavailable, models.NewServiceUnavailableError(resolverUnavailableMessage))

	case errors.Is(err, models.ErrStorageNotConfigured):
		c.JSON(http.StatusServiceUnavailable, models.NewServiceUnavailableError("Roster archiving is not configured"))

	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, models.NewInternalError(internalErrorMessage))
	}
}

// bindJSON decodifica el cuerpo y responde 400 si no es JSON válido
func (api *API) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logging.FromContext(c.Request.Context(), api.logger).WithError(err).Warn("Error binding request body")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.FieldError{
			decodeError(err),
		}))
		return false
	}
	return true
}

// validate responde 400 con los errores por campo si el request no es válido
func (api *API) validate(c *gin.Context, req interface{}) bool {
	details := api.validator.Validate(req)
	if len(details) == 0 {
		return true
	}

	logging.FromContext(c.Request.Context(), api.logger).WithField("errors", len(details)).Warn("Request validation failed")
	c.JSON(http.StatusBadRequest, models.NewValidationError("Validation failed for one or more fields", details))
	return false
}

func decodeError(err error) models.FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return models.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("Invalid value for field '%s': expected %s but received %s", typeErr.Field, typeErr.Type, typeErr.Value),
		}
	}
	if errors.Is(err, io.EOF) {
		return models.FieldError{Field: "body", Message: "Request body is required"}
	}
	return models.FieldError{Field: "body", Message: fmt.Sprintf("Invalid JSON format: %v", err)}
}
