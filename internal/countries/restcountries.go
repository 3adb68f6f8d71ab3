package countries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/sirupsen/logrus"
)

var alpha2Pattern = regexp.MustCompile(`^[A-Z]{2}$`)

// maxResponseBytes limita el tamaño de la respuesta leída del servicio externo
const maxResponseBytes = 1 << 20

// LookupStatus es el resultado etiquetado de una consulta remota
type LookupStatus int

const (
	StatusFound LookupStatus = iota
	StatusNotFound
	StatusUnavailable
)

// String retorna la etiqueta usada en logs y métricas
func (s LookupStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}

// Lookup es el resultado de consultar un código: Found con etiqueta, NotFound o Unavailable con causa
type Lookup struct {
	Code   string
	Status LookupStatus
	Label  string
	Err    error
}

// Client envuelve la API de RestCountries para validar códigos y obtener gentilicios
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// NewClient crea una nueva instancia del cliente
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// Lookup consulta el código normalizado y retorna el resultado etiquetado. Nunca retorna error.
func (c *Client) Lookup(ctx context.Context, code string) Lookup {
	code = models.NormalizeCountryCode(code)
	log := logging.FromContext(ctx, c.logger).WithField("country_code", code)

	if !alpha2Pattern.MatchString(code) {
		c.metrics.ObserveLookup(StatusNotFound.String())
		return Lookup{Code: code, Status: StatusNotFound}
	}

	log.Debug("Fetching demonym for country code")

	country, status, err := c.fetch(ctx, code)
	result := Lookup{Code: code, Status: status, Err: err}

	switch status {
	case StatusFound:
		label, ok := country.Label()
		if !ok {
			log.Warn("Country data has no demonym or name")
			result.Status = StatusNotFound
			break
		}
		result.Label = label
		log.WithField("demonym", label).Info("Successfully fetched demonym")
	case StatusNotFound:
		log.Warn("Country not found for code")
	default:
		log.WithError(err).Error("Error fetching country data")
	}

	c.metrics.ObserveLookup(result.Status.String())
	return result
}

// Resolve retorna la etiqueta del país o ErrInvalidCountryCode / ErrResolverUnavailable
func (c *Client) Resolve(ctx context.Context, code string) (string, error) {
	result := c.Lookup(ctx, code)

	switch result.Status {
	case StatusFound:
		return result.Label, nil
	case StatusNotFound:
		return "", &models.CountryCodeError{Code: result.Code, Err: models.ErrInvalidCountryCode}
	default:
		return "", &models.CountryCodeError{
			Code: result.Code,
			Err:  fmt.Errorf("%w: %v", models.ErrResolverUnavailable, result.Err),
		}
	}
}

// IsValid indica si el código existe. Si el servicio no está disponible se acepta el código.
func (c *Client) IsValid(ctx context.Context, code string) bool {
	_, err := c.Resolve(ctx, code)
	switch {
	case err == nil:
		return true
	case errors.Is(err, models.ErrInvalidCountryCode):
		return false
	default:
		logging.FromContext(ctx, c.logger).WithError(err).Warn("Could not validate country code due to service error")
		return true
	}
}

// CountryName obtiene el nombre común del país, si está disponible
func (c *Client) CountryName(ctx context.Context, code string) (string, bool) {
	code = models.NormalizeCountryCode(code)
	if !alpha2Pattern.MatchString(code) {
		return "", false
	}

	country, status, err := c.fetch(ctx, code)
	if status != StatusFound {
		if err != nil {
			logging.FromContext(ctx, c.logger).WithError(err).Warn("Could not fetch country name")
		}
		return "", false
	}
	if country.Name == nil || country.Name.Common == "" {
		return "", false
	}
	return country.Name.Common, true
}

// fetch realiza la llamada GET /alpha/{code}
func (c *Client) fetch(ctx context.Context, code string) (*models.CountryData, LookupStatus, error) {
	endpoint := fmt.Sprintf("%s/alpha/%s", c.baseURL, url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, StatusUnavailable, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, StatusUnavailable, fmt.Errorf("error calling country service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusUnavailable, fmt.Errorf("country service returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, StatusUnavailable, fmt.Errorf("error reading country response: %w", err)
	}

	var countries []models.CountryData
	if err := json.Unmarshal(body, &countries); err != nil {
		return nil, StatusUnavailable, fmt.Errorf("error decoding country response: %w", err)
	}
	if len(countries) == 0 {
		return nil, StatusNotFound, nil
	}

	return &countries[0], StatusFound, nil
}
