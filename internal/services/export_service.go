package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

// RosterStorage guarda archivos exportados en el storage de objetos
type RosterStorage interface {
	UploadFile(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// RosterArchive describe un listado archivado
type RosterArchive struct {
	URL         string    `json:"url"`
	Key         string    `json:"key"`
	CountryCode string    `json:"country_code,omitempty"`
	Clients     int       `json:"clients"`
	Size        int       `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ExportService genera listados PDF de clientes activos
type ExportService struct {
	clients *ClientService
	storage RosterStorage
	logger  *logrus.Logger
	now     func() time.Time
}

// NewExportService crea una nueva instancia del servicio. storage puede ser nil.
func NewExportService(clients *ClientService, storage RosterStorage, logger *logrus.Logger) *ExportService {
	return &ExportService{
		clients: clients,
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// StorageConfigured indica si es posible archivar listados
func (e *ExportService) StorageConfigured() bool {
	return e.storage != nil
}

// RosterPDF genera el listado de clientes activos, opcionalmente filtrado por país
func (e *ExportService) RosterPDF(ctx context.Context, countryCode string) ([]byte, error) {
	pdfData, _, err := e.render(ctx, countryCode)
	return pdfData, err
}

// ArchiveRoster genera el listado y lo sube a rosters/{país|all}/{timestamp}.pdf
func (e *ExportService) ArchiveRoster(ctx context.Context, countryCode string) (*RosterArchive, error) {
	if e.storage == nil {
		return nil, models.ErrStorageNotConfigured
	}

	pdfData, count, err := e.render(ctx, countryCode)
	if err != nil {
		return nil, err
	}

	code := models.NormalizeCountryCode(countryCode)
	folder := code
	if folder == "" {
		folder = "all"
	}
	generatedAt := e.now()
	key := fmt.Sprintf("rosters/%s/%s.pdf", folder, generatedAt.Format("20060102T150405Z"))

	url, err := e.storage.UploadFile(ctx, key, "application/pdf", pdfData)
	if err != nil {
		return nil, fmt.Errorf("error archiving roster: %w", err)
	}

	logging.FromContext(ctx, e.logger).WithFields(logrus.Fields{
		"key":     key,
		"clients": count,
	}).Info("Client roster archived")

	return &RosterArchive{
		URL:         url,
		Key:         key,
		CountryCode: code,
		Clients:     count,
		Size:        len(pdfData),
		GeneratedAt: generatedAt,
	}, nil
}

func (e *ExportService) render(ctx context.Context, countryCode string) ([]byte, int, error) {
	code := models.NormalizeCountryCode(countryCode)

	var clients []models.Client
	var err error
	if code == "" {
		clients, err = e.clients.ListAll(ctx)
	} else {
		clients, err = e.clients.ListByCountry(ctx, code)
	}
	if err != nil {
		return nil, 0, err
	}

	pdfData, err := e.generateRosterPDF(clients, code)
	if err != nil {
		return nil, 0, err
	}

	logging.FromContext(ctx, e.logger).WithFields(logrus.Fields{
		"country_code": code,
		"clients":      len(clients),
		"pdf_size":     len(pdfData),
	}).Info("Client roster generated")

	return pdfData, len(clients), nil
}

func (e *ExportService) generateRosterPDF(clients []models.Client, countryCode string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Encabezado
	pdf.SetFillColor(41, 128, 185)
	pdf.Rect(0, 0, 297, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 20)
	pdf.SetXY(10, 8)
	title := "Client roster"
	if countryCode != "" {
		title = fmt.Sprintf("Client roster - %s", countryCode)
	}
	pdf.Cell(277, 10, tr(title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(277, 6, fmt.Sprintf("%d active clients", len(clients)))

	pdf.SetY(38)
	pdf.SetTextColor(44, 62, 80)

	colWidths := []float64{70, 70, 40, 20, 45, 32}
	colHeaders := []string{"Full name", "Email", "Phone", "Country", "Demonym", "Created"}

	header := func() {
		pdf.SetFillColor(236, 240, 241)
		pdf.SetFont("Arial", "B", 10)
		for i, h := range colHeaders {
			pdf.CellFormat(colWidths[i], 9, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	rowHeight := 7.0
	for i := range clients {
		c := &clients[i]
		if pdf.GetY()+rowHeight > 195 {
			pdf.AddPage()
			header()
		}

		if i%2 == 0 {
			pdf.SetFillColor(248, 249, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		pdf.CellFormat(colWidths[0], rowHeight, tr(c.FullName()), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[1], rowHeight, tr(c.Email), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[2], rowHeight, tr(c.Phone), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[3], rowHeight, c.CountryCode, "1", 0, "C", true, 0, "")
		pdf.CellFormat(colWidths[4], rowHeight, tr(c.Demonym), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colWidths[5], rowHeight, c.CreatedAt.Format("2006-01-02"), "1", 0, "C", true, 0, "")
		pdf.Ln(rowHeight)
	}

	pdf.Ln(4)
	pdf.SetTextColor(149, 165, 166)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(277, 6, fmt.Sprintf("Generated %s", e.now().Format("2006-01-02 15:04:05 MST")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating PDF: %w", err)
	}

	return buf.Bytes(), nil
}
