package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/internhub-api/internal/models"
	"github.com/internhub/internhub-api/pkg/export"
	"github.com/internhub/internhub-api/pkg/storage"
)

type offerDocumentSource interface {
	GetByID(ctx context.Context, id string) (*models.OfferLetter, error)
}

type misconductDocumentSource interface {
	GetByID(ctx context.Context, id string) (*models.MisconductReport, error)
}

type progressDocumentSource interface {
	GetByID(ctx context.Context, id string) (*models.ProgressReport, error)
}

type appraisalDocumentSource interface {
	GetByID(ctx context.Context, id string) (*models.InternshipAppraisal, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentPDFRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type documentCSVRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RenderConfig tunes render behaviour.
type RenderConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// RenderResult captures successful generation metadata.
type RenderResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.DocumentFormat
	ExpiresAt    time.Time
}

// RenderService turns domain records into stored PDF/CSV documents with
// signed download URLs.
type RenderService struct {
	offers     offerDocumentSource
	misconduct misconductDocumentSource
	progress   progressDocumentSource
	appraisals appraisalDocumentSource
	storage    fileStorage
	csv        documentCSVRenderer
	pdf        documentPDFRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        RenderConfig
}

// NewRenderService constructs a RenderService.
func NewRenderService(
	offers offerDocumentSource,
	misconduct misconductDocumentSource,
	progress progressDocumentSource,
	appraisals appraisalDocumentSource,
	store fileStorage,
	signer *storage.SignedURLSigner,
	cfg RenderConfig,
	logger *zap.Logger,
	csv documentCSVRenderer,
	pdf documentPDFRenderer,
) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &RenderService{
		offers:     offers,
		misconduct: misconduct,
		progress:   progress,
		appraisals: appraisals,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate renders the record referenced by the job and stores the result.
func (s *RenderService) Generate(ctx context.Context, job *models.DocumentJob) (*RenderResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	doc, dataset, err := s.buildDocument(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.DocumentFormatPDF:
		payload, err = s.pdf.Render(doc)
	case models.DocumentFormatCSV:
		payload, err = s.csv.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &RenderResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *RenderService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *RenderService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored document file.
func (s *RenderService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *RenderService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *RenderService) buildFilename(job *models.DocumentJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Kind)), sanitizeFilename(job.EntityID), timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *RenderService) buildDocument(ctx context.Context, job *models.DocumentJob) (export.Document, export.Dataset, error) {
	switch job.Kind {
	case models.DocumentOfferLetter:
		return s.buildOfferDocument(ctx, job.EntityID)
	case models.DocumentMisconductReport:
		return s.buildMisconductDocument(ctx, job.EntityID)
	case models.DocumentProgressReport:
		return s.buildProgressDocument(ctx, job.EntityID)
	case models.DocumentAppraisal:
		return s.buildAppraisalDocument(ctx, job.EntityID)
	default:
		return export.Document{}, export.Dataset{}, fmt.Errorf("unsupported document kind %s", job.Kind)
	}
}

func (s *RenderService) buildOfferDocument(ctx context.Context, id string) (export.Document, export.Dataset, error) {
	offer, err := s.offers.GetByID(ctx, id)
	if err != nil {
		return export.Document{}, export.Dataset{}, err
	}

	fields := []export.Field{
		{Label: "Organization", Value: offer.Organization},
		{Label: "Representative", Value: offer.Representative},
		{Label: "Start Date", Value: offer.StartDate.Format(hireDateLayout)},
		{Label: "End Date", Value: offer.EndDate.Format(hireDateLayout)},
		{Label: "Status", Value: string(offer.Status)},
		{Label: "Issued", Value: offer.CreatedAt.UTC().Format(hireDateLayout)},
	}
	doc := export.Document{
		Title:    "Internship Offer Letter",
		Subtitle: offer.Organization,
		Sections: []export.Section{
			{Heading: "Offer Terms", Fields: fields},
			{Heading: "Letter", Paragraphs: []string{offer.Content}},
		},
		Footer: fmt.Sprintf("Offer %s", offer.ID),
	}
	dataset := fieldDataset(append(fields, export.Field{Label: "Content", Value: offer.Content}))
	return doc, dataset, nil
}

func (s *RenderService) buildMisconductDocument(ctx context.Context, id string) (export.Document, export.Dataset, error) {
	report, err := s.misconduct.GetByID(ctx, id)
	if err != nil {
		return export.Document{}, export.Dataset{}, err
	}

	fields := []export.Field{
		{Label: "Student", Value: report.StudentName},
		{Label: "Roll Number", Value: report.RollNumber},
		{Label: "Company", Value: report.CompanyName},
		{Label: "Supervisor", Value: report.SupervisorName},
		{Label: "Issue Type", Value: report.IssueType},
		{Label: "Incident Date", Value: report.IncidentDate.Format(hireDateLayout)},
		{Label: "Status", Value: string(report.Status)},
	}
	sections := []export.Section{
		{Heading: "Report", Fields: fields},
		{Heading: "Description", Paragraphs: []string{report.Description}},
	}
	if report.SupervisorComments != nil && *report.SupervisorComments != "" {
		sections = append(sections, export.Section{Heading: "Resolution", Paragraphs: []string{*report.SupervisorComments}})
	}
	doc := export.Document{
		Title:    "Misconduct Report",
		Subtitle: report.CompanyName,
		Sections: sections,
		Footer:   fmt.Sprintf("Report %s", report.ID),
	}
	dataset := fieldDataset(append(fields, export.Field{Label: "Description", Value: report.Description}))
	return doc, dataset, nil
}

func (s *RenderService) buildProgressDocument(ctx context.Context, id string) (export.Document, export.Dataset, error) {
	report, err := s.progress.GetByID(ctx, id)
	if err != nil {
		return export.Document{}, export.Dataset{}, err
	}

	fields := []export.Field{
		{Label: "Student", Value: report.StudentName},
		{Label: "Roll Number", Value: report.RollNumber},
		{Label: "Company", Value: report.CompanyName},
		{Label: "Supervisor", Value: report.SupervisorName},
		{Label: "Hours Worked", Value: fmt.Sprintf("%d", report.HoursWorked)},
		{Label: "Quality of Work", Value: string(report.QualityOfWork)},
		{Label: "Status", Value: string(report.Status)},
	}
	sections := []export.Section{
		{Heading: "Progress Report", Fields: fields},
		{Heading: "Tasks Assigned", Paragraphs: []string{report.TasksAssigned}},
		{Heading: "Progress Made", Paragraphs: []string{report.ProgressMade}},
	}
	if report.AreasOfImprovement != "" {
		sections = append(sections, export.Section{Heading: "Areas of Improvement", Paragraphs: []string{report.AreasOfImprovement}})
	}
	if report.NextGoals != "" {
		sections = append(sections, export.Section{Heading: "Next Goals", Paragraphs: []string{report.NextGoals}})
	}
	if report.SupervisorFeedback != nil && *report.SupervisorFeedback != "" {
		sections = append(sections, export.Section{Heading: "Supervisor Feedback", Paragraphs: []string{*report.SupervisorFeedback}})
	}
	doc := export.Document{
		Title:    "Internship Progress Report",
		Subtitle: report.CompanyName,
		Sections: sections,
		Footer:   fmt.Sprintf("Report %s", report.ID),
	}
	dataset := fieldDataset(append(fields,
		export.Field{Label: "Tasks Assigned", Value: report.TasksAssigned},
		export.Field{Label: "Progress Made", Value: report.ProgressMade},
	))
	return doc, dataset, nil
}

func (s *RenderService) buildAppraisalDocument(ctx context.Context, id string) (export.Document, export.Dataset, error) {
	appraisal, err := s.appraisals.GetByID(ctx, id)
	if err != nil {
		return export.Document{}, export.Dataset{}, err
	}

	fields := []export.Field{
		{Label: "Student", Value: appraisal.StudentName},
		{Label: "Roll Number", Value: appraisal.RollNumber},
		{Label: "Company", Value: appraisal.CompanyName},
		{Label: "Supervisor", Value: appraisal.SupervisorName},
		{Label: "Rating", Value: fmt.Sprintf("%d / %d", appraisal.Rating, models.AppraisalRatingMax)},
		{Label: "Overall Performance", Value: string(appraisal.OverallPerformance)},
		{Label: "Recommendation", Value: string(appraisal.Recommendation)},
	}
	doc := export.Document{
		Title:    "Internship Appraisal",
		Subtitle: appraisal.CompanyName,
		Sections: []export.Section{
			{Heading: "Evaluation", Fields: fields},
			{Heading: "Key Strengths", Paragraphs: []string{appraisal.KeyStrengths}},
			{Heading: "Areas for Improvement", Paragraphs: []string{appraisal.AreasForImprovement}},
			{Heading: "Comments and Feedback", Paragraphs: []string{appraisal.CommentsAndFeedback}},
		},
		Footer: fmt.Sprintf("Appraisal %s", appraisal.ID),
	}
	dataset := fieldDataset(append(fields,
		export.Field{Label: "Key Strengths", Value: appraisal.KeyStrengths},
		export.Field{Label: "Areas for Improvement", Value: appraisal.AreasForImprovement},
		export.Field{Label: "Comments and Feedback", Value: appraisal.CommentsAndFeedback},
	))
	return doc, dataset, nil
}

func fieldDataset(fields []export.Field) export.Dataset {
	rows := make([]map[string]string, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, map[string]string{"Field": field.Label, "Value": field.Value})
	}
	return export.Dataset{Headers: []string{"Field", "Value"}, Rows: rows}
}
