package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvidal/tripweaver/internal/ai"
	"github.com/dvidal/tripweaver/internal/models"
)

// EventCreator persists one event. It is the only storage surface the
// importer needs, which keeps the DB out of import tests.
type EventCreator interface {
	CreateEvent(ctx context.Context, event *models.Event) error
}

// Result is the import accounting returned to the caller. Created plus
// Failed always equals TotalParsed.
type Result struct {
	TotalParsed int    `json:"total_parsed"`
	Created     int    `json:"created"`
	Failed      int    `json:"failed"`
	Message     string `json:"message"`
}

// Importer runs the spreadsheet import pipeline: read rows, normalize
// them through the model, persist each usable candidate as an event.
type Importer struct {
	AI    ai.Completer
	Store EventCreator
}

func NewImporter(completer ai.Completer, store EventCreator) *Importer {
	return &Importer{AI: completer, Store: store}
}

// ImportPlan imports a trip-plan file into tripID's events. Row failures
// are isolated: one bad row costs one Failed count, never the batch.
// Reading the file and the normalization call itself are the only
// all-or-nothing stages.
func (imp *Importer) ImportPlan(ctx context.Context, tripID, userID uuid.UUID, filename string, r io.Reader, tripCurrency string) (*Result, error) {
	rows, err := ReadRows(filename, r)
	if err != nil {
		return nil, err
	}

	actx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	candidates, err := ai.ExtractPlan(actx, imp.AI, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize rows: %w", err)
	}

	result := &Result{TotalParsed: len(candidates)}
	for i, candidate := range candidates {
		event, err := imp.buildEvent(tripID, userID, candidate, tripCurrency)
		if err != nil {
			log.Printf("[import] row %d skipped: %v", i+1, err)
			result.Failed++
			continue
		}
		if err := imp.Store.CreateEvent(ctx, event); err != nil {
			log.Printf("[import] row %d insert failed: %v", i+1, err)
			result.Failed++
			continue
		}
		result.Created++
	}

	result.Message = fmt.Sprintf("Imported %d of %d events", result.Created, result.TotalParsed)
	return result, nil
}

func (imp *Importer) buildEvent(tripID, userID uuid.UUID, candidate ai.EventCandidate, tripCurrency string) (*models.Event, error) {
	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return nil, fmt.Errorf("candidate has no title")
	}

	start, err := CombineDateTime(candidate.Date, candidate.Time)
	if err != nil {
		return nil, fmt.Errorf("candidate %q: %w", title, err)
	}

	eventType := models.EventType(candidate.Type)
	if !models.ValidEventType(eventType) {
		eventType = models.EventActivity
	}

	currency := strings.TrimSpace(candidate.Currency)
	if currency == "" {
		currency = tripCurrency
	}
	if currency == "" {
		currency = "USD"
	}

	return &models.Event{
		TripID:      tripID,
		Title:       title,
		Type:        eventType,
		StartTime:   start,
		EndTime:     start.Add(models.DefaultEventDuration),
		Location:    strings.TrimSpace(candidate.Location),
		Cost:        float64(candidate.Cost),
		Currency:    currency,
		Description: strings.TrimSpace(candidate.Description),
		URL:         strings.TrimSpace(candidate.URL),
		CreatedBy:   userID,
	}, nil
}
