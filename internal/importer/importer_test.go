package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dvidal/tripweaver/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeStore struct {
	events  []*models.Event
	failFor map[string]error // title -> error
}

func (s *fakeStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if err, ok := s.failFor[event.Title]; ok {
		return err
	}
	s.events = append(s.events, event)
	return nil
}

const sampleCSV = "Day,Activity,Price\n2026-04-01,Louvre visit,25\n2026-04-02,Seine cruise,15\n"

func TestImportPlan(t *testing.T) {
	completer := &fakeCompleter{response: `[
		{"title":"Louvre visit","date":"2026-04-01","time":"10:00","type":"ACTIVITY","cost":25,"currency":"EUR"},
		{"title":"Seine cruise","date":"2026-04-02","time":"","type":"activity","cost":"15","currency":""}
	]`}
	store := &fakeStore{}
	imp := NewImporter(completer, store)
	tripID, userID := uuid.New(), uuid.New()

	result, err := imp.ImportPlan(context.Background(), tripID, userID, "plan.csv", strings.NewReader(sampleCSV), "EUR")
	if err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}

	if result.TotalParsed != 2 || result.Created != 2 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Created+result.Failed != result.TotalParsed {
		t.Errorf("accounting broken: %+v", result)
	}
	if len(store.events) != 2 {
		t.Fatalf("stored %d events, want 2", len(store.events))
	}

	first := store.events[0]
	if first.TripID != tripID || first.CreatedBy != userID {
		t.Errorf("event ownership = trip %s, creator %s", first.TripID, first.CreatedBy)
	}
	if first.StartTime.Format("2006-01-02 15:04") != "2026-04-01 10:00" {
		t.Errorf("start = %s", first.StartTime)
	}
	if first.EndTime.Sub(first.StartTime) != models.DefaultEventDuration {
		t.Errorf("duration = %s, want %s", first.EndTime.Sub(first.StartTime), models.DefaultEventDuration)
	}

	second := store.events[1]
	if second.Cost != 15 {
		t.Errorf("string cost = %v, want 15", second.Cost)
	}
	if second.Currency != "EUR" {
		t.Errorf("currency = %q, want trip currency fallback", second.Currency)
	}
	if second.Type != models.EventActivity {
		t.Errorf("type = %q", second.Type)
	}

	if !strings.Contains(completer.prompt, "Louvre visit") {
		t.Error("rows missing from prompt")
	}
}

func TestImportPlanRowFailuresAreIsolated(t *testing.T) {
	completer := &fakeCompleter{response: `[
		{"title":"Good event","date":"2026-04-01","type":"ACTIVITY"},
		{"title":"","date":"2026-04-01","type":"ACTIVITY"},
		{"title":"No date","date":"when we feel like it","type":"ACTIVITY"},
		{"title":"DB rejects","date":"2026-04-02","type":"ACTIVITY"}
	]`}
	store := &fakeStore{failFor: map[string]error{"DB rejects": errors.New("constraint violation")}}
	imp := NewImporter(completer, store)

	result, err := imp.ImportPlan(context.Background(), uuid.New(), uuid.New(), "plan.csv", strings.NewReader(sampleCSV), "USD")
	if err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}

	if result.TotalParsed != 4 || result.Created != 1 || result.Failed != 3 {
		t.Errorf("result = %+v, want 4/1/3", result)
	}
	if result.Message != "Imported 1 of 4 events" {
		t.Errorf("message = %q", result.Message)
	}
	if len(store.events) != 1 || store.events[0].Title != "Good event" {
		t.Errorf("stored = %v", store.events)
	}
}

func TestImportPlanUnreadableFileFails(t *testing.T) {
	imp := NewImporter(&fakeCompleter{response: "[]"}, &fakeStore{})

	if _, err := imp.ImportPlan(context.Background(), uuid.New(), uuid.New(), "plan.csv", strings.NewReader(""), "USD"); !errors.Is(err, ErrNoRows) {
		t.Errorf("error = %v, want ErrNoRows", err)
	}
}

func TestImportPlanNormalizationFailureFails(t *testing.T) {
	imp := NewImporter(&fakeCompleter{err: errors.New("model down")}, &fakeStore{})

	_, err := imp.ImportPlan(context.Background(), uuid.New(), uuid.New(), "plan.csv", strings.NewReader(sampleCSV), "USD")
	if err == nil {
		t.Fatal("expected error when normalization fails")
	}
}

func TestImportPlanDefaultCurrency(t *testing.T) {
	completer := &fakeCompleter{response: `[{"title":"Walk","date":"2026-04-01","type":"ACTIVITY"}]`}
	store := &fakeStore{}
	imp := NewImporter(completer, store)

	if _, err := imp.ImportPlan(context.Background(), uuid.New(), uuid.New(), "plan.csv", strings.NewReader(sampleCSV), ""); err != nil {
		t.Fatalf("ImportPlan: %v", err)
	}
	if store.events[0].Currency != "USD" {
		t.Errorf("currency = %q, want USD", store.events[0].Currency)
	}
}
