package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvidal/tripweaver/internal/models"
)

// MaxImportRows caps how many spreadsheet rows are embedded into a single
// prompt, to bound prompt size.
const MaxImportRows = 50

// EventCandidate is one AI-normalized spreadsheet row. It is transient and
// never persisted directly; the reconciler decides what becomes an Event.
type EventCandidate struct {
	Title       string    `json:"title"`
	Date        string    `json:"date"` // YYYY-MM-DD preferred, parsed robustly
	Time        string    `json:"time"` // HH:MM, may be empty
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Cost        flexFloat `json:"cost"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
}

// flexFloat accepts both JSON numbers and numeric strings; models emit
// either for cost columns.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil // non-numeric cost degrades to zero, never fails the row
	}
	*f = flexFloat(v)
	return nil
}

const planPrompt = `You are an assistant that converts a traveler's trip-plan spreadsheet into structured events.

Below are the spreadsheet rows as JSON objects keyed by column header. The headers may be in ANY language and use any naming: treat synonyms like "date/fecha/datum/data/дата/日付", "time/hora/uhrzeit/heure", "place/lugar/ort/lieu/location", "price/cost/precio/preis/coste", "name/title/actividad/activité" as the same concept. Some rows may be headers, notes, or blank filler: SKIP any row that does not describe an actual trip event.

ROWS:
%s

For EACH real event row, emit a JSON object with these fields:
- "title": short event name.
- "date": the event date as YYYY-MM-DD. If the row has a different format, convert it.
- "time": start time as HH:MM in 24h format, or "" if not present.
- "type": one of: ACTIVITY, HOTEL, RESTAURANT, TRANSPORT, OTHER.
- "location": place name or address, or "".
- "cost": numeric cost, 0 if unknown.
- "currency": 3-letter ISO code (USD, EUR, ...), "" if unknown.
- "description": any extra notes from the row, or "".
- "url": a link from the row, or "".

IMPORTANT RULES:
- Return ONLY a valid JSON array of these objects. No markdown blocks, no explanation.
- Do NOT invent data. Only use what the rows contain.
- Skip rows with no recognizable event (blank rows, repeated headers, totals).`

// ExtractPlan sends up to MaxImportRows rows to the model and parses the
// response into event candidates. Candidate types are validated against the
// event-type allow-list; invalid or absent types default to ACTIVITY.
func ExtractPlan(ctx context.Context, c Completer, rows []map[string]string) ([]EventCandidate, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if len(rows) > MaxImportRows {
		rows = rows[:MaxImportRows]
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding rows: %w", err)
	}

	resp, err := c.Complete(ctx, fmt.Sprintf(planPrompt, string(rowsJSON)))
	if err != nil {
		return nil, err
	}

	cleaned := CleanResponse(resp)
	if jsonStr, ok := extractFirstJSON(cleaned); ok {
		cleaned = jsonStr
	}

	var candidates []EventCandidate
	if err := json.Unmarshal([]byte(cleaned), &candidates); err != nil {
		// Some models return a single object when one row survives.
		var single EventCandidate
		if err2 := json.Unmarshal([]byte(cleaned), &single); err2 != nil {
			return nil, &MalformedJSONError{Raw: resp}
		}
		candidates = []EventCandidate{single}
	}

	for i := range candidates {
		candidates[i].Type = string(models.EventTypeFromCategory(candidates[i].Type))
	}

	return candidates, nil
}
