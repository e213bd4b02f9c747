// Command import_plan previews how a trip-plan file would import: it
// reads the file, runs AI normalization, and prints the event candidates
// without touching the database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/dvidal/tripweaver/internal/ai"
	"github.com/dvidal/tripweaver/internal/importer"
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: import_plan <file.csv|file.xlsx|file.pdf>")
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	rows, err := importer.ReadRows(path, f)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Read %d rows from %s", len(rows), path)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	client, err := ai.NewClient(ctx, ai.ConfigFromEnv())
	if err != nil {
		log.Fatalf("AI is required for imports: %v", err)
	}

	candidates, err := ai.ExtractPlan(ctx, client, rows)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "Date", "Time", "Type", "Location", "Cost", "Currency"})
	for _, c := range candidates {
		t.AppendRow(table.Row{c.Title, c.Date, c.Time, c.Type, c.Location, float64(c.Cost), c.Currency})
	}
	t.Render()
	log.Printf("%d candidates from %d rows", len(candidates), len(rows))
}
