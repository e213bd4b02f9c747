// Command parse_link runs the link-parsing pipeline against a URL from
// the command line and prints the resulting candidate.
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
	"github.com/dvidal/tripweaver/internal/linkparse"
)

func main() {
	_ = godotenv.Load()

	forceAI := flag.Bool("ai", false, "force AI enrichment even for simple sites")
	userContext := flag.String("context", "", "extra context for the AI (e.g. the post caption)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: parse_link [-ai] [-context text] <url>")
	}
	url := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var completer ai.Completer
	client, err := ai.NewClient(ctx, ai.ConfigFromEnv())
	if err != nil {
		log.Printf("AI unavailable (%v); parsing without enrichment", err)
	} else {
		completer = client
	}

	parser, err := linkparse.NewParser(completer)
	if err != nil {
		log.Fatal(err)
	}

	result, err := parser.Parse(ctx, linkparse.ParseRequest{
		URL:         url,
		ForceAI:     *forceAI,
		UserContext: *userContext,
	})
	if err != nil {
		log.Fatal(err)
	}

	if result.NeedsContext {
		log.Print("No metadata found. Re-run with -context \"<post caption>\" to give the AI something to work with.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Title", result.Candidate.Title})
	t.AppendRow(table.Row{"Description", result.Candidate.Description})
	t.AppendRow(table.Row{"Address", result.Candidate.Address})
	t.AppendRow(table.Row{"Image", result.Candidate.Image})
	t.AppendRow(table.Row{"URL", result.Candidate.URL})
	t.AppendRow(table.Row{"AI used", result.AIUsed})
	t.AppendRow(table.Row{"Social media", result.SocialMedia})
	t.Render()
}
