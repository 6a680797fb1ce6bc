package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/go-logr/stdr"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formview"
	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/form"
	"github.com/goliatone/go-formview/pkg/model"
	"github.com/goliatone/go-formview/pkg/orchestrator"
	"github.com/goliatone/go-formview/pkg/render"
	"github.com/goliatone/go-formview/pkg/renderers/html"
	"github.com/goliatone/go-formview/pkg/renderers/tui"
)

func main() {
	formsDir := flag.String("forms", "forms", "directory of YAML/JSON form documents")
	openapiFile := flag.String("openapi", "", "OpenAPI document whose component schemas are also served as forms")
	formKey := flag.String("form", "", "form key to open")
	recordFile := flag.String("record", "", "JSON file with the record to edit (creation draft if empty)")
	renderer := flag.String("renderer", "html", "renderer to use (html or tui)")
	format := flag.String("format", "json", "tui output format (json, form or pretty)")
	output := flag.String("output", "", "output file (stdout if empty)")
	edit := flag.Bool("edit", true, "open the form in edit mode")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "formview ", log.LstdFlags))

	if *formKey == "" {
		log.Fatalf("-form is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resolver, err := formview.LoadResolver(*formsDir, *openapiFile)
	if err != nil {
		log.Fatalf("Failed to load forms: %v", err)
	}

	record, err := readRecord(*recordFile)
	if err != nil {
		log.Fatalf("Failed to read record: %v", err)
	}

	htmlRenderer, err := html.New(html.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to build html renderer: %v", err)
	}
	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)

	orch := orchestrator.New(
		orchestrator.WithResolver(resolver),
		orchestrator.WithRegistry(registry),
		orchestrator.WithLogger(logger),
	)

	session, err := orch.Open(ctx, orchestrator.Request{
		FormKey:     *formKey,
		Record:      record,
		Permissions: action.Permissions{CanCreate: true},
		Options:     []form.Option{form.WithDefaultEditMode(*edit)},
	})
	if err != nil {
		log.Fatalf("Failed to open form: %v", err)
	}
	defer session.Close()

	// The tui renderer writes answers back into the session, so it is bound
	// after the session exists.
	registry.MustRegister(tui.New(
		tui.WithFieldSink(session),
		tui.WithActionHandler(invoker(session)),
		tui.WithOutputFormat(tui.OutputFormat(*format)),
		tui.WithLogger(logger),
	))

	out, _, err := orch.Render(ctx, session, *renderer)
	if err != nil {
		log.Fatalf("Failed to render form: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

func invoker(session *form.Session) tui.ActionHandler {
	return func(ctx context.Context, key string) error {
		outcome, err := session.Invoke(ctx, key)
		if err != nil {
			return err
		}
		if len(outcome.Errors) > 0 {
			return outcome.Errors
		}
		return nil
	}
}

func readRecord(path string) (model.Draft, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var record model.Draft
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return record, nil
}
