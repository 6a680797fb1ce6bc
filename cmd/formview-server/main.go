package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/stdr"

	"github.com/goliatone/go-formview"
	"github.com/goliatone/go-formview/internal/server"
	"github.com/goliatone/go-formview/pkg/action"
	"github.com/goliatone/go-formview/pkg/orchestrator"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	formsDir := flag.String("forms", "forms", "directory of YAML/JSON form documents")
	openapiFile := flag.String("openapi", "", "OpenAPI document whose component schemas are also served as forms")
	canCreate := flag.Bool("can-create", true, "allow sessions to create new records")
	debounceWait := flag.Duration("debounce", 500*time.Millisecond, "quiet period that ends an edit burst")
	verbosity := flag.Int("v", 0, "log verbosity")
	flag.Parse()

	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(os.Stderr, "formview-server ", log.LstdFlags))

	resolver, err := formview.LoadResolver(*formsDir, *openapiFile)
	if err != nil {
		log.Fatalf("Failed to load forms: %v", err)
	}

	srv, err := server.New(
		server.WithOrchestrator(orchestrator.New(
			orchestrator.WithResolver(resolver),
			orchestrator.WithLogger(logger),
		)),
		server.WithPermissions(action.Permissions{CanCreate: *canCreate}),
		server.WithDebounceWait(*debounceWait),
		server.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "shutdown")
		}
	}()

	logger.Info("listening", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server stopped: %v", err)
	}
}
