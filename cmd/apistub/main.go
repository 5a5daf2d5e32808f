// Command apistub serves an in-memory stand-in of the learning platform API
// for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/code-samurai/learner-client/internal/apitest"
	"github.com/code-samurai/learner-client/internal/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	jsonLogs := flag.Bool("json", false, "log JSON at info level instead of text at debug level")
	flag.Parse()

	logger := utils.NewDevelopmentLogger()
	if *jsonLogs {
		logger = utils.NewDefaultLogger()
	}
	stub := apitest.NewServer(logger, nil)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           stub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("API stub listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "API stub stopped")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Shutdown failed")
	}
}
