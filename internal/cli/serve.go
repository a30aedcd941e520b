package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formlogic/internal/config"
	"github.com/goliatone/go-formlogic/internal/server"
	"github.com/goliatone/go-formlogic/internal/store"
	"github.com/goliatone/go-formlogic/pkg/form"
	"github.com/goliatone/go-formlogic/pkg/render"
	"github.com/goliatone/go-formlogic/pkg/submission"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluate and submission API",
		Long: `Serve the HTTP API.

Forms are loaded once from the forms directory. Accepted submissions are
stored in the configured database and can be read back per form or by id;
submissions blocked by a prevent-submission rule are refused with 422
before anything is written. A notice.tpl in the templates directory
replaces the built-in notice markup.

Configuration is read from --config, then FORMLOGIC_* environment variables,
then flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("forms", "", "directory of form documents (default forms)")
	cmd.Flags().String("database-url", "", "sqlite:// or postgres:// URL (default sqlite://formlogic.db)")
	cmd.Flags().String("templates", "", "directory searched for notice.tpl before the built-in template")
	cmd.Flags().String("notice-title", "", "heading of the submission-disabled notice")

	return cmd
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	cliLog := logger.With("component", "cli")

	forms, err := form.LoadFS(os.DirFS(cfg.Forms.Dir))
	if err != nil {
		return WrapExitError(ExitCommandError, "load forms", err)
	}
	cliLog.Info("forms loaded", "dir", cfg.Forms.Dir, "count", forms.Len())

	db, err := store.Open(cfg.Database.URL)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	submissions, err := store.New(db)
	if err != nil {
		return err
	}
	if err := submissions.Migrate(ctx); err != nil {
		return WrapExitError(ExitCommandError, "migrate database", err)
	}

	notices, err := render.NewNoticeRenderer(
		render.WithTemplatesDir(cfg.Render.TemplatesDir),
		render.WithTitle(cfg.Render.NoticeTitle),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "load notice template", err)
	}

	srv, err := server.New(ctx, forms, submission.NewProcessor(submissions),
		server.WithLogger(logger),
		server.WithNoticeRenderer(notices),
		server.WithSubmissions(submissions),
	)
	if err != nil {
		return err
	}
	httpServer := srv.NewHTTPServer(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	errCh := make(chan error, 1)
	go func() {
		cliLog.Info("listening", "addr", cfg.Server.Addr, "database", cfg.Database.Scheme())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	cliLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	return nil
}
