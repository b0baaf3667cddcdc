package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"filippo.io/age"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/example/directus-governance/internal/application"
	"github.com/example/directus-governance/internal/archive"
	"github.com/example/directus-governance/internal/config"
	"github.com/example/directus-governance/internal/governance"
	httptransport "github.com/example/directus-governance/internal/http"
	"github.com/example/directus-governance/internal/logging"
	"github.com/example/directus-governance/internal/persistence"
	"github.com/example/directus-governance/internal/persistence/filestore"
	"github.com/example/directus-governance/internal/persistence/memory"
	"github.com/example/directus-governance/internal/persistence/postgres"
	"github.com/example/directus-governance/internal/persistence/sqlite"
	"github.com/example/directus-governance/internal/persistence/sqlite/migration"
)

const usage = `usage: directus [serve|export|import|reset] [flags]

  serve    run the HTTP API (default)
  export   write a sealed export file
  import   replace collections from an export file
  reset    return the system to its factory state
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	command, rest := splitCommand(args)
	if command == "help" {
		fmt.Fprint(stdout, usage)
		return 0
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "failed to read .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	logger := logging.New(stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		return 1
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	switch command {
	case "serve":
		err = runServe(ctx, a, cfg, rest, stderr)
	case "export":
		err = runExport(ctx, a, cfg, rest, stdout, stderr)
	case "import":
		err = runImport(ctx, a, cfg, rest, stdout, stderr)
	case "reset":
		err = runReset(ctx, a, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error("command failed", "command", command, "error", err, "error_kind", application.ErrorKind(err))
		return 1
	}
	return 0
}

// splitCommand takes the leading non-flag argument as the command name.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "serve", args
	}
	return strings.ToLower(args[0]), args[1:]
}

type app struct {
	docs     persistence.DocumentStore
	services *application.Services
	logger   *slog.Logger
}

func (a *app) Close() error {
	if a == nil || a.docs == nil {
		return nil
	}
	return a.docs.Close()
}

// openApp loads the persisted state over the seed data and wires the services
// so every committed change is mirrored back to storage.
func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	docs, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	mirror := persistence.NewMirror(docs, logger)
	state, fallbacks, err := mirror.Load(ctx, governance.SeedState(time.Now()))
	if err != nil {
		docs.Close()
		return nil, err
	}
	if len(fallbacks) > 0 {
		logger.Info("seeding collections missing from storage", "storage", cfg.Storage, "keys", fallbacks)
		if err := mirror.StateChanged(ctx, fallbacks, state); err != nil {
			logger.Warn("failed to persist seed collections", "error", err)
		}
	}

	store := application.NewStore(state, logger)
	store.Subscribe(mirror)

	services := application.NewServices(store, application.ServicesConfig{
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
		Logger:        logger,
	})
	return &app{docs: docs, services: services, logger: logger}, nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.DocumentStore, error) {
	var (
		docs persistence.DocumentStore
		err  error
	)
	switch cfg.Storage {
	case config.StorageSQLite:
		var s *sqlite.Store
		s, err = sqlite.Open(ctx, migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
		docs = s
	case config.StoragePostgres:
		var s *postgres.Store
		s, err = postgres.Open(ctx, cfg.PostgresURL)
		docs = s
	case config.StorageFile:
		var s *filestore.Store
		s, err = filestore.Open(cfg.DataDir)
		docs = s
	case config.StorageMemory:
		docs = memory.New()
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	return docs, nil
}

// maintenancePrincipal acts as the Chairman for the offline commands.
func maintenancePrincipal(state governance.State) (application.Principal, error) {
	for _, u := range state.Users {
		if u.Role == governance.RoleChairman {
			return application.PrincipalFor(u), nil
		}
	}
	return application.Principal{}, errors.New("no Chairman in the personnel roster")
}

func runServe(ctx context.Context, a *app, cfg config.Config, args []string, stderr io.Writer) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	port := fs.IntP("port", "p", cfg.HTTPPort, "HTTP listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	systemCfg, err := systemHandlerConfig(cfg)
	if err != nil {
		return err
	}

	logger := a.logger
	s := a.services
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(s.Auth, logger),
		Meetings:      httptransport.NewMeetingHandler(s.Meetings, logger),
		Tasks:         httptransport.NewTaskHandler(s.Tasks, logger),
		Users:         httptransport.NewUserHandler(s.Personnel, logger),
		Calendars:     httptransport.NewCalendarHandler(s.Calendars, logger),
		Notifications: httptransport.NewNotificationHandler(s.Notifications, logger),
		System:        httptransport.NewSystemHandler(s.System, systemCfg, logger),
		Overview:      httptransport.NewOverviewHandler(s.Audit, s.Dashboard, logger),
		Sessions:      s.Auth,
		LoginLimit: httptransport.RateLimit(httptransport.RateLimitConfig{
			Rate:  cfg.LoginRate,
			Burst: cfg.LoginBurst,
		}, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
		Logger:     logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("governance API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func systemHandlerConfig(cfg config.Config) (httptransport.SystemHandlerConfig, error) {
	compression, err := archive.ParseCompression(cfg.ExportCompression)
	if err != nil {
		return httptransport.SystemHandlerConfig{}, err
	}
	identities, err := loadIdentities(cfg.ImportIdentities)
	if err != nil {
		return httptransport.SystemHandlerConfig{}, err
	}
	return httptransport.SystemHandlerConfig{
		Export:     archive.Options{Compression: compression, Recipients: cfg.ExportRecipients},
		Identities: identities,
	}, nil
}

func loadIdentities(path string) ([]age.Identity, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identities: %w", err)
	}
	defer f.Close()
	return archive.ParseIdentities(f)
}

func runExport(ctx context.Context, a *app, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.StringP("out", "o", "", "output file or directory (default: generated name in the working directory)")
	compressionName := fs.StringP("compression", "c", cfg.ExportCompression, "none, zstd or lz4")
	recipients := fs.StringSliceP("recipient", "r", cfg.ExportRecipients, "age recipient (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	compression, err := archive.ParseCompression(*compressionName)
	if err != nil {
		return err
	}
	principal, err := maintenancePrincipal(a.services.Store.Snapshot())
	if err != nil {
		return err
	}

	result, err := a.services.System.Export(ctx, application.ExportParams{
		Principal: principal,
		Options:   archive.Options{Compression: compression, Recipients: *recipients},
	})
	if err != nil && result.File.Data == nil {
		return err
	}

	path := result.File.FileName
	if *out != "" {
		path = *out
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			path = filepath.Join(path, result.File.FileName)
		}
	}
	if err := os.WriteFile(path, result.File.Data, 0o600); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(stdout, "%s\nblake3=%s\n", path, result.File.Digest)
	return nil
}

func runImport(ctx context.Context, a *app, cfg config.Config, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.StringP("file", "f", "", "export file to import, - for stdin")
	identityPath := fs.StringP("identity", "i", cfg.ImportIdentities, "age identity file for encrypted exports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("import: --file is required")
	}

	var data []byte
	var err error
	if *file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	identities, err := loadIdentities(*identityPath)
	if err != nil {
		return err
	}
	principal, err := maintenancePrincipal(a.services.Store.Snapshot())
	if err != nil {
		return err
	}

	result, err := a.services.System.Import(ctx, application.ImportParams{
		Principal:  principal,
		Data:       data,
		Identities: identities,
	})
	if err != nil {
		return err
	}
	for _, key := range result.Keys {
		fmt.Fprintln(stdout, key)
	}
	return nil
}

func runReset(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("reset", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.BoolP("yes", "y", false, "confirm the factory reset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	principal, err := maintenancePrincipal(a.services.Store.Snapshot())
	if err != nil {
		return err
	}
	if err := a.services.System.Reset(ctx, application.ResetParams{Principal: principal, Confirm: *yes}); err != nil {
		if errors.Is(err, application.ErrConfirmationRequired) {
			return fmt.Errorf("%w: pass --yes to confirm", err)
		}
		return err
	}
	fmt.Fprintln(stdout, "system reset to factory state")
	return nil
}
