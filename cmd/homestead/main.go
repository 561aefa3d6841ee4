package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"golang.org/x/term"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/adapter/source"
	"github.com/mmcdole/homestead/internal/api"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/gate"
	"github.com/mmcdole/homestead/internal/identity"
	"github.com/mmcdole/homestead/internal/listing"
	"github.com/mmcdole/homestead/internal/notify"
	"github.com/mmcdole/homestead/internal/store"
	"github.com/mmcdole/homestead/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `Usage: homestead [flags] [command]

Commands:
  (none)          Browse listings in the terminal
  serve           Serve the listing API over HTTP
  seed FILE       Import listings from a JSON or JSONC file
  adduser EMAIL   Create a local account and sign in as it
  init            Write the default config file

Flags:
`

type options struct {
	configDir string
	addr      string
	owner     string
	name      string
}

func main() {
	var opts options
	var showVersion bool

	fs := pflag.NewFlagSet("homestead", pflag.ContinueOnError)
	fs.BoolVarP(&showVersion, "version", "v", false, "print version")
	fs.StringVarP(&opts.configDir, "config", "c", "", "config directory (default "+adapter.DefaultConfigPath()+")")
	fs.StringVar(&opts.addr, "addr", "", "listen address for serve (overrides server.addr)")
	fs.StringVar(&opts.owner, "owner", "", "email of the account that owns seeded listings")
	fs.StringVar(&opts.name, "name", "", "display name for adduser")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if showVersion {
		fmt.Printf("homestead %s\n", Version)
		return
	}

	if err := run(opts, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, args []string) error {
	command := ""
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := loadConfig(opts.configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if command == "init" {
		return runInit(cfg, opts.configDir)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting homestead", "version", Version, "command", command)

	dbPath, err := adapter.ExpandHome(cfg.Store.Path)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "":
		return runTUI(ctx, cfg, st, logger)
	case "serve":
		addr := cfg.Server.Addr
		if opts.addr != "" {
			addr = opts.addr
		}
		return runServe(ctx, st, addr, logger)
	case "seed":
		if len(args) != 1 {
			return errors.New("usage: homestead seed FILE [--owner EMAIL]")
		}
		return runSeed(ctx, st, args[0], opts.owner)
	case "adduser":
		if len(args) != 1 {
			return errors.New("usage: homestead adduser EMAIL [--name NAME]")
		}
		return runAddUser(ctx, st, args[0], opts.name, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func loadConfig(dir string) (*adapter.Config, error) {
	if dir != "" {
		return adapter.LoadConfigFrom(dir)
	}
	return adapter.LoadConfig()
}

// runTUI wires the services and runs the terminal UI
func runTUI(ctx context.Context, cfg *adapter.Config, st *store.Store, logger *slog.Logger) error {
	listings, err := source.NewSource(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("failed to create listing source: %w", err)
	}

	channel := identity.NewChannel()
	auth := identity.NewAuthenticator(st, channel, logger)

	notices := make(chan tui.NoticeMsg, 32)
	notifier := notify.Fanout{tui.NewChannelNotifier(notices), notify.NewLogNotifier(logger)}

	svc := listing.NewService(listings, auth, notifier, logger, listing.Options{
		PageSize:        cfg.Paging.PageSize,
		ProfilePageSize: cfg.Paging.ProfilePageSize,
		LatestSize:      cfg.Paging.LatestSize,
	})

	accessGate := gate.New(channel,
		gate.WithRedirectPath(cfg.Auth.SignInPath),
		gate.WithResolveTimeout(cfg.Auth.ResolveTimeout),
		gate.WithLogger(logger),
	)

	model := tui.NewModel(tui.Deps{
		Listings: svc,
		Auth:     auth,
		Gate:     accessGate,
		Launcher: adapter.NewLauncher(cfg.Viewer, logger),
		Notices:  notices,
		Logger:   logger,
	})

	// Identity resolves in the background; gated views show a placeholder
	// until it does
	go func() {
		if err := auth.Restore(ctx); err != nil {
			logger.Error("failed to restore session", "error", err)
		}
	}()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("starting TUI", "source", cfg.Source.Type)

	final, err := p.Run()
	if m, ok := final.(tui.Model); ok {
		m.Shutdown()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runServe serves the local store over HTTP until interrupted
func runServe(ctx context.Context, st *store.Store, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(st, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listing API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	fmt.Printf("Serving listings on %s\n", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("listing API stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop listing API: %w", err)
	}
	logger.Info("listing API stopped")
	return nil
}

// runSeed imports listings from a JSON array; comments and trailing commas
// are allowed
func runSeed(ctx context.Context, st *store.Store, path, ownerEmail string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var listings []*domain.Listing
	if err := json.Unmarshal(jsonc.ToJSON(raw), &listings); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	var ownerID string
	if ownerEmail != "" {
		user, err := st.GetUserByEmail(ctx, ownerEmail)
		if err != nil {
			return fmt.Errorf("seed owner %s: %w", ownerEmail, err)
		}
		ownerID = user.ID
	}

	created := 0
	for i, l := range listings {
		if l.OwnerID == "" {
			l.OwnerID = ownerID
		}
		if _, err := st.CreateListing(ctx, l); err != nil {
			return fmt.Errorf("listing %d (%s): %w", i, l.Name, err)
		}
		created++
	}

	fmt.Printf("Imported %d listings\n", created)
	return nil
}

// runAddUser creates an account, reading the password without echo
func runAddUser(ctx context.Context, st *store.Store, email, name string, logger *slog.Logger) error {
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	auth := identity.NewAuthenticator(st, identity.NewChannel(), logger)
	id, err := auth.SignUp(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Printf("Created %s <%s> and signed in\n", id.DisplayName, id.Email)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// runInit writes the effective config so it can be edited
func runInit(cfg *adapter.Config, dir string) error {
	if dir == "" {
		dir = adapter.DefaultConfigPath()
	}
	if err := adapter.SaveConfigTo(cfg, dir); err != nil {
		return err
	}
	fmt.Printf("Wrote %s/config.yaml\n", dir)
	return nil
}
