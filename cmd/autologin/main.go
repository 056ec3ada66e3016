// Package main provides the autologin command: it logs a batch of accounts
// into a challenge-protected web panel and reports the outcome to Telegram.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/entrhq/autologin/pkg/browser"
	"github.com/entrhq/autologin/pkg/config"
	"github.com/entrhq/autologin/pkg/logging"
	"github.com/entrhq/autologin/pkg/login"
	"github.com/entrhq/autologin/pkg/notify"
	"github.com/entrhq/autologin/pkg/report"
	"github.com/entrhq/autologin/pkg/runner"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigFault = 2
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Accounts    string
	Verbosity   string
	Headless    string
	Install     bool
	Timeout     time.Duration
	ShowVersion bool
}

func main() {
	// Parse command line flags
	cli := parseFlags()

	// Show version if requested
	if cli.ShowVersion {
		fmt.Printf("autologin v%s\n", version)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	err := run(ctx, cli)
	if err != nil {
		log.Printf("Run failed: %v", err)
	}
	code := exitCode(err)
	cancel()
	os.Exit(code)
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.Accounts, "accounts", "", "Comma-separated email:password list (overrides "+config.EnvAccounts+")")
	flag.StringVar(&cli.Verbosity, "verbosity", "", "Console verbosity: quiet, normal, verbose or debug")
	flag.StringVar(&cli.Headless, "headless", "", "Run the browser headless: true or false")
	flag.BoolVar(&cli.Install, "install", false, "Install the Playwright driver and Chromium before running")
	flag.DurationVar(&cli.Timeout, "timeout", 0, "Overall run timeout (0 disables)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "autologin - keep panel accounts active by logging them in\n\n")
		fmt.Fprintf(os.Stderr, "Usage: autologin [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %s  email:password pairs, comma separated\n", config.EnvAccounts)
		fmt.Fprintf(os.Stderr, "  %s, %s  Telegram credentials (optional)\n", config.EnvBotToken, config.EnvChatID)
		fmt.Fprintf(os.Stderr, "  %s, %s  login page and headless overrides\n", config.EnvLoginURL, config.EnvHeadless)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # First run on a new machine\n")
		fmt.Fprintf(os.Stderr, "  autologin -install -accounts \"a@x.com:pw1,b@x.com:pw2\"\n\n")
		fmt.Fprintf(os.Stderr, "  # Run with config file and a visible browser\n")
		fmt.Fprintf(os.Stderr, "  autologin -config autologin.yaml -headless=false\n\n")
	}

	flag.Parse()
	return cli
}

// driver is the browser backend a run opens its sessions on.
type driver interface {
	browser.Factory
	Initialize() error
	Shutdown() error
	SetLogger(log logging.Sink)
}

// run executes one login run
func run(ctx context.Context, cli *CLIConfig) error {
	// Load configuration
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Apply timeout if specified
	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	return execute(ctx, cfg, browser.NewLauncher(cfg.LaunchOptions()))
}

// execute wires the run around drv. The driver is started only once the
// account list has been accepted.
func execute(ctx context.Context, cfg *config.Config, drv driver) error {
	// Validate configuration
	if validationErr := cfg.Validate(); validationErr != nil {
		return fmt.Errorf("invalid configuration: %w", validationErr)
	}

	console := logging.NewConsole(cfg.LogLevel())
	sinkFor := func(string) logging.Sink { return console }
	if cfg.Logging.File {
		fileLog, logErr := logging.NewLogger("autologin", cfg.FileOptions())
		if logErr != nil {
			console.Warnf("file logging disabled: %v", logErr)
		} else {
			defer fileLog.Close()
			sinkFor = func(component string) logging.Sink {
				return logging.Tee(console, fileLog.With(component))
			}
			console.Verbosef("Debug log: %s (session %s)", fileLog.LogPath(), fileLog.SessionID())
		}
	}
	sink := sinkFor("runner")
	drv.SetLogger(sinkFor("browser"))

	console.Header(fmt.Sprintf("%s auto login", cfg.Profile.Label))

	defer func() {
		if shutdownErr := drv.Shutdown(); shutdownErr != nil {
			sink.Warnf("browser shutdown: %v", shutdownErr)
		}
	}()

	notifier := notify.New(cfg.Notify, sinkFor("notify"))

	workflow, err := login.NewWorkflow(cfg.Profile, drv, notifier,
		login.WithIdentities(cfg.Identities),
		login.WithDiagnostics(login.NewDiagnostics(cfg.DiagnosticsDir, cfg.Profile.ErrorSelectors)),
		login.WithLogger(sinkFor("login")),
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	opts := runner.Options{
		Concurrency: cfg.Concurrency,
		Printer:     console,
		Log:         sink,
		Prepare: func(context.Context) error {
			console.Section("Browser")
			if initErr := drv.Initialize(); initErr != nil {
				return fmt.Errorf("failed to start browser driver: %w", initErr)
			}
			return nil
		},
	}
	if cfg.Artifacts.Enabled {
		opts.Artifacts = report.NewArtifactWriter(cfg.Artifacts.OutputDir)
	}

	target := report.Target{Label: cfg.Profile.Label, DashboardURL: cfg.Profile.DashboardURL}
	rep, err := runner.New(cfg.Accounts, workflow, notifier, target, opts).Run(ctx)
	if err != nil {
		return err
	}

	console.Successf("Completed %d account(s) in %s", rep.Total(), console.Elapsed().Round(time.Second))
	return nil
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *runner.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfigFault
	}
	return exitFailure
}

// loadConfig builds the run configuration: file (or defaults), environment, then flags.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cli.ConfigFile != "" {
		loaded, err := config.LoadFile(cli.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if cli.Accounts != "" {
		cfg.Accounts = cli.Accounts
	}
	if cli.Verbosity != "" {
		cfg.Logging.Verbosity = cli.Verbosity
	}
	if cli.Headless != "" {
		headless, err := strconv.ParseBool(cli.Headless)
		if err != nil {
			return nil, fmt.Errorf("invalid -headless value %q: %w", cli.Headless, err)
		}
		cfg.Browser.Headless = headless
	}
	if cli.Install {
		cfg.Browser.Install = true
	}

	return cfg, nil
}
