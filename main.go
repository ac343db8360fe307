package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/RIZZZIOM/TinyFlaw/builder"
	"github.com/RIZZZIOM/TinyFlaw/catalog"
	"github.com/RIZZZIOM/TinyFlaw/config"
	"github.com/RIZZZIOM/TinyFlaw/logger"
	"github.com/RIZZZIOM/TinyFlaw/modules"
)

// ANSI color codes for terminal output, cleared when stdout is not a terminal
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
		colorPurple, colorCyan, colorBold, colorDim = "", "", "", ""
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "run":
		runCommand()
	case "validate":
		validateCommand()
	case "cases":
		casesCommand()
	case "modules":
		modulesCommand()
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig returns the defaults when path is empty, otherwise the loaded file
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runCommand() {
	runFlags := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := runFlags.String("config", "", "Path to YAML config file (defaults apply when omitted)")
	configShort := runFlags.String("c", "", "Path to YAML config file (shorthand)")
	port := runFlags.Int("port", 0, "Override port from config")
	portShort := runFlags.Int("p", 0, "Override port from config (shorthand)")
	host := runFlags.String("host", "", "Override host from config")

	runFlags.Parse(os.Args[2:])

	configFile := *configPath
	if configFile == "" {
		configFile = *configShort
	}

	portOverride := *port
	if portOverride == 0 {
		portOverride = *portShort
	}

	printBanner()

	cfg, err := loadConfig(configFile)
	if err != nil {
		printConfigError(configFile, err)
		os.Exit(1)
	}

	if portOverride > 0 {
		cfg.App.Port = portOverride
	}
	if *host != "" {
		cfg.App.Host = *host
	}

	// Overrides can invalidate a loaded config
	result := config.ValidateWithWarnings(cfg)
	if result.HasErrors() {
		printConfigError(configFile, result.Errors)
		os.Exit(1)
	}
	printWarnings(result.Warnings)

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		RequestLog: cfg.Logging.RequestLog,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s✗ Error:%s %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}

	if err := serve(cfg, log); err != nil {
		log.Error("server failed", zap.Error(err))
		log.Close()
		os.Exit(1)
	}
	log.Close()
}

// serve builds the server and runs it until a signal arrives or a listener fails
func serve(cfg *config.Config, log *logger.Logger) error {
	b := builder.New(cfg, log)
	srv, err := b.Build()
	if err != nil {
		b.Close()
		return fmt.Errorf("failed to build server: %w", err)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bind before printing the summary
	if err := srv.Listen(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	printConfigSummary(cfg, b.BaseURL(), log.FilePath())

	errChan := make(chan error, 2)
	go func() {
		errChan <- srv.Start()
	}()

	metricsServer := b.MetricsServer()
	if metricsServer != nil {
		go func() {
			log.Info("metrics listening", zap.String("address", "http://"+metricsServer.Addr+"/metrics"))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown failed", zap.Error(err))
		}
	}

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	return runErr
}

func validateCommand() {
	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := validateFlags.String("config", "", "Path to YAML config file (required)")
	configShort := validateFlags.String("c", "", "Path to YAML config file (shorthand)")

	validateFlags.Parse(os.Args[2:])

	configFile := *configPath
	if configFile == "" {
		configFile = *configShort
	}

	if configFile == "" {
		fmt.Printf("\n  %s✗ Error:%s -config flag is required\n\n", colorRed, colorReset)
		validateFlags.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		printConfigError(configFile, fmt.Errorf("failed to read config file: %w", err))
		os.Exit(1)
	}

	cfg, err := config.Parse(data)
	if err != nil {
		printConfigError(configFile, err)
		os.Exit(1)
	}

	result := config.ValidateWithWarnings(cfg)
	if result.HasErrors() {
		printConfigError(configFile, result.Errors)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("  %s✓ Configuration Valid%s\n", colorGreen+colorBold, colorReset)
	fmt.Println(colorDim + "  ─────────────────────────────────────────" + colorReset)

	printWarnings(result.Warnings)

	fmt.Println()
	fmt.Println(colorYellow + "  SUMMARY" + colorReset)
	fmt.Printf("    %sApp Name:%s    %s\n", colorDim, colorReset, cfg.App.Name)
	fmt.Printf("    %sAddress:%s     %s%s:%d%s\n", colorDim, colorReset, colorCyan, cfg.App.Host, cfg.App.Port, colorReset)
	fmt.Printf("    %sXML:%s         %s\n", colorDim, colorReset, enabled(cfg.Features.XML))
	fmt.Printf("    %sMetrics:%s     %s\n", colorDim, colorReset, enabled(cfg.Metrics.Enabled))
	fmt.Println()
}

func casesCommand() {
	casesFlags := flag.NewFlagSet("cases", flag.ExitOnError)
	baseURL := casesFlags.String("base", "", "Prefix links with this base URL (e.g. http://127.0.0.1:65412)")
	noXML := casesFlags.Bool("no-xml", false, "Mark cases that need XML support as unavailable")

	casesFlags.Parse(os.Args[2:])

	base := strings.TrimSuffix(*baseURL, "/")
	cat := catalog.New(base)

	fmt.Println()
	fmt.Println(colorCyan + colorBold + "┌─────────────────────────────────────────┐" + colorReset)
	fmt.Println(colorCyan + colorBold + "│          VULNERABILITY CATALOG          │" + colorReset)
	fmt.Println(colorCyan + colorBold + "└─────────────────────────────────────────┘" + colorReset)
	fmt.Println()

	for i, tc := range cat.Cases() {
		name := stripTags(tc.Name)
		if tc.RequiresXML && *noXML {
			fmt.Printf("  %s%2d. %s (XML support is disabled)%s\n", colorDim, i+1, name, colorReset)
			continue
		}

		fmt.Printf("  %s%2d.%s %s%s%s\n", colorGreen, i+1, colorReset, colorBold, name, colorReset)
		if tc.Trigger != "" {
			fmt.Printf("      %sVulnerable:%s %s%s\n", colorDim, colorReset, base, tc.Trigger)
		}
		fmt.Printf("      %sExploit:%s    %s%s%s%s\n", colorDim, colorReset, colorRed, base, tc.Exploit, colorReset)
		fmt.Printf("      %sInfo:%s       %s\n", colorDim, colorReset, tc.Info)
	}
	fmt.Println()
}

func modulesCommand() {
	fmt.Println()
	fmt.Println(colorCyan + colorBold + "┌─────────────────────────────────────────┐" + colorReset)
	fmt.Println(colorCyan + colorBold + "│           REGISTERED HANDLERS           │" + colorReset)
	fmt.Println(colorCyan + colorBold + "└─────────────────────────────────────────┘" + colorReset)
	fmt.Println()

	for _, info := range modules.List() {
		fmt.Printf("  %s•%s %s%s%s\n", colorGreen, colorReset, colorGreen+colorBold, info.Name, colorReset)
		fmt.Printf("     %sDescription:%s %s\n", colorDim, colorReset, info.Description)
		if info.Key != "" {
			fmt.Printf("     %sTrigger:%s     %s/?%s=%s\n", colorDim, colorReset, colorCyan, info.Key, colorReset)
		} else {
			fmt.Printf("     %sPath:%s        %s%s%s\n", colorDim, colorReset, colorCyan, info.Path, colorReset)
		}
		if info.RequiresSink != "" {
			fmt.Printf("     %sRequires:%s    %s%s sink%s\n", colorDim, colorReset, colorYellow, info.RequiresSink, colorReset)
		}
		fmt.Println()
	}
}

func printBanner() {
	banner := colorPurple + `
    ████████╗██╗███╗   ██╗██╗   ██╗███████╗██╗      █████╗ ██╗    ██╗
    ╚══██╔══╝██║████╗  ██║╚██╗ ██╔╝██╔════╝██║     ██╔══██╗██║    ██║
       ██║   ██║██╔██╗ ██║ ╚████╔╝ █████╗  ██║     ███████║██║ █╗ ██║
       ██║   ██║██║╚██╗██║  ╚██╔╝  ██╔══╝  ██║     ██╔══██║██║███╗██║
       ██║   ██║██║ ╚████║   ██║   ██║     ███████╗██║  ██║╚███╔███╔╝
       ╚═╝   ╚═╝╚═╝  ╚═══╝   ╚═╝   ╚═╝     ╚══════╝╚═╝  ╚═╝ ╚══╝╚══╝
` + colorReset

	tagline := colorDim + "    ──────────────────────────────────────────────────────────────────" + colorReset
	subtitle := colorCyan + colorBold + "             Deliberately vulnerable web application fixture" + colorReset
	version := colorDim + "                            Version " + modules.DefaultVersion + colorReset

	fmt.Println(banner)
	fmt.Println(tagline)
	fmt.Println(subtitle)
	fmt.Println(version)
	fmt.Println()
}

func printConfigSummary(cfg *config.Config, baseURL, requestLog string) {
	fmt.Println(colorCyan + colorBold + "┌─────────────────────────────────────────┐" + colorReset)
	fmt.Println(colorCyan + colorBold + "│         CONFIGURATION SUMMARY           │" + colorReset)
	fmt.Println(colorCyan + colorBold + "└─────────────────────────────────────────┘" + colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  ◆ APPLICATION" + colorReset)
	fmt.Printf("    %sName:%s        %s\n", colorDim, colorReset, cfg.App.Name)
	fmt.Printf("    %sHost:%s        %s%s%s\n", colorDim, colorReset, colorGreen, cfg.App.Host, colorReset)
	fmt.Printf("    %sPort:%s        %s%d%s\n", colorDim, colorReset, colorGreen, cfg.App.Port, colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  ◆ FEATURES" + colorReset)
	fmt.Printf("    %sXML:%s         %s\n", colorDim, colorReset, enabled(cfg.Features.XML))
	fmt.Printf("    %sMetrics:%s     %s\n", colorDim, colorReset, enabled(cfg.Metrics.Enabled))
	if requestLog != "" {
		fmt.Printf("    %sRequest log:%s %s\n", colorDim, colorReset, requestLog)
	}
	fmt.Println()

	fmt.Println(colorDim + "  ─────────────────────────────────────────" + colorReset)
	fmt.Printf("  %s✓ Server ready at:%s %s%s%s\n", colorGreen, colorReset, colorBold, baseURL, colorReset)
	fmt.Println(colorDim + "  ─────────────────────────────────────────" + colorReset)
	fmt.Println()
}

func printWarnings(warnings config.ValidationWarnings) {
	if len(warnings) == 0 {
		return
	}

	fmt.Println()
	fmt.Printf("  %s⚠ WARNINGS%s\n", colorYellow+colorBold, colorReset)
	for _, warn := range warnings {
		fmt.Printf("    %s•%s %s\n", colorYellow, colorReset, warn.Field)
		fmt.Printf("      %s%s%s\n", colorDim, warn.Message, colorReset)
		if warn.DefaultValue != "" {
			fmt.Printf("      %s→ proceeding with default: %s%s%s\n", colorDim, colorCyan, warn.DefaultValue, colorReset)
		}
	}
	fmt.Println()
}

func printUsage() {
	fmt.Println()
	fmt.Println(colorPurple + colorBold + "  TinyFlaw" + colorReset + colorDim + " - Deliberately vulnerable web application fixture" + colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  USAGE" + colorReset)
	fmt.Printf("    %s$%s tinyflaw %s<command>%s [flags]\n", colorDim, colorReset, colorCyan, colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  COMMANDS" + colorReset)
	fmt.Printf("    %srun%s        %sStart the vulnerable web server%s\n", colorGreen, colorReset, colorDim, colorReset)
	fmt.Printf("    %svalidate%s   %sValidate config file without starting%s\n", colorGreen, colorReset, colorDim, colorReset)
	fmt.Printf("    %scases%s      %sList the vulnerability catalog%s\n", colorGreen, colorReset, colorDim, colorReset)
	fmt.Printf("    %smodules%s    %sList registered handlers%s\n", colorGreen, colorReset, colorDim, colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  EXAMPLES" + colorReset)
	fmt.Printf("    %s# Start with built-in defaults on 127.0.0.1:65412%s\n", colorDim, colorReset)
	fmt.Printf("    $ tinyflaw %srun%s\n", colorGreen, colorReset)
	fmt.Println()
	fmt.Printf("    %s# Start with config on a custom port%s\n", colorDim, colorReset)
	fmt.Printf("    $ tinyflaw %srun%s -c %sconfigs/default.yaml%s -p %s9090%s\n", colorGreen, colorReset, colorCyan, colorReset, colorCyan, colorReset)
	fmt.Println()
	fmt.Printf("    %s# Validate configuration%s\n", colorDim, colorReset)
	fmt.Printf("    $ tinyflaw %svalidate%s -c %sconfigs/default.yaml%s\n", colorGreen, colorReset, colorCyan, colorReset)
	fmt.Println()

	fmt.Println(colorYellow + "  FLAGS" + colorReset)
	fmt.Printf("    %s-c, --config%s  %spath%s   %sPath to YAML configuration file%s\n", colorGreen, colorReset, colorCyan, colorReset, colorDim, colorReset)
	fmt.Printf("    %s-p, --port%s    %sint%s    %sOverride port from config%s\n", colorGreen, colorReset, colorCyan, colorReset, colorDim, colorReset)
	fmt.Printf("    %s--host%s        %saddr%s   %sOverride host from config%s\n", colorGreen, colorReset, colorCyan, colorReset, colorDim, colorReset)
	fmt.Printf("    %s-h, --help%s            %sShow help for a command%s\n", colorGreen, colorReset, colorDim, colorReset)
	fmt.Println()

	fmt.Printf("  %sRun '%stinyflaw <command> -h%s' for more information on a command%s\n", colorDim, colorReset, colorDim, colorReset)
	fmt.Println()
}

// printConfigError displays a nicely formatted configuration error
func printConfigError(configFile string, err error) {
	fmt.Println()
	fmt.Printf("  %s✗ Configuration Error%s\n", colorRed+colorBold, colorReset)
	fmt.Println(colorDim + "  ─────────────────────────────────────────" + colorReset)
	if configFile != "" {
		fmt.Printf("  %sFile:%s %s\n", colorDim, colorReset, configFile)
	}
	fmt.Println()

	errStr := err.Error()

	if strings.Contains(errStr, "failed to read config file") {
		fmt.Printf("  %s● FILE NOT FOUND%s\n", colorRed, colorReset)
		fmt.Printf("    %sCould not read the configuration file.%s\n", colorDim, colorReset)
		fmt.Printf("    %sPlease check that the file path is correct and the file exists.%s\n", colorDim, colorReset)
		fmt.Println()
		return
	}

	if strings.Contains(errStr, "failed to parse YAML") {
		fmt.Printf("  %s● YAML SYNTAX ERROR%s\n", colorRed, colorReset)
		fmt.Printf("    %sThe configuration file contains invalid YAML syntax.%s\n", colorDim, colorReset)
		fmt.Println()
		if _, details, ok := strings.Cut(errStr, ": "); ok {
			fmt.Printf("    %sDetails:%s %s\n", colorYellow, colorReset, details)
		}
		fmt.Println()
		fmt.Printf("  %sTip:%s Check for proper indentation, missing colons, or unquoted special characters.\n", colorCyan, colorReset)
		fmt.Println()
		return
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Printf("  %s● VALIDATION FAILED%s %s(%d issue%s found)%s\n",
			colorRed, colorReset, colorDim, len(verrs), pluralize(len(verrs)), colorReset)
		fmt.Println()

		for _, e := range verrs {
			fmt.Printf("    • %s%s%s\n", colorYellow, e.Field, colorReset)
			fmt.Printf("      %s%s%s\n", colorDim, e.Message, colorReset)
			fmt.Println()
		}

		printValidationTips(errStr)
		return
	}

	fmt.Printf("  %s● ERROR%s\n", colorRed, colorReset)
	fmt.Printf("    %s%s%s\n", colorDim, errStr, colorReset)
	fmt.Println()
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

func enabled(on bool) string {
	if on {
		return colorGreen + "enabled" + colorReset
	}
	return colorDim + "disabled" + colorReset
}

// stripTags removes inline markup from catalog names for terminal output
func stripTags(s string) string {
	return strings.NewReplacer("<i>", "", "</i>", "").Replace(s)
}

func printValidationTips(errStr string) {
	tips := []string{}

	if strings.Contains(errStr, "port must be between") {
		tips = append(tips, "Port must be a number between 1 and 65535 (default: 65412)")
	}
	if strings.Contains(errStr, "name is required") {
		tips = append(tips, "The app must have a name defined under 'app.name'")
	}
	if strings.Contains(errStr, "invalid level") {
		tips = append(tips, "Valid log levels are: debug, info, warn, error")
	}
	if strings.Contains(errStr, "metrics address") {
		tips = append(tips, "Metrics are served on their own listener; pick a host:port other than the app's")
	}
	if strings.Contains(errStr, "lookup command") {
		tips = append(tips, "The lookup command is prefixed to the 'domain' value, e.g. 'nslookup'")
	}

	if len(tips) > 0 {
		fmt.Println(colorDim + "  ─────────────────────────────────────────" + colorReset)
		fmt.Printf("  %sTips:%s\n", colorCyan+colorBold, colorReset)
		for _, tip := range tips {
			fmt.Printf("    %s• %s%s\n", colorDim, tip, colorReset)
		}
		fmt.Println()
	}
}
