package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/md-toc/pkg/config"
	applog "github.com/Sriram-PR/md-toc/pkg/log"
	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/orchestrate"
	"github.com/Sriram-PR/md-toc/pkg/process"
	"github.com/Sriram-PR/md-toc/pkg/storage"
	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/Sriram-PR/md-toc/pkg/utils"
	"github.com/Sriram-PR/md-toc/pkg/watch"
)

const version = "1.0.0"

// adhocTarget names the target built from paths given on the command line
const adhocTarget = "cli"

const gcInterval = 10 * time.Minute

func main() {
	if len(os.Args) < 2 {
		printUsageTo(os.Stderr)
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "toc":
		os.Exit(doToc(args, os.Stdin, os.Stdout, os.Stderr))
	case "insert":
		os.Exit(doInsert(args, os.Stdout, os.Stderr))
	case "watch":
		os.Exit(doWatch(args, os.Stdout, os.Stderr))
	case "validate":
		runValidate(args)
	case "list-targets":
		runListTargets(args)
	case "mcp-server":
		runMcpServer(args)
	case "version":
		fmt.Printf("md-toc %s\n", version)
	case "-h", "--help", "help":
		printUsageTo(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsageTo(os.Stderr)
		os.Exit(1)
	}
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `md-toc - Markdown table of contents generator

Usage:
  md-toc <command> [options] [paths...]

Commands:
  toc           Print the table of contents of documents or URLs ('-' reads stdin)
  insert        Insert or refresh the table of contents between <!-- toc --> markers
  watch         Keep tables of contents up to date while documents change
  validate      Validate configuration file
  list-targets  List configured targets
  mcp-server    Start MCP server for AI tool integration
  version       Show version info

Run 'md-toc <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// loadConfigOrDefault loads the config file. A missing default file yields an empty config;
// a missing file named explicitly is an error.
func loadConfigOrDefault(path string, explicit bool) (*config.AppConfig, error) {
	cfg, err := loadConfig(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return &config.AppConfig{}, nil
	}
	return cfg, err
}

// tocFlags are the generation options settable on the command line
type tocFlags struct {
	maxDepth   int
	noFirstH1  bool
	bullets    string
	noLinks    bool
	appendText string
}

func (f *tocFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.maxDepth, "maxdepth", 0, "Deepest heading level to include (default 6)")
	fs.BoolVar(&f.noFirstH1, "no-firsth1", false, "Exclude the first h1 heading")
	fs.StringVar(&f.bullets, "bullets", "", "Comma-separated bullet glyphs cycled by depth (default '-,*,+')")
	fs.BoolVar(&f.noLinks, "no-links", false, "Render plain entries instead of anchor links")
	fs.StringVar(&f.appendText, "append", "", "Text appended after the list")
}

// apply overrides tc with the options given on the command line
func (f *tocFlags) apply(tc *config.TocConfig) {
	if f.maxDepth > 0 {
		tc.MaxDepth = f.maxDepth
	}
	if f.noFirstH1 {
		firstH1 := false
		tc.FirstH1 = &firstH1
	}
	if f.bullets != "" {
		tc.Bullets = splitList(f.bullets)
	}
	if f.noLinks {
		linkify := false
		tc.Linkify = &linkify
	}
	if f.appendText != "" {
		tc.Append = f.appendText
	}
}

// commonFlags are shared by the commands that process documents
type commonFlags struct {
	fs         *flag.FlagSet
	configFile string
	logLevel   string
	targets    string
	allTargets bool
	selector   string
	toc        tocFlags
}

func newCommonFlags(name string, stderr io.Writer, defaultLevel string) *commonFlags {
	c := &commonFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.SetOutput(stderr)
	c.fs.StringVar(&c.configFile, "config", config.DefaultFile, "Path to config file (optional unless set)")
	c.fs.StringVar(&c.logLevel, "loglevel", defaultLevel, "Log level (debug, info, warn, error)")
	c.fs.StringVar(&c.targets, "target", "", "Comma-separated target keys from config")
	c.fs.BoolVar(&c.allTargets, "all-targets", false, "Process all configured targets")
	c.fs.StringVar(&c.selector, "selector", "", "CSS selector for the main content of HTML files")
	c.toc.register(c.fs)
	return c
}

func (c *commonFlags) usage(name, summary string, examples ...string) {
	c.fs.Usage = func() {
		out := c.fs.Output()
		fmt.Fprintf(out, "Usage: md-toc %s [options] [paths...]\n\n%s\n\nOptions:\n", name, summary)
		c.fs.PrintDefaults()
		if len(examples) > 0 {
			fmt.Fprintf(out, "\nExamples:\n")
			for _, e := range examples {
				fmt.Fprintf(out, "  %s\n", e)
			}
		}
	}
}

// parse parses args. The returned code is meaningful only when ok is false.
func (c *commonFlags) parse(args []string) (code int, ok bool) {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 1, false
	}
	return 0, true
}

func (c *commonFlags) isSet(name string) bool {
	set := false
	c.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadTargets loads the config and resolves the targets to process. Paths given on the
// command line form a synthetic target inheriting the global defaults.
// Command-line generation options override every selected target.
func (c *commonFlags) loadTargets(log *logrus.Logger) (*config.AppConfig, []string, error) {
	appCfg, err := loadConfigOrDefault(c.configFile, c.isSet("config"))
	if err != nil {
		return nil, nil, err
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Debug(w)
	}
	if appCfg.Targets == nil {
		appCfg.Targets = make(map[string]config.TargetConfig)
	}

	var keys []string
	paths := c.fs.Args()
	switch {
	case len(paths) > 0 && (c.targets != "" || c.allTargets):
		return nil, nil, fmt.Errorf("%w: paths cannot be combined with -target or -all-targets", utils.ErrConfigValidation)
	case len(paths) > 0:
		appCfg.Targets[adhocTarget] = config.TargetConfig{Paths: paths}
		keys = []string{adhocTarget}
	case c.allTargets:
		keys = orchestrate.GetAllTargetKeys(appCfg)
		if len(keys) == 0 {
			return nil, nil, fmt.Errorf("%w: no targets configured in %s", utils.ErrConfigValidation, c.configFile)
		}
	case c.targets != "":
		keys = splitList(c.targets)
		if err := orchestrate.ValidateTargetKeys(appCfg, keys); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", utils.ErrConfigValidation, err)
		}
	default:
		return nil, nil, fmt.Errorf("%w: no paths given; pass files, directories or globs, or use -target", utils.ErrConfigValidation)
	}

	for _, key := range keys {
		targetCfg := appCfg.Targets[key]
		c.toc.apply(&targetCfg.Toc)
		if c.selector != "" {
			targetCfg.ContentSelector = c.selector
		}
		targetWarnings, err := targetCfg.Validate()
		if err != nil {
			return nil, nil, fmt.Errorf("target '%s': %w", key, err)
		}
		for _, w := range targetWarnings {
			log.Warnf("[%s] %s", key, w)
		}
		appCfg.Targets[key] = targetCfg
	}
	return appCfg, keys, nil
}

// runOrchestrator runs the orchestrator, cancelling it on SIGINT/SIGTERM
func runOrchestrator(orch *orchestrate.Orchestrator, log *logrus.Logger) []orchestrate.TargetResult {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, initiating graceful shutdown...", sig)
			orch.Cancel()
		case <-done:
		}
	}()

	return orch.Run()
}

// reportFailures prints target and file errors and reports whether there were any
func reportFailures(results []orchestrate.TargetResult, stderr io.Writer) bool {
	failed := false
	for _, r := range results {
		if r.Error != nil {
			failed = true
			fmt.Fprintf(stderr, "Error: [%s] %v\n", r.Target, r.Error)
		}
		for _, f := range r.Files {
			if f.Status == models.FileStatusFailure {
				failed = true
				fmt.Fprintf(stderr, "Error: %s: [%s] %v\n", f.Path, utils.CategorizeError(f.Err), f.Err)
			}
		}
	}
	return failed
}

// printOutputs writes each file's output, headed by its path when there are several
func printOutputs(results []orchestrate.TargetResult, stdout io.Writer) {
	var files []models.FileResult
	for _, r := range results {
		for _, f := range r.Files {
			if f.Output != "" {
				files = append(files, f)
			}
		}
	}
	for i, f := range files {
		if len(files) > 1 {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "<!-- %s -->\n", filepath.ToSlash(f.Path))
		}
		fmt.Fprint(stdout, f.Output)
		if !strings.HasSuffix(f.Output, "\n") {
			fmt.Fprintln(stdout)
		}
	}
}

func writeReports(path string, results []orchestrate.TargetResult, log *logrus.Logger) error {
	reports := make([]models.RunReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, r.Report)
	}
	if err := orchestrate.WriteReport(path, reports); err != nil {
		return err
	}
	log.Infof("Run report written to %s", path)
	return nil
}

// doToc prints tables of contents. Returns exit code (0 = success, 1 = error).
func doToc(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := newCommonFlags("toc", stderr, "warn")
	jsonOut := c.fs.Bool("json", false, "Print headings and entries as JSON")
	report := c.fs.String("report", "", "Write a YAML run report to this file")
	c.usage("toc", "Print the table of contents of markdown or HTML documents.",
		"md-toc toc README.md",
		"md-toc toc -maxdepth 2 docs/",
		"cat README.md | md-toc toc -",
		"md-toc toc https://example.com/docs/guide.html -selector auto",
		"md-toc toc -target docs -json")
	if code, ok := c.parse(args); !ok {
		return code
	}
	log := applog.New(stderr, c.logLevel)

	if c.fs.NArg() == 1 && c.fs.Arg(0) == "-" {
		return tocFromReader(c, *jsonOut, stdin, stdout, stderr, log)
	}

	appCfg, keys, err := c.loadTargets(log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts := orchestrate.RunOptions{Mode: process.ModeGenerate, JSON: *jsonOut}
	orch := orchestrate.NewOrchestrator(context.Background(), appCfg, keys, opts, log.WithField("component", "toc"))
	results := runOrchestrator(orch, log)

	printOutputs(results, stdout)
	failed := reportFailures(results, stderr)
	if *report != "" {
		if err := writeReports(*report, results, log); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if failed {
		return 1
	}
	return 0
}

// tocFromReader prints the table of contents of a document read from r
func tocFromReader(c *commonFlags, jsonOut bool, r io.Reader, stdout, stderr io.Writer, log *logrus.Logger) int {
	appCfg, err := loadConfigOrDefault(c.configFile, c.isSet("config"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	targetCfg := config.TargetConfig{}
	if c.targets != "" {
		if err := orchestrate.ValidateTargetKeys(appCfg, []string{c.targets}); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		targetCfg = appCfg.Targets[c.targets]
	}
	tc := config.GetEffectiveToc(targetCfg, *appCfg)
	c.toc.apply(&tc)
	warnings, err := tc.Validate()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	opts, err := config.ToOptions(tc)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(stderr, "Error: read stdin: %v\n", err)
		return 1
	}
	res, err := toc.Generate(string(data), opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOut {
		summary, err := res.JSONSummary()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(summary))
		return 0
	}
	fmt.Fprintln(stdout, res.Content)
	return 0
}

// doInsert inserts tables of contents. Returns exit code (0 = success, 1 = error or stale files).
func doInsert(args []string, stdout, stderr io.Writer) int {
	c := newCommonFlags("insert", stderr, "warn")
	write := c.fs.Bool("i", false, "Rewrite files in place instead of printing them")
	check := c.fs.Bool("check", false, "Report files whose table of contents is out of date; exit 1 if any")
	incremental := c.fs.Bool("incremental", false, "Skip files unchanged since their last successful run")
	resetState := c.fs.Bool("reset-state", false, "Drop stored incremental state before running")
	retryFailed := c.fs.Bool("retry-failed", false, "Also process files whose last run failed")
	stateLog := c.fs.String("state-log", "", "Write each target's stored file states to this directory")
	report := c.fs.String("report", "", "Write a YAML run report to this file")
	c.usage("insert", "Insert or refresh the table of contents between <!-- toc --> markers.",
		"md-toc insert -i README.md",
		"md-toc insert -check docs/",
		"md-toc insert -i -incremental -all-targets")
	if code, ok := c.parse(args); !ok {
		return code
	}
	log := applog.New(stderr, c.logLevel)

	if *write && *check {
		fmt.Fprintln(stderr, "Error: -i and -check cannot be combined")
		return 1
	}

	appCfg, keys, err := c.loadTargets(log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts := orchestrate.RunOptions{
		Mode:        process.ModeInsert,
		Write:       *write,
		Check:       *check,
		Incremental: *incremental,
		ResetState:  *resetState,
		RetryFailed: *retryFailed,
	}
	orch := orchestrate.NewOrchestrator(context.Background(), appCfg, keys, opts, log.WithField("component", "insert"))
	results := runOrchestrator(orch, log)

	if !*write && !*check {
		printOutputs(results, stdout)
	}
	failed := reportFailures(results, stderr)

	stale := 0
	if *check {
		for _, r := range results {
			for _, f := range r.Files {
				if f.Status == models.FileStatusStale {
					stale++
					fmt.Fprintf(stdout, "stale: %s\n", filepath.ToSlash(f.Path))
				}
			}
		}
		if stale > 0 {
			fmt.Fprintf(stderr, "%d files have an out-of-date table of contents\n", stale)
		}
	}

	if *report != "" {
		if err := writeReports(*report, results, log); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			failed = true
		}
	}
	if *stateLog != "" {
		if err := writeStateLogs(*stateLog, appCfg, keys, opts, log); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			failed = true
		}
	}

	if failed || stale > 0 {
		return 1
	}
	return 0
}

// writeStateLogs dumps the stored file states of every target that keeps state
func writeStateLogs(dir string, appCfg *config.AppConfig, keys []string, opts orchestrate.RunOptions, log *logrus.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create state log dir '%s': %w", utils.ErrFilesystem, dir, err)
	}
	for _, key := range keys {
		if !orchestrate.UsesState(appCfg, key, opts) {
			log.Infof("[%s] No incremental state kept, skipping state log", key)
			continue
		}
		entry := log.WithFields(logrus.Fields{"component": "state", "target": key})
		store, err := storage.NewBadgerStore(context.Background(), appCfg.StateDir, key, false, entry)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-state.txt", utils.SanitizeName(key)))
		err = store.WriteStateLog(path)
		store.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// doWatch keeps tables of contents up to date until interrupted
func doWatch(args []string, stdout, stderr io.Writer) int {
	c := newCommonFlags("watch", stderr, "info")
	incremental := c.fs.Bool("incremental", false, "Skip files unchanged since their last successful run")
	debounce := c.fs.Duration("debounce", 0, "Delay collapsing bursts of writes to one file (default from config, 200ms)")
	c.usage("watch", "Insert tables of contents, then refresh them whenever a document changes.",
		"md-toc watch README.md docs/",
		"md-toc watch -all-targets -incremental")
	if code, ok := c.parse(args); !ok {
		return code
	}
	log := applog.New(stderr, c.logLevel)

	appCfg, keys, err := c.loadTargets(log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	delay := appCfg.WatchDebounce
	if *debounce > 0 {
		delay = *debounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, stopping watch...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var outMu sync.Mutex
	onResult := func(r models.FileResult) {
		outMu.Lock()
		defer outMu.Unlock()
		if r.Err != nil {
			fmt.Fprintf(stderr, "Error: %s: [%s] %v\n", r.Path, utils.CategorizeError(r.Err), r.Err)
			return
		}
		if r.Status == models.FileStatusUpdated {
			fmt.Fprintf(stdout, "updated: %s (%d headings)\n", filepath.ToSlash(r.Path), r.Headings)
		}
	}

	opts := orchestrate.RunOptions{Mode: process.ModeInsert, Write: true, Incremental: *incremental}
	var watchers []*watch.Watcher
	for _, key := range keys {
		entry := log.WithFields(logrus.Fields{"component": "watch", "target": key})
		jobs, err := orchestrate.BuildJobs(appCfg, key, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error: [%s] %v\n", key, err)
			return 1
		}
		if len(jobs) == 0 {
			entry.Warn("No documents to watch")
			continue
		}

		var fileStore storage.FileStore
		if orchestrate.UsesState(appCfg, key, opts) {
			store, err := storage.NewBadgerStore(ctx, appCfg.StateDir, key, false, entry)
			if err != nil {
				fmt.Fprintf(stderr, "Error: [%s] %v\n", key, err)
				return 1
			}
			defer store.Close()
			go store.RunGC(ctx, gcInterval)
			fileStore = store
		}

		w := watch.NewWatcher(ctx, jobs, process.NewFileProcessor(fileStore, entry), delay, entry)
		w.OnResult = onResult
		watchers = append(watchers, w)
	}
	if len(watchers) == 0 {
		fmt.Fprintln(stderr, "Error: no documents to watch")
		return 1
	}

	var wg sync.WaitGroup
	errs := make([]error, len(watchers))
	for i, w := range watchers {
		wg.Add(1)
		go func(i int, w *watch.Watcher) {
			defer wg.Done()
			if err := w.Run(); err != nil {
				errs[i] = err
				cancel()
			}
		}(i, w)
	}
	wg.Wait()

	code := 0
	for _, err := range errs {
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			code = 1
		}
	}
	log.Info("Watch mode stopped")
	return code
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", config.DefaultFile, "Path to config file")
	targetKey := fs.String("target", "", "Target key to validate (optional, validates all if empty)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-toc validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, *targetKey, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath, targetKey string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	keys := orchestrate.GetAllTargetKeys(appCfg)
	if targetKey != "" {
		if _, ok := appCfg.Targets[targetKey]; !ok {
			fmt.Fprintf(stderr, "Error: target '%s' not found in config\n", targetKey)
			return 1
		}
		keys = []string{targetKey}
	}

	hasError := false
	for _, key := range keys {
		targetCfg := appCfg.Targets[key]
		targetWarnings, err := targetCfg.Validate()
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
			hasError = true
			continue
		}
		for _, w := range targetWarnings {
			fmt.Fprintf(stdout, "WARN: [%s] %s\n", key, w)
		}
		if _, err := config.InsertOptions(targetCfg, *appCfg); err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
			hasError = true
			continue
		}
		fmt.Fprintf(stdout, "OK: [%s]\n", key)
	}
	if hasError {
		return 1
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListTargets handles the list-targets subcommand
func runListTargets(args []string) {
	fs := flag.NewFlagSet("list-targets", flag.ExitOnError)
	configFile := fs.String("config", config.DefaultFile, "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: md-toc list-targets [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doListTargets(*configFile, os.Stdout, os.Stderr))
}

// doListTargets lists targets and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListTargets(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Targets in %s:\n\n", configPath)
	for _, key := range orchestrate.GetAllTargetKeys(appCfg) {
		target := appCfg.Targets[key]
		fmt.Fprintf(stdout, "  %s\n", key)
		fmt.Fprintf(stdout, "    Paths: %s\n", strings.Join(target.Paths, ", "))
		if len(target.Exclude) > 0 {
			fmt.Fprintf(stdout, "    Exclude: %s\n", strings.Join(target.Exclude, ", "))
		}
		if config.GetEffectiveIncremental(target, *appCfg) {
			fmt.Fprintf(stdout, "    Incremental: yes\n")
		}
		fmt.Fprintln(stdout)
	}
	return 0
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
