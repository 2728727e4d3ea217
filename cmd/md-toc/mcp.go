package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sriram-PR/md-toc/pkg/config"
	applog "github.com/Sriram-PR/md-toc/pkg/log"
	"github.com/Sriram-PR/md-toc/pkg/mcp"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", config.DefaultFile, "Path to config file (optional unless set)")
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: md-toc mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  md-toc mcp-server -config .md-toc.yaml

  # Start with SSE transport on port 8080
  md-toc mcp-server -transport sse -port 8080

Available MCP Tools:
  generate_toc    Generate a table of contents for a markdown document
  insert_toc      Insert a table of contents between <!-- toc --> markers
  toc_file        Generate the table of contents of a markdown or HTML file
  list_targets    List all configured targets
  run_target      Start a background insert run over a target
  get_job_status  Get the status of a run_target job
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	exitCode := doMcpServer(*configFile, explicit, *transport, *port, *logLevel, os.Stderr)
	os.Exit(exitCode)
}

// newMcpServer loads the configuration and builds the server.
// MCP stdio uses stdout, so logs go to stderr.
func newMcpServer(configPath string, explicit bool, transport string, port int, logLevel string, stderr io.Writer) (*mcp.Server, error) {
	log := applog.New(stderr, logLevel)

	appCfg, err := loadConfigOrDefault(configPath, explicit)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	warnings, err := appCfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	serverCfg := &mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     log,
	}
	return mcp.NewServer(serverCfg)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath string, explicit bool, transport string, port int, logLevel string, stderr io.Writer) int {
	server, err := newMcpServer(configPath, explicit, transport, port, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		server.Shutdown(context.Background())
		os.Exit(0)
	}()

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
