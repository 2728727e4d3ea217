package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-toc/pkg/config"
	"github.com/Sriram-PR/md-toc/pkg/fetch"
)

const (
	serverName    = "md-toc"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
}

// Server exposes table-of-contents generation and insertion as MCP tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
	remote     *fetch.Remote
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	log := cfg.Logger.WithField("component", "mcp")
	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        log,
		jobManager: NewJobManager(),
		remote:     fetch.NewRemote(cfg.AppConfig.Fetch, log),
	}
	s.registerTools()
	return s, nil
}

// generation options shared by the document tools
func tocToolOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("target",
			mcp.Description("Configured target whose options are used as the base (optional)"),
		),
		mcp.WithNumber("maxdepth",
			mcp.Description("Deepest heading level to include (default: 6)"),
		),
		mcp.WithBoolean("firsth1",
			mcp.Description("Include the first h1 heading (default: true)"),
		),
		mcp.WithString("bullets",
			mcp.Description("Comma-separated bullet glyphs cycled by depth (default: '-,*,+')"),
		),
		mcp.WithBoolean("no_links",
			mcp.Description("Render plain entries instead of anchor links"),
		),
		mcp.WithString("append",
			mcp.Description("Text appended after the list"),
		),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	generateTool := mcp.NewTool("generate_toc", append([]mcp.ToolOption{
		mcp.WithDescription("Generate a markdown table of contents for a markdown document"),
		mcp.WithString("markdown",
			mcp.Required(),
			mcp.Description("The markdown document"),
		),
		mcp.WithBoolean("json",
			mcp.Description("Return the heading list and entries as JSON instead of markdown"),
		),
	}, tocToolOptions()...)...)
	s.mcpServer.AddTool(generateTool, s.handleGenerateToc)

	insertTool := mcp.NewTool("insert_toc", append([]mcp.ToolOption{
		mcp.WithDescription("Insert or refresh the table of contents between <!-- toc --> markers and return the document"),
		mcp.WithString("markdown",
			mcp.Required(),
			mcp.Description("The markdown document containing a <!-- toc --> marker"),
		),
	}, tocToolOptions()...)...)
	s.mcpServer.AddTool(insertTool, s.handleInsertToc)

	fileTool := mcp.NewTool("toc_file", append([]mcp.ToolOption{
		mcp.WithDescription("Generate the table of contents of a markdown or HTML file on disk or at an http(s) URL"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path or URL of the document"),
		),
		mcp.WithString("content_selector",
			mcp.Description("CSS selector for the main content of HTML files (defaults to 'body')"),
		),
	}, tocToolOptions()...)...)
	s.mcpServer.AddTool(fileTool, s.handleTocFile)

	listTargetsTool := mcp.NewTool("list_targets",
		mcp.WithDescription("List all configured targets"),
	)
	s.mcpServer.AddTool(listTargetsTool, s.handleListTargets)

	runTargetTool := mcp.NewTool("run_target",
		mcp.WithDescription("Start a background run inserting tables of contents into every file of a target. Returns immediately with a job ID."),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target key from the config file"),
		),
		mcp.WithBoolean("check",
			mcp.Description("Only report files whose table of contents is out of date"),
		),
		mcp.WithBoolean("incremental",
			mcp.Description("Skip files unchanged since their last successful run"),
		),
	)
	s.mcpServer.AddTool(runTargetTool, s.handleRunTarget)

	jobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of a run_target job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by run_target"),
		),
	)
	s.mcpServer.AddTool(jobStatusTool, s.handleGetJobStatus)

	s.log.Infof("Registered %d MCP tools", 6)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio", "":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		return server.NewSSEServer(s.mcpServer).Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
