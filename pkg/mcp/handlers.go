package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/md-toc/pkg/config"
	"github.com/Sriram-PR/md-toc/pkg/insert"
	"github.com/Sriram-PR/md-toc/pkg/orchestrate"
	"github.com/Sriram-PR/md-toc/pkg/process"
	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// handleGenerateToc handles the generate_toc tool
func (s *Server) handleGenerateToc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown := request.GetString("markdown", "")
	opts, err := s.insertOptionsFor(request)
	if err != nil {
		return toolError(err), nil
	}

	res, err := toc.Generate(markdown, opts.Options)
	if err != nil {
		return toolError(err), nil
	}

	if request.GetBool("json", false) {
		summary, err := res.JSONSummary()
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(string(summary)), nil
	}
	return mcp.NewToolResultText(res.Content), nil
}

// handleInsertToc handles the insert_toc tool
func (s *Server) handleInsertToc(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown := request.GetString("markdown", "")
	opts, err := s.insertOptionsFor(request)
	if err != nil {
		return toolError(err), nil
	}

	if !insert.HasMarker(markdown, opts.Regex) {
		return toolError(utils.WrapErrorf(utils.ErrNoTocMarker, "add a <!-- toc --> comment where the table of contents belongs")), nil
	}

	out, err := insert.Insert(markdown, opts)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}

// handleTocFile handles the toc_file tool
func (s *Server) handleTocFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}
	opts, err := s.insertOptionsFor(request)
	if err != nil {
		return toolError(err), nil
	}

	selector := request.GetString("content_selector", "")
	if selector == "" {
		selector = config.GetEffectiveContentSelector(s.targetConfig(request), *s.cfg.AppConfig)
	}

	processor := process.NewFileProcessor(nil, s.log).WithRemote(s.remote)
	result := processor.Process(ctx, process.Job{
		Path:     path,
		Mode:     process.ModeGenerate,
		Insert:   opts,
		Selector: selector,
	})
	if result.Err != nil {
		return toolError(result.Err), nil
	}
	return mcp.NewToolResultText(result.Output), nil
}

// handleListTargets handles the list_targets tool
func (s *Server) handleListTargets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	appCfg := s.cfg.AppConfig
	keys := orchestrate.GetAllTargetKeys(appCfg)
	targets := make([]map[string]interface{}, 0, len(keys))

	for _, key := range keys {
		targetCfg := appCfg.Targets[key]
		info := map[string]interface{}{
			"key":         key,
			"paths":       targetCfg.Paths,
			"incremental": config.GetEffectiveIncremental(targetCfg, *appCfg),
			"toc":         config.GetEffectiveToc(targetCfg, *appCfg),
		}
		if len(targetCfg.Exclude) > 0 {
			info["exclude"] = targetCfg.Exclude
		}
		if s.jobManager.IsRunning(key) {
			info["status"] = "running"
		}
		targets = append(targets, info)
	}

	result := map[string]interface{}{
		"targets":       targets,
		"config_path":   s.cfg.ConfigPath,
		"total_targets": len(targets),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleRunTarget handles the run_target tool
func (s *Server) handleRunTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := request.GetString("target", "")
	if target == "" {
		return mcp.NewToolResultError("target parameter is required"), nil
	}
	if err := orchestrate.ValidateTargetKeys(s.cfg.AppConfig, []string{target}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	check := request.GetBool("check", false)
	incremental := request.GetBool("incremental", false)

	job, created := s.jobManager.CreateJob(target, check, incremental)
	message := "Run started"
	if created {
		go s.runTargetJob(job)
	} else {
		message = "A run for this target is already in progress"
	}

	result := map[string]interface{}{
		"job_id":  job.ID,
		"target":  job.Target,
		"status":  job.Status,
		"message": message,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("job not found: %s", jobID)), nil
	}

	b, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// runTargetJob runs a target in the background and records its outcome on the job
func (s *Server) runTargetJob(job Job) {
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(job.ID)
	jobLog := s.log.WithField("job_id", job.ID)

	opts := orchestrate.RunOptions{
		Mode:        process.ModeInsert,
		Write:       !job.Check,
		Check:       job.Check,
		Incremental: job.Incremental,
	}
	results := orchestrate.NewOrchestrator(jobCtx, s.cfg.AppConfig, []string{job.Target}, opts, jobLog).Run()
	if len(results) == 0 {
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, "no result for target")
		return
	}

	r := results[0]
	s.jobManager.UpdateCounts(job.ID, r.Report.Updated, r.Report.Unchanged, r.Report.Skipped, r.Report.Stale, r.Report.Failed)

	switch {
	case errors.Is(r.Error, context.Canceled):
		s.jobManager.UpdateStatus(job.ID, JobStatusCancelled, "")
	case r.Error != nil:
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, r.Error.Error())
	case r.Report.Failed > 0:
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, fmt.Sprintf("%d files failed", r.Report.Failed))
	default:
		s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
	}
}

// targetConfig returns the configured target named by the request, or a zero config
func (s *Server) targetConfig(request mcp.CallToolRequest) config.TargetConfig {
	if key := request.GetString("target", ""); key != "" {
		return s.cfg.AppConfig.Targets[key]
	}
	return config.TargetConfig{}
}

// insertOptionsFor merges tool arguments over the target's (or the global) options
func (s *Server) insertOptionsFor(request mcp.CallToolRequest) (insert.Options, error) {
	if key := request.GetString("target", ""); key != "" {
		if err := orchestrate.ValidateTargetKeys(s.cfg.AppConfig, []string{key}); err != nil {
			return insert.Options{}, utils.WrapErrorf(utils.ErrConfigValidation, "%v", err)
		}
	}
	targetCfg := s.targetConfig(request)
	tc := config.GetEffectiveToc(targetCfg, *s.cfg.AppConfig)
	args := request.GetArguments()

	if _, ok := args["maxdepth"]; ok {
		tc.MaxDepth = request.GetInt("maxdepth", 0)
	}
	if _, ok := args["firsth1"]; ok {
		firstH1 := request.GetBool("firsth1", true)
		tc.FirstH1 = &firstH1
	}
	if bullets := request.GetString("bullets", ""); bullets != "" {
		tc.Bullets = splitList(bullets)
	}
	if request.GetBool("no_links", false) {
		linkify := false
		tc.Linkify = &linkify
	}
	if appendText := request.GetString("append", ""); appendText != "" {
		tc.Append = appendText
	}

	warnings, err := tc.Validate()
	if err != nil {
		return insert.Options{}, err
	}
	for _, w := range warnings {
		s.log.Warnf("Tool options: %s", w)
	}

	targetCfg.Toc = tc
	return config.InsertOptions(targetCfg, *s.cfg.AppConfig)
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

// toolError reports err with its category so clients can branch on it
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("[%s] %v", utils.CategorizeError(err), err))
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
