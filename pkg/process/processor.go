package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-toc/pkg/detect"
	"github.com/Sriram-PR/md-toc/pkg/fetch"
	"github.com/Sriram-PR/md-toc/pkg/insert"
	"github.com/Sriram-PR/md-toc/pkg/models"
	"github.com/Sriram-PR/md-toc/pkg/storage"
	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// Mode selects what a Job does with its file
type Mode int

const (
	ModeGenerate Mode = iota // Print the table of contents of the file
	ModeInsert               // Insert the table of contents between the file's markers
)

// Job describes the processing of one file
type Job struct {
	Path   string
	Target string
	Mode   Mode

	Insert   insert.Options // Generation options live in the embedded toc.Options
	Selector string         // CSS selector for HTML sources
	JSON     bool           // ModeGenerate: output the heading list as JSON

	Write       bool // ModeInsert: rewrite the file in place
	Check       bool // ModeInsert: report files that would change, never write
	Incremental bool // ModeInsert: skip files whose hash matches the last successful run
}

// FileProcessor runs Jobs. The store is optional; without it incremental mode is a no-op.
// Without a remote, jobs naming URLs fail.
type FileProcessor struct {
	store    storage.FileStore
	remote   *fetch.Remote
	detector *detect.ContentDetector
	log      *logrus.Entry
}

// NewFileProcessor creates a FileProcessor
func NewFileProcessor(store storage.FileStore, log *logrus.Entry) *FileProcessor {
	return &FileProcessor{store: store, detector: detect.NewContentDetector(log), log: log}
}

// WithRemote lets the processor read http(s) documents through remote
func (p *FileProcessor) WithRemote(remote *fetch.Remote) *FileProcessor {
	p.remote = remote
	return p
}

// Process runs one job and reports its outcome. Errors are carried in the result.
func (p *FileProcessor) Process(ctx context.Context, job Job) models.FileResult {
	result := models.FileResult{Path: job.Path, Target: job.Target}
	taskLog := p.log.WithField("file", job.Path)

	if err := ctx.Err(); err != nil {
		result.Status = models.FileStatusFailure
		result.Err = err
		return result
	}

	if fetch.IsURL(job.Path) {
		return p.generateRemote(ctx, result, job, taskLog)
	}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		return p.fail(result, fmt.Errorf("%w: read '%s': %w", utils.ErrFilesystem, job.Path, err), "", taskLog, job)
	}
	doc := string(data)

	if job.Mode == ModeGenerate {
		return p.generate(result, doc, IsHTML(job.Path), job, taskLog)
	}
	return p.insert(result, doc, job, taskLog)
}

func (p *FileProcessor) generateRemote(ctx context.Context, result models.FileResult, job Job, taskLog *logrus.Entry) models.FileResult {
	if job.Mode != ModeGenerate {
		return p.fail(result, utils.WrapErrorf(utils.ErrConfigValidation, "remote document '%s' cannot be rewritten", job.Path), "", taskLog, job)
	}
	if p.remote == nil {
		return p.fail(result, utils.WrapErrorf(utils.ErrConfigValidation, "remote documents are not enabled: %s", job.Path), "", taskLog, job)
	}

	doc, err := p.remote.Get(ctx, job.Path)
	if err != nil {
		return p.fail(result, err, "", taskLog, job)
	}
	return p.generate(result, doc.Body, doc.IsHTML(), job, taskLog)
}

func (p *FileProcessor) generate(result models.FileResult, doc string, html bool, job Job, taskLog *logrus.Entry) models.FileResult {
	if html {
		converted, err := HTMLToMarkdown(doc, job.Selector, job.Path, p.detector)
		if err != nil {
			return p.fail(result, err, "", taskLog, job)
		}
		taskLog.Debugf("Converted HTML source to %d bytes of markdown", len(converted))
		doc = converted
	}

	res, err := toc.Generate(doc, job.Insert.Options)
	if err != nil {
		return p.fail(result, err, "", taskLog, job)
	}

	result.Headings = len(res.JSON)
	result.Status = models.FileStatusUpdated
	result.Output = res.Content
	if job.JSON {
		summary, err := res.JSONSummary()
		if err != nil {
			return p.fail(result, fmt.Errorf("%w: encoding headings: %w", utils.ErrParsing, err), "", taskLog, job)
		}
		result.Output = string(summary)
	}
	taskLog.Debugf("Generated table of contents with %d headings", result.Headings)
	return result
}

func (p *FileProcessor) insert(result models.FileResult, doc string, job Job, taskLog *logrus.Entry) models.FileResult {
	if IsHTML(job.Path) {
		return p.fail(result, utils.WrapErrorf(utils.ErrParsing, "HTML files cannot hold a table of contents: %s", job.Path), "", taskLog, job)
	}

	hash := utils.CalculateStringSHA256(doc)

	if job.Incremental && p.store != nil && !job.Check {
		prev, ok, err := p.store.GetFileContentHash(job.Path)
		if err != nil {
			taskLog.Warnf("State lookup failed, processing anyway: %v", err)
		} else if ok && prev == hash {
			taskLog.Debug("Unchanged since last run, skipping")
			result.Status = models.FileStatusSkipped
			return result
		}
	}

	if !insert.HasMarker(doc, job.Insert.Regex) {
		taskLog.Debug("No toc marker, skipping")
		result.Status = models.FileStatusSkipped
		p.record(job, result.Status, hash, 0, "", taskLog)
		return result
	}

	applied, err := insert.Apply(doc, job.Insert)
	if err != nil {
		return p.fail(result, err, hash, taskLog, job)
	}
	out := applied.Output
	result.Output = out
	result.Headings = applied.Headings

	switch {
	case out == doc:
		result.Status = models.FileStatusUnchanged
		p.record(job, result.Status, hash, result.Headings, "", taskLog)
	case job.Check:
		result.Status = models.FileStatusStale
		taskLog.Info("Table of contents is out of date")
	case job.Write:
		if err := writeFile(job.Path, out); err != nil {
			return p.fail(result, err, hash, taskLog, job)
		}
		result.Status = models.FileStatusUpdated
		taskLog.Infof("Updated table of contents (%d headings)", result.Headings)
		written, err := utils.CalculateFileSHA256(job.Path)
		if err != nil {
			taskLog.Warnf("Hashing written file failed, recording generated content hash: %v", err)
			written = utils.CalculateStringSHA256(out)
		}
		p.record(job, result.Status, written, result.Headings, "", taskLog)
	default:
		// Output only; the file on disk still differs
		result.Status = models.FileStatusUpdated
	}
	return result
}

func (p *FileProcessor) fail(result models.FileResult, err error, hash string, taskLog *logrus.Entry, job Job) models.FileResult {
	result.Status = models.FileStatusFailure
	result.Err = err
	result.Output = ""
	taskLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Processing failed: %v", err)
	if job.Mode == ModeInsert && !job.Check {
		p.record(job, result.Status, hash, 0, utils.CategorizeError(err), taskLog)
	}
	return result
}

// record persists the outcome when a store is configured. Store failures are logged, not returned.
func (p *FileProcessor) record(job Job, status models.FileStatus, hash string, headings int, errorType string, taskLog *logrus.Entry) {
	if p.store == nil {
		return
	}
	now := time.Now()
	entry := &models.FileDBEntry{
		Status:      status,
		ErrorType:   errorType,
		ContentHash: hash,
		Headings:    headings,
		LastAttempt: now,
	}
	if status.IsSuccess() {
		entry.ProcessedAt = now
	}
	if err := p.store.UpdateFileStatus(job.Path, entry); err != nil {
		taskLog.Warnf("Failed to record state: %v", err)
	}
}

// writeFile replaces the file content, keeping its permission bits
func writeFile(path, content string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat '%s': %w", utils.ErrFilesystem, path, err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("%w: write '%s': %w", utils.ErrFilesystem, path, err)
	}
	return nil
}
