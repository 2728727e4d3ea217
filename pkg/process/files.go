package process

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Sriram-PR/md-toc/pkg/fetch"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// skipDirs are never descended into when a directory is expanded
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// CollectFiles expands files, directories and glob patterns into a sorted, de-duplicated
// list of document paths. Directories are walked recursively for markdown files (and HTML
// files when generate is set); explicit file arguments are kept whatever their extension.
// http(s) URLs are normalized rather than walked, and kept only when generate is set since remote documents
// cannot be rewritten. Paths matching any exclude pattern are dropped.
func CollectFiles(paths []string, exclude []*regexp.Regexp, generate bool) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(p string) {
		if fetch.IsURL(p) {
			p = fetch.NormalizeURL(p)
		} else {
			p = filepath.Clean(p)
		}
		if seen[p] || excluded(p, exclude) {
			return
		}
		seen[p] = true
		files = append(files, p)
	}

	wanted := func(p string) bool {
		return IsMarkdown(p) || (generate && IsHTML(p))
	}

	for _, arg := range paths {
		if fetch.IsURL(arg) {
			if !generate {
				return nil, utils.WrapErrorf(utils.ErrConfigValidation, "remote document '%s' cannot be rewritten", arg)
			}
			add(arg)
			continue
		}
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[") {
			globbed, err := filepath.Glob(arg)
			if err != nil {
				return nil, utils.WrapErrorf(utils.ErrConfigValidation, "invalid glob pattern '%s': %v", arg, err)
			}
			if len(globbed) == 0 {
				continue
			}
			matches = globbed
		}

		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("%w: stat '%s': %w", utils.ErrFilesystem, m, err)
			}
			if !info.IsDir() {
				add(m)
				continue
			}

			walkErr := filepath.WalkDir(m, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if p != m && skipDirs[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				if wanted(p) {
					add(p)
				}
				return nil
			})
			if walkErr != nil {
				return nil, fmt.Errorf("%w: walking '%s': %w", utils.ErrFilesystem, m, walkErr)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func excluded(path string, exclude []*regexp.Regexp) bool {
	slashed := filepath.ToSlash(path)
	for _, re := range exclude {
		if re.MatchString(slashed) {
			return true
		}
	}
	return false
}
