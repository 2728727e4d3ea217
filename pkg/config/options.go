package config

import (
	"regexp"

	"github.com/Sriram-PR/md-toc/pkg/insert"
	"github.com/Sriram-PR/md-toc/pkg/toc"
	"github.com/Sriram-PR/md-toc/pkg/utils"
)

// ToOptions converts a TocConfig into generation options.
func ToOptions(tc TocConfig) (toc.Options, error) {
	if _, err := utils.CompileAlternation(tc.Strip); err != nil {
		return toc.Options{}, err
	}

	opts := toc.Options{
		FirstH1:          tc.FirstH1,
		MaxDepth:         tc.MaxDepth,
		Bullets:          tc.Bullets,
		Append:           tc.Append,
		StripHeadingTags: tc.StripHeadingTags,
		Strip:            toc.Strip{Words: tc.Strip},
	}
	if tc.Linkify != nil && !*tc.Linkify {
		opts.Linkify.Off = true
	}
	if tc.Slugify != nil && !*tc.Slugify {
		opts.Slugify.Off = true
	}
	if tc.Titleize != nil && !*tc.Titleize {
		opts.Titleize.Off = true
	}
	return opts, nil
}

// InsertOptions builds insertion options for one target.
func InsertOptions(targetCfg TargetConfig, appCfg AppConfig) (insert.Options, error) {
	tocOpts, err := ToOptions(GetEffectiveToc(targetCfg, appCfg))
	if err != nil {
		return insert.Options{}, err
	}

	opts := insert.Options{
		Options: tocOpts,
		Open:    appCfg.Open,
		Close:   appCfg.Close,
	}
	if appCfg.MarkerRegex != "" {
		re, err := regexp.Compile(appCfg.MarkerRegex)
		if err != nil {
			return insert.Options{}, utils.WrapErrorf(utils.ErrConfigValidation, "invalid marker_regex '%s': %v", appCfg.MarkerRegex, err)
		}
		opts.Regex = re
	}
	return opts, nil
}
