package service

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/config"
)

// ConfigurationLoaderImpl loads tool settings and QC rule files
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadSettings loads the tool settings. An empty path searches upwards from
// target, then the user config locations; nothing found means defaults.
func (c *ConfigurationLoaderImpl) LoadSettings(path, target string) (*config.Config, error) {
	return config.LoadConfigWithTarget(path, target)
}

// LoadQCRules loads a QC rule file, or the embedded rules when path is empty
func (c *ConfigurationLoaderImpl) LoadQCRules(path string) (*config.QCConfig, error) {
	if path == "" {
		log.Debug.Printf("using embedded QC rules")
		return config.DefaultQCConfig()
	}
	log.Debug.Printf("loading QC rules from %s", path)
	return config.LoadQCConfig(path)
}

// MergeOptions overlays command line options on the configured ones.
// Flags only ever switch the closest read length fallback on.
func (c *ConfigurationLoaderImpl) MergeOptions(cfg *config.Config, override domain.GatherOptions) domain.GatherOptions {
	merged := domain.GatherOptions{
		UseClosestReadLength: cfg.QC.UseClosestReadLength,
		DowngradeErrorsFor:   append([]string(nil), cfg.QC.DowngradeErrorsFor...),
		View:                 cfg.QC.View,
	}

	if override.UseClosestReadLength {
		merged.UseClosestReadLength = true
	}
	if len(override.DowngradeErrorsFor) > 0 {
		merged.DowngradeErrorsFor = append([]string(nil), override.DowngradeErrorsFor...)
	}
	if override.View != "" {
		merged.View = override.View
	}
	return merged
}

// ValidateRequest checks a check request before any file is read
func (c *ConfigurationLoaderImpl) ValidateRequest(req *domain.CheckRequest) error {
	if req.DataPath == "" {
		return domain.NewInvalidInputError("no QC data given", nil)
	}

	switch req.OutputFormat {
	case domain.OutputFormatJSON, domain.OutputFormatYAML, domain.OutputFormatText, domain.OutputFormatHTML:
	default:
		return domain.NewUnsupportedFormatError(string(req.OutputFormat))
	}

	if v := req.Options.View; v != "" && !domain.IsKnownView(v) {
		return domain.NewConfigError(fmt.Sprintf("unknown view %q, expected one of %v", v, domain.ViewNames()), nil)
	}
	return nil
}
