package config

import (
	"os"
	"path/filepath"
	"time"
)

// Settings configures expconf itself: where experiments live and how their
// configuration documents are discovered and read. It is loaded from
// .expconf.yml with EXPCONF_* environment overrides.
type Settings struct {
	Root           string        `yaml:"root" mapstructure:"root"`                       // directory holding one directory per experiment
	ExpID          string        `yaml:"expid" mapstructure:"expid"`                     // experiment identifier, e.g. "a000"
	CustomDir      string        `yaml:"custom_dir" mapstructure:"custom_dir"`           // custom override directory, relative to conf/
	CustomPatterns []string      `yaml:"custom_patterns" mapstructure:"custom_patterns"` // glob patterns for custom documents
	StrictKeys     bool          `yaml:"strict_keys" mapstructure:"strict_keys"`         // reject malformed keys instead of dropping the subtree
	MtimeTolerance time.Duration `yaml:"mtime_tolerance" mapstructure:"mtime_tolerance"` // modification-time changes at or below this are ignored
	Log            LogSettings   `yaml:"log" mapstructure:"log"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"` // human-readable console output
}

// Default returns settings with sensible defaults. Root defaults to
// ~/autosubmit; ExpID has no default.
func Default() *Settings {
	root := "autosubmit"
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, "autosubmit")
	}
	return &Settings{
		Root:           root,
		CustomDir:      "custom_conf",
		CustomPatterns: []string{"**/*.yml", "**/*.yaml"},
		MtimeTolerance: time.Second,
		Log: LogSettings{
			Level: "info",
		},
	}
}

// Layout returns the file layout of the configured experiment.
func (s *Settings) Layout() Layout {
	expDir := filepath.Join(s.Root, s.ExpID)
	confDir := filepath.Join(expDir, "conf")
	customDir := s.CustomDir
	if !filepath.IsAbs(customDir) {
		customDir = filepath.Join(confDir, customDir)
	}
	return Layout{
		ExpID:     s.ExpID,
		ExpDir:    expDir,
		ConfDir:   confDir,
		CustomDir: customDir,
	}
}

// Layout locates the configuration documents of one experiment:
//
//	<root>/<expid>/conf/autosubmit_<expid>.yml
//	<root>/<expid>/conf/expdef_<expid>.yml
//	<root>/<expid>/conf/jobs_<expid>.yml
//	<root>/<expid>/conf/platforms_<expid>.yml
//	<root>/<expid>/conf/proj_<expid>.yml        (optional)
//	<root>/<expid>/conf/custom_conf/**           (custom overrides)
type Layout struct {
	ExpID     string
	ExpDir    string
	ConfDir   string
	CustomDir string
}

func (l Layout) document(prefix string) string {
	return filepath.Join(l.ConfDir, prefix+"_"+l.ExpID+".yml")
}

// Base is the general settings document.
func (l Layout) Base() string { return l.document("autosubmit") }

// Experiment is the experiment definition document.
func (l Layout) Experiment() string { return l.document("expdef") }

// Jobs is the job definition document.
func (l Layout) Jobs() string { return l.document("jobs") }

// Platforms is the platform definition document.
func (l Layout) Platforms() string { return l.document("platforms") }

// Project is the optional project override document.
func (l Layout) Project() string { return l.document("proj") }
