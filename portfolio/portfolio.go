// Package portfolio loads target allocation files.
//
// An allocation file is YAML with a `portfolio:` list of targets and an
// optional `config:` block overriding the process-wide credentials, so one
// installation can drive several accounts from separate files.
package portfolio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/kisrebal/config"
)

// WeightEpsilon is the tolerance applied when checking that target weights
// do not sum above 1.
const WeightEpsilon = 1e-6

// ErrWeightSum means the target weights sum above 1 and no plan can be
// safely built from the file.
var ErrWeightSum = errors.New("target weights sum above 1")

// Target is one instrument with its desired share of total assets.
type Target struct {
	Code    string  `yaml:"code"`
	Name    string  `yaml:"name"`
	Portion float64 `yaml:"portion"` // target weight in [0,1]
}

// Override is the optional per-file credential override. Field names match
// the environment variables they replace.
type Override struct {
	AppKey      string `yaml:"APP_KEY"`
	AppSecret   string `yaml:"APP_SECRET"`
	Account     string `yaml:"CANO"`
	ProductCode string `yaml:"ACNT_PRDT_CD"`
	BaseURL     string `yaml:"URL_BASE"`
}

// Credentials converts the override into a partial credential set for
// merging on top of the env-derived base.
func (o Override) Credentials() config.Credentials {
	return config.Credentials{
		AppKey:      o.AppKey,
		AppSecret:   o.AppSecret,
		Account:     o.Account,
		ProductCode: o.ProductCode,
		BaseURL:     o.BaseURL,
	}
}

// Portfolio is one parsed allocation file.
type Portfolio struct {
	Path     string
	Targets  []Target
	Override *Override
}

type fileFormat struct {
	Portfolio []Target  `yaml:"portfolio"`
	Config    *Override `yaml:"config"`
}

// Load parses one allocation file. Rows with a zero or negative portion are
// dropped with a warning; a weight sum above 1 (plus tolerance) is fatal.
// Weights summing below 1 are fine, the remainder is implicitly cash.
func Load(path string, log zerolog.Logger) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse portfolio file %s: %w", path, err)
	}
	if len(f.Portfolio) == 0 {
		return nil, fmt.Errorf("portfolio file %s has no targets", path)
	}

	targets := make([]Target, 0, len(f.Portfolio))
	sum := 0.0
	for _, t := range f.Portfolio {
		if t.Code == "" {
			return nil, fmt.Errorf("portfolio file %s: target %q has no code", path, t.Name)
		}
		if t.Portion <= 0 {
			log.Warn().Str("code", t.Code).Float64("portion", t.Portion).
				Msg("ignoring target with non-positive portion")
			continue
		}
		sum += t.Portion
		targets = append(targets, t)
	}

	if sum > 1+WeightEpsilon {
		return nil, fmt.Errorf("portfolio file %s: %w (%.4f)", path, ErrWeightSum, sum)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("portfolio file %s has no usable targets", path)
	}

	return &Portfolio{Path: path, Targets: targets, Override: f.Config}, nil
}

// Files lists the allocation files (portfolio*.yaml) in dir, sorted by name.
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "portfolio*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan portfolio files: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
