// Package kinematics exposes a serial chain's solvers as a service: solver info, forward
// kinematics for named links, and velocity and position inverse kinematics with the goal pose
// given in any frame the service's frame lookup knows.
package kinematics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"go.viam.com/kinematics/kinematics"
	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/utils"
)

// DefaultListenAddress is used by the server when the config names none.
const DefaultListenAddress = "localhost:8080"

// Config describes the chain to solve, how to solve it, and the fixed frames goal poses may be
// given in.
type Config struct {
	Model  ModelConfig             `json:"model"`
	Solver kinematics.SolverConfig `json:"solver"`
	// Frames are fixed frames, each placed relative to its parent. Orientations are axis angles in
	// degrees.
	Frames   []referenceframe.LinkConfig `json:"frames,omitempty"`
	Listen   string                      `json:"listen,omitempty"`
	LogLevel string                      `json:"log_level,omitempty"`
}

// ModelConfig names exactly one model description file and the part of it to use.
type ModelConfig struct {
	URDF string `json:"urdf,omitempty"`
	JSON string `json:"json,omitempty"`
	// Root and Tip select the chain. Empty values are inferred from the model.
	Root string `json:"root,omitempty"`
	Tip  string `json:"tip,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	errs = multierr.Append(errs, cfg.Model.Validate(path+".model"))
	errs = multierr.Append(errs, cfg.Solver.Validate(path+".solver"))
	for i, frame := range cfg.Frames {
		framePath := path + ".frames." + strconv.Itoa(i)
		if frame.ID == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(framePath, "id"))
		}
		if frame.Parent == "" {
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(framePath, "parent"))
		}
	}
	if cfg.LogLevel != "" {
		if _, err := logging.LevelFromString(cfg.LogLevel); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
		}
	}
	return errs
}

// Validate ensures exactly one model file is named.
func (cfg *ModelConfig) Validate(path string) error {
	switch {
	case cfg.URDF == "" && cfg.JSON == "":
		return utils.NewConfigValidationError(path, errors.New(`one of "urdf" or "json" is required`))
	case cfg.URDF != "" && cfg.JSON != "":
		return utils.NewConfigValidationError(path, errors.New(`only one of "urdf" or "json" may be set`))
	}
	return nil
}

// Chain loads the configured model file.
func (cfg *ModelConfig) Chain() (*referenceframe.Chain, error) {
	if cfg.URDF != "" {
		return referenceframe.ParseURDFFile(cfg.URDF, cfg.Root, cfg.Tip)
	}
	chain, err := referenceframe.ParseModelJSONFile(cfg.JSON, "")
	if err != nil {
		return nil, err
	}
	if cfg.Root != "" && cfg.Root != chain.RootName() {
		return nil, referenceframe.NewModelError("model root is %q, config asks for %q", chain.RootName(), cfg.Root)
	}
	if cfg.Tip != "" && cfg.Tip != chain.TipName() {
		return nil, referenceframe.NewModelError("model tip is %q, config asks for %q", chain.TipName(), cfg.Tip)
	}
	return chain, nil
}

// ReadConfig reads a YAML or JSON config file, chosen by extension, and validates it. Model file
// paths relative to the config file are resolved against its directory.
func ReadConfig(filename string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	attributes := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &attributes)
	default:
		err = json.Unmarshal(data, &attributes)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %q", filename)
	}
	cfg, err := DecodeConfig(attributes)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(filename)
	for _, p := range []*string{&cfg.Model.URDF, &cfg.Model.JSON} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return cfg, nil
}

// DecodeConfig converts an attribute map into a validated Config. Keys not known to the config
// are an error.
func DecodeConfig(attributes map[string]interface{}) (*Config, error) {
	var cfg Config
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   &cfg,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if len(md.Unused) > 0 {
		return nil, errors.Errorf("unknown config keys %q", md.Unused)
	}
	if err := cfg.Validate("kinematics"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
