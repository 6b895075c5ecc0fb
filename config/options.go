// Package config loads the Options struct (§6.3) that parameterizes a run:
// population sizing, termination caps, recombination/sorting disciplines,
// growth schedule, executor tuning, SA cooling schedule, checkpoint format,
// and client return policy. It mirrors the teacher's neat.Options loading
// machinery (neat/neat_options_readers.go) without any of its NEAT-specific
// fields.
package config

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// RecombinationMethod selects which parent-choice discipline feeds the
// recombination step of spec.md §4.2.
type RecombinationMethod string

const (
	// RecombinationDefault is an alias for RecombinationRandom.
	RecombinationDefault RecombinationMethod = "default"
	// RecombinationRandom chooses a parent uniformly at random.
	RecombinationRandom RecombinationMethod = "random"
	// RecombinationValue weights parent choice by fitness rank.
	RecombinationValue RecombinationMethod = "value"
)

// SortingMethod selects the selection discipline of spec.md §4.2.
type SortingMethod string

const (
	// SortingMuPlusLambda is the "never degrades" elitist selection.
	SortingMuPlusLambda SortingMethod = "mu+lambda"
	// SortingMuLambda discards the previous parents each generation.
	SortingMuLambda SortingMethod = "mu,lambda"
	// SortingMuOneRetain is mu,lambda with parent-0 retention on regression.
	SortingMuOneRetain SortingMethod = "mu,1retain"
	// SortingMuPlusLambdaPareto is the multi-objective elitist variant.
	SortingMuPlusLambdaPareto SortingMethod = "mu+lambda_pareto"
	// SortingMuLambdaPareto is the multi-objective non-elitist variant.
	SortingMuLambdaPareto SortingMethod = "mu,lambda_pareto"
	// SortingSA replaces selection with simulated-annealing Metropolis
	// acceptance and a cooling schedule (t0, alpha), per spec.md §4.2.
	SortingSA SortingMethod = "sa"
)

// CheckpointSerialization names the encoding used for checkpoint files,
// independent of the wire protocol's per-request serialization mode (spec.md
// §9's resolved open question).
type CheckpointSerialization string

const (
	CheckpointText   CheckpointSerialization = "text"
	CheckpointXML    CheckpointSerialization = "xml"
	CheckpointBinary CheckpointSerialization = "binary"
)

// Options is the full set of run-time knobs enumerated in spec.md §6.3.
type Options struct {
	// Population sizing.
	Size     int `yaml:"size"`
	NParents int `yaml:"n_parents"`

	// Termination caps.
	MaxIterations int `yaml:"max_iterations"`
	MaxMinutes    int `yaml:"max_minutes"`

	// Algorithm disciplines.
	RecombinationMethod    RecombinationMethod `yaml:"recombination_method"`
	SortingMethod          SortingMethod       `yaml:"sorting_method"`
	AmalgamationLikelihood float64             `yaml:"amalgamation_likelihood"`

	// Growth schedule.
	GrowthRate       int `yaml:"growth_rate"`
	MaxPopulationSize int `yaml:"max_population_size"`

	// Executor tuning.
	NThreads   int     `yaml:"n_threads"`
	WaitFactor float64 `yaml:"wait_factor"`

	// SA cooling schedule.
	T0    float64 `yaml:"t0"`
	Alpha float64 `yaml:"alpha"`

	// Checkpointing.
	CheckpointSerialization CheckpointSerialization `yaml:"checkpoint_serialization"`

	// Client policy.
	ReturnIfUnsuccessful bool `yaml:"return_if_unsuccessful"`

	// LogLevel gates evolog output, mirroring neat.Options.LogLevel.
	LogLevel string `yaml:"log_level"`
}

// Validate enforces the configuration-error taxonomy of spec.md §7.
func (o *Options) Validate() error {
	if o.NParents <= 0 {
		return errors.New("config: n_parents must be > 0")
	}
	if o.Size <= 0 {
		return errors.New("config: size (mu+lambda) must be > 0")
	}
	if o.SortingMethod == SortingMuLambda || o.SortingMethod == SortingMuLambdaPareto {
		if o.Size <= o.NParents {
			return errors.Errorf("config: size (%d) must exceed n_parents (%d) for sorting method %q", o.Size, o.NParents, o.SortingMethod)
		}
	}
	if (o.SortingMethod == SortingMuPlusLambdaPareto || o.SortingMethod == SortingMuLambdaPareto) && o.Size < o.NParents {
		return errors.Errorf("config: size (%d) must be >= n_parents (%d)", o.Size, o.NParents)
	}
	if o.T0 < 0 {
		return errors.New("config: t0 must be >= 0")
	}
	if o.SortingMethod == SortingSA && o.T0 <= 0 {
		return errors.New("config: t0 must be > 0 when sorting_method is sa")
	}
	if o.Alpha > 1 || (o.T0 > 0 && o.Alpha <= 0) {
		return errors.New("config: alpha must be in (0, 1] when simulated annealing is in use")
	}
	return nil
}

// LoadYAMLOptions loads Options encoded as YAML, mirroring
// neat.LoadYAMLOptions.
func LoadYAMLOptions(r io.Reader) (*Options, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to read YAML options")
	}
	var opts Options
	if err := yaml.Unmarshal(content, &opts); err != nil {
		return nil, errors.Wrap(err, "config: failed to decode YAML options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// LoadTextOptions loads Options from the plain "name value" line format,
// mirroring neat.LoadNeatOptions's fmt.Fscanf + spf13/cast pattern.
func LoadTextOptions(r io.Reader) (*Options, error) {
	o := &Options{}
	var name string
	var param string
	for {
		_, err := fmt.Fscanf(r, "%s %v\n", &name, &param)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "config: failed to parse text options")
		}
		switch name {
		case "size":
			o.Size = cast.ToInt(param)
		case "n_parents":
			o.NParents = cast.ToInt(param)
		case "max_iterations":
			o.MaxIterations = cast.ToInt(param)
		case "max_minutes":
			o.MaxMinutes = cast.ToInt(param)
		case "recombination_method":
			o.RecombinationMethod = RecombinationMethod(param)
		case "sorting_method":
			o.SortingMethod = SortingMethod(param)
		case "amalgamation_likelihood":
			o.AmalgamationLikelihood = cast.ToFloat64(param)
		case "growth_rate":
			o.GrowthRate = cast.ToInt(param)
		case "max_population_size":
			o.MaxPopulationSize = cast.ToInt(param)
		case "n_threads":
			o.NThreads = cast.ToInt(param)
		case "wait_factor":
			o.WaitFactor = cast.ToFloat64(param)
		case "t0":
			o.T0 = cast.ToFloat64(param)
		case "alpha":
			o.Alpha = cast.ToFloat64(param)
		case "checkpoint_serialization":
			o.CheckpointSerialization = CheckpointSerialization(param)
		case "return_if_unsuccessful":
			o.ReturnIfUnsuccessful = cast.ToBool(param)
		case "log_level":
			o.LogLevel = param
		default:
			return nil, errors.Errorf("config: unknown configuration parameter: %s = %s", name, param)
		}
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// ReadOptionsFromFile dispatches to LoadYAMLOptions or LoadTextOptions based
// on the file's extension, mirroring neat.ReadNeatOptionsFromFile.
func ReadOptionsFromFile(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: failed to open options file")
	}
	defer f.Close()

	if strings.HasSuffix(path, "yml") || strings.HasSuffix(path, "yaml") {
		return LoadYAMLOptions(f)
	}
	return LoadTextOptions(f)
}
