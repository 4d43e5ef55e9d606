// Package config provides the configuration management for the kpmcalc
// application. This file loads YAML preset files: named, shareable bundles
// of model and query settings that sit below CLI flags and environment
// variables in the override order.
package config

import (
	"bytes"
	"flag"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/spectralgo/kpmcalc/internal/errors"
)

// Preset mirrors the subset of AppConfig that makes sense to share between
// runs and machines. Pointer fields distinguish "absent from the file" from
// an explicit zero value.
type Preset struct {
	Query      *string  `yaml:"query,omitempty"`
	Lattice    *string  `yaml:"lattice,omitempty"`
	Sites      *int     `yaml:"sites,omitempty"`
	Width      *int     `yaml:"width,omitempty"`
	Hopping    *float64 `yaml:"hopping,omitempty"`
	Onsite     *float64 `yaml:"onsite,omitempty"`
	Flux       *float64 `yaml:"flux,omitempty"`
	Disorder   *float64 `yaml:"disorder,omitempty"`
	Site       *int     `yaml:"site,omitempty"`
	Row        *int     `yaml:"row,omitempty"`
	Col        *int     `yaml:"col,omitempty"`
	GridMin    *float64 `yaml:"emin,omitempty"`
	GridMax    *float64 `yaml:"emax,omitempty"`
	Points     *int     `yaml:"points,omitempty"`
	Broadening *float64 `yaml:"broadening,omitempty"`
	Kernel     *string  `yaml:"kernel,omitempty"`
	Lambda     *float64 `yaml:"lambda,omitempty"`
	NumRandom  *int     `yaml:"num_random,omitempty"`
	Seed       *int64   `yaml:"seed,omitempty"`
	MinEnergy  *float64 `yaml:"min_energy,omitempty"`
	MaxEnergy  *float64 `yaml:"max_energy,omitempty"`
	Format     *string  `yaml:"format,omitempty"`
}

// LoadPreset reads and decodes a YAML preset file. Unknown keys are
// rejected so a typo in a preset does not silently fall back to a default.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, apperrors.NewConfigError("cannot read preset file %s: %v", path, err)
	}
	var p Preset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Preset{}, apperrors.NewConfigError("cannot parse preset file %s: %v", path, err)
	}
	return p, nil
}

// applyPreset loads the configured preset file and copies its values into
// the configuration for every flag that was set neither on the command line
// nor through the environment.
func applyPreset(config *AppConfig, fs *flag.FlagSet) error {
	p, err := LoadPreset(config.Preset)
	if err != nil {
		return err
	}

	// overridden reports whether the user already chose a value for the
	// flag through a higher-priority channel.
	overridden := func(flagName, envKey string) bool {
		return isFlagSet(fs, flagName) || os.Getenv(EnvPrefix+envKey) != ""
	}

	setString := func(flagName, envKey string, dst *string, src *string) {
		if src != nil && !overridden(flagName, envKey) {
			*dst = *src
		}
	}
	setInt := func(flagName, envKey string, dst *int, src *int) {
		if src != nil && !overridden(flagName, envKey) {
			*dst = *src
		}
	}
	setFloat := func(flagName, envKey string, dst *float64, src *float64) {
		if src != nil && !overridden(flagName, envKey) {
			*dst = *src
		}
	}

	setString("query", "QUERY", &config.Query, p.Query)
	setString("lattice", "LATTICE", &config.Lattice, p.Lattice)
	setInt("sites", "SITES", &config.Sites, p.Sites)
	setInt("width", "WIDTH", &config.Width, p.Width)
	setFloat("hopping", "HOPPING", &config.Hopping, p.Hopping)
	setFloat("onsite", "ONSITE", &config.Onsite, p.Onsite)
	setFloat("flux", "FLUX", &config.Flux, p.Flux)
	setFloat("disorder", "DISORDER", &config.Disorder, p.Disorder)
	setInt("site", "SITE", &config.Site, p.Site)
	setInt("row", "ROW", &config.Row, p.Row)
	setInt("col", "COL", &config.Col, p.Col)
	setFloat("emin", "EMIN", &config.GridMin, p.GridMin)
	setFloat("emax", "EMAX", &config.GridMax, p.GridMax)
	setInt("points", "POINTS", &config.Points, p.Points)
	setFloat("broadening", "BROADENING", &config.Broadening, p.Broadening)
	setString("kernel", "KERNEL", &config.Kernel, p.Kernel)
	setFloat("lambda", "LAMBDA", &config.Lambda, p.Lambda)
	setInt("num-random", "NUM_RANDOM", &config.NumRandom, p.NumRandom)
	setFloat("min-energy", "MIN_ENERGY", &config.MinEnergy, p.MinEnergy)
	setFloat("max-energy", "MAX_ENERGY", &config.MaxEnergy, p.MaxEnergy)
	setString("format", "FORMAT", &config.Format, p.Format)
	if p.Seed != nil && !overridden("seed", "SEED") {
		config.Seed = *p.Seed
	}
	return nil
}
