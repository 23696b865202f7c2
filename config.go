// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"io/ioutil"
	"regexp"
	"strings"

	"github.com/ghodss/yaml"
)

// TagLength is the number of bases shared by adjacent tiles: each
// tile's last TagLength bases are the next tile's first TagLength
// bases.
const TagLength = 24

// Config holds the tile library layout: hex field widths, chromosome
// and assembly tables, and the cgf string format.
type Config struct {
	VersionDigits int `json:"version_digits"`
	PathDigits    int `json:"path_digits"`
	StepDigits    int `json:"step_digits"`
	VariantDigits int `json:"variant_digits"`

	// ChrPathLengths[c] is the exclusive upper bound of the
	// paths on chromosome c. Must be non-decreasing.
	ChrPathLengths []int `json:"chr_path_lengths"`
	// ChrNonexistent is a chromosome code one past the last real
	// chromosome, used to find the end of the genome.
	ChrNonexistent int `json:"chr_nonexistent"`
	// ChrOther is the chromosome code for sequences not listed in
	// Chromosomes; the name is kept alongside.
	ChrOther    int            `json:"chr_other"`
	Chromosomes map[string]int `json:"chromosomes"`
	Assemblies  map[string]int `json:"assemblies"`

	// CGFFormat must have a position group and an optional
	// spanning count group. Empty means derive from the widths.
	CGFFormat string `json:"cgf_format"`

	cgfRegexp *regexp.Regexp
}

// DefaultConfig returns the GRCh37 tile library layout.
func DefaultConfig() *Config {
	chroms := map[string]int{"chrX": 23, "chrY": 24, "chrM": 25}
	for i := 1; i <= 22; i++ {
		chroms[fmt.Sprintf("chr%d", i)] = i
	}
	cfg := &Config{
		VersionDigits:  2,
		PathDigits:     3,
		StepDigits:     4,
		VariantDigits:  3,
		ChrPathLengths: []int{0, 63, 125, 187, 234, 279, 327, 371, 411, 454, 496, 532, 573, 609, 641, 673, 698, 722, 742, 761, 781, 795, 811, 851, 862, 863, 863},
		ChrNonexistent: 27,
		ChrOther:       26,
		Chromosomes:    chroms,
		Assemblies: map[string]int{
			"hg16": 16,
			"hg17": 17,
			"hg18": 18,
			"hg19": 19,
			"hg38": 38,
		},
	}
	if err := cfg.Check(); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads a YAML (or JSON) file on top of DefaultConfig.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()
	if filename == "" {
		return cfg, cfg.Check()
	}
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	err = cfg.Check()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Check validates the configuration and compiles the cgf regexp.
func (cfg *Config) Check() error {
	for _, w := range []int{cfg.VersionDigits, cfg.PathDigits, cfg.StepDigits, cfg.VariantDigits} {
		if w < 1 {
			return fmt.Errorf("invalid config: hex field width %d < 1", w)
		}
	}
	if n := cfg.VersionDigits + cfg.PathDigits + cfg.StepDigits + cfg.VariantDigits; n > 15 {
		return fmt.Errorf("invalid config: total hex width %d does not fit in int64", n)
	}
	if len(cfg.ChrPathLengths) == 0 {
		return fmt.Errorf("invalid config: empty chr_path_lengths")
	}
	for i := 1; i < len(cfg.ChrPathLengths); i++ {
		if cfg.ChrPathLengths[i] < cfg.ChrPathLengths[i-1] {
			return fmt.Errorf("invalid config: chr_path_lengths decreases at index %d", i)
		}
	}
	if cfg.ChrNonexistent < 1 || cfg.ChrNonexistent > len(cfg.ChrPathLengths) {
		return fmt.Errorf("invalid config: chr_nonexistent %d out of range", cfg.ChrNonexistent)
	}
	format := cfg.CGFFormat
	if format == "" {
		format = fmt.Sprintf(`^([0-9a-f]{%d})(?:\+([0-9a-f]+))?$`, cfg.VersionDigits+cfg.PathDigits+cfg.StepDigits)
	}
	re, err := regexp.Compile(format)
	if err != nil {
		return fmt.Errorf("invalid config: cgf_format: %w", err)
	}
	if re.NumSubexp() < 2 {
		return fmt.Errorf("invalid config: cgf_format %q needs position and span groups", format)
	}
	cfg.cgfRegexp = re
	return nil
}

// ParseChromosome returns the chromosome code for name. Unlisted
// names get ChrOther and are returned as other.
func (cfg *Config) ParseChromosome(name string) (code int, other string) {
	if code, ok := cfg.Chromosomes[name]; ok {
		return code, ""
	}
	return cfg.ChrOther, name
}

// ParseAssembly returns the code for an assembly name like "hg19".
func (cfg *Config) ParseAssembly(name string) (int, error) {
	code, ok := cfg.Assemblies[strings.ToLower(name)]
	if !ok {
		return 0, &FormatError{Msg: fmt.Sprintf("unsupported assembly %q", name)}
	}
	return code, nil
}

func (cfg *Config) knownChromosome(code int) bool {
	for _, c := range cfg.Chromosomes {
		if c == code {
			return true
		}
	}
	return false
}

func (cfg *Config) knownAssembly(code int) bool {
	for _, a := range cfg.Assemblies {
		if a == code {
			return true
		}
	}
	return false
}
