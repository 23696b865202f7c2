// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"strconv"
	"strings"
)

// Locus is a half-open interval [Begin, End) on one chromosome of
// one reference assembly.
type Locus struct {
	Assembly   int
	Chromosome int
	// ChromName is only meaningful when Chromosome is the
	// config's ChrOther code.
	ChromName string
	Begin     int
	End       int
}

func (l Locus) String() string {
	name := strconv.Itoa(l.Chromosome)
	if l.ChromName != "" {
		name += "/" + l.ChromName
	}
	return fmt.Sprintf("%d:%s:%d-%d", l.Assembly, name, l.Begin, l.End)
}

// Compatible returns true if l and b are on the same chromosome of
// the same assembly.
func (l Locus) Compatible(b Locus) bool {
	return l.Assembly == b.Assembly &&
		l.Chromosome == b.Chromosome &&
		l.ChromName == b.ChromName
}

// Contains returns true if b lies entirely within l.
func (l Locus) Contains(b Locus) bool {
	return l.Compatible(b) && b.Begin >= l.Begin && b.End <= l.End
}

// CheckLocus returns an error if l is malformed or uses an
// unrecognized assembly or chromosome.
func (cfg *Config) CheckLocus(l Locus) error {
	if l.Begin > l.End {
		return &RangeError{Msg: fmt.Sprintf("locus %s begins after it ends", l)}
	}
	if !cfg.knownAssembly(l.Assembly) {
		return &RangeError{Msg: fmt.Sprintf("locus %s has unsupported assembly", l)}
	}
	if l.Chromosome == cfg.ChrOther {
		if l.ChromName == "" {
			return &FormatError{Msg: fmt.Sprintf("locus %s has unlisted chromosome but no name", l)}
		}
	} else if !cfg.knownChromosome(l.Chromosome) {
		return &RangeError{Msg: fmt.Sprintf("locus %s has unrecognized chromosome", l)}
	} else if l.ChromName != "" {
		return &FormatError{Msg: fmt.Sprintf("locus %s has a listed chromosome and a name", l)}
	}
	return nil
}

// ParseBuild parses a FASTJ locus build string, e.g.
// "hg19 chr13 32199999 32200273". Begin and end may carry "-" and "+"
// suffixes (used for tiles that start or end on a variant); those are
// ignored.
func (cfg *Config) ParseBuild(build string) (Locus, error) {
	f := strings.Fields(build)
	if len(f) < 4 {
		return Locus{}, &FormatError{Msg: fmt.Sprintf("locus build %q has %d fields, expected 4", build, len(f))}
	}
	asm, err := cfg.ParseAssembly(f[0])
	if err != nil {
		return Locus{}, err
	}
	l := Locus{Assembly: asm}
	l.Chromosome, l.ChromName = cfg.ParseChromosome(f[1])
	l.Begin, err = strconv.Atoi(strings.SplitN(f[2], "-", 2)[0])
	if err != nil {
		return Locus{}, &FormatError{Msg: fmt.Sprintf("locus build %q: bad begin: %s", build, err)}
	}
	l.End, err = strconv.Atoi(strings.SplitN(f[3], "+", 2)[0])
	if err != nil {
		return Locus{}, &FormatError{Msg: fmt.Sprintf("locus build %q: bad end: %s", build, err)}
	}
	return l, cfg.CheckLocus(l)
}
