// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"strconv"
)

// Codec converts between flat tile position / tile variant integers
// and their (version, path, step[, variant]) fields. Each field is a
// fixed number of hex digits; the integer is the concatenation of the
// fields read as one hex number.
type Codec struct {
	cfg *Config
}

// NewCodec returns a Codec for cfg, which must already pass Check.
func NewCodec(cfg *Config) *Codec {
	return &Codec{cfg: cfg}
}

// Config returns the configuration the codec was built from.
func (codec *Codec) Config() *Config { return codec.cfg }

func (codec *Codec) positionWidths() []int {
	return []int{codec.cfg.VersionDigits, codec.cfg.PathDigits, codec.cfg.StepDigits}
}

func (codec *Codec) variantWidths() []int {
	return []int{codec.cfg.VersionDigits, codec.cfg.PathDigits, codec.cfg.StepDigits, codec.cfg.VariantDigits}
}

var fieldNames = []string{"version", "path", "step", "variant"}

func encodeHex(widths []int, vals []int) (int64, error) {
	s := ""
	for i, val := range vals {
		if val < 0 || val >= 1<<(4*uint(widths[i])) {
			return 0, &RangeError{Msg: fmt.Sprintf("%s %d does not fit in %d hex digits", fieldNames[i], val, widths[i])}
		}
		s += fmt.Sprintf("%0*x", widths[i], val)
	}
	return strconv.ParseInt(s, 16, 64)
}

func splitHex(widths []int, n int64) ([]string, error) {
	total := 0
	for _, w := range widths {
		total += w
	}
	if n < 0 || n >= 1<<(4*uint(total)) {
		return nil, &FormatError{Msg: fmt.Sprintf("integer %d does not fit in %d hex digits", n, total)}
	}
	s := fmt.Sprintf("%0*x", total, n)
	fields := make([]string, len(widths))
	for i, w := range widths {
		fields[i], s = s[:w], s[w:]
	}
	return fields, nil
}

func decodeHex(widths []int, n int64) ([]int, error) {
	fields, err := splitHex(widths, n)
	if err != nil {
		return nil, err
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 16, 64)
		if err != nil {
			return nil, &FormatError{Msg: err.Error()}
		}
		vals[i] = int(v)
	}
	return vals, nil
}

// EncodePosition returns the tile position integer for the given
// fields.
func (codec *Codec) EncodePosition(version, path, step int) (int64, error) {
	return encodeHex(codec.positionWidths(), []int{version, path, step})
}

// EncodeVariant returns the tile variant integer for the given
// fields.
func (codec *Codec) EncodeVariant(version, path, step, variant int) (int64, error) {
	return encodeHex(codec.variantWidths(), []int{version, path, step, variant})
}

// DecodePosition splits a tile position integer into its fields.
func (codec *Codec) DecodePosition(pos int64) (version, path, step int, err error) {
	vals, err := decodeHex(codec.positionWidths(), pos)
	if err != nil {
		return
	}
	return vals[0], vals[1], vals[2], nil
}

// DecodeVariant splits a tile variant integer into its fields.
func (codec *Codec) DecodeVariant(tv int64) (version, path, step, variant int, err error) {
	vals, err := decodeHex(codec.variantWidths(), tv)
	if err != nil {
		return
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// PositionFields returns the zero-padded hex version, path, and step
// strings of a tile position.
func (codec *Codec) PositionFields(pos int64) ([]string, error) {
	return splitHex(codec.positionWidths(), pos)
}

// VariantFields returns the zero-padded hex version, path, step, and
// variant strings of a tile variant.
func (codec *Codec) VariantFields(tv int64) ([]string, error) {
	return splitHex(codec.variantWidths(), tv)
}

// PositionString returns the zero-padded hex rendering of a tile
// position, e.g. "00005000a".
func (codec *Codec) PositionString(pos int64) (string, error) {
	fields, err := codec.PositionFields(pos)
	if err != nil {
		return "", err
	}
	return fields[0] + fields[1] + fields[2], nil
}

// VariantString returns the zero-padded hex rendering of a tile
// variant.
func (codec *Codec) VariantString(tv int64) (string, error) {
	fields, err := codec.VariantFields(tv)
	if err != nil {
		return "", err
	}
	return fields[0] + fields[1] + fields[2] + fields[3], nil
}

// PositionToVariant returns the tile variant integer for the given
// variant index at pos.
func (codec *Codec) PositionToVariant(pos int64, variant int) (int64, error) {
	version, path, step, err := codec.DecodePosition(pos)
	if err != nil {
		return 0, err
	}
	return codec.EncodeVariant(version, path, step, variant)
}

// VariantToPosition drops the variant field.
func (codec *Codec) VariantToPosition(tv int64) (int64, error) {
	version, path, step, _, err := codec.DecodeVariant(tv)
	if err != nil {
		return 0, err
	}
	return codec.EncodePosition(version, path, step)
}

// CheckPosition returns an error if pos doesn't decode, or its path is
// beyond the last chromosome.
func (codec *Codec) CheckPosition(pos int64) error {
	_, path, _, err := codec.DecodePosition(pos)
	if err != nil {
		return err
	}
	if npaths := codec.cfg.ChrPathLengths[len(codec.cfg.ChrPathLengths)-1]; path >= npaths {
		return &RangeError{Msg: fmt.Sprintf("path %#x >= number of paths %#x", path, npaths)}
	}
	return nil
}

// ChromosomeOfPath returns the chromosome code whose path range
// includes path.
func (codec *Codec) ChromosomeOfPath(path int) (int, error) {
	if path < 0 {
		return 0, &RangeError{Msg: fmt.Sprintf("path %d < 0", path)}
	}
	for chrom, bound := range codec.cfg.ChrPathLengths {
		if path < bound {
			return chrom, nil
		}
	}
	return 0, &RangeError{Msg: fmt.Sprintf("path %d is beyond the last chromosome", path)}
}

// ChromosomeOfPosition returns the chromosome code of a tile position.
func (codec *Codec) ChromosomeOfPosition(pos int64) (int, error) {
	_, path, _, err := codec.DecodePosition(pos)
	if err != nil {
		return 0, err
	}
	return codec.ChromosomeOfPath(path)
}

// ChromosomeOfVariant returns the chromosome code of a tile variant.
func (codec *Codec) ChromosomeOfVariant(tv int64) (int, error) {
	_, path, _, _, err := codec.DecodeVariant(tv)
	if err != nil {
		return 0, err
	}
	return codec.ChromosomeOfPath(path)
}

// MinPositionOfPath returns the first position and tile variant
// integers on path. path may equal the total number of paths, which
// gives an exclusive upper bound for the whole library.
func (codec *Codec) MinPositionOfPath(path, version int) (pos, tv int64, err error) {
	bounds := codec.cfg.ChrPathLengths
	if path < 0 {
		return 0, 0, &RangeError{Msg: fmt.Sprintf("path %d < 0", path)}
	} else if path > bounds[len(bounds)-1] {
		return 0, 0, &RangeError{Msg: fmt.Sprintf("path %d > number of paths %d", path, bounds[len(bounds)-1])}
	}
	pos, err = codec.EncodePosition(version, path, 0)
	if err != nil {
		return
	}
	tv, err = codec.EncodeVariant(version, path, 0, 0)
	return
}

// MinPositionOfChromosome returns the first position and tile variant
// integers on chrom. Passing the configured ChrNonexistent code
// returns the exclusive upper bound of the last real chromosome.
func (codec *Codec) MinPositionOfChromosome(chrom int) (pos, tv int64, err error) {
	cfg := codec.cfg
	if chrom != cfg.ChrNonexistent && chrom != cfg.ChrOther && !cfg.knownChromosome(chrom) {
		return 0, 0, &RangeError{Msg: fmt.Sprintf("%d is not an acceptable chromosome code", chrom)}
	}
	if chrom < 1 || chrom > len(cfg.ChrPathLengths) {
		return 0, 0, &RangeError{Msg: fmt.Sprintf("chromosome %d has no entry in chr_path_lengths", chrom)}
	}
	return codec.MinPositionOfPath(cfg.ChrPathLengths[chrom-1], 0)
}
