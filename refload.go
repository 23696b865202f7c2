// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LibraryVariant is a tile variant already in the library.
type LibraryVariant struct {
	TileVariant int64
	Checksum    string
	Population  int
}

// ReferenceLibrary provides the library's tile variants and reference
// sequences by tile position.
type ReferenceLibrary interface {
	// TileVariants returns the known variants at a position. The
	// first is the reference variant.
	TileVariants(pos int64) []LibraryVariant
	ReferenceSequence(pos int64) (string, bool)
}

// LocusStore provides the reference locus of each tile position.
type LocusStore interface {
	Locus(pos int64) (Locus, bool)
}

// PriorVariants provides genome variants persisted by earlier runs,
// and the largest id among them.
type PriorVariants interface {
	PriorGenomeVariants() (ids map[VariantKey]int64, maxID int64)
}

// LoadFiles names the CSV files that describe the current library.
type LoadFiles struct {
	// tile_var_period_sep,tile_variant_int,tile_int,population,md5sum
	Library string
	// tile_int,assembly,chromosome,begin,end,chrom_name
	Loci string
	// tilevarname,varname,length,md5sum,created,updated,sequence,start,end,tile_int,num_spanning_tiles
	Sequences string
	// genome variant rows, as written to StreamGenomeVariant.
	// Optional.
	GenomeVariants string
}

// ReferenceData is the part of the library on one path, loaded from
// LoadFiles. It implements ReferenceLibrary, LocusStore, and
// PriorVariants.
type ReferenceData struct {
	codec    *Codec
	path     int
	tilevars map[int64][]LibraryVariant
	loci     map[int64]Locus
	refseqs  map[int64]string
	prior    map[VariantKey]int64
	maxPrior int64
}

// LoadReferenceData reads the rows of files that belong to path.
func LoadReferenceData(codec *Codec, path int, files LoadFiles) (*ReferenceData, error) {
	rd := &ReferenceData{
		codec:    codec,
		path:     path,
		tilevars: map[int64][]LibraryVariant{},
		loci:     map[int64]Locus{},
		refseqs:  map[int64]string{},
		prior:    map[VariantKey]int64{},
	}
	for _, load := range []struct {
		filename string
		fields   int
		optional bool
		fn       func([]string) error
	}{
		{files.Library, 5, false, rd.loadLibraryRow},
		{files.Loci, 6, false, rd.loadLocusRow},
		{files.Sequences, 11, false, rd.loadSequenceRow},
		{files.GenomeVariants, 8, true, rd.loadGenomeVariantRow},
	} {
		if load.filename == "" {
			if load.optional {
				continue
			}
			return nil, fmt.Errorf("missing load file name")
		}
		err := readCSV(load.filename, load.fields, load.fn)
		if err != nil {
			return nil, err
		}
	}
	log.WithField("path", fmt.Sprintf("%x", path)).Infof("loaded %d tile positions, %d loci, %d reference sequences, %d prior genome variants", len(rd.tilevars), len(rd.loci), len(rd.refseqs), len(rd.prior))
	return rd, nil
}

func readCSV(filename string, minFields int, fn func([]string) error) error {
	f, err := zopen(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	rdr := csv.NewReader(f)
	rdr.FieldsPerRecord = -1
	rdr.ReuseRecord = true
	for line := 1; ; line++ {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		if len(rec) < minFields {
			return fmt.Errorf("%s line %d: wrong number of fields (%d < %d)", filename, line, len(rec), minFields)
		}
		err = fn(rec)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", filename, line, err)
		}
	}
	return f.Close()
}

func (rd *ReferenceData) onPath(pos int64) (bool, error) {
	_, path, _, err := rd.codec.DecodePosition(pos)
	return path == rd.path, err
}

func (rd *ReferenceData) loadLibraryRow(rec []string) error {
	pos, err := strconv.ParseInt(rec[2], 10, 64)
	if err != nil {
		return err
	}
	if ok, err := rd.onPath(pos); err != nil || !ok {
		return err
	}
	version, _, _, err := rd.codec.DecodePosition(pos)
	if err != nil {
		return err
	} else if version != 0 {
		return fmt.Errorf("tile %#x: path version %d, expected 0", pos, version)
	}
	tv, err := strconv.ParseInt(rec[1], 10, 64)
	if err != nil {
		return err
	}
	popul, err := strconv.Atoi(rec[3])
	if err != nil {
		return err
	}
	rd.tilevars[pos] = append(rd.tilevars[pos], LibraryVariant{TileVariant: tv, Population: popul, Checksum: rec[4]})
	return nil
}

func (rd *ReferenceData) loadLocusRow(rec []string) error {
	pos, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return err
	}
	if _, ok := rd.tilevars[pos]; !ok {
		return nil
	}
	if _, dup := rd.loci[pos]; dup {
		return fmt.Errorf("tile %#x has two conflicting loci", pos)
	}
	var l Locus
	var ints [4]int
	for i := range ints {
		ints[i], err = strconv.Atoi(rec[1+i])
		if err != nil {
			return err
		}
	}
	l.Assembly, l.Chromosome, l.Begin, l.End = ints[0], ints[1], ints[2], ints[3]
	if name := rec[5]; name != "" && name != `""` {
		l.ChromName = name
	}
	rd.loci[pos] = l
	return nil
}

func (rd *ReferenceData) loadSequenceRow(rec []string) error {
	pos, err := strconv.ParseInt(rec[9], 10, 64)
	if err != nil {
		return err
	}
	tvs, ok := rd.tilevars[pos]
	if !ok {
		return nil
	}
	if rec[1] != "0" {
		return fmt.Errorf("tile %#x: expected only reference sequences, got variant value %s", pos, rec[1])
	}
	tv, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return err
	}
	if tvs[0].TileVariant != tv {
		return fmt.Errorf("tile %#x: reference tile variant %d does not match library %d", pos, tv, tvs[0].TileVariant)
	}
	if tvs[0].Checksum != rec[3] {
		return fmt.Errorf("tile %#x: reference md5sum %s does not match library %s", pos, rec[3], tvs[0].Checksum)
	}
	rd.refseqs[pos] = rec[6]
	return nil
}

func (rd *ReferenceData) loadGenomeVariantRow(rec []string) error {
	var ints [5]int64
	for i := range ints {
		n, err := strconv.ParseInt(rec[i], 10, 64)
		if err != nil {
			return err
		}
		ints[i] = n
	}
	k := VariantKey{
		KeyPrefix: KeyPrefix{
			StartPosition: ints[1],
			StartOffset:   int(ints[2]),
			EndPosition:   ints[3],
			EndOffset:     int(ints[4]),
		},
		Ref: strings.ToUpper(rec[6]),
		Alt: strings.ToUpper(rec[7]),
	}
	if ok, err := rd.onPath(k.StartPosition); err != nil || !ok {
		return err
	}
	rd.prior[k] = ints[0]
	if ints[0] > rd.maxPrior {
		rd.maxPrior = ints[0]
	}
	return nil
}

func (rd *ReferenceData) TileVariants(pos int64) []LibraryVariant {
	return rd.tilevars[pos]
}

func (rd *ReferenceData) ReferenceSequence(pos int64) (string, bool) {
	seq, ok := rd.refseqs[pos]
	return seq, ok
}

func (rd *ReferenceData) Locus(pos int64) (Locus, bool) {
	l, ok := rd.loci[pos]
	return l, ok
}

func (rd *ReferenceData) PriorGenomeVariants() (map[VariantKey]int64, int64) {
	return rd.prior, rd.maxPrior
}
