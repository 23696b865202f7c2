// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// VariantKey identifies a genome variant in tile-local coordinates.
// Two notes describing the same change must produce equal keys.
type VariantKey struct {
	KeyPrefix
	Ref string
	Alt string
}

func (k VariantKey) String() string {
	return fmt.Sprintf("(%#x,%d,%#x,%d,%s,%s)", k.StartPosition, k.StartOffset, k.EndPosition, k.EndOffset, k.Ref, k.Alt)
}

// GFFCall is a variant reported by a "gffsrc:" note.
type GFFCall struct {
	Key     VariantKey
	Aliases []string
	Info    map[string]string
}

// LocalCall is a variant reported by an assembly-relative
// SNP/SUB/INDEL note, with its offsets in the tile variant sequence.
type LocalCall struct {
	Key   VariantKey
	Start int
	End   int
	Type  string
	// Corrected is true if the note's interval length disagreed
	// with its sequence length and the key was re-translated using
	// the sequence length.
	Corrected bool
}

var (
	gffNoteRegexp     = regexp.MustCompile(`^gffsrc: (chr\S+) ([0-9]+)\S* ([0-9]+)\S* (SNP|SUB|INDEL)(?:\s|$)`)
	variantNoteRegexp = regexp.MustCompile(`^(\S+) (chr\S+) ([0-9]+) ([0-9]+) (SNP|SUB|INDEL)(?:\s|$)`)
)

// ScanNotes looks for gaps/no-calls and the phase note.
//
// A phase note must say REPORTED; a phase note ending in "A" selects
// phase A.
func ScanNotes(notes []string) (wellSequenced, phaseA bool, err error) {
	wellSequenced = true
	havePhase := false
	for _, note := range notes {
		if strings.Contains(note, "GAP") || strings.Contains(note, "nocall") {
			wellSequenced = false
		} else if strings.Contains(note, "Phase") {
			if !strings.Contains(note, "REPORTED") {
				return false, false, &PhaseError{Msg: fmt.Sprintf("phase note %q is not REPORTED", note)}
			}
			havePhase = true
			phaseA = strings.HasSuffix(note, "A")
		}
	}
	if !havePhase {
		return false, false, &PhaseError{Msg: "no phase note"}
	}
	return
}

type noteParser struct {
	cfg    *Config
	tv     *TileVariantNotes
	phaseA bool
	logger log.FieldLogger
}

// parseGFF parses a "gffsrc:" note. ok is false if the note's locus
// is not covered by the tile variant.
func (np *noteParser) parseGFF(note string) (call GFFCall, ok bool, err error) {
	m := gffNoteRegexp.FindStringSubmatch(note)
	if m == nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("%q does not match gffsrc note format", note)}
	}
	begin, err := strconv.Atoi(m[2])
	if err != nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc note has bad begin %q: %q", m[2], note)}
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc note has bad end %q: %q", m[3], note)}
	}
	query := Locus{Assembly: np.tv.Locus.Assembly, Begin: begin, End: end + 1}
	query.Chromosome, query.ChromName = np.cfg.ParseChromosome(m[1])
	if err = np.cfg.CheckLocus(query); err != nil {
		return
	}
	call.Key.KeyPrefix, ok, err = Translate(query, np.tv.Locus, np.tv.Position, np.tv.ReferenceLengths)
	if !ok || err != nil {
		return
	}

	var alleles string
	haveRef, haveAlleles := false, false
	call.Info = map[string]string{}
	rest := strings.Join(strings.Fields(note)[5:], " ")
	for _, item := range strings.Split(rest, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		var value string
		if f := strings.Fields(item); len(f) > 1 {
			value = f[1]
		}
		switch {
		case strings.HasPrefix(item, "ref_allele"):
			call.Key.Ref, haveRef = strings.ToUpper(value), value != ""
		case strings.HasPrefix(item, "alleles"):
			alleles, haveAlleles = strings.ToUpper(value), value != ""
		case strings.HasPrefix(item, "db_xref"):
			if value != "" {
				call.Aliases = strings.Split(value, ",")
			}
		case strings.HasPrefix(item, "amino_acid"):
			call.Info["amino_acid"] = item
		case strings.HasPrefix(item, "ucsc_trans"):
			call.Info["ucsc_trans"] = item
		default:
			call.Info["other"] = item
		}
	}
	if !haveRef {
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc note has no ref_allele: %q", note)}
	}
	if !haveAlleles {
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc note has no alleles: %q", note)}
	}
	alts := strings.Split(alleles, "/")
	switch len(alts) {
	case 1:
		call.Key.Alt = alts[0]
	case 2:
		switch {
		case alts[0] == call.Key.Ref && alts[1] != call.Key.Ref:
			call.Key.Alt = alts[1]
		case alts[1] == call.Key.Ref && alts[0] != call.Key.Ref:
			call.Key.Alt = alts[0]
		case np.phaseA:
			call.Key.Alt = alts[0]
		default:
			call.Key.Alt = alts[1]
		}
	default:
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc alleles %q should list 1 or 2 sequences: %q", alleles, note)}
	}
	if call.Key.Alt == call.Key.Ref {
		return call, false, &FormatError{Msg: fmt.Sprintf("gffsrc variant sequence is the same as reference sequence: %q", note)}
	}
	return call, true, nil
}

// parseVariant parses an assembly-relative SNP, SUB, or INDEL note,
// e.g.
//
//	hg19 chr13 32200017 32200017 SNP G 42 1
//	hg19 chr13 32200101 32200103 INDEL 126 TA => -
//
// ok is false if the note's locus is not covered by the tile variant,
// or (after logging a warning) if the reference bases at the note's
// locus aren't the same length as the reported variant bases.
func (np *noteParser) parseVariant(note string) (call LocalCall, ok bool, err error) {
	m := variantNoteRegexp.FindStringSubmatch(note)
	if m == nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("%q does not match SNP, SUB, or INDEL note format", note)}
	}
	asm, err := np.cfg.ParseAssembly(m[1])
	if err != nil {
		return
	}
	begin, err := strconv.Atoi(m[3])
	if err != nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("%s note has bad begin %q: %q", m[5], m[3], note)}
	}
	end, err := strconv.Atoi(m[4])
	if err != nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("%s note has bad end %q: %q", m[5], m[4], note)}
	}
	call.Type = m[5]
	fields := strings.Fields(note)
	query := Locus{Assembly: asm, Begin: begin, End: end}
	query.Chromosome, query.ChromName = np.cfg.ParseChromosome(m[2])
	logger := np.logger.WithField("note", note)

	if call.Type == "INDEL" {
		if len(fields) < 9 {
			return call, false, &FormatError{Msg: fmt.Sprintf("INDEL note has %d fields, expected 9: %q", len(fields), note)}
		}
		call.Start, err = strconv.Atoi(fields[5])
		if err != nil {
			return call, false, &FormatError{Msg: fmt.Sprintf("INDEL note has bad start %q: %q", fields[5], note)}
		}
		call.Key.Ref = strings.ToUpper(fields[6])
		call.Key.Alt = strings.ToUpper(fields[8])
		call.End = call.Start
		if call.Key.Ref != "-" {
			call.End += len(call.Key.Ref)
		}
		call.Key.KeyPrefix, ok, err = Translate(query, np.tv.Locus, np.tv.Position, np.tv.ReferenceLengths)
		if !ok || err != nil {
			return
		}
		if end-begin != call.End-call.Start {
			logger.WithField("variant", call.Key).Errorf("mismatching %s and tile lengths for indel: %d != %d", m[1], end-begin, call.End-call.Start)
			return call, false, &FormatError{Msg: fmt.Sprintf("mismatching %s and tile lengths for indel: %q", m[1], note)}
		}
		return call, true, nil
	}

	if len(fields) < 8 {
		return call, false, &FormatError{Msg: fmt.Sprintf("%s note has %d fields, expected 8: %q", call.Type, len(fields), note)}
	}
	call.Key.Alt = strings.ToUpper(fields[5])
	call.Start, err = strconv.Atoi(fields[6])
	if err != nil {
		return call, false, &FormatError{Msg: fmt.Sprintf("%s note has bad start %q: %q", call.Type, fields[6], note)}
	}
	length, err := strconv.Atoi(fields[7])
	if err != nil || length < 1 {
		return call, false, &FormatError{Msg: fmt.Sprintf("%s note has bad length %q: %q", call.Type, fields[7], note)}
	}
	call.End = call.Start + length
	query.End = end + 1
	call.Key.KeyPrefix, ok, err = Translate(query, np.tv.Locus, np.tv.Position, np.tv.ReferenceLengths)
	if !ok || err != nil {
		return
	}
	call.Key.Ref = strings.ToUpper(substr(np.tv.Reference, begin-np.tv.Locus.Begin, length))
	if len(call.Key.Ref) != len(call.Key.Alt) {
		logger.WithFields(log.Fields{
			"ref":   call.Key.Ref,
			"notes": np.tv.Notes,
		}).Warnf("reference sequence and variant sequence have different lengths for %s, skipping note", call.Type)
		return call, false, nil
	}
	if seq := strings.ToUpper(substr(np.tv.Sequence, call.Start, length)); seq != call.Key.Alt {
		logger.WithFields(log.Fields{
			"ref":    call.Key.Ref,
			"lookup": seq,
			"notes":  np.tv.Notes,
		}).Error("reported variant sequence and looked-up variant sequence differ")
		return call, false, &FormatError{Msg: fmt.Sprintf("reported variant sequence %q differs from tile variant sequence %q at %d: %q", call.Key.Alt, seq, call.Start, note)}
	}
	if end-begin != length-1 {
		before := call.Key
		query.End = begin + length
		call.Key.KeyPrefix, ok, err = Translate(query, np.tv.Locus, np.tv.Position, np.tv.ReferenceLengths)
		if err != nil {
			return
		}
		if !ok {
			return call, false, &FormatError{Msg: fmt.Sprintf("corrected %s length extends past tile variant locus: %q", call.Type, note)}
		}
		call.Corrected = true
		logger.WithFields(log.Fields{
			"variant":   before,
			"corrected": call.Key,
		}).Warnf("mismatching %s and tile lengths for %s, corrected using sequence length %d", m[1], call.Type, length)
	}
	return call, true, nil
}

// substr returns s[start:start+length], clipped to the bounds of s.
func substr(s string, start, length int) string {
	if start < 0 {
		length += start
		start = 0
	}
	if start > len(s) || length <= 0 {
		return ""
	}
	if start+length > len(s) {
		return s[start:]
	}
	return s[start : start+length]
}
