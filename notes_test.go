// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/check.v1"
)

type notesSuite struct {
	np *noteParser
}

var _ = check.Suite(&notesSuite{})

// testReference returns n bases of "acgt" repeated, so the base at
// offset i is "acgt"[i%4].
func testReference(n int) string {
	return strings.Repeat("acgt", n/4+1)[:n]
}

// withSubstitution returns seq with the bases at offset replaced.
func withSubstitution(seq string, offset int, bases string) string {
	return seq[:offset] + bases + seq[offset+len(bases):]
}

func (s *notesSuite) SetUpTest(c *check.C) {
	ref := testReference(100)
	s.np = &noteParser{
		cfg: DefaultConfig(),
		tv: &TileVariantNotes{
			TileVariant:      0x247001a001,
			Position:         0x247001a,
			Locus:            Locus{Assembly: 19, Chromosome: 13, Begin: 1000, End: 1100},
			ReferenceLengths: []int{100},
			Reference:        ref,
			Sequence:         withSubstitution(ref, 10, "t"),
		},
		logger: log.StandardLogger(),
	}
}

func (s *notesSuite) TestScanNotes(c *check.C) {
	for _, trial := range []struct {
		notes         []string
		wellSequenced bool
		phaseA        bool
	}{
		{[]string{"Phase (REPORTED) A"}, true, true},
		{[]string{"Phase (REPORTED) B"}, true, false},
		{[]string{"GAP 12 34", "Phase (REPORTED) B"}, false, false},
		{[]string{"hg19 chr13 1 1 SNP a 1 1", "nocall 5", "Phase (REPORTED) A"}, false, true},
		{[]string{"Phase (REPORTED) B", "Phase (REPORTED) A"}, true, true},
	} {
		ws, phaseA, err := ScanNotes(trial.notes)
		c.Check(err, check.IsNil)
		c.Check(ws, check.Equals, trial.wellSequenced, check.Commentf("%q", trial.notes))
		c.Check(phaseA, check.Equals, trial.phaseA, check.Commentf("%q", trial.notes))
	}
	_, _, err := ScanNotes([]string{"Phase (RANDOM) A"})
	c.Check(err, check.FitsTypeOf, &PhaseError{})
	_, _, err = ScanNotes(nil)
	c.Check(err, check.FitsTypeOf, &PhaseError{})
}

func (s *notesSuite) TestParseGFF(c *check.C) {
	call, ok, err := s.np.parseGFF("gffsrc: chr13 1010 1010 SNP ref_allele g;alleles G/T;db_xref dbsnp:rs1,dbsnp:rs2;amino_acid BRCA2 V10F;ucsc_trans uc001;foo bar")
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 10, 0x247001a, 11}, "G", "T"})
	c.Check(call.Aliases, check.DeepEquals, []string{"dbsnp:rs1", "dbsnp:rs2"})
	c.Check(call.Info, check.DeepEquals, map[string]string{
		"amino_acid": "amino_acid BRCA2 V10F",
		"ucsc_trans": "ucsc_trans uc001",
		"other":      "foo bar",
	})

	// heterozygous, neither allele is reference: phase picks
	call, ok, err = s.np.parseGFF("gffsrc: chr13 1010 1010 SNP ref_allele G;alleles A/T")
	c.Check(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key.Alt, check.Equals, "T")
	s.np.phaseA = true
	call, _, _ = s.np.parseGFF("gffsrc: chr13 1010 1010 SNP ref_allele G;alleles A/T")
	c.Check(call.Key.Alt, check.Equals, "A")

	call, ok, err = s.np.parseGFF("gffsrc: chr13 1020 1021 INDEL ref_allele AC;alleles -")
	c.Check(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 20, 0x247001a, 22}, "AC", "-"})

	// outside the tile
	_, ok, err = s.np.parseGFF("gffsrc: chr13 2010 2010 SNP ref_allele G;alleles G/T")
	c.Check(err, check.IsNil)
	c.Check(ok, check.Equals, false)

	for _, bad := range []string{
		"gffsrc: chr13 1010 SNP ref_allele G;alleles G/T",
		"gffsrc: chr13 1010 1010 SNP alleles G/T",
		"gffsrc: chr13 1010 1010 SNP ref_allele G",
		"gffsrc: chr13 1010 1010 SNP ref_allele G;alleles G",
		"gffsrc: chr13 1010 1010 SNP ref_allele G;alleles A/C/T",
		"gffsrc: chr13 99999999999999999999 1010 SNP ref_allele G;alleles G/T",
		"gffsrc: chr13 1010 99999999999999999999 SNP ref_allele G;alleles G/T",
	} {
		_, _, err = s.np.parseGFF(bad)
		c.Check(err, check.FitsTypeOf, &FormatError{}, check.Commentf("%q", bad))
	}
}

func (s *notesSuite) TestParseSNP(c *check.C) {
	call, ok, err := s.np.parseVariant("hg19 chr13 1010 1010 SNP t 10 1")
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 10, 0x247001a, 11}, "G", "T"})
	c.Check(call.Start, check.Equals, 10)
	c.Check(call.End, check.Equals, 11)
	c.Check(call.Type, check.Equals, "SNP")
	c.Check(call.Corrected, check.Equals, false)

	// interval says 2 bases, sequence says 1
	call, ok, err = s.np.parseVariant("hg19 chr13 1010 1011 SNP T 10 1")
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Corrected, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 10, 0x247001a, 11}, "G", "T"})

	// sequence doesn't have the reported bases
	_, _, err = s.np.parseVariant("hg19 chr13 1010 1010 SNP A 10 1")
	c.Check(err, check.FitsTypeOf, &FormatError{})

	// reference lookup runs off the end of the tile variant
	_, ok, err = s.np.parseVariant("hg19 chr13 1097 1097 SNP TTTTT 97 5")
	c.Check(err, check.IsNil)
	c.Check(ok, check.Equals, false)

	_, _, err = s.np.parseVariant("hg19 chr13 1010 1010 SNP T 10")
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, _, err = s.np.parseVariant("hg20 chr13 1010 1010 SNP T 10 1")
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, _, err = s.np.parseVariant("hg19 chr13 99999999999999999999 1010 SNP T 10 1")
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, _, err = s.np.parseVariant("hg19 chr13 1010 99999999999999999999 INDEL 20 AC => -")
	c.Check(err, check.FitsTypeOf, &FormatError{})
}

func (s *notesSuite) TestParseIndel(c *check.C) {
	s.np.tv.Sequence = s.np.tv.Reference[:20] + s.np.tv.Reference[22:]
	call, ok, err := s.np.parseVariant("hg19 chr13 1020 1022 INDEL 20 AC => -")
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 20, 0x247001a, 22}, "AC", "-"})
	c.Check(call.Start, check.Equals, 20)
	c.Check(call.End, check.Equals, 22)

	call, ok, err = s.np.parseVariant("hg19 chr13 1020 1020 INDEL 20 - => ttt")
	c.Assert(err, check.IsNil)
	c.Check(ok, check.Equals, true)
	c.Check(call.Key, check.Equals, VariantKey{KeyPrefix{0x247001a, 20, 0x247001a, 20}, "-", "TTT"})
	c.Check(call.End, check.Equals, 20)

	_, _, err = s.np.parseVariant("hg19 chr13 1020 1023 INDEL 20 AC => -")
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, _, err = s.np.parseVariant("hg19 chr13 1020 1022 INDEL 20 AC")
	c.Check(err, check.FitsTypeOf, &FormatError{})
}
