// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bytes"
	"io"
	"strings"

	"gopkg.in/check.v1"
)

type fakeLibrary struct {
	variants map[int64][]LibraryVariant
	refseqs  map[int64]string
	loci     map[int64]Locus
}

func (lib *fakeLibrary) TileVariants(pos int64) []LibraryVariant { return lib.variants[pos] }

func (lib *fakeLibrary) ReferenceSequence(pos int64) (string, bool) {
	seq, ok := lib.refseqs[pos]
	return seq, ok
}

func (lib *fakeLibrary) Locus(pos int64) (Locus, bool) {
	l, ok := lib.loci[pos]
	return l, ok
}

type fastjSuite struct {
	codec *Codec
}

var _ = check.Suite(&fastjSuite{})

func (s *fastjSuite) SetUpTest(c *check.C) {
	s.codec = NewCodec(DefaultConfig())
}

func (s *fastjSuite) TestRead(c *check.C) {
	rdr := NewFastjReader(bytes.NewBufferString(`
>{"tileID":"247.00.001a.000","md5sum":"abc","locus":[{"build":"hg19 chr13 1000 1100"}],"n":12,"seedTileLength":1,"startTag":"aaaa","endTag":"cccc","notes":["Phase (REPORTED) A","GAP 3 4"]}
acgtacgt
acgt

>{"tileID":"247.00.001b.002","locus":[{"build":"hg19 chr13 1076 1176"}],"seedTileLength":2}
tttt
`))
	rec, err := rdr.Read()
	c.Assert(err, check.IsNil)
	c.Check(rec.Header.TileID, check.Equals, "247.00.001a.000")
	c.Check(rec.Header.Md5sum, check.Equals, "abc")
	c.Check(rec.Header.Locus, check.HasLen, 1)
	c.Check(rec.Header.Locus[0].Build, check.Equals, "hg19 chr13 1000 1100")
	c.Check(rec.Header.N, check.Equals, 12)
	c.Check(rec.Header.StartTag, check.Equals, "aaaa")
	c.Check(rec.Header.Notes, check.DeepEquals, []string{"Phase (REPORTED) A", "GAP 3 4"})
	c.Check(rec.Sequence, check.Equals, "acgtacgtacgt")

	rec, err = rdr.Read()
	c.Assert(err, check.IsNil)
	c.Check(rec.Header.TileID, check.Equals, "247.00.001b.002")
	c.Check(rec.Header.SeedTileLength, check.Equals, 2)
	c.Check(rec.Sequence, check.Equals, "tttt")

	_, err = rdr.Read()
	c.Check(err, check.Equals, io.EOF)
}

func (s *fastjSuite) TestReadErrors(c *check.C) {
	_, err := NewFastjReader(bytes.NewBufferString("acgt\n>{}\n")).Read()
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, err = NewFastjReader(bytes.NewBufferString(">{\"tileID\":\n")).Read()
	c.Check(err, check.FitsTypeOf, &FormatError{})
	_, err = NewFastjReader(bytes.NewBufferString("\n\n")).Read()
	c.Check(err, check.Equals, io.EOF)
}

func (s *fastjSuite) TestParseTileID(c *check.C) {
	pos, path, err := s.codec.ParseTileID("247.00.001a.003")
	c.Check(err, check.IsNil)
	c.Check(pos, check.Equals, int64(0x247001a))
	c.Check(path, check.Equals, 0x247)
	for _, bad := range []string{"247.00.001a", "247.00.zz.000", ""} {
		_, _, err = s.codec.ParseTileID(bad)
		c.Check(err, check.FitsTypeOf, &FormatError{}, check.Commentf("%q", bad))
	}
	_, _, err = s.codec.ParseTileID("247.00.10000.000")
	c.Check(err, check.FitsTypeOf, &RangeError{})
}

func (s *fastjSuite) library() *fakeLibrary {
	return &fakeLibrary{
		refseqs: map[int64]string{
			0x247001a: testReference(100),
			0x247001b: strings.ToUpper(testReference(100)),
		},
		loci: map[int64]Locus{
			0x247001a: {Assembly: 19, Chromosome: 13, Begin: 1000, End: 1100},
			0x247001b: {Assembly: 19, Chromosome: 13, Begin: 1076, End: 1176},
		},
	}
}

func (s *fastjSuite) TestResolveSingle(c *check.C) {
	lib := s.library()
	rec := &FastjRecord{Sequence: "acgt"}
	rec.Header.TileID = "247.00.001a.000"
	rec.Header.Md5sum = "abc"
	rec.Header.Locus = []struct{ Build string }{{"hg19 chr13 1000 1100"}}
	rec.Header.StartTag = "acgtacgtacgtacgtacgtacgt"
	rec.Header.StartSeq = "ACGTACGTACGTACGTACGTACGT"
	rec.Header.EndTag = "gtacgtacgtacgtacgtacgtac"
	rec.Header.EndSeq = "gtacgtacgtacgtacgtacgtaa"
	tr, err := s.codec.ResolveTileRecord(rec, lib, lib)
	c.Assert(err, check.IsNil)
	c.Check(tr.Position, check.Equals, int64(0x247001a))
	c.Check(tr.SeedTileLength, check.Equals, 1)
	c.Check(tr.Locus, check.Equals, Locus{Assembly: 19, Chromosome: 13, Begin: 1000, End: 1100})
	c.Check(tr.ReferenceLengths, check.DeepEquals, []int{100})
	c.Check(tr.Reference, check.Equals, testReference(100))
	c.Check(tr.Checksum, check.Equals, "abc")
	c.Check(tr.StartSeq, check.Equals, "")
	c.Check(tr.EndSeq, check.Equals, "gtacgtacgtacgtacgtacgtaa")
}

func (s *fastjSuite) TestResolveSpanning(c *check.C) {
	lib := s.library()
	rec := &FastjRecord{Sequence: "acgt"}
	rec.Header.TileID = "247.00.001a.001"
	rec.Header.Locus = []struct{ Build string }{{"hg19 chr13 1000 1176"}}
	rec.Header.SeedTileLength = 2
	tr, err := s.codec.ResolveTileRecord(rec, lib, lib)
	c.Assert(err, check.IsNil)
	c.Check(tr.Locus, check.Equals, Locus{Assembly: 19, Chromosome: 13, Begin: 1000, End: 1176})
	c.Check(tr.ReferenceLengths, check.DeepEquals, []int{100, 100})
	c.Check(tr.Reference, check.HasLen, 176)
	c.Check(tr.Reference, check.Equals, testReference(100)+strings.ToUpper(testReference(100))[TagLength:])

	delete(lib.loci, 0x247001b)
	_, err = s.codec.ResolveTileRecord(rec, lib, lib)
	c.Check(err, check.FitsTypeOf, &ConsistencyError{})

	lib = s.library()
	delete(lib.refseqs, 0x247001b)
	_, err = s.codec.ResolveTileRecord(rec, lib, lib)
	c.Check(err, check.FitsTypeOf, &ConsistencyError{})
}

func (s *fastjSuite) TestResolveErrors(c *check.C) {
	lib := s.library()
	rec := &FastjRecord{}
	rec.Header.TileID = "247.00.001a.000"
	_, err := s.codec.ResolveTileRecord(rec, lib, lib)
	c.Check(err, check.FitsTypeOf, &FormatError{})

	rec.Header.Locus = []struct{ Build string }{{"hg20 chr13 1000 1100"}}
	_, err = s.codec.ResolveTileRecord(rec, lib, lib)
	c.Check(err, check.ErrorMatches, `tile 247.00.001a.000: format error: unsupported assembly.*`)

	rec.Header.TileID = "247.00.0099.000"
	rec.Header.Locus = []struct{ Build string }{{"hg19 chr13 1000 1100"}}
	_, err = s.codec.ResolveTileRecord(rec, lib, lib)
	c.Check(err, check.FitsTypeOf, &ConsistencyError{})
}
