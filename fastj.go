// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FastjHeader is the JSON header line of a FASTJ record.
type FastjHeader struct {
	TileID         string `json:"tileID"`
	Md5sum         string `json:"md5sum"`
	Locus          []struct{ Build string } `json:"locus"`
	N              int      `json:"n"`
	SeedTileLength int      `json:"seedTileLength"`
	StartTile      bool     `json:"startTile"`
	EndTile        bool     `json:"endTile"`
	StartTag       string   `json:"startTag"`
	EndTag         string   `json:"endTag"`
	StartSeq       string   `json:"startSeq"`
	EndSeq         string   `json:"endSeq"`
	NoCallCount    int      `json:"nocallCount"`
	Notes          []string `json:"notes"`
}

// FastjRecord is one tile variant from a FASTJ file.
type FastjRecord struct {
	Header   FastjHeader
	Sequence string
}

// FastjReader reads FASTJ records: a ">{json}" header line followed by
// sequence lines.
type FastjReader struct {
	scanner *bufio.Scanner
	next    string
	line    int
}

func NewFastjReader(r io.Reader) *FastjReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	return &FastjReader{scanner: scanner}
}

// Read returns the next record, or io.EOF.
func (fr *FastjReader) Read() (*FastjRecord, error) {
	header := fr.next
	fr.next = ""
	for header == "" {
		if !fr.scanner.Scan() {
			if err := fr.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		fr.line++
		line := strings.TrimSpace(fr.scanner.Text())
		if line == "" {
			continue
		} else if line[0] != '>' {
			return nil, &FormatError{Msg: fmt.Sprintf("line %d: expected FASTJ header, got %q", fr.line, truncate(line, 40))}
		}
		header = line
	}
	rec := &FastjRecord{}
	err := json.Unmarshal([]byte(header[1:]), &rec.Header)
	if err != nil {
		return nil, &FormatError{Msg: fmt.Sprintf("line %d: FASTJ header: %s", fr.line, err)}
	}
	var seq strings.Builder
	for fr.scanner.Scan() {
		fr.line++
		line := strings.TrimSpace(fr.scanner.Text())
		if line == "" {
			continue
		} else if line[0] == '>' {
			fr.next = line
			break
		}
		seq.WriteString(line)
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, err
	}
	rec.Sequence = seq.String()
	return rec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TileRecord is a FASTJ record resolved against the library: where it
// is, and the reference sequence it should be compared to.
type TileRecord struct {
	Position int64
	StartTag string
	EndTag   string
	// StartSeq and EndSeq are empty unless the sequenced bases
	// differ from the tags.
	StartSeq       string
	EndSeq         string
	N              int
	Checksum       string
	Locus          Locus
	SeedTileLength int
	// Reference is the concatenation of the spanned tiles'
	// reference sequences, each after the first without its
	// first TagLength bases.
	Reference        string
	ReferenceLengths []int
	Sequence         string
	Notes            []string
}

// ParseTileID parses a FASTJ tile ID "path.version.step.variant" and
// returns the tile position and path.
func (codec *Codec) ParseTileID(tileID string) (pos int64, path int, err error) {
	f := strings.Split(tileID, ".")
	if len(f) != 4 {
		return 0, 0, &FormatError{Msg: fmt.Sprintf("invalid tile ID %q", tileID)}
	}
	var vals [3]int
	for i, s := range f[:3] {
		v, err := strconv.ParseInt(s, 16, 32)
		if err != nil {
			return 0, 0, &FormatError{Msg: fmt.Sprintf("invalid tile ID %q: %s", tileID, err)}
		}
		vals[i] = int(v)
	}
	path = vals[0]
	pos, err = codec.EncodePosition(vals[1], path, vals[2])
	return
}

// ResolveTileRecord converts a FASTJ record to a TileRecord using the
// reference sequences and loci of the library.
func (codec *Codec) ResolveTileRecord(rec *FastjRecord, lib ReferenceLibrary, loci LocusStore) (*TileRecord, error) {
	hdr := &rec.Header
	pos, _, err := codec.ParseTileID(hdr.TileID)
	if err != nil {
		return nil, err
	}
	tr := &TileRecord{
		Position:       pos,
		StartTag:       hdr.StartTag,
		EndTag:         hdr.EndTag,
		N:              hdr.N,
		Checksum:       hdr.Md5sum,
		SeedTileLength: hdr.SeedTileLength,
		Sequence:       rec.Sequence,
		Notes:          hdr.Notes,
	}
	if hdr.StartSeq != "" && !strings.EqualFold(hdr.StartSeq, hdr.StartTag) {
		tr.StartSeq = hdr.StartSeq
	}
	if hdr.EndSeq != "" && !strings.EqualFold(hdr.EndSeq, hdr.EndTag) {
		tr.EndSeq = hdr.EndSeq
	}
	if len(hdr.Locus) == 0 {
		return nil, &FormatError{Msg: fmt.Sprintf("tile %s has no locus", hdr.TileID)}
	}
	tr.Locus, err = codec.cfg.ParseBuild(hdr.Locus[0].Build)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", hdr.TileID, err)
	}
	if tr.SeedTileLength < 1 {
		tr.SeedTileLength = 1
	}
	if tr.SeedTileLength > 1 {
		beg, ok := loci.Locus(pos)
		if !ok {
			return nil, &ConsistencyError{Msg: fmt.Sprintf("no locus for tile %#x", pos)}
		}
		last := pos + int64(tr.SeedTileLength-1)
		end, ok := loci.Locus(last)
		if !ok {
			return nil, &ConsistencyError{Msg: fmt.Sprintf("no locus for tile %#x", last)}
		}
		tr.Locus = beg
		tr.Locus.End = end.End
	}
	var ref strings.Builder
	for i := 0; i < tr.SeedTileLength; i++ {
		seq, ok := lib.ReferenceSequence(pos + int64(i))
		if !ok {
			return nil, &ConsistencyError{Msg: fmt.Sprintf("no reference sequence for tile %#x", pos+int64(i))}
		}
		tr.ReferenceLengths = append(tr.ReferenceLengths, len(seq))
		if i > 0 {
			if len(seq) < TagLength {
				return nil, &ConsistencyError{Msg: fmt.Sprintf("reference sequence for tile %#x is shorter than a tag", pos+int64(i))}
			}
			seq = seq[TagLength:]
		}
		ref.WriteString(seq)
	}
	tr.Reference = ref.String()
	return tr, nil
}
