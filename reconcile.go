// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saiz06/lightning/hgvs"
	log "github.com/sirupsen/logrus"
)

// GenomeVariant is an entry in a Registry.
type GenomeVariant struct {
	ID       int64
	Key      VariantKey
	Aliases  []string
	Info     map[string]string
	Created  time.Time
	Modified time.Time
}

// Registry holds every genome variant seen so far in an ingestion run
// (including ones loaded from earlier runs) and the next free id.
//
// A Registry belongs to one path. It is not safe for concurrent use.
type Registry struct {
	variants map[VariantKey]*GenomeVariant
	NextID   int64
}

// NewRegistry returns an empty registry that will assign ids starting
// at firstID.
func NewRegistry(firstID int64) *Registry {
	return &Registry{variants: map[VariantKey]*GenomeVariant{}, NextID: firstID}
}

// Seed adds previously persisted genome variants and advances NextID
// past the largest persisted id.
func (reg *Registry) Seed(prior PriorVariants) {
	ids, maxID := prior.PriorGenomeVariants()
	for k, id := range ids {
		reg.variants[k] = &GenomeVariant{ID: id, Key: k}
	}
	if len(ids) > 0 && maxID >= reg.NextID {
		reg.NextID = maxID + 1
	}
}

// Lookup returns the registered variant with the given key.
func (reg *Registry) Lookup(k VariantKey) (*GenomeVariant, bool) {
	gv, ok := reg.variants[k]
	return gv, ok
}

// Len returns the number of registered variants.
func (reg *Registry) Len() int { return len(reg.variants) }

func (reg *Registry) add(gv *GenomeVariant) {
	reg.variants[gv.Key] = gv
	if gv.ID >= reg.NextID {
		reg.NextID = gv.ID + 1
	}
}

// TileVariantNotes is everything the reconciler needs to know about
// one tile variant.
type TileVariantNotes struct {
	TileVariant int64
	// Position of the first tile spanned.
	Position int64
	Locus    Locus
	// ReferenceLengths has one entry per tile spanned.
	ReferenceLengths []int
	// Reference is the concatenated reference sequence of the
	// spanned tiles, with the TagLength-base overlaps removed.
	Reference string
	// Sequence is the tile variant's own sequence.
	Sequence string
	Notes    []string
}

// Result summarizes one Reconcile call.
type Result struct {
	WellSequenced bool
	PhaseA        bool
	// Skipped is true if the two kinds of notes disagreed and
	// nothing was written.
	Skipped     bool
	NewVariants int
	Occurrences int
	// Corrected lists calls whose locus was re-translated to
	// match the reported sequence length.
	Corrected []VariantKey
}

// Reconciler cross-checks gffsrc notes against SNP/SUB/INDEL notes,
// assigns genome variant ids, and writes genome variant and
// translation rows.
type Reconciler struct {
	Codec  *Codec
	Sink   RowSink
	Logger log.FieldLogger
	// Now returns the created/modified timestamp for new rows.
	Now func() time.Time
}

type commit struct {
	call    LocalCall
	aliases []string
	info    map[string]string
}

// Reconcile processes the notes of one tile variant. New genome
// variants are added to reg.
//
// If the gffsrc notes and the variant notes don't correspond, the
// problem is logged, Result.Skipped is true, and neither reg nor the
// sink is modified. A malformed note or phase declaration returns an
// error, also without modifying reg.
func (rc *Reconciler) Reconcile(reg *Registry, tv *TileVariantNotes) (Result, error) {
	var res Result
	if want := sumLengths(tv.ReferenceLengths); want != len(tv.Reference) {
		return res, &ConsistencyError{Msg: fmt.Sprintf("tile variant %#x: reference sequence length %d does not match tile lengths %v", tv.TileVariant, len(tv.Reference), tv.ReferenceLengths)}
	}
	var err error
	res.WellSequenced, res.PhaseA, err = ScanNotes(tv.Notes)
	if err != nil {
		return res, fmt.Errorf("tile variant %#x: %w", tv.TileVariant, err)
	}
	logger := rc.logger(tv)
	np := &noteParser{cfg: rc.Codec.Config(), tv: tv, phaseA: res.PhaseA, logger: logger}

	var gffKeys, localKeys []VariantKey
	gffCalls := map[VariantKey]GFFCall{}
	localCalls := map[VariantKey]LocalCall{}
	for _, note := range tv.Notes {
		switch {
		case strings.HasPrefix(note, "gffsrc"):
			call, ok, err := np.parseGFF(note)
			if err != nil {
				return res, fmt.Errorf("tile variant %#x: %w", tv.TileVariant, err)
			} else if !ok {
				continue
			}
			if _, dup := gffCalls[call.Key]; !dup {
				gffKeys = append(gffKeys, call.Key)
			}
			gffCalls[call.Key] = call
		case strings.HasPrefix(note, "ltag"), strings.HasPrefix(note, "rtag"):
		case strings.Contains(note, "SNP"), strings.Contains(note, "SUB"), strings.Contains(note, "INDEL"):
			call, ok, err := np.parseVariant(note)
			if err != nil {
				return res, fmt.Errorf("tile variant %#x: %w", tv.TileVariant, err)
			} else if !ok {
				continue
			}
			if _, dup := localCalls[call.Key]; dup {
				// Expected when several spanned tiles
				// report the same call.
				logger.WithField("variant", call.Key).Trace("duplicate variant note collapsed")
				continue
			}
			localKeys = append(localKeys, call.Key)
			localCalls[call.Key] = call
			if call.Corrected {
				res.Corrected = append(res.Corrected, call.Key)
			}
		}
	}

	if len(gffKeys) != len(localKeys) {
		logger.WithFields(log.Fields{
			"gff_notes": gffKeys,
			"variants":  localKeys,
			"notes":     tv.Notes,
		}).Warnf("%d gffsrc notes but %d variant notes, skipping tile variant", len(gffKeys), len(localKeys))
		rc.logSequenceDiff(logger, tv)
		res.Corrected = nil
		res.Skipped = true
		return res, nil
	}

	var commits []commit
	matched := map[VariantKey]bool{}
	for _, k := range gffKeys {
		call, ok := localCalls[k]
		if !ok {
			logger.WithFields(log.Fields{
				"gff_note": k,
				"aliases":  gffCalls[k].Aliases,
				"variants": localKeys,
				"notes":    tv.Notes,
			}).Warn("gffsrc note has no corresponding variant note")
			continue
		}
		matched[k] = true
		commits = append(commits, commit{call: call, aliases: gffCalls[k].Aliases, info: gffCalls[k].Info})
	}
	for _, k := range localKeys {
		if matched[k] {
			continue
		}
		logger.WithFields(log.Fields{
			"variant":   k,
			"gff_notes": gffKeys,
			"notes":     tv.Notes,
		}).Warn("variant note has no corresponding gffsrc note")
		commits = append(commits, commit{call: localCalls[k], info: map[string]string{}})
	}
	added, err := rc.commit(reg, tv, commits)
	if err != nil {
		return res, err
	}
	res.NewVariants = added
	res.Occurrences = len(commits)
	return res, nil
}

// commit writes rows for the given calls, then adds new variants to
// reg.
func (rc *Reconciler) commit(reg *Registry, tv *TileVariantNotes, commits []commit) (int, error) {
	now := time.Now().UTC()
	if rc.Now != nil {
		now = rc.Now()
	}
	var added []*GenomeVariant
	nextID := reg.NextID
	for _, c := range commits {
		gv, ok := reg.Lookup(c.call.Key)
		if !ok {
			gv = &GenomeVariant{
				ID:       nextID,
				Key:      c.call.Key,
				Aliases:  c.aliases,
				Info:     c.info,
				Created:  now,
				Modified: now,
			}
			nextID++
			added = append(added, gv)
		}
		err := rc.Sink.WriteRow(StreamTranslation, []string{
			strconv.Itoa(c.call.Start),
			strconv.Itoa(c.call.End),
			strconv.FormatInt(gv.ID, 10),
			strconv.FormatInt(tv.TileVariant, 10),
		})
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}
		row, err := genomeVariantRow(gv)
		if err != nil {
			return 0, err
		}
		err = rc.Sink.WriteRow(StreamGenomeVariant, row)
		if err != nil {
			return 0, err
		}
	}
	for _, gv := range added {
		reg.add(gv)
	}
	return len(added), nil
}

func genomeVariantRow(gv *GenomeVariant) ([]string, error) {
	aliases := ""
	if len(gv.Aliases) > 0 {
		aliases = strings.Join(gv.Aliases, "\t") + "\t"
	}
	info := gv.Info
	if info == nil {
		info = map[string]string{}
	}
	infojson, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	return []string{
		strconv.FormatInt(gv.ID, 10),
		strconv.FormatInt(gv.Key.StartPosition, 10),
		strconv.Itoa(gv.Key.StartOffset),
		strconv.FormatInt(gv.Key.EndPosition, 10),
		strconv.Itoa(gv.Key.EndOffset),
		aliases,
		gv.Key.Ref,
		gv.Key.Alt,
		string(infojson),
		gv.Created.Format(time.RFC3339),
		gv.Modified.Format(time.RFC3339),
	}, nil
}

func (rc *Reconciler) logger(tv *TileVariantNotes) log.FieldLogger {
	logger := rc.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	fields := log.Fields{"tile_variant": fmt.Sprintf("%x", tv.TileVariant)}
	if f, err := rc.Codec.PositionFields(tv.Position); err == nil {
		fields["path"] = f[1]
	}
	return logger.WithFields(fields)
}

// logSequenceDiff logs the differences between the tile variant and
// reference sequences, to help figure out which notes are wrong.
func (rc *Reconciler) logSequenceDiff(logger log.FieldLogger, tv *TileVariantNotes) {
	if tv.Sequence == "" {
		return
	}
	diffs, timedOut := hgvs.Diff(strings.ToUpper(tv.Reference), strings.ToUpper(tv.Sequence), time.Second)
	logger.WithFields(log.Fields{
		"diff":      hgvs.Strings(diffs),
		"timed_out": timedOut,
	}).Debug("tile variant differs from reference")
}

func sumLengths(lengths []int) int {
	sum := 0
	for i, l := range lengths {
		sum += l
		if i > 0 {
			sum -= TagLength
		}
	}
	return sum
}
