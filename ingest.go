// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"crypto/md5"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type fastjImporter struct {
	configFile string
	loadFiles  LoadFiles
	outputDir  string
	strict     bool
	threads    int
	batchArgs
}

func (cmd *fastjImporter) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cmd.configFile, "config", "", "codec configuration `file` (yaml or json)")
	flags.StringVar(&cmd.loadFiles.Library, "library", "", "tile library csv `file`")
	flags.StringVar(&cmd.loadFiles.Loci, "loci", "", "tile locus csv `file`")
	flags.StringVar(&cmd.loadFiles.Sequences, "sequences", "", "reference tile variant csv `file`")
	flags.StringVar(&cmd.loadFiles.GenomeVariants, "genome-variants", "", "genome variant csv `file` from an earlier run (optional)")
	pathsArg := flags.String("paths", "", "comma-separated hex `paths` to import")
	flags.StringVar(&cmd.outputDir, "output-dir", ".", "output `directory`")
	flags.BoolVar(&cmd.strict, "strict", false, "abort a path on the first malformed tile variant instead of skipping it")
	flags.IntVar(&cmd.threads, "threads", 4, "number of paths to import concurrently")
	cmd.batchArgs.Flags(flags)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	loglevel := flags.String("loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, or panic)")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if cmd.loadFiles.Library == "" || cmd.loadFiles.Loci == "" || cmd.loadFiles.Sequences == "" {
		err = errors.New("cannot import without -library, -loci, and -sequences arguments")
		return 2
	} else if *pathsArg == "" {
		err = errors.New("cannot import without -paths argument")
		return 2
	} else if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	lvl, err := log.ParseLevel(*loglevel)
	if err != nil {
		return 2
	}
	log.SetLevel(lvl)

	cfg := DefaultConfig()
	if cmd.configFile != "" {
		cfg, err = LoadConfig(cmd.configFile)
		if err != nil {
			return 1
		}
	}
	codec := NewCodec(cfg)

	paths, err := parsePaths(codec, strings.Split(*pathsArg, ","))
	if err != nil {
		return 2
	}
	pathnames := cmd.batchArgs.Slice(paths)

	infiles, err := listFastjFiles(flags.Args())
	if err != nil {
		return 1
	}
	log.Printf("found %d FASTJ files, importing %d paths", len(infiles), len(pathnames))

	err = os.MkdirAll(cmd.outputDir, 0777)
	if err != nil {
		return 1
	}

	now := time.Now().UTC()
	throttle := throttle{Max: cmd.threads}
	for _, name := range pathnames {
		name := name
		throttle.Go(func() error {
			path, _ := strconv.ParseInt(name, 16, 32)
			err := cmd.importPath(codec, int(path), name, infiles, now)
			if err != nil {
				return fmt.Errorf("path %s: %w", name, err)
			}
			return nil
		})
	}
	err = throttle.Wait()
	if err != nil {
		return 1
	}
	return 0
}

// parsePaths validates hex path arguments and returns them zero-padded
// to the configured width.
func parsePaths(codec *Codec, in []string) ([]string, error) {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		path, err := strconv.ParseInt(s, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", s, err)
		}
		if _, err := codec.ChromosomeOfPath(int(path)); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%0*x", codec.Config().PathDigits, path))
	}
	return out, nil
}

func (cmd *fastjImporter) importPath(codec *Codec, path int, name string, infiles []string, now time.Time) error {
	logger := log.WithField("path", name)
	ref, err := LoadReferenceData(codec, path, cmd.loadFiles)
	if err != nil {
		return err
	}
	sink, err := NewFileRowSink(cmd.outputDir, name)
	if err != nil {
		return err
	}
	defer sink.Close()
	firstID, err := codec.EncodeVariant(0, path, 0, 0)
	if err != nil {
		return err
	}
	run := &pathImport{
		codec:  codec,
		path:   path,
		ref:    ref,
		sink:   sink,
		strict: cmd.strict,
		now:    now,
		logger: logger,
		reg:    NewRegistry(firstID),
		rc: &Reconciler{
			Codec:  codec,
			Sink:   sink,
			Logger: logger,
			Now:    func() time.Time { return now },
		},
	}
	run.reg.Seed(ref)
	for _, infile := range infiles {
		err = run.importFile(infile)
		if err != nil {
			return err
		}
	}
	logger.WithFields(log.Fields{
		"tile_variants":        run.stats.tileVariants,
		"new_tile_variants":    run.stats.newTileVariants,
		"skipped":              run.stats.skipped,
		"not_well_sequenced":   run.stats.notWellSequenced,
		"new_genome_variants":  run.stats.newGenomeVariants,
		"genome_variant_calls": run.stats.occurrences,
		"corrected":            run.stats.corrected,
	}).Info("path done")
	return sink.Close()
}

type importStats struct {
	tileVariants      int
	newTileVariants   int
	skipped           int
	notWellSequenced  int
	newGenomeVariants int
	occurrences       int
	corrected         int
}

// pathImport holds the state of one path's ingestion run.
type pathImport struct {
	codec  *Codec
	path   int
	ref    *ReferenceData
	sink   RowSink
	strict bool
	now    time.Time
	logger log.FieldLogger
	reg    *Registry
	rc     *Reconciler
	// tile variants assigned during this run, by position and
	// md5sum
	newTileVariants map[int64]map[string]int64
	stats           importStats
}

func (run *pathImport) importFile(infile string) error {
	f, err := zopen(infile)
	if err != nil {
		return err
	}
	defer f.Close()
	run.logger.Debugf("reading %s", infile)
	rdr := NewFastjReader(f)
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%s: %w", infile, err)
		}
		err = run.importRecord(rec)
		if err != nil {
			return fmt.Errorf("%s: %w", infile, err)
		}
	}
	return f.Close()
}

func (run *pathImport) importRecord(rec *FastjRecord) error {
	_, path, err := run.codec.ParseTileID(rec.Header.TileID)
	if err == nil && path != run.path {
		return nil
	}
	if err == nil {
		err = run.reconcileRecord(rec)
	}
	var cerr *ConsistencyError
	if err == nil {
		return nil
	} else if errors.As(err, &cerr) || run.strict {
		return err
	}
	var ferr *FormatError
	var perr *PhaseError
	var rerr *RangeError
	if !errors.As(err, &ferr) && !errors.As(err, &perr) && !errors.As(err, &rerr) {
		return err
	}
	run.logger.WithField("tile", rec.Header.TileID).WithError(err).Error("skipping tile variant")
	run.stats.skipped++
	return nil
}

func (run *pathImport) reconcileRecord(rec *FastjRecord) error {
	tr, err := run.codec.ResolveTileRecord(rec, run.ref, run.ref)
	if err != nil {
		return err
	}
	if sum := fmt.Sprintf("%x", md5.Sum([]byte(tr.Sequence))); tr.Checksum != "" && sum != tr.Checksum {
		run.logger.WithFields(log.Fields{
			"tile":   rec.Header.TileID,
			"md5sum": tr.Checksum,
			"actual": sum,
		}).Warn("FASTJ md5sum does not match sequence")
	} else if tr.Checksum == "" {
		tr.Checksum = sum
	}
	tv, err := run.tileVariant(tr)
	if err != nil {
		return err
	}
	run.stats.tileVariants++
	res, err := run.rc.Reconcile(run.reg, &TileVariantNotes{
		TileVariant:      tv,
		Position:         tr.Position,
		Locus:            tr.Locus,
		ReferenceLengths: tr.ReferenceLengths,
		Reference:        tr.Reference,
		Sequence:         tr.Sequence,
		Notes:            tr.Notes,
	})
	if err != nil {
		return err
	}
	if res.Skipped {
		run.stats.skipped++
	}
	if !res.WellSequenced {
		run.stats.notWellSequenced++
	}
	run.stats.newGenomeVariants += res.NewVariants
	run.stats.occurrences += res.Occurrences
	run.stats.corrected += len(res.Corrected)
	return nil
}

// tileVariant returns the tile variant id for the record's sequence,
// adding a new tile variant if the library doesn't have one with the
// same md5sum.
func (run *pathImport) tileVariant(tr *TileRecord) (int64, error) {
	nextVariant := 0
	for _, lv := range run.ref.TileVariants(tr.Position) {
		if lv.Checksum == tr.Checksum {
			return lv.TileVariant, nil
		}
		_, _, _, variant, err := run.codec.DecodeVariant(lv.TileVariant)
		if err != nil {
			return 0, err
		}
		if variant >= nextVariant {
			nextVariant = variant + 1
		}
	}
	if run.newTileVariants == nil {
		run.newTileVariants = map[int64]map[string]int64{}
	}
	added := run.newTileVariants[tr.Position]
	if tv, ok := added[tr.Checksum]; ok {
		return tv, nil
	}
	if added == nil {
		added = map[string]int64{}
		run.newTileVariants[tr.Position] = added
	}
	nextVariant += len(added)
	tv, err := run.codec.PositionToVariant(tr.Position, nextVariant)
	if err != nil {
		return 0, err
	}
	added[tr.Checksum] = tv
	run.stats.newTileVariants++
	err = run.sink.WriteRow(StreamTileVariant, []string{
		strconv.FormatInt(tv, 10),
		strconv.FormatInt(tr.Position, 10),
		strconv.Itoa(tr.SeedTileLength),
		strconv.Itoa(nextVariant),
		strconv.Itoa(len(tr.Sequence)),
		tr.Checksum,
		run.now.Format(time.RFC3339),
		run.now.Format(time.RFC3339),
		tr.Sequence,
		tr.StartSeq,
		tr.EndSeq,
	})
	return tv, err
}
