// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Stream names an output row stream.
type Stream string

const (
	// StreamTranslation rows link a genome variant to a tile
	// variant: start, end, genome variant id, tile variant id.
	StreamTranslation Stream = "genomevarianttranslation"
	// StreamGenomeVariant rows define new genome variants: id,
	// start position, start offset, end position, end offset,
	// aliases, reference bases, alternate bases, info, created,
	// last modified.
	StreamGenomeVariant Stream = "genomevariant"
	// StreamTileVariant rows define tile variants that weren't
	// already in the library.
	StreamTileVariant Stream = "tilevariant"
)

var allStreams = []Stream{StreamTranslation, StreamGenomeVariant, StreamTileVariant}

// RowSink receives output rows. Rows are only ever appended.
type RowSink interface {
	WriteRow(stream Stream, fields []string) error
}

// FileRowSink writes each stream to {dir}/{prefix}.{stream}.csv.
type FileRowSink struct {
	files   map[Stream]*os.File
	bufs    map[Stream]*bufio.Writer
	writers map[Stream]*csv.Writer
	mtx     sync.Mutex
}

// NewFileRowSink creates (or truncates) the output files.
func NewFileRowSink(dir, prefix string) (*FileRowSink, error) {
	sink := &FileRowSink{
		files:   map[Stream]*os.File{},
		bufs:    map[Stream]*bufio.Writer{},
		writers: map[Stream]*csv.Writer{},
	}
	for _, stream := range allStreams {
		f, err := os.Create(filepath.Join(dir, prefix+"."+string(stream)+".csv"))
		if err != nil {
			sink.Close()
			return nil, err
		}
		sink.files[stream] = f
		sink.bufs[stream] = bufio.NewWriterSize(f, 1<<20)
		sink.writers[stream] = csv.NewWriter(sink.bufs[stream])
	}
	return sink, nil
}

// Filename returns the output file used for the given stream.
func (sink *FileRowSink) Filename(stream Stream) string {
	if f := sink.files[stream]; f != nil {
		return f.Name()
	}
	return ""
}

func (sink *FileRowSink) WriteRow(stream Stream, fields []string) error {
	sink.mtx.Lock()
	defer sink.mtx.Unlock()
	w, ok := sink.writers[stream]
	if !ok {
		return fmt.Errorf("no such output stream %q", stream)
	}
	return w.Write(fields)
}

// Close flushes and closes all output files, returning the first
// error encountered.
func (sink *FileRowSink) Close() error {
	sink.mtx.Lock()
	defer sink.mtx.Unlock()
	var firstErr error
	for stream, f := range sink.files {
		if w := sink.writers[stream]; w != nil {
			w.Flush()
			if err := w.Error(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if b := sink.bufs[stream]; b != nil {
			if err := b.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	sink.files = nil
	sink.writers = nil
	sink.bufs = nil
	return firstErr
}
