// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
)

// KeyPrefix locates an interval in tile-local coordinates: the tile
// positions where it starts and ends, and the offsets within those
// tiles.
type KeyPrefix struct {
	StartPosition int64
	StartOffset   int
	EndPosition   int64
	EndOffset     int
}

// Translate maps query (a genome interval) onto the tiles starting at
// startPos, whose reference sequences have the given lengths and
// together cover tileLocus. Consecutive tiles overlap by TagLength
// bases.
//
// If query is on a different chromosome/assembly or isn't inside
// tileLocus, Translate returns ok==false and no error.
func Translate(query, tileLocus Locus, startPos int64, lengths []int) (kp KeyPrefix, ok bool, err error) {
	if !tileLocus.Compatible(query) || query.Begin < tileLocus.Begin || query.End > tileLocus.End {
		return KeyPrefix{}, false, nil
	}
	if len(lengths) == 0 {
		return KeyPrefix{}, false, &ConsistencyError{Msg: "cannot translate locus without reference tile lengths"}
	}
	// bounds[i] is the end of tile i in the concatenated
	// reference sequence.
	bounds := make([]int, len(lengths))
	for i, l := range lengths {
		if i == 0 {
			bounds[i] = l
		} else {
			bounds[i] = bounds[i-1] + l - TagLength
		}
	}
	// An exclusive end offset may equal the end of the last tile.
	place := func(what string, x int, exclusive bool) (int64, int, error) {
		for i, bound := range bounds {
			if x > bound || (x == bound && !(exclusive && i == len(bounds)-1)) {
				continue
			}
			tilestart := 0
			if i > 0 {
				tilestart = bounds[i-1] - TagLength
			}
			if x-tilestart < 0 {
				return 0, 0, &ConsistencyError{Msg: fmt.Sprintf("%s offset %d is before tile %d (lengths %v)", what, x, i, lengths)}
			}
			return startPos + int64(i), x - tilestart, nil
		}
		return 0, 0, &ConsistencyError{Msg: fmt.Sprintf("locus %s continues past tiles at %#x with lengths %v: %s offset %d", query, startPos, lengths, what, x)}
	}
	kp.StartPosition, kp.StartOffset, err = place("start", query.Begin-tileLocus.Begin, query.Begin == query.End)
	if err != nil {
		return KeyPrefix{}, false, err
	}
	kp.EndPosition, kp.EndOffset, err = place("end", query.End-tileLocus.Begin, true)
	if err != nil {
		return KeyPrefix{}, false, err
	}
	return kp, true, nil
}
