// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package hgvs describes the differences between a tile variant and
// its reference sequence using HGVS-like notation.
package hgvs

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Variant is one difference between two sequences. Position is
// 1-based in the reference sequence.
type Variant struct {
	Position int
	Ref      string
	New      string
}

func (v Variant) String() string {
	switch {
	case len(v.New) == 0 && len(v.Ref) == 0:
		return fmt.Sprintf("%d=", v.Position)
	case len(v.New) == 0 && len(v.Ref) == 1:
		return fmt.Sprintf("%ddel", v.Position)
	case len(v.New) == 0:
		return fmt.Sprintf("%d_%ddel", v.Position, v.Position+len(v.Ref)-1)
	case len(v.Ref) == 1 && len(v.New) == 1:
		return fmt.Sprintf("%d%s>%s", v.Position, v.Ref, v.New)
	case len(v.Ref) == 0:
		return fmt.Sprintf("%d_%dins%s", v.Position-1, v.Position, v.New)
	case len(v.Ref) == 1:
		return fmt.Sprintf("%ddelins%s", v.Position, v.New)
	default:
		return fmt.Sprintf("%d_%ddelins%s", v.Position, v.Position+len(v.Ref)-1, v.New)
	}
}

// Strings returns the String() of each variant.
func Strings(variants []Variant) []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.String()
	}
	return out
}

// Diff returns the variants that turn ref into seq. If timeout is
// positive and the diff takes longer, the result is a valid but not
// necessarily minimal list of variants, and the second return value is
// true.
func Diff(ref, seq string, timeout time.Duration) ([]Variant, bool) {
	dmp := diffmatchpatch.New()
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	diffs := dmp.DiffBisect(ref, seq, deadline)
	timedOut := timeout > 0 && time.Now().After(deadline)
	diffs = reorder(merge(dmp.DiffCleanupEfficiency(diffs)))

	var variants []Variant
	pos := 1
	for i := 0; i < len(diffs); {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			pos += len(diffs[i].Text)
			i++
			continue
		}
		v := Variant{Position: pos}
		for ; i < len(diffs) && diffs[i].Type != diffmatchpatch.DiffEqual; i++ {
			if diffs[i].Type == diffmatchpatch.DiffDelete {
				v.Ref += diffs[i].Text
			} else {
				v.New += diffs[i].Text
			}
		}
		pos += len(v.Ref)
		variants = append(variants, v)
	}
	return variants, timedOut
}

// merge joins adjacent diffs of the same type.
func merge(in []diffmatchpatch.Diff) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(in))
	for _, d := range in {
		if n := len(out); n > 0 && out[n-1].Type == d.Type {
			out[n-1].Text += d.Text
		} else {
			out = append(out, d)
		}
	}
	return out
}

// reorder rewrites [del X, = Y, ins Z] as the equivalent
// [del X, ins (YZ)[:len(Z)], = Y] when YZ ends with Y, so the
// deletion and insertion are reported as one variant. For example,
// [del G, = AA, ins A] becomes [del G, ins A, = AA].
func reorder(diffs []diffmatchpatch.Diff) []diffmatchpatch.Diff {
	for i := 0; i+2 < len(diffs); i++ {
		del, eq, ins := diffs[i], diffs[i+1], diffs[i+2]
		if del.Type != diffmatchpatch.DiffDelete ||
			eq.Type != diffmatchpatch.DiffEqual ||
			ins.Type != diffmatchpatch.DiffInsert {
			continue
		}
		joined := eq.Text + ins.Text
		if !strings.HasSuffix(joined, eq.Text) {
			continue
		}
		ins.Text = joined[:len(ins.Text)]
		diffs[i+1], diffs[i+2] = ins, eq
	}
	return merge(diffs)
}
