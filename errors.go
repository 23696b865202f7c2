// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

// FormatError reports malformed textual input: a bad cgf string, a
// note that doesn't match its format, a missing annotation field.
type FormatError struct{ Msg string }

func (e *FormatError) Error() string { return "format error: " + e.Msg }

// RangeError reports a number outside its field width or outside the
// configured chromosome/path bounds.
type RangeError struct{ Msg string }

func (e *RangeError) Error() string { return "range error: " + e.Msg }

// PhaseError reports a missing or unsupported phase note.
type PhaseError struct{ Msg string }

func (e *PhaseError) Error() string { return "phase error: " + e.Msg }

// ConsistencyError means the inputs contradict each other (e.g., a
// locus extends past the reference tiles it was supposed to cover).
// Retrying won't help.
type ConsistencyError struct{ Msg string }

func (e *ConsistencyError) Error() string { return "consistency error: " + e.Msg }
