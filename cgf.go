// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCGF returns the tile position and the number of positions
// spanned by a cgf string such as "00005000a+3".
func (codec *Codec) ParseCGF(s string) (pos int64, span int, err error) {
	m := codec.cfg.cgfRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, &FormatError{Msg: fmt.Sprintf("%q does not match cgf string format %q", s, codec.cfg.cgfRegexp)}
	}
	pos, err = strconv.ParseInt(strings.Replace(m[1], ".", "", -1), 16, 64)
	if err != nil {
		return 0, 0, &FormatError{Msg: fmt.Sprintf("%q: bad position: %s", s, err)}
	}
	span = 1
	if m[2] != "" {
		n, err := strconv.ParseInt(m[2], 16, 32)
		if err != nil || n < 1 {
			return 0, 0, &FormatError{Msg: fmt.Sprintf("%q: bad spanning count %q", s, m[2])}
		}
		span = int(n)
	}
	return pos, span, nil
}

// CanonicalCGF returns s without its "+<span>" suffix.
func (codec *Codec) CanonicalCGF(s string) (string, error) {
	if !codec.cfg.cgfRegexp.MatchString(s) {
		return "", &FormatError{Msg: fmt.Sprintf("%q does not match cgf string format %q", s, codec.cfg.cgfRegexp)}
	}
	return strings.SplitN(s, "+", 2)[0], nil
}

// FormatCGF renders a position and spanning count as a cgf string.
// The "+<span>" suffix is omitted when span is 1.
func (codec *Codec) FormatCGF(pos int64, span int) (string, error) {
	s, err := codec.PositionString(pos)
	if err != nil {
		return "", err
	}
	if span > 1 {
		s += fmt.Sprintf("+%x", span)
	}
	return s, nil
}
