// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package lightning

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// tileIDCmd prints the fields of tile position integers, tile variant
// integers, and cgf strings.
type tileIDCmd struct{}

func (cmd *tileIDCmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config", "", "codec configuration `file` (yaml or json)")
	variants := flags.Bool("variant", false, "treat integer arguments as tile variants instead of tile positions")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}
	cfg := DefaultConfig()
	if *configFile != "" {
		cfg, err = LoadConfig(*configFile)
		if err != nil {
			return 1
		}
	}
	codec := NewCodec(cfg)
	bufw := bufio.NewWriter(stdout)
	for _, arg := range flags.Args() {
		var line string
		line, err = describeTileID(codec, arg, *variants)
		if err != nil {
			return 1
		}
		fmt.Fprintln(bufw, line)
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	return 0
}

// describeTileID returns a tab-separated description of a decimal
// integer or cgf string.
func describeTileID(codec *Codec, arg string, variant bool) (string, error) {
	if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
		var fields []string
		var chrom int
		if variant {
			fields, err = codec.VariantFields(n)
			if err == nil {
				chrom, err = codec.ChromosomeOfVariant(n)
			}
		} else {
			fields, err = codec.PositionFields(n)
			if err == nil {
				chrom, err = codec.ChromosomeOfPosition(n)
			}
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s\t%s\tchromosome=%d", arg, strings.Join(fields, "."), chrom), nil
	}
	pos, span, err := codec.ParseCGF(arg)
	if err != nil {
		return "", err
	}
	fields, err := codec.PositionFields(pos)
	if err != nil {
		return "", err
	}
	chrom, err := codec.ChromosomeOfPosition(pos)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\t%s\tchromosome=%d\tposition=%d\tspan=%d", arg, strings.Join(fields, "."), chrom, pos, span), nil
}
