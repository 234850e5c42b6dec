// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// geoconv inspects and transcodes MySQL spatial column values given as hex,
// as printed by SELECT HEX(col).
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/mysqlgeo/pkg/geo"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geopb"
	"github.com/cockroachdb/mysqlgeo/pkg/util/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/twpayne/go-geom/encoding/wkbcommon"
	"github.com/twpayne/go-geom/encoding/wkbhex"
)

// nullLiteral stands for a NULL column value in inputs and outputs.
const nullLiteral = "NULL"

type optsT struct {
	byteOrder string
	precision string
	scale     float64
	coordSeq  string
	dims      int
	verbosity int32

	// transcode only.
	fromByteOrder string
	toByteOrder   string
	srid          int32
}

func defaultOpts() optsT {
	return optsT{
		byteOrder: "ndr",
		precision: "floating",
		coordSeq:  "array",
		dims:      geocodec.DefaultOutputDimension,
	}
}

func (o *optsT) codec() (*geocodec.Codec, error) {
	bo, err := geocodec.ParseByteOrder(o.byteOrder)
	if err != nil {
		return nil, err
	}
	pm, err := geocodec.ParsePrecisionModel(o.precision, o.scale)
	if err != nil {
		return nil, err
	}
	f, err := geocodec.ParseCoordSeqFactory(o.coordSeq)
	if err != nil {
		return nil, err
	}
	return geocodec.New(
		geocodec.WithByteOrder(bo),
		geocodec.WithPrecisionModel(pm),
		geocodec.WithCoordSeqFactory(f),
		geocodec.WithOutputDimension(o.dims),
	)
}

func newRootCmd() *cobra.Command {
	opts := defaultOpts()

	globalFlags := pflag.NewFlagSet("geoconv", pflag.ContinueOnError)
	globalFlags.StringVar(&opts.byteOrder, "byte-order", opts.byteOrder,
		"byte order of the SRID prefix and of written WKB (ndr or xdr)")
	globalFlags.StringVar(&opts.precision, "precision", opts.precision,
		"precision model applied to decoded X and Y (floating, floating-single or fixed)")
	globalFlags.Float64Var(&opts.scale, "scale", opts.scale,
		"scale of the fixed precision model; 1000 keeps three decimal places")
	globalFlags.StringVar(&opts.coordSeq, "coord-seq", opts.coordSeq,
		"coordinate sequence of decoded geometries (array or packed32)")
	globalFlags.IntVar(&opts.dims, "dims", opts.dims,
		"output dimension of encoded geometries (2 or 3)")
	globalFlags.Int32VarP(&opts.verbosity, "verbosity", "v", opts.verbosity,
		"log verbosity")

	rootCmd := &cobra.Command{
		Use:           "geoconv",
		Short:         "Inspect and transcode MySQL spatial values",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.SetOutput(cmd.ErrOrStderr())
			log.SetVerbosity(opts.verbosity)
		},
	}
	rootCmd.PersistentFlags().AddFlagSet(globalFlags)

	inspectCmd := &cobra.Command{
		Use:   "inspect [HEX...]",
		Short: "Describe spatial values",
		Long: `Describe spatial values given as hex arguments, or one per line on
standard input when no arguments are given. NULL stands for a NULL value.`,
		Example: `  geoconv inspect E61000000101000000000000000000F83F0000000000000440`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.codec()
			if err != nil {
				return err
			}
			return forEachInput(cmd, args, func(ctx context.Context, raw []byte) error {
				return inspect(ctx, cmd.OutOrStdout(), c, raw)
			})
		},
	}

	transcodeCmd := &cobra.Command{
		Use:   "transcode [HEX...]",
		Short: "Re-encode spatial values",
		Long: `Decode spatial values with --from-byte-order and encode them again with
--to-byte-order and --dims, optionally replacing their SRID.`,
		Example: `  geoconv transcode --from-byte-order ndr --to-byte-order xdr E6100000...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := opts.codecWithByteOrder(opts.fromByteOrder)
			if err != nil {
				return errors.Wrap(err, "--from-byte-order")
			}
			to, err := opts.codecWithByteOrder(opts.toByteOrder)
			if err != nil {
				return errors.Wrap(err, "--to-byte-order")
			}
			var srid *geopb.SRID
			if cmd.Flags().Changed("srid") {
				s := geopb.SRID(opts.srid)
				srid = &s
			}
			return forEachInput(cmd, args, func(ctx context.Context, raw []byte) error {
				return transcode(ctx, cmd.OutOrStdout(), from, to, srid, raw)
			})
		},
	}
	transcodeCmd.Flags().StringVar(&opts.fromByteOrder, "from-byte-order", "",
		"byte order of the input values (defaults to --byte-order)")
	transcodeCmd.Flags().StringVar(&opts.toByteOrder, "to-byte-order", "",
		"byte order of the output values (defaults to --byte-order)")
	transcodeCmd.Flags().Int32Var(&opts.srid, "srid", 0,
		"SRID to store instead of the decoded one")

	rootCmd.AddCommand(inspectCmd, transcodeCmd)
	return rootCmd
}

// codecWithByteOrder returns the codec of the global flags with its byte
// order replaced by bo, unless bo is empty.
func (o *optsT) codecWithByteOrder(bo string) (*geocodec.Codec, error) {
	override := *o
	if bo != "" {
		override.byteOrder = bo
	}
	return override.codec()
}

// forEachInput calls fn with the bytes of every hex input. Inputs that fail
// are logged and processing continues; the returned error counts them.
func forEachInput(
	cmd *cobra.Command, args []string, fn func(ctx context.Context, raw []byte) error,
) error {
	inputs := args
	if len(inputs) == 0 {
		var err error
		if inputs, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	failed := 0
	for i, in := range inputs {
		ctx := logtags.AddTag(cmd.Context(), "input", i+1)
		raw, err := parseHex(in)
		if err == nil {
			err = fn(ctx, raw)
		}
		if err != nil {
			failed++
			log.Errorf(ctx, "%v", err)
			if hint := errors.FlattenHints(err); hint != "" {
				log.Infof(ctx, "hint: %s", hint)
			}
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d values failed", failed, len(inputs))
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading standard input")
	}
	return lines, nil
}

// parseHex decodes a hex input. NULL decodes to a nil slice; an optional 0x
// prefix is ignored.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, nullLiteral) {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex")
	}
	return b, nil
}

func inspect(ctx context.Context, w io.Writer, c *geocodec.Codec, raw []byte) error {
	g, err := c.Decode(raw)
	if err != nil {
		return err
	}
	if g == nil {
		_, err := fmt.Fprintln(w, nullLiteral)
		return err
	}
	body, err := wkbhex.Encode(g, c.Config().ByteOrder(),
		wkbcommon.WKBOptionEmptyPointHandling(wkbcommon.EmptyPointHandlingNaN))
	if err != nil {
		return errors.Wrap(err, "encoding WKB body")
	}
	log.VEventf(ctx, 1, "decoded %d bytes", len(raw))
	_, err = fmt.Fprintf(w, "%s wkb=%s\n", geo.Summarize(g), body)
	return err
}

func transcode(
	ctx context.Context,
	w io.Writer,
	from, to *geocodec.Codec,
	srid *geopb.SRID,
	raw []byte,
) error {
	g, err := from.Decode(raw)
	if err != nil {
		return err
	}
	if g == nil {
		_, err := fmt.Fprintln(w, nullLiteral)
		return err
	}
	if srid != nil {
		log.VEventf(ctx, 1, "replacing SRID %d with %d", g.SRID(), *srid)
		if err := geo.AdjustGeomSRID(g, *srid); err != nil {
			return err
		}
	}
	out, err := to.Encode(g)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.ToUpper(hex.EncodeToString(out)))
	return err
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "geoconv: %v\n", err)
		os.Exit(1)
	}
}
