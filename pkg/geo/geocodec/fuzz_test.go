// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package geocodec

import (
	"encoding/hex"
	"testing"
)

func FuzzDecode(f *testing.F) {
	for _, s := range []string{
		"e61000000101000000000000000000f83f0000000000000440",
		"000010e600000000013ff80000000000004004000000000000",
		"0000000001020000000200000000000000000000000000000000000000000000000000f03f000000000000f03f",
		"e6100000",
		"e610000007",
		"e61000000102000000ffffffff",
		"e610000001ef03000000000000",
		"",
	} {
		b, err := hex.DecodeString(s)
		if err != nil {
			f.Fatal(err)
		}
		f.Add(b)
	}
	c := MustNew(WithOutputDimension(3))
	f.Fuzz(func(t *testing.T, raw []byte) {
		g, err := c.Decode(raw)
		if err != nil {
			if g != nil {
				t.Fatalf("partial geometry returned with error %v", err)
			}
			if !IsMalformedInput(err) && !IsInvalidGeometry(err) {
				t.Fatalf("unclassified error: %+v", err)
			}
			return
		}
		if g == nil {
			if raw != nil {
				t.Fatalf("nil geometry for %x", raw)
			}
			return
		}
		encoded, err := c.Encode(g)
		if err != nil {
			if !IsEncoding(err) {
				t.Fatalf("unclassified error: %+v", err)
			}
			return
		}
		again, err := c.Decode(encoded)
		if err != nil {
			t.Fatalf("cannot decode re-encoded value %x: %v", encoded, err)
		}
		if again.SRID() != g.SRID() {
			t.Fatalf("SRID changed: %d != %d", again.SRID(), g.SRID())
		}
	})
}
