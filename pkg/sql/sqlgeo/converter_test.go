// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package sqlgeo

import (
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// pointHex is POINT(1.5 2.5) with SRID 4326, little-endian throughout.
const pointHex = "e61000000101000000000000000000f83f0000000000000440"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestGeometryConverterFrom(t *testing.T) {
	conv := NewGeometryConverter(geocodec.MustNew())
	raw := mustHex(t, pointHex)

	testCases := []struct {
		desc string
		src  interface{}
	}{
		{"bytes", raw},
		{"raw bytes", sql.RawBytes(raw)},
		{"string", string(raw)},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			g, err := conv.From(tc.src)
			require.NoError(t, err)
			p, ok := g.(*geom.Point)
			require.True(t, ok, "expected *geom.Point, got %T", g)
			require.Equal(t, []float64{1.5, 2.5}, p.FlatCoords())
			require.Equal(t, 4326, p.SRID())
		})
	}

	t.Run("null", func(t *testing.T) {
		g, err := conv.From(nil)
		require.NoError(t, err)
		require.Nil(t, g)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := conv.From(42)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrUnsupportedSource))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := conv.From([]byte{1, 2})
		require.True(t, geocodec.IsMalformedInput(err))
	})
}

func TestGeometryConverterTo(t *testing.T) {
	conv := NewGeometryConverter(geocodec.MustNew())

	v, err := conv.To(nil)
	require.NoError(t, err)
	require.Nil(t, v)

	p := geom.NewPointFlat(geom.XY, []float64{1.5, 2.5}).SetSRID(4326)
	v, err = conv.To(p)
	require.NoError(t, err)
	require.Equal(t, pointHex, hex.EncodeToString(v.([]byte)))

	require.Equal(t, reflect.TypeOf([]byte(nil)), conv.FromType())
	require.Equal(t, "T", conv.ToType().Name())
	require.True(t, reflect.TypeOf(p).Implements(conv.ToType()))
}

func TestGeometryScanValue(t *testing.T) {
	t.Run("default codec", func(t *testing.T) {
		var g Geometry
		require.NoError(t, g.Scan(mustHex(t, pointHex)))
		require.True(t, g.Valid())
		require.Equal(t, []float64{1.5, 2.5}, g.T.FlatCoords())

		v, err := g.Value()
		require.NoError(t, err)
		require.Equal(t, pointHex, hex.EncodeToString(v.([]byte)))

		require.NoError(t, g.Scan(nil))
		require.False(t, g.Valid())
		v, err = g.Value()
		require.NoError(t, err)
		require.Nil(t, v)
	})

	t.Run("big endian codec", func(t *testing.T) {
		c := geocodec.MustNew(geocodec.WithByteOrder(binary.BigEndian))
		g := Geometry{
			T:     geom.NewPointFlat(geom.XY, []float64{1.5, 2.5}).SetSRID(4326),
			Codec: c,
		}
		v, err := g.Value()
		require.NoError(t, err)
		b := v.([]byte)
		require.Equal(t, []byte{0x00, 0x00, 0x10, 0xe6}, b[:geocodec.SRIDSize])

		var out Geometry
		out.Codec = c
		require.NoError(t, out.Scan(b))
		require.Equal(t, 4326, out.T.SRID())
	})

	t.Run("scan error keeps value", func(t *testing.T) {
		g := Geometry{T: geom.NewPointFlat(geom.XY, []float64{1, 2})}
		require.Error(t, g.Scan([]byte{0, 0, 0, 0}))
		require.Equal(t, []float64{1, 2}, g.T.FlatCoords())
	})
}
