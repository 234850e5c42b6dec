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
	"encoding/hex"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geopb"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestDefaultNativeType(t *testing.T) {
	testCases := []struct {
		dialect  Dialect
		typeName string
		expected geopb.ShapeType
		str      string
	}{
		{DialectMySQL, "geometry", geopb.ShapeType_Unset, "mysql.GEOMETRY"},
		{DialectMySQL, "POINT", geopb.ShapeType_Point, "mysql.POINT"},
		{DialectMariaDB, "LineString", geopb.ShapeType_LineString, "mariadb.LINESTRING"},
		{DialectMySQL, "polygon", geopb.ShapeType_Polygon, "mysql.POLYGON"},
		{DialectMySQL, "multipolygon", geopb.ShapeType_MultiPolygon, "mysql.MULTIPOLYGON"},
		{DialectMySQL, "geomcollection", geopb.ShapeType_GeometryCollection, "mysql.GEOMCOLLECTION"},
	}
	for _, tc := range testCases {
		t.Run(tc.str, func(t *testing.T) {
			dt, err := DefaultNativeType(tc.dialect, tc.typeName)
			require.NoError(t, err)
			require.Equal(t, tc.expected, dt.ShapeType)
			require.Equal(t, tc.str, dt.String())
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := DefaultNativeType(DialectMySQL, "varchar")
		require.EqualError(t, err, `type "varchar" is not a spatial type of dialect mysql`)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := DefaultNativeType(Dialect(0), "geometry")
		require.Error(t, err)
		require.Contains(t, errors.FlattenHints(err), "mysql and mariadb")
	})
}

func TestConvertedDataType(t *testing.T) {
	geometry, err := RegisterDataType(geocodec.MustNew())
	require.NoError(t, err)
	require.Equal(t, "mysql.GEOMETRY", geometry.String())
	require.IsType(t, &GeometryConverter{}, geometry.Converter())

	point, err := RegisterDataTypeFor(geocodec.MustNew(), DialectMariaDB, "point")
	require.NoError(t, err)

	p := geom.NewPointFlat(geom.XY, []float64{1.5, 2.5}).SetSRID(4326)
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1})

	require.True(t, geometry.Accepts(p))
	require.True(t, geometry.Accepts(ls))
	require.True(t, point.Accepts(p))
	require.False(t, point.Accepts(ls))

	v, err := point.Value(p)
	require.NoError(t, err)
	require.Equal(t, pointHex, hex.EncodeToString(v.([]byte)))

	_, err = point.Value(ls)
	require.EqualError(t, err, "cannot store LineString in a mariadb.POINT column")

	v, err = point.Value(nil)
	require.NoError(t, err)
	require.Nil(t, v)

	var g geom.T
	require.NoError(t, geometry.Scanner(&g).Scan(v))
	require.Nil(t, g)
	require.NoError(t, geometry.Scanner(&g).Scan(mustHex(t, pointHex)))
	require.Equal(t, []float64{1.5, 2.5}, g.FlatCoords())

	_, err = RegisterDataTypeFor(geocodec.MustNew(), DialectMySQL, "text")
	require.Error(t, err)
}
