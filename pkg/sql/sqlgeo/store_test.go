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
	"context"
	"database/sql"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// openTestStore returns a store over an in-memory sqlite table. sqlite
// understands REPLACE INTO and backtick quoting, so the MySQL statements run
// unchanged.
func openTestStore(t *testing.T, typeName string) (*Store, *sql.DB, *Metrics) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each connection of an in-memory database sees its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE `shapes` (`id` INTEGER PRIMARY KEY, `shape` BLOB)")
	require.NoError(t, err)

	typ, err := RegisterDataTypeFor(geocodec.MustNew(), DialectMySQL, typeName)
	require.NoError(t, err)
	m := NewMetrics(prometheus.NewRegistry())
	s, err := NewStore(db, "shapes", typ, WithColumns("id", "shape"), WithMetrics(m))
	require.NoError(t, err)
	return s, db, m
}

func TestNewStoreIdentifiers(t *testing.T) {
	typ, err := RegisterDataType(geocodec.MustNew())
	require.NoError(t, err)

	for _, table := range []string{"shapes", "_t1", "Roads_2024"} {
		_, err := NewStore(nil, table, typ)
		require.NoError(t, err, table)
	}
	for _, table := range []string{"", "1shapes", "sha pes", "shapes`; DROP TABLE x"} {
		_, err := NewStore(nil, table, typ)
		require.Error(t, err, table)
	}
	_, err = NewStore(nil, "shapes", typ, WithColumns("id", "g-eom"))
	require.Error(t, err)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, _, m := openTestStore(t, "geometry")

	p := geom.NewPointFlat(geom.XY, []float64{1.5, 2.5}).SetSRID(4326)
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 3, 4}).SetSRID(3857)

	require.NoError(t, s.Put(ctx, 1, p))
	require.NoError(t, s.Put(ctx, 2, ls))
	require.NoError(t, s.Put(ctx, 3, nil))

	g, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.IsType(t, &geom.Point{}, g)
	require.Equal(t, []float64{1.5, 2.5}, g.FlatCoords())
	require.Equal(t, 4326, g.SRID())

	g, err = s.Get(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, g)

	_, err = s.Get(ctx, 4)
	require.True(t, errors.Is(err, ErrNotFound))

	// Put replaces.
	require.NoError(t, s.Put(ctx, 1, geom.NewPointFlat(geom.XY, []float64{7, 8})))
	g, err = s.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []float64{7, 8}, g.FlatCoords())
	require.Equal(t, 0, g.SRID())

	var ids []int64
	var srids []int
	require.NoError(t, s.Scan(ctx, func(id int64, g geom.T) error {
		ids = append(ids, id)
		if g == nil {
			srids = append(srids, -1)
		} else {
			srids = append(srids, g.SRID())
		}
		return nil
	}))
	require.Equal(t, []int64{1, 2, 3}, ids)
	require.Equal(t, []int{0, 3857, -1}, srids)

	require.NoError(t, s.Delete(ctx, 2))
	require.NoError(t, s.Delete(ctx, 2))
	_, err = s.Get(ctx, 2)
	require.True(t, errors.Is(err, ErrNotFound))

	require.Equal(t, 3.0, testutil.ToFloat64(m.Encodes.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Encodes.WithLabelValues("null")))
	// Two Gets and one Scan decoded non-NULL values, one Get and one Scan
	// row were NULL.
	require.Equal(t, 4.0, testutil.ToFloat64(m.Decodes.WithLabelValues("ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Decodes.WithLabelValues("null")))
}

func TestStoreRejectsWrongShape(t *testing.T) {
	ctx := context.Background()
	s, _, m := openTestStore(t, "point")

	err := s.Put(ctx, 1, geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot store LineString")
	require.Equal(t, 1.0, testutil.ToFloat64(m.Encodes.WithLabelValues("error")))

	_, err = s.Get(ctx, 1)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreCorruptRows(t *testing.T) {
	ctx := context.Background()
	s, db, m := openTestStore(t, "geometry")

	require.NoError(t, s.Put(ctx, 1, geom.NewPointFlat(geom.XY, []float64{1, 2})))
	_, err := db.Exec("INSERT INTO `shapes` (`id`, `shape`) VALUES (?, ?)", 2, []byte{0xe6, 0x10})
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO `shapes` (`id`, `shape`) VALUES (?, ?)", 3, []byte{0xe6, 0x10, 0, 0, 0x01, 0x07})
	require.NoError(t, err)

	_, err = s.Get(ctx, 2)
	require.True(t, geocodec.IsMalformedInput(err))
	_, err = s.Get(ctx, 3)
	require.True(t, geocodec.IsInvalidGeometry(err))

	var seen []int64
	err = s.Scan(ctx, func(id int64, _ geom.T) error {
		seen = append(seen, id)
		return nil
	})
	require.True(t, geocodec.IsMalformedInput(err))
	require.Equal(t, []int64{1}, seen)

	stop := errors.New("stop")
	err = s.Scan(ctx, func(int64, geom.T) error { return stop })
	require.True(t, errors.Is(err, stop))

	require.Equal(t, 2.0, testutil.ToFloat64(m.Decodes.WithLabelValues("malformed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("invalid")))
}
