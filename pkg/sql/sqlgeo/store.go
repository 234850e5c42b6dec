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
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/mysqlgeo/pkg/util/log"
	"github.com/cockroachdb/redact"
	"github.com/twpayne/go-geom"
)

// ErrNotFound is returned by Store.Get for ids without a row.
var ErrNotFound = errors.New("geometry not found")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store reads and writes geometries in a table with an integer id column and
// a spatial column. The table is owned by the caller.
type Store struct {
	db      *sql.DB
	table   string
	typ     *ConvertedDataType
	metrics *Metrics

	// decodeWarn limits warnings about undecodable rows.
	decodeWarn *log.EveryN

	insertStmt, selectStmt, deleteStmt, scanStmt string
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	idColumn, geomColumn string
	metrics              *Metrics
}

// WithColumns overrides the default column names, id and geom.
func WithColumns(idColumn, geomColumn string) StoreOption {
	return func(o *storeOptions) {
		o.idColumn, o.geomColumn = idColumn, geomColumn
	}
}

// WithMetrics makes the store count conversions in m.
func WithMetrics(m *Metrics) StoreOption {
	return func(o *storeOptions) { o.metrics = m }
}

// NewStore returns a Store for table whose spatial column has type typ.
func NewStore(db *sql.DB, table string, typ *ConvertedDataType, opts ...StoreOption) (*Store, error) {
	o := storeOptions{idColumn: "id", geomColumn: "geom"}
	for _, opt := range opts {
		opt(&o)
	}
	for _, ident := range []string{table, o.idColumn, o.geomColumn} {
		if !identRe.MatchString(ident) {
			return nil, errors.Newf("invalid identifier %q", ident)
		}
	}
	return &Store{
		db:         db,
		table:      table,
		typ:        typ,
		metrics:    o.metrics,
		decodeWarn: log.Every(10 * time.Second),
		insertStmt: fmt.Sprintf("REPLACE INTO `%s` (`%s`, `%s`) VALUES (?, ?)", table, o.idColumn, o.geomColumn),
		selectStmt: fmt.Sprintf("SELECT `%s` FROM `%s` WHERE `%s` = ?", o.geomColumn, table, o.idColumn),
		deleteStmt: fmt.Sprintf("DELETE FROM `%s` WHERE `%s` = ?", table, o.idColumn),
		scanStmt:   fmt.Sprintf("SELECT `%s`, `%s` FROM `%s` ORDER BY `%s`", o.idColumn, o.geomColumn, table, o.idColumn),
	}, nil
}

func (s *Store) annotate(ctx context.Context) context.Context {
	return logtags.AddTag(ctx, "table", s.table)
}

// Put stores g under id, replacing any previous row. A nil g stores NULL.
func (s *Store) Put(ctx context.Context, id int64, g geom.T) error {
	ctx = s.annotate(ctx)
	v, err := s.typ.Value(g)
	s.metrics.observeEncode(v == nil, err)
	if err != nil {
		return errors.Wrapf(err, "encoding geometry %d", redact.Safe(id))
	}
	if _, err := s.db.ExecContext(ctx, s.insertStmt, id, v); err != nil {
		return errors.Wrapf(err, "storing geometry %d", redact.Safe(id))
	}
	log.VEventf(ctx, 2, "stored geometry %d", redact.Safe(id))
	return nil
}

// Get returns the geometry stored under id, which is nil for NULL.
func (s *Store) Get(ctx context.Context, id int64) (geom.T, error) {
	ctx = s.annotate(ctx)
	var raw interface{}
	if err := s.db.QueryRowContext(ctx, s.selectStmt, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Mark(errors.Newf("no geometry with id %d", redact.Safe(id)), ErrNotFound)
		}
		return nil, errors.Wrapf(err, "loading geometry %d", redact.Safe(id))
	}
	g, err := s.decode(ctx, id, raw)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) decode(ctx context.Context, id int64, raw interface{}) (geom.T, error) {
	var g geom.T
	err := s.typ.Scanner(&g).Scan(raw)
	s.metrics.observeDecode(raw == nil, err)
	if err != nil {
		if s.decodeWarn.ShouldLog() {
			log.Warningf(ctx, "cannot decode geometry %d: %v", redact.Safe(id), err)
		}
		return nil, errors.Wrapf(err, "decoding geometry %d", redact.Safe(id))
	}
	return g, nil
}

// Delete removes the row of id. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx = s.annotate(ctx)
	if _, err := s.db.ExecContext(ctx, s.deleteStmt, id); err != nil {
		return errors.Wrapf(err, "deleting geometry %d", redact.Safe(id))
	}
	log.VEventf(ctx, 2, "deleted geometry %d", redact.Safe(id))
	return nil
}

// Scan calls fn for every row in id order. Iteration stops at the first
// error, which is returned.
func (s *Store) Scan(ctx context.Context, fn func(id int64, g geom.T) error) (retErr error) {
	ctx = s.annotate(ctx)
	rows, err := s.db.QueryContext(ctx, s.scanStmt)
	if err != nil {
		return errors.Wrap(err, "scanning geometries")
	}
	defer func() {
		retErr = errors.CombineErrors(retErr, rows.Close())
	}()
	n := 0
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return errors.Wrap(err, "scanning geometries")
		}
		var src interface{}
		if raw != nil {
			src = raw
		}
		g, err := s.decode(ctx, id, src)
		if err != nil {
			return err
		}
		if err := fn(id, g); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "scanning geometries")
	}
	log.VEventf(ctx, 2, "scanned %d geometries", n)
	return nil
}
