// Copyright 2024 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package sqlgeo connects the geometry codec to database/sql and to the
// type registry of the SQL layer. Only the conversion between a column's raw
// bytes and a geom.T happens here; the byte layout itself is owned by
// geocodec.
package sqlgeo

import (
	"database/sql"
	"database/sql/driver"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/twpayne/go-geom"
)

// ErrUnsupportedSource marks database values that are neither bytes nor
// NULL.
var ErrUnsupportedSource = errors.New("unsupported spatial source value")

// Converter converts between the value a driver returns for a column and
// the user facing type of that column.
type Converter interface {
	// From converts a database value. A NULL value converts to nil.
	From(databaseObject interface{}) (geom.T, error)
	// To converts a user value. A nil value converts to NULL.
	To(userObject geom.T) (interface{}, error)
	// FromType is the type of non-NULL database values.
	FromType() reflect.Type
	// ToType is the type of non-NULL user values.
	ToType() reflect.Type
}

var (
	bytesType = reflect.TypeOf([]byte(nil))
	geomType  = reflect.TypeOf((*geom.T)(nil)).Elem()
)

// GeometryConverter is the Converter backed by a geocodec.Codec.
type GeometryConverter struct {
	codec *geocodec.Codec
}

var _ Converter = (*GeometryConverter)(nil)

// NewGeometryConverter returns a converter using c.
func NewGeometryConverter(c *geocodec.Codec) *GeometryConverter {
	return &GeometryConverter{codec: c}
}

// Codec returns the codec of the converter.
func (gc *GeometryConverter) Codec() *geocodec.Codec { return gc.codec }

// From implements the Converter interface.
func (gc *GeometryConverter) From(databaseObject interface{}) (geom.T, error) {
	switch v := databaseObject.(type) {
	case nil:
		return nil, nil
	case []byte:
		return gc.codec.Decode(v)
	case sql.RawBytes:
		return gc.codec.Decode(v)
	case string:
		// Some drivers return binary columns as strings when the column
		// collation is not binary.
		return gc.codec.Decode([]byte(v))
	default:
		return nil, errors.Mark(
			errors.Newf("cannot convert %T to a geometry", databaseObject),
			ErrUnsupportedSource,
		)
	}
}

// To implements the Converter interface.
func (gc *GeometryConverter) To(userObject geom.T) (interface{}, error) {
	b, err := gc.codec.Encode(userObject)
	if err != nil || b == nil {
		return nil, err
	}
	return b, nil
}

// FromType implements the Converter interface.
func (gc *GeometryConverter) FromType() reflect.Type { return bytesType }

// ToType implements the Converter interface.
func (gc *GeometryConverter) ToType() reflect.Type { return geomType }

// Geometry is a nullable geometry column value. It implements sql.Scanner
// and driver.Valuer. A nil Codec uses geocodec's default configuration.
type Geometry struct {
	T     geom.T
	Codec *geocodec.Codec
}

var (
	_ sql.Scanner   = (*Geometry)(nil)
	_ driver.Valuer = Geometry{}
)

func (g *Geometry) converter() *GeometryConverter {
	if g.Codec == nil {
		return NewGeometryConverter(&geocodec.Codec{})
	}
	return NewGeometryConverter(g.Codec)
}

// Valid returns whether the value is not NULL.
func (g Geometry) Valid() bool { return g.T != nil }

// Scan implements the sql.Scanner interface.
func (g *Geometry) Scan(src interface{}) error {
	t, err := g.converter().From(src)
	if err != nil {
		return err
	}
	g.T = t
	return nil
}

// Value implements the driver.Valuer interface.
func (g Geometry) Value() (driver.Value, error) {
	return g.converter().To(g.T)
}
