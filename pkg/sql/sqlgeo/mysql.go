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

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
)

// NewMySQLConfig returns the driver configuration for a TCP connection to
// the MySQL server at addr.
func NewMySQLConfig(addr, user, password, dbName string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.User = user
	cfg.Passwd = password
	cfg.DBName = dbName
	cfg.ParseTime = true
	// Spatial values are sent as binary parameters; client side
	// interpolation would render them as string literals.
	cfg.InterpolateParams = false
	return cfg
}

// OpenMySQL returns a handle for cfg. No connection is made until the
// handle is used.
func OpenMySQL(cfg *mysql.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "configuring mysql connector")
	}
	return sql.OpenDB(connector), nil
}
