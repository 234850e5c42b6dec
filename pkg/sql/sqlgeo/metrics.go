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
	"github.com/cockroachdb/mysqlgeo/pkg/geo/geocodec"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts conversions by outcome.
type Metrics struct {
	Decodes *prometheus.CounterVec
	Encodes *prometheus.CounterVec
}

// NewMetrics creates the conversion counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysqlgeo",
			Name:      "decode_total",
			Help:      "Number of spatial values decoded, by result.",
		}, []string{"result"}),
		Encodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mysqlgeo",
			Name:      "encode_total",
			Help:      "Number of geometries encoded, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Decodes, m.Encodes)
	return m
}

// Result label values.
const (
	resultOK        = "ok"
	resultNull      = "null"
	resultMalformed = "malformed"
	resultInvalid   = "invalid"
	resultError     = "error"
)

func resultLabel(isNull bool, err error) string {
	switch {
	case err == nil && isNull:
		return resultNull
	case err == nil:
		return resultOK
	case geocodec.IsMalformedInput(err):
		return resultMalformed
	case geocodec.IsInvalidGeometry(err):
		return resultInvalid
	default:
		return resultError
	}
}

func (m *Metrics) observeDecode(isNull bool, err error) {
	if m == nil {
		return
	}
	m.Decodes.WithLabelValues(resultLabel(isNull, err)).Inc()
}

func (m *Metrics) observeEncode(isNull bool, err error) {
	if m == nil {
		return
	}
	m.Encodes.WithLabelValues(resultLabel(isNull, err)).Inc()
}
