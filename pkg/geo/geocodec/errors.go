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
	"io"

	"github.com/cockroachdb/errors"
)

// The error kinds surfaced by the codec. Every error returned by Decode,
// DecodeFrom, Encode and EncodeTo is marked with exactly one of
// ErrMalformedInput, ErrInvalidGeometry or ErrEncoding, and additionally with
// ErrIO when the underlying reader or writer failed. Use errors.Is to test.
var (
	ErrMalformedInput  = errors.New("malformed spatial value")
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrEncoding        = errors.New("cannot encode geometry")
	ErrIO              = errors.New("spatial value i/o failure")
)

// IsMalformedInput returns whether err is shorter than the SRID prefix.
func IsMalformedInput(err error) bool { return errors.Is(err, ErrMalformedInput) }

// IsInvalidGeometry returns whether err comes from an unparseable WKB body.
func IsInvalidGeometry(err error) bool { return errors.Is(err, ErrInvalidGeometry) }

// IsEncoding returns whether err comes from serializing a geometry.
func IsEncoding(err error) bool { return errors.Is(err, ErrEncoding) }

// IsIOError returns whether err was caused by the byte source or sink itself
// rather than by the content it carried.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }

// markIO marks err with ErrIO if the tracked stream recorded a failure.
func markIO(err error, ioErr error) error {
	if ioErr == nil {
		return err
	}
	return errors.Mark(err, ErrIO)
}

// trackingReader remembers the first error of the wrapped reader that is not
// an end-of-stream condition. Running out of bytes is a property of the
// value; anything else is a failure of the source.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}

type trackingWriter struct {
	w   io.Writer
	err error
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil && t.err == nil {
		t.err = err
	}
	return n, err
}
