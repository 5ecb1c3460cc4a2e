// Dino - Multi-node Real-time Chat Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dino

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minGzipSize is the reply size below which a history page goes out plain.
// Empty rooms and short pages do not pay for a gzip stream.
const minGzipSize = 1024

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// historyWriter holds back a history reply until it is large enough to be
// worth compressing.
type historyWriter struct {
	http.ResponseWriter
	status int
	buf    []byte
	gz     *gzip.Writer
}

func (w *historyWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *historyWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.gz != nil {
		return w.gz.Write(b)
	}
	w.buf = append(w.buf, b...)
	if len(w.buf) < minGzipSize {
		return len(b), nil
	}

	h := w.ResponseWriter.Header()
	h.Set("Content-Encoding", "gzip")
	h.Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	w.gz = gzipWriterPool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)
	if _, err := w.gz.Write(w.buf); err != nil {
		return 0, err
	}
	w.buf = nil
	return len(b), nil
}

// finish closes the gzip stream, or writes a reply that stayed small as is.
func (w *historyWriter) finish() {
	if w.gz != nil {
		_ = w.gz.Close()
		gzipWriterPool.Put(w.gz)
		return
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(w.status)
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
	}
}

// Compression gzips the replies of the history endpoints for clients that
// accept it. A page of room history can hold thousands of base64 message
// bodies; pages under minGzipSize are sent uncompressed.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Accept-Encoding")

		hw := &historyWriter{ResponseWriter: w}
		defer hw.finish()
		next.ServeHTTP(hw, r)
	})
}
