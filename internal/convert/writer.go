// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/cvr-compact/pkg/types"
)

const gzipSuffix = ".gz"

var gzipMagic = []byte{0x1f, 0x8b}

// UseGzip reports whether output at path should be gzip-compressed.
func UseGzip(path string, force bool) bool {
	return force || filepath.Ext(path) == gzipSuffix
}

// Marshal encodes env as compact JSON without HTML escaping and without a
// trailing newline.
func Marshal(env types.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteEnvelope writes env to path, gzip-compressed when compress is set.
// The file is written to a temporary sibling and renamed into place, so an
// interrupted run never leaves a truncated document behind. It returns the
// size of the written file.
func WriteEnvelope(path string, env types.Envelope, compress bool) (int64, error) {
	data, err := Marshal(env)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("creating output: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if err := writePayload(tmp, data, compress); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("renaming output into place: %w", err)
	}

	return outputSize(path), nil
}

func writePayload(w io.Writer, data []byte, compress bool) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	if compress {
		zw := gzip.NewWriter(bw)
		if _, err := zw.Write(data); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
	} else if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadEnvelope loads a converted document. Gzip input is recognized by its
// magic bytes, regardless of file name.
func ReadEnvelope(path string) (types.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Envelope{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if head, err := br.Peek(len(gzipMagic)); err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return types.Envelope{}, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	var env types.Envelope
	dec := json.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return types.Envelope{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return env, nil
}
