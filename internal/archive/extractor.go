// Package archive unpacks render archives into extraction workspaces.
package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/printforge/bindery/internal/order"
)

// Extractor decodes tar archives, transparently handling gzip compression.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract writes the archive buffer to a temporary file inside dest, decodes
// the tar into dest, then removes the temporary file. The destination is
// created recursively if absent. Member paths are preserved, so the
// resulting tree may be arbitrarily nested.
func (e *Extractor) Extract(ctx context.Context, archive []byte, dest string) error {
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return order.E(order.KindExtraction, "create destination", err)
	}

	tmp, err := os.CreateTemp(dest, "archive-*.tar")
	if err != nil {
		return order.E(order.KindExtraction, "create staging file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(archive); err != nil {
		_ = tmp.Close()
		return order.E(order.KindExtraction, "stage archive", err)
	}
	if err := tmp.Close(); err != nil {
		return order.E(order.KindExtraction, "close staging file", err)
	}

	f, err := os.Open(tmpName)
	if err != nil {
		return order.E(order.KindExtraction, "open staging file", err)
	}
	defer f.Close()

	if err := unpack(ctx, f, dest); err != nil {
		return err
	}
	return nil
}

// gzipMagic is the two-byte gzip stream header.
var gzipMagic = []byte{0x1f, 0x8b}

func unpack(ctx context.Context, f *os.File, dest string) error {
	head := make([]byte, 2)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return order.E(order.KindExtraction, "sniff archive", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return order.E(order.KindExtraction, "rewind archive", err)
	}

	var r io.Reader = f
	if n == 2 && bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return order.E(order.KindExtraction, "open gzip stream", err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return order.E(order.KindExtraction, "extract archive", err)
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return order.E(order.KindExtraction, "decode archive", err)
		}
		if err := writeEntry(tr, hdr, dest); err != nil {
			return err
		}
	}
}

func writeEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	target, err := memberPath(dest, hdr.Name)
	if err != nil {
		return order.E(order.KindExtraction, "resolve member path", err)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0o750); err != nil {
			return order.E(order.KindExtraction, "create member directory", err)
		}
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return order.E(order.KindExtraction, "create member directory", err)
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return order.E(order.KindExtraction, "create member file", err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			_ = out.Close()
			return order.E(order.KindExtraction, "write member file", err)
		}
		if err := out.Close(); err != nil {
			return order.E(order.KindExtraction, "close member file", err)
		}
	default:
		// Symlinks, devices and other member types are not part of a render
		// package and are skipped.
	}
	return nil
}

// memberPath joins a tar member name onto dest, rejecting names that would
// escape the destination tree.
func memberPath(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("member %q escapes destination", name)
	}
	return filepath.Join(dest, clean), nil
}
