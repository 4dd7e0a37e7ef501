package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type tarWriter struct {
	tw *tar.Writer
	// compressor is flushed after the tar trailer; nil for plain tar.
	compressor io.WriteCloser
}

func newTarWriter(w io.Writer, format Format, level int) (*tarWriter, error) {
	var (
		dst        = w
		compressor io.WriteCloser
	)

	switch format {
	case FormatTarGz:
		gz, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, err
		}
		compressor, dst = gz, gz
	case FormatTarZst:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, err
		}
		compressor, dst = enc, enc
	case FormatTar:
	default:
		return nil, fmt.Errorf("unsupported tar format: %s", format)
	}

	return &tarWriter{tw: tar.NewWriter(dst), compressor: compressor}, nil
}

func (t *tarWriter) WriteDir(name string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = strings.TrimSuffix(name, "/") + "/"
	return t.tw.WriteHeader(hdr)
}

func (t *tarWriter) WriteFile(name string, info fs.FileInfo, r io.Reader) (int64, error) {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, err
	}
	hdr.Name = name

	if err := t.tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	return io.Copy(t.tw, r)
}

func (t *tarWriter) Close() error {
	err := t.tw.Close()
	if t.compressor != nil {
		if cerr := t.compressor.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// zstdLevel maps deflate-style levels onto the zstd encoder presets.
func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level < 0:
		return zstd.SpeedDefault
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 8:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

type tarReader struct {
	tr      *tar.Reader
	closers []io.Closer
}

func openTarReader(path string, format Format) (*tarReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &tarReader{closers: []io.Closer{f}}
	var src io.Reader = f

	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.closers = append(r.closers, gz)
		src = gz
	case FormatTarZst:
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		rc := dec.IOReadCloser()
		r.closers = append(r.closers, rc)
		src = rc
	case FormatTar:
	default:
		_ = r.Close()
		return nil, fmt.Errorf("unsupported tar format: %s", format)
	}

	r.tr = tar.NewReader(src)
	return r, nil
}

func (t *tarReader) Next() (*Entry, error) {
	hdr, err := t.tr.Next()
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Name:     hdr.Name,
		Size:     hdr.Size,
		Mode:     fs.FileMode(hdr.Mode).Perm(),
		Modified: hdr.ModTime,
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		entry.Kind = EntryDir
	case tar.TypeReg:
		entry.Kind = EntryFile
		entry.open = func() (io.ReadCloser, error) { return io.NopCloser(t.tr), nil }
	default:
		entry.Kind = EntryOther
	}
	return entry, nil
}

func (t *tarReader) Close() error {
	var first error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
