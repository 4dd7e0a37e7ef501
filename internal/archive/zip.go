package archive

import (
	"archive/zip"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/flate"
)

type zipWriter struct {
	zw *zip.Writer
}

func newZipWriter(w io.Writer, level int) *zipWriter {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &zipWriter{zw: zw}
}

func (z *zipWriter) WriteDir(name string, info fs.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = strings.TrimSuffix(name, "/") + "/"
	hdr.Method = zip.Store

	_, err = z.zw.CreateHeader(hdr)
	return err
}

func (z *zipWriter) WriteFile(name string, info fs.FileInfo, r io.Reader) (int64, error) {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := z.zw.CreateHeader(hdr)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, r)
}

func (z *zipWriter) Close() error {
	return z.zw.Close()
}

// zipReader walks the central directory in order. Only entry metadata is
// held in memory; bodies are streamed on Open.
type zipReader struct {
	rc  *zip.ReadCloser
	idx int
}

func openZipReader(path string) (*zipReader, error) {
	rc, err := zip.OpenReader(path)
	// Name confinement is enforced per entry during extraction.
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && rc != nil) {
		return nil, err
	}

	rc.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return &zipReader{rc: rc}, nil
}

func (z *zipReader) Next() (*Entry, error) {
	if z.idx >= len(z.rc.File) {
		return nil, io.EOF
	}
	f := z.rc.File[z.idx]
	z.idx++

	mode := f.Mode()
	entry := &Entry{
		Name:     f.Name,
		Size:     int64(f.UncompressedSize64),
		Mode:     mode.Perm(),
		Modified: f.Modified,
	}

	switch {
	case strings.HasSuffix(f.Name, "/") || mode.IsDir():
		entry.Kind = EntryDir
	case mode.IsRegular():
		entry.Kind = EntryFile
		entry.open = func() (io.ReadCloser, error) { return f.Open() }
	default:
		entry.Kind = EntryOther
	}
	return entry, nil
}

func (z *zipReader) Close() error {
	return z.rc.Close()
}
