package archive

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies an archive container.
type Format string

const (
	FormatZip    Format = "zip"
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// FormatFromName picks a format from a file name's extension.
func FormatFromName(name string) (Format, bool) {
	lower := strings.ToLower(name)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, true
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, true
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, true
	default:
		return "", false
	}
}

// sniffFormat detects the container from file content.
func sniffFormat(path string) (Format, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}

	// Walk up the hierarchy so zip-based types (jar, docx) count as zip.
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/zip"):
			return FormatZip, nil
		case m.Is("application/gzip"):
			return FormatTarGz, nil
		case m.Is("application/zstd"):
			return FormatTarZst, nil
		case m.Is("application/x-tar"):
			return FormatTar, nil
		}
	}

	return "", fmt.Errorf("unsupported archive type: %s", mtype.String())
}
