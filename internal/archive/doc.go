// Package archive compresses directory trees into archives and extracts them
// back, streaming file bodies without buffering whole files.
//
// Supported formats:
//   - zip: the default, deflate via klauspost/compress/flate
//   - tar: uncompressed
//   - tar.gz: gzip via klauspost/compress/gzip
//   - tar.zst: zstd via klauspost/compress/zstd
//
// Extraction treats every entry name as untrusted input. Each target path is
// joined onto the destination, cleaned, and must stay inside it (see
// sandbox.Within). The same name is also joined with securejoin, which follows
// symlinks already on disk; if the two paths differ the entry is refused.
// One bad entry aborts the whole extraction. Entries already
// written stay on disk.
//
// Entries are consumed strictly one at a time through EntryReader.Next; the
// body of an entry is fully drained and closed before the next one is read.
//
// Example Usage:
//
//	engine := archive.New(archive.WithLogger(logger), archive.WithLevel(6))
//	stats, err := engine.Compress(ctx, "/home/u/project", "/home/u/project.zip")
//	stats, err = engine.Extract(ctx, "/home/u/project.zip", "/home/u/restore")
package archive
