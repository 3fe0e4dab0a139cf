package extract

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/nwaples/rardecode/v2"
	"github.com/ulikunitz/xz"
)

type format int

const (
	formatNone format = iota
	formatZip
	formatRar
	format7z
	formatExe
	formatTar
	formatTarGz
	formatTarXz
	formatTarZst
	formatTarBz2
	formatGz
	formatXz
	formatZst
	formatBz2
)

// suffixes is checked in order, so compound suffixes precede their parts.
var suffixes = []struct {
	suffix string
	format format
}{
	{".tar.gz", formatTarGz},
	{".tgz", formatTarGz},
	{".tar.xz", formatTarXz},
	{".txz", formatTarXz},
	{".tar.zst", formatTarZst},
	{".tzst", formatTarZst},
	{".tar.bz2", formatTarBz2},
	{".tbz2", formatTarBz2},
	{".tbz", formatTarBz2},
	{".tar", formatTar},
	{".zip", formatZip},
	{".rar", formatRar},
	{".7z", format7z},
	{".exe", formatExe},
	{".gz", formatGz},
	{".xz", formatXz},
	{".zst", formatZst},
	{".bz2", formatBz2},
}

func formatOf(p string) (format, string) {
	lower := strings.ToLower(p)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format, s.suffix
		}
	}
	return formatNone, ""
}

// IsArchive reports whether p names a file Extract can unpack, judged by
// extension alone.
func IsArchive(p string) bool {
	f, _ := formatOf(p)
	return f != formatNone
}

// TrimArchiveSuffix removes a recognized archive suffix, including
// compound ones such as ".tar.gz", from name.
func TrimArchiveSuffix(name string) string {
	if _, suffix := formatOf(name); suffix != "" {
		return name[:len(name)-len(suffix)]
	}
	return name
}

// Extract unpacks a single archive into dest without recursing. Entry
// names are confined to dest; links and special files are skipped.
func Extract(ctx context.Context, archive, dest string) error {
	f, suffix := formatOf(archive)
	var err error
	switch f {
	case formatZip:
		err = extractZip(ctx, archive, dest)
	case formatRar:
		err = extractRar(ctx, archive, dest)
	case format7z:
		err = extract7z(ctx, archive, dest)
	case formatExe:
		// Self-extracting installers are zip or 7z payloads behind a stub.
		if err = extractZip(ctx, archive, dest); err != nil && ctx.Err() == nil {
			err = extract7z(ctx, archive, dest)
		}
	case formatTar, formatTarGz, formatTarXz, formatTarZst, formatTarBz2:
		err = extractTar(ctx, archive, dest, f)
	case formatGz, formatXz, formatZst, formatBz2:
		name := filepath.Base(archive)
		name = name[:len(name)-len(suffix)]
		err = extractStream(ctx, archive, filepath.Join(dest, name), f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archive))
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrBadArchive) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrBadArchive, filepath.Base(archive), err)
	}
	return nil
}

// safeJoin maps an archive entry name onto a path inside dest. Either
// separator is accepted and ".." elements cannot climb above dest.
func safeJoin(dest, name string) (string, bool) {
	clean := path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
	if clean == "/" {
		return "", false
	}
	return filepath.Join(dest, filepath.FromSlash(clean[1:])), true
}

func writeEntry(ctx context.Context, dest, name string, r io.Reader, mode os.FileMode, modified time.Time) error {
	target, ok := safeJoin(dest, name)
	if !ok {
		return nil
	}
	if err := writeFile(ctx, target, r, mode); err != nil {
		return err
	}
	if !modified.IsZero() {
		_ = os.Chtimes(target, modified, modified)
	}
	return nil
}

func extractZip(ctx context.Context, archive, dest string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if !f.Mode().IsRegular() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		err = writeEntry(ctx, dest, f.Name, rc, f.Mode(), f.Modified)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractRar(ctx context.Context, archive, dest string) error {
	rr, err := rardecode.OpenReader(archive)
	if err != nil {
		return err
	}
	defer rr.Close()
	for {
		h, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if h.IsDir || !h.Mode().IsRegular() {
			continue
		}
		if err := writeEntry(ctx, dest, h.Name, rr, h.Mode(), h.ModificationTime); err != nil {
			return err
		}
	}
}

func extract7z(ctx context.Context, archive, dest string) error {
	sr, err := sevenzip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer sr.Close()
	for _, f := range sr.File {
		info := f.FileInfo()
		if info.IsDir() || !info.Mode().IsRegular() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		err = writeEntry(ctx, dest, f.Name, rc, info.Mode(), f.Modified)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// decompressor wraps r according to the stream compression of format f.
func decompressor(r io.Reader, f format) (io.Reader, func(), error) {
	switch f {
	case formatTarGz, formatGz:
		g, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { g.Close() }, nil
	case formatTarXz, formatXz:
		x, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return x, func() {}, nil
	case formatTarZst, formatZst:
		z, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return z, z.Close, nil
	case formatTarBz2, formatBz2:
		return bzip2.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

func extractTar(ctx context.Context, archive, dest string, f format) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()
	r, done, err := decompressor(file, f)
	if err != nil {
		return err
	}
	defer done()

	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if h.Typeflag != tar.TypeReg {
			continue
		}
		if err := writeEntry(ctx, dest, h.Name, tr, h.FileInfo().Mode(), h.ModTime); err != nil {
			return err
		}
	}
}

func extractStream(ctx context.Context, archive, target string, f format) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	r, done, err := decompressor(file, f)
	if err != nil {
		return err
	}
	defer done()
	return writeEntry(ctx, filepath.Dir(target), filepath.Base(target), r, 0o644, info.ModTime())
}
