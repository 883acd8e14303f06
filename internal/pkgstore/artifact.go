package pkgstore

import (
	"archive/tar"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/tingly-dev/hab-export/pkg/fs"
)

// ErrChecksumMismatch is returned when an artifact's BLAKE3 digest differs
// from the one published by the depot
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// HashArtifact returns the hex-encoded BLAKE3-256 digest of the file at path
func HashArtifact(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyArtifact checks the artifact at path against the hex digest want
func VerifyArtifact(path, want string) error {
	got, err := HashArtifact(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("%s: %w (want %s, got %s)", filepath.Base(path), ErrChecksumMismatch, want, got)
	}
	return nil
}

// UnpackArtifact extracts a zstd-compressed tar into fsRoot. Entry names are
// relative to the fs root (hab/pkgs/...). All writes go through an os.Root,
// so neither ".." entries nor previously unpacked symlinks can reach outside
// of it.
func UnpackArtifact(path, fsRoot string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact %s: %w", path, err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return fmt.Errorf("creating zstd reader for %s: %w", path, err)
	}
	defer dec.Close()

	rootDir := fs.Rooted(fsRoot)
	if err := fs.EnsureDir(rootDir); err != nil {
		return err
	}
	root, err := os.OpenRoot(rootDir)
	if err != nil {
		return fmt.Errorf("opening fs root %s: %w", rootDir, err)
	}
	defer root.Close()

	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading artifact %s: %w", path, err)
		}

		name := filepath.Clean(filepath.FromSlash(hdr.Name))
		if name == "." {
			continue
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf("artifact entry %q escapes fs root", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = root.MkdirAll(name, 0755)
		case tar.TypeReg:
			err = writeEntry(root, name, tr, os.FileMode(hdr.Mode).Perm())
		case tar.TypeSymlink:
			err = writeSymlink(root, name, hdr.Linkname)
		default:
			// device nodes, fifos and hard links are not part of packages
		}
		if err != nil {
			return fmt.Errorf("artifact entry %q: %w", hdr.Name, err)
		}
	}
}

func writeEntry(root *os.Root, name string, r io.Reader, mode os.FileMode) error {
	if err := mkdirParent(root, name); err != nil {
		return err
	}
	out, err := root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeSymlink creates a link at name. Relative targets must stay inside the
// root; absolute targets (/hab/pkgs/...) are stored as-is and are refused by
// os.Root if anything is later written through them.
func writeSymlink(root *os.Root, name, target string) error {
	if !filepath.IsAbs(target) && !filepath.IsLocal(filepath.Join(filepath.Dir(name), target)) {
		return fmt.Errorf("symlink target %q escapes fs root", target)
	}
	if err := mkdirParent(root, name); err != nil {
		return err
	}
	if err := root.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return root.Symlink(target, name)
}

func mkdirParent(root *os.Root, name string) error {
	dir := filepath.Dir(name)
	if dir == "." {
		return nil
	}
	return root.MkdirAll(dir, 0755)
}
