package pkgstore

import (
	"archive/tar"
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/tingly-dev/hab-export/internal/ui"
)

type entry struct {
	name string
	body string
	mode int64
	link string
}

func buildArtifact(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(enc)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode}
		switch {
		case e.link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
		case e.name[len(e.name)-1] == '/':
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// installFake lays out an installed package with a single executable
func installFake(t *testing.T, fsRoot, id, command string) string {
	t.Helper()
	dir := filepath.Join(fsRoot, "hab", "pkgs", filepath.FromSlash(id))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0755))
	if command != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", command), []byte("#!/bin/sh\n"), 0755))
	}
	return dir
}

type statusLine struct {
	status  ui.Status
	message string
}

type recordingReporter struct {
	lines []statusLine
	warns []string
}

func (r *recordingReporter) Status(s ui.Status, message string) error {
	r.lines = append(r.lines, statusLine{s, message})
	return nil
}

func (r *recordingReporter) Warn(message string) error {
	r.warns = append(r.warns, message)
	return nil
}

func (r *recordingReporter) Br() error { return nil }

func (r *recordingReporter) statuses() []ui.Status {
	var out []ui.Status
	for _, l := range r.lines {
		out = append(out, l.status)
	}
	return out
}
