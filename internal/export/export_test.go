package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/ident"
	"github.com/tingly-dev/hab-export/internal/pkgstore"
	"github.com/tingly-dev/hab-export/internal/ui"
)

type statusLine struct {
	status  ui.Status
	message string
}

type recordingReporter struct {
	lines []statusLine
	warns []string
	brs   int
}

func (r *recordingReporter) Status(s ui.Status, message string) error {
	r.lines = append(r.lines, statusLine{s, message})
	return nil
}

func (r *recordingReporter) Warn(message string) error {
	r.warns = append(r.warns, message)
	return nil
}

func (r *recordingReporter) Br() error {
	r.brs++
	return nil
}

func (r *recordingReporter) count(s ui.Status) int {
	n := 0
	for _, l := range r.lines {
		if l.status == s {
			n++
		}
	}
	return n
}

// fakeInstaller lays out the requested package under the fs root
type fakeInstaller struct {
	requests []pkgstore.InstallRequest
	release  string
	err      error
}

func (f *fakeInstaller) Install(_ context.Context, _ ui.Reporter, req pkgstore.InstallRequest) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	id := ident.MustParse(req.Ident)
	installHelper(nil, req.FSRoot, id.String()+"/0.1.0/"+f.release, id.Name)
	return nil
}

type execCall struct {
	path string
	argv []string
	env  []string
}

type recordingExecer struct {
	calls []execCall
}

func (r *recordingExecer) Exec(path string, argv []string, env []string) error {
	r.calls = append(r.calls, execCall{path, argv, env})
	return nil
}

func installHelper(t *testing.T, fsRoot, id, command string) string {
	dir := filepath.Join(fsRoot, "hab", "pkgs", filepath.FromSlash(id))
	mustNoErr(t, os.MkdirAll(filepath.Join(dir, "bin"), 0755))
	mustNoErr(t, os.WriteFile(filepath.Join(dir, "bin", command), []byte("#!/bin/sh\n"), 0755))
	return dir
}

func mustNoErr(t *testing.T, err error) {
	if t != nil {
		require.NoError(t, err)
	} else if err != nil {
		panic(err)
	}
}

type fixture struct {
	root      string
	reporter  *recordingReporter
	installer *fakeInstaller
	execer    *recordingExecer
	exporter  *Exporter
}

func newFixture(t *testing.T, environ ...string) *fixture {
	f := &fixture{
		root:      t.TempDir(),
		reporter:  &recordingReporter{},
		installer: &fakeInstaller{release: "20170101000000"},
		execer:    &recordingExecer{},
	}
	f.exporter = NewExporter(Deps{
		Reporter:  f.reporter,
		Loader:    pkgstore.NewLoader(f.root),
		Installer: f.installer,
		Execer:    f.execer,
		Product:   constant.Product,
		Version:   "0.20.0",
		FSRoot:    f.root,
		CachePath: constant.ArtifactCachePath(f.root),
		Environ:   func() []string { return environ },
	})
	return f
}

func request(t *testing.T, keyword string) Request {
	format, err := LookupFormat(keyword)
	require.NoError(t, err)
	return Request{
		URL:        "https://depot.example.com/v1/depot",
		Channel:    "unstable",
		HabURL:     "https://helpers.example.com/v1/depot",
		HabChannel: "helpers",
		Ident:      ident.MustParse("core/redis/3.2.4"),
		Format:     format,
		Invocation: []string{"pkg", "export", keyword, "core/redis/3.2.4"},
	}
}

func TestLookupFormat(t *testing.T) {
	tests := []struct {
		keyword string
		ident   string
		cmd     string
	}{
		{"docker", "core/hab-pkg-dockerize", "hab-pkg-dockerize"},
		{"aci", "core/hab-pkg-aci", "hab-pkg-aci"},
		{"mesos", "core/hab-pkg-mesosize", "hab-pkg-mesosize"},
		{"tar", "core/hab-pkg-tarize", "hab-pkg-tarize"},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			format, err := LookupFormat(tt.keyword)
			require.NoError(t, err)
			assert.Equal(t, tt.ident, format.PkgIdent().String())
			assert.Equal(t, tt.cmd, format.Cmd())
		})
	}
	assert.Equal(t, []string{"aci", "docker", "mesos", "tar"}, Formats())
}

func TestLookupFormatUnknown(t *testing.T) {
	for _, keyword := range []string{"zzz", "TAR", ""} {
		_, err := LookupFormat(keyword)
		var unsupported *UnsupportedFormatError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, keyword, unsupported.Format)
	}
}

func TestNewGate(t *testing.T) {
	assert.IsType(t, &Exporter{}, NewGate("linux", Deps{}))
	assert.IsType(t, &unsupportedGate{}, NewGate("darwin", Deps{}))
	assert.IsType(t, &unsupportedGate{}, NewGate("windows", Deps{}))
}

func TestUnsupportedGateFormatFor(t *testing.T) {
	reporter := &recordingReporter{}
	gate := NewGate("darwin", Deps{Reporter: reporter})

	_, err := gate.FormatFor("docker")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "docker", unsupported.Format)

	require.Len(t, reporter.warns, 1)
	assert.True(t, strings.HasPrefix(reporter.warns[0], "Exporting docker packages"), reporter.warns[0])
	assert.Contains(t, reporter.warns[0], "64-bit Linux")
	assert.Equal(t, 1, reporter.brs)
}

func TestUnsupportedGateStart(t *testing.T) {
	tests := []struct {
		name       string
		invocation []string
		want       string
	}{
		{"two args", []string{"export", "tar"}, "export tar"},
		{"extra args ignored", []string{"pkg", "export", "tar", "core/redis"}, "pkg export"},
		{"one arg", []string{"export"}, "export <unknown>"},
		{"no args", nil, "<unknown> <unknown>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &recordingReporter{}
			gate := NewGate("windows", Deps{Reporter: reporter})

			err := gate.Start(context.Background(), Request{Invocation: tt.invocation})
			var notSupported *SubcommandNotSupportedError
			require.ErrorAs(t, err, &notSupported)
			assert.Equal(t, tt.want, notSupported.Invocation)
			assert.Len(t, reporter.warns, 1)
			assert.Equal(t, 1, reporter.brs)
		})
	}
}

func TestStartHelperPresent(t *testing.T) {
	f := newFixture(t)
	dir := installHelper(t, f.root, "core/hab-pkg-tarize/0.1.0/20170101000000", "hab-pkg-tarize")

	require.NoError(t, f.exporter.Start(context.Background(), request(t, "tar")))

	assert.Empty(t, f.installer.requests)
	assert.Zero(t, f.reporter.count(ui.StatusMissing))
	require.Len(t, f.execer.calls, 1)
	call := f.execer.calls[0]
	assert.Equal(t, filepath.Join(dir, "bin", "hab-pkg-tarize"), call.path)
	assert.Equal(t, []string{"hab-pkg-tarize", "core/redis/3.2.4"}, call.argv)
}

func TestStartHelperAbsent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.exporter.Start(context.Background(), request(t, "docker")))

	require.Len(t, f.installer.requests, 1)
	installReq := f.installer.requests[0]
	assert.False(t, installReq.Force)
	assert.Equal(t, "core/hab-pkg-dockerize", installReq.Ident)
	assert.Equal(t, "https://helpers.example.com/v1/depot", installReq.URL)
	assert.Equal(t, "helpers", installReq.Channel)
	assert.Equal(t, constant.Product, installReq.Product)
	assert.Equal(t, "0.20.0", installReq.Version)
	assert.Equal(t, f.root, installReq.FSRoot)
	assert.Equal(t, constant.ArtifactCachePath(f.root), installReq.CachePath)

	assert.Equal(t, 1, f.reporter.count(ui.StatusMissing))
	assert.Equal(t, "package for core/hab-pkg-dockerize", f.reporter.lines[0].message)
	require.Len(t, f.execer.calls, 1)
	assert.Equal(t, "hab-pkg-dockerize", f.execer.calls[0].argv[0])
}

func TestStartEnvironmentCarriesTargetRegistry(t *testing.T) {
	f := newFixture(t,
		"HOME=/home/hab",
		"PATH=/usr/bin",
		constant.DepotURLEnvVar+"=https://stale.example.com",
	)
	dir := installHelper(t, f.root, "core/hab-pkg-mesosize/0.1.0/20170101000000", "hab-pkg-mesosize")
	before, hadBefore := os.LookupEnv(constant.DepotURLEnvVar)

	require.NoError(t, f.exporter.Start(context.Background(), request(t, "mesos")))

	require.Len(t, f.execer.calls, 1)
	env := f.execer.calls[0].env

	url, ok := LookupEnv(env, constant.DepotURLEnvVar)
	require.True(t, ok)
	assert.Equal(t, "https://depot.example.com/v1/depot", url)
	channel, ok := LookupEnv(env, constant.DepotChannelEnvVar)
	require.True(t, ok)
	assert.Equal(t, "unstable", channel)

	path, _ := LookupEnv(env, "PATH")
	assert.Equal(t, filepath.Join(dir, "bin")+string(os.PathListSeparator)+"/usr/bin", path)
	home, _ := LookupEnv(env, "HOME")
	assert.Equal(t, "/home/hab", home)

	after, hadAfter := os.LookupEnv(constant.DepotURLEnvVar)
	assert.Equal(t, hadBefore, hadAfter)
	assert.Equal(t, before, after)
}

func TestStartInstallFailurePropagates(t *testing.T) {
	f := newFixture(t)
	installErr := errors.New("signature verification failed")
	f.installer.err = installErr

	err := f.exporter.Start(context.Background(), request(t, "aci"))
	assert.ErrorIs(t, err, installErr)
	assert.Empty(t, f.execer.calls)
}

func TestStartMissingCommand(t *testing.T) {
	f := newFixture(t)
	installHelper(t, f.root, "core/hab-pkg-aci/0.1.0/20170101000000", "something-else")

	err := f.exporter.Start(context.Background(), request(t, "aci"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `command "hab-pkg-aci" not found`)
	assert.Empty(t, f.execer.calls)
}

func TestMergeEnv(t *testing.T) {
	got := MergeEnv(
		[]string{"A=1", "B=2", "C=3"},
		[]string{"B=20", "D=4"},
	)
	assert.Equal(t, []string{"A=1", "B=20", "C=3", "D=4"}, got)
}
