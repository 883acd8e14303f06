package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/tingly-dev/hab-export/internal/constant"
	"github.com/tingly-dev/hab-export/internal/pkgstore"
)

// Execer transfers control to an executable. Implementations that replace
// the current process only return on failure.
type Execer interface {
	Exec(path string, argv []string, env []string) error
}

func (e *Exporter) handoff(helper *pkgstore.InstalledPackage, req Request) error {
	path, err := helper.FindCommand(req.Format.Cmd())
	if err != nil {
		return err
	}
	binDirs, err := helper.BinDirs()
	if err != nil {
		return err
	}

	env := MergeEnv(e.deps.Environ(), []string{
		FormatEnv(constant.DepotURLEnvVar, req.URL),
		FormatEnv(constant.DepotChannelEnvVar, req.Channel),
	})
	env = prependPath(env, binDirs)

	argv := []string{req.Format.Cmd(), req.Ident.String()}
	if err := e.deps.Execer.Exec(path, argv, env); err != nil {
		return fmt.Errorf("failed to exec %s: %w", path, err)
	}
	return nil
}

// FormatEnv formats a KEY=value pair
func FormatEnv(key, value string) string {
	return key + "=" + value
}

// MergeEnv returns base with custom applied on top. Keys keep their first
// position in base; new keys are appended in order.
func MergeEnv(base []string, custom []string) []string {
	result := make([]string, 0, len(base)+len(custom))
	index := make(map[string]int, len(base)+len(custom))

	for _, e := range append(append([]string{}, base...), custom...) {
		key := e
		if idx := strings.IndexByte(e, '='); idx > 0 {
			key = e[:idx]
		}
		if i, ok := index[key]; ok {
			result[i] = e
			continue
		}
		index[key] = len(result)
		result = append(result, e)
	}
	return result
}

// LookupEnv returns the value of key in env
func LookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return e[len(prefix):], true
		}
	}
	return "", false
}

func prependPath(env []string, dirs []string) []string {
	if len(dirs) == 0 {
		return env
	}
	path := strings.Join(dirs, string(os.PathListSeparator))
	if current, ok := LookupEnv(env, "PATH"); ok && current != "" {
		path += string(os.PathListSeparator) + current
	}
	return MergeEnv(env, []string{FormatEnv("PATH", path)})
}
