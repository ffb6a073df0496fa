// Package workdir resolves the directory holding the local .maprix store.
// A device can share one store between several working directories through
// a .maprix-root redirect file.
package workdir

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	storeDir = ".maprix"
	rootFile = ".maprix-root"
)

// ResolveBaseDir walks up from dir looking for a .maprix-root redirect or an
// existing .maprix store. A redirect wins over a store in the same directory;
// relative redirect paths resolve against the file's directory. When nothing
// is found dir is returned unchanged, so the store is created there.
func ResolveBaseDir(dir string) string {
	start := filepath.Clean(dir)
	for cur := start; ; {
		if target, ok := readRoot(cur); ok {
			return target
		}
		if info, err := os.Stat(filepath.Join(cur, storeDir)); err == nil && info.IsDir() {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return start
		}
		cur = parent
	}
}

func readRoot(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Clean(target), true
}
