// Package config reads tern.toml project manifests.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the manifest file looked up by the CLI.
const FileName = "tern.toml"

type Manifest struct {
	Name                 string
	Entry                string
	ModulePaths          []string
	MaxMemory            int64
	MaxRecursion         int
	DisableBuiltinLoader bool
	LogLevel             string
}

func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := &Manifest{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}

		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s:%d: invalid line", path, lineNo)
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		var perr error
		switch key {
		case "name":
			m.Name, perr = parseString(val)
		case "entry":
			m.Entry, perr = parseString(val)
		case "log_level":
			m.LogLevel, perr = parseString(val)
		case "module_paths":
			m.ModulePaths, perr = parseStringList(val)
		case "max_memory":
			m.MaxMemory, perr = strconv.ParseInt(val, 10, 64)
		case "max_recursion":
			m.MaxRecursion, perr = strconv.Atoi(val)
		case "disable_builtin_loader":
			m.DisableBuiltinLoader, perr = strconv.ParseBool(val)
		default:
		}
		if perr != nil {
			return nil, fmt.Errorf("%s:%d: %s: %v", path, lineNo, key, perr)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if m.MaxMemory < 0 || m.MaxRecursion < 0 {
		return nil, fmt.Errorf("%s: limits must not be negative", path)
	}
	return m, nil
}

func parseString(val string) (string, error) {
	if len(val) < 2 || val[0] != '"' || val[len(val)-1] != '"' {
		return "", fmt.Errorf("value must be a quoted string")
	}
	return val[1 : len(val)-1], nil
}

func parseStringList(val string) ([]string, error) {
	if len(val) < 2 || val[0] != '[' || val[len(val)-1] != ']' {
		return nil, fmt.Errorf("value must be a list of quoted strings")
	}
	inner := strings.TrimSpace(val[1 : len(val)-1])
	if inner == "" {
		return nil, nil
	}
	var out []string
	for _, item := range strings.Split(inner, ",") {
		s, err := parseString(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ResolvePaths makes the manifest's module paths absolute against root.
func (m *Manifest) ResolvePaths(root string) []string {
	out := make([]string, 0, len(m.ModulePaths))
	for _, p := range m.ModulePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

// Find looks for a manifest in dir and its parents.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, FileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
