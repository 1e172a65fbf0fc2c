package config

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifest reads a project name from one well-known manifest file.
type manifest struct {
	file string
	name func(path string) string
}

// manifests are consulted in order; the first non-empty name wins.
var manifests = []manifest{
	{file: "go.mod", name: goModName},
	{file: "package.json", name: packageJSONName},
	{file: "pyproject.toml", name: pyprojectName},
	{file: "Cargo.toml", name: cargoName},
}

// DetectProjectName infers the project name shown in the dashboard header
// from the manifests in dir, falling back to the directory's base name.
// Unreadable or malformed manifests are skipped.
func DetectProjectName(dir string) string {
	for _, m := range manifests {
		if name := m.name(filepath.Join(dir, m.file)); name != "" {
			return name
		}
	}
	return filepath.Base(dir)
}

// goModName returns the last element of the module path.
func goModName(file string) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rest, ok := strings.CutPrefix(strings.TrimSpace(sc.Text()), "module")
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		mod := strings.Trim(strings.TrimSpace(rest), `"`)
		if mod == "" {
			return ""
		}
		return path.Base(mod)
	}
	return ""
}

func packageJSONName(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return ""
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return ""
	}
	return pkg.Name
}

// pyprojectName prefers PEP 621 [project].name over [tool.poetry].name.
func pyprojectName(file string) string {
	var py struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(file, &py); err != nil {
		return ""
	}
	if py.Project.Name != "" {
		return py.Project.Name
	}
	return py.Tool.Poetry.Name
}

func cargoName(file string) string {
	var cargo struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if _, err := toml.DecodeFile(file, &cargo); err != nil {
		return ""
	}
	return cargo.Package.Name
}
