package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectProjectName(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string // filename -> content
		want  string            // "" means the directory base name
	}{
		{
			name:  "no manifest files returns directory name",
			files: map[string]string{},
			want:  "",
		},
		{
			name: "go.mod module path last element",
			files: map[string]string{
				"go.mod": "module github.com/acme/checkout-service\n\ngo 1.23\n",
			},
			want: "checkout-service",
		},
		{
			name: "go.mod single-element quoted module",
			files: map[string]string{
				"go.mod": "// comment\nmodule \"widgets\"\n",
			},
			want: "widgets",
		},
		{
			name: "package.json top-level name",
			files: map[string]string{
				"package.json": `{"name": "my-node-project", "version": "1.0.0"}`,
			},
			want: "my-node-project",
		},
		{
			name: "pyproject.toml PEP 621 [project] name",
			files: map[string]string{
				"pyproject.toml": `[project]
name = "my-python-project"
`,
			},
			want: "my-python-project",
		},
		{
			name: "pyproject.toml [tool.poetry] name when [project] absent",
			files: map[string]string{
				"pyproject.toml": `[tool.poetry]
name = "my-poetry-project"
`,
			},
			want: "my-poetry-project",
		},
		{
			name: "Cargo.toml [package] name",
			files: map[string]string{
				"Cargo.toml": `[package]
name = "my-rust-project"
version = "0.1.0"
`,
			},
			want: "my-rust-project",
		},
		{
			name: "go.mod wins over package.json",
			files: map[string]string{
				"go.mod":       "module example.com/go-wins\n",
				"package.json": `{"name": "node-loses"}`,
			},
			want: "go-wins",
		},
		{
			name: "package.json wins over pyproject.toml",
			files: map[string]string{
				"package.json": `{"name": "node-wins"}`,
				"pyproject.toml": `[project]
name = "python-loses"
`,
			},
			want: "node-wins",
		},
		{
			name: "malformed package.json falls through to Cargo.toml",
			files: map[string]string{
				"package.json": `not valid json`,
				"Cargo.toml": `[package]
name = "fallback-rust"
`,
			},
			want: "fallback-rust",
		},
		{
			name: "go.mod without module line falls through",
			files: map[string]string{
				"go.mod":       "go 1.23\n",
				"package.json": `{"name": "node-picks-up"}`,
			},
			want: "node-picks-up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}
			want := tt.want
			if want == "" {
				want = filepath.Base(dir)
			}
			if got := DetectProjectName(dir); got != want {
				t.Errorf("DetectProjectName() = %q, want %q", got, want)
			}
		})
	}
}

func TestLoadDetectsProjectName(t *testing.T) {
	t.Run("auto-detects from go.mod when project.name empty", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "[executor]\ntimeout_seconds = 5\n")
		writeFile(t, filepath.Join(dir, "go.mod"), "module github.com/acme/detected-go\n")

		cfg, err := Load(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "detected-go" {
			t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, "detected-go")
		}
	})

	t.Run("explicit project.name is not overwritten", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"explicit-name\"\n")
		writeFile(t, filepath.Join(dir, "package.json"), `{"name": "should-not-appear"}`)

		cfg, err := Load(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != "explicit-name" {
			t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, "explicit-name")
		}
	})

	t.Run("no manifest files uses directory name", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "")

		cfg, err := Load(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Project.Name != filepath.Base(dir) {
			t.Errorf("Project.Name = %q, want %q", cfg.Project.Name, filepath.Base(dir))
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
