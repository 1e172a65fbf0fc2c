package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScaffoldProject(t *testing.T) {
	t.Run("creates everything in empty directory", func(t *testing.T) {
		dir := t.TempDir()

		created, err := ScaffoldProject(dir)
		if err != nil {
			t.Fatal(err)
		}

		expected := []string{
			filepath.Join(dir, FileName),
			filepath.Join(dir, JournalDir),
			filepath.Join(dir, ".gitignore"),
		}
		if len(created) != len(expected) {
			t.Fatalf("created %d paths, want %d: %v", len(created), len(expected), created)
		}
		for i, want := range expected {
			if created[i] != want {
				t.Errorf("created[%d] = %q, want %q", i, created[i], want)
			}
		}

		info, err := os.Stat(filepath.Join(dir, JournalDir))
		if err != nil {
			t.Fatalf("journal dir: %v", err)
		}
		if !info.IsDir() {
			t.Error("journal path should be a directory")
		}

		content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
		if err != nil {
			t.Fatalf(".gitignore: %v", err)
		}
		if !strings.Contains(string(content), ".testdeck/") {
			t.Error(".gitignore should contain .testdeck/")
		}

		if _, err := Load(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("scaffolded config does not load: %v", err)
		}
	})

	t.Run("skips existing config", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "existing")

		created, err := ScaffoldProject(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(created) != 2 {
			t.Fatalf("created = %v, want journal dir and .gitignore", created)
		}

		content, err := os.ReadFile(filepath.Join(dir, FileName))
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "existing" {
			t.Error("testdeck.toml was overwritten")
		}
	})

	t.Run("appends to existing .gitignore without trailing newline", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".gitignore"), "bin/")

		if _, err := ScaffoldProject(dir); err != nil {
			t.Fatal(err)
		}

		content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
		if err != nil {
			t.Fatal(err)
		}
		if got := string(content); got != "bin/\n.testdeck/\n" {
			t.Errorf(".gitignore = %q", got)
		}
	})

	t.Run("second run creates nothing", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := ScaffoldProject(dir); err != nil {
			t.Fatal(err)
		}
		created, err := ScaffoldProject(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(created) != 0 {
			t.Errorf("second scaffold created %v", created)
		}
	})
}
