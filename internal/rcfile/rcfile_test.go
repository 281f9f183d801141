package rcfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"pgshell/internal/testutils"
)

func env(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestLoad_SystemAndHome(t *testing.T) {
	sys := testutils.CreateTempDir(t, map[string]string{"psqlrc": `\set sys 1`})
	home := testutils.CreateTempDir(t, map[string]string{".psqlrc": `\set home 1`})
	files := testutils.NewFakeFiles()

	ran := Load(context.Background(), files, Options{
		SystemDir: sys,
		Home:      home,
		Getenv:    env(nil),
		Minor:     "17.2",
		Major:     "17",
	})

	want := []string{filepath.Join(sys, "psqlrc"), filepath.Join(home, ".psqlrc")}
	assert.Equal(t, want, ran)
	assert.Equal(t, want, files.Processed)
}

func TestLoad_VersionSuffixes(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "minor wins",
			files: map[string]string{".psqlrc": "", ".psqlrc-17": "", ".psqlrc-17.2": ""},
			want:  ".psqlrc-17.2",
		},
		{
			name:  "major before plain",
			files: map[string]string{".psqlrc": "", ".psqlrc-17": ""},
			want:  ".psqlrc-17",
		},
		{
			name:  "plain fallback",
			files: map[string]string{".psqlrc": "", ".psqlrc-16": ""},
			want:  ".psqlrc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := testutils.CreateTempDir(t, tt.files)
			files := testutils.NewFakeFiles()

			Load(context.Background(), files, Options{
				SystemDir: t.TempDir(),
				Home:      home,
				Getenv:    env(nil),
				Minor:     "17.2",
				Major:     "17",
			})

			assert.Equal(t, []string{filepath.Join(home, tt.want)}, files.Processed)
		})
	}
}

func TestLoad_PSQLRCOverridesHome(t *testing.T) {
	home := testutils.CreateTempDir(t, map[string]string{
		".psqlrc":        "",
		"custom/startup": "",
	})
	files := testutils.NewFakeFiles()

	Load(context.Background(), files, Options{
		SystemDir: t.TempDir(),
		Home:      home,
		Getenv:    env(map[string]string{"PSQLRC": "~/custom/startup"}),
		Minor:     "17.2",
		Major:     "17",
	})

	assert.Equal(t, []string{filepath.Join(home, "custom/startup")}, files.Processed)
}

func TestLoad_NothingFound(t *testing.T) {
	files := testutils.NewFakeFiles()

	ran := Load(context.Background(), files, Options{
		SystemDir: t.TempDir(),
		Home:      t.TempDir(),
		Getenv:    env(nil),
		Minor:     "17.2",
		Major:     "17",
	})

	assert.Empty(t, ran)
	assert.Empty(t, files.Processed)
}

func TestPick_IgnoresDirectories(t *testing.T) {
	dir := testutils.CreateTempDir(t, map[string]string{"rc-17.2/inner": "", "rc": ""})

	path, ok := pick(filepath.Join(dir, "rc"), "17.2", "17")

	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "rc"), path)
}

func TestExpandTilde(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "~", want: "/home/me"},
		{path: "~/x.sql", want: "/home/me/x.sql"},
		{path: "~bob/x.sql", want: "~bob/x.sql"},
		{path: "/abs/x.sql", want: "/abs/x.sql"},
		{path: "rel/x.sql", want: "rel/x.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, expandTilde(tt.path, "/home/me"))
		})
	}
	assert.Equal(t, "plain", expandTilde("plain", ""))
}
