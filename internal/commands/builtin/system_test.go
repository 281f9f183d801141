package builtin

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PGSHELL_TEST_HOME", "/srv/app")
	env := newTestEnv()
	cond := scan.NewConditionalStack()

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\getenv home PGSHELL_TEST_HOME`))
	assert.Equal(t, "/srv/app", env.get(t, "home"))

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\getenv home PGSHELL_TEST_UNSET_VARIABLE`))
	assert.Equal(t, "/srv/app", env.get(t, "home"))

	assert.Equal(t, shelltypes.CommandError, env.run(cond, `\getenv home`))
	assert.Equal(t, []string{`\getenv: missing required argument`}, env.sink.Errors())
}

func TestSetEnv(t *testing.T) {
	t.Setenv("PGSHELL_TEST_TARGET", "before")
	env := newTestEnv()
	cond := scan.NewConditionalStack()

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\setenv PGSHELL_TEST_TARGET after`))
	assert.Equal(t, "after", os.Getenv("PGSHELL_TEST_TARGET"))

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\setenv PGSHELL_TEST_TARGET`))
	_, found := os.LookupEnv("PGSHELL_TEST_TARGET")
	assert.False(t, found)

	assert.Equal(t, shelltypes.CommandError, env.run(cond, `\setenv A=B c`))
	assert.Equal(t, shelltypes.CommandError, env.run(cond, `\setenv`))
	assert.Equal(t, []string{
		`\setenv: environment variable name must not contain "="`,
		`\setenv: missing required argument`,
	}, env.sink.Errors())
}

func TestTiming(t *testing.T) {
	env := newTestEnv()
	cond := scan.NewConditionalStack()

	env.run(cond, `\timing`)
	assert.True(t, env.settings.Timing)
	env.run(cond, `\timing`)
	assert.False(t, env.settings.Timing)
	env.run(cond, `\timing on`)
	assert.True(t, env.settings.Timing)
	assert.Equal(t, "Timing is on.\nTiming is off.\nTiming is on.\n", env.out.String())

	assert.Equal(t, shelltypes.CommandError, env.run(cond, `\timing sometimes`))
	assert.True(t, env.settings.Timing)
	assert.Equal(t, []string{`unrecognized value "sometimes" for "\timing": Boolean expected`}, env.sink.Errors())

	env.out.Reset()
	env.run(cond, `\set QUIET on`, `\timing off`)
	assert.False(t, env.settings.Timing)
	assert.Empty(t, env.out.String())
}

func TestShellEscape(t *testing.T) {
	env := newTestEnv()
	cond := scan.NewConditionalStack()

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\! echo hello from sh`))
	assert.Equal(t, "hello from sh\n", env.out.String())
	assert.Equal(t, "false", env.get(t, "SHELL_ERROR"))
	assert.Equal(t, "0", env.get(t, "SHELL_EXIT_CODE"))

	assert.Equal(t, shelltypes.CommandOK, env.run(cond, `\! exit 3`))
	assert.Equal(t, "true", env.get(t, "SHELL_ERROR"))
	assert.Equal(t, "3", env.get(t, "SHELL_EXIT_CODE"))
	assert.Empty(t, env.sink.Errors())

	assert.Equal(t, shelltypes.CommandError, env.run(cond, `\! exit 127`))
	assert.Equal(t, "127", env.get(t, "SHELL_EXIT_CODE"))
	assert.Equal(t, []string{`\!: failed`}, env.sink.Errors())
}
