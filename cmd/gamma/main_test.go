package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/app"
)

func TestVersionCmd(t *testing.T) {
	orig := app.Version
	app.Version = "1.2.3"
	defer func() { app.Version = orig }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "gamma 1.2.3\n", buf.String())
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"serve", "migrate", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestServeFailsOnInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")

	cmd := newRootCmd()
	errBuf := new(bytes.Buffer)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"serve"})

	assert.Equal(t, 1, execute(context.Background(), cmd))
	assert.Contains(t, errBuf.String(), "DATABASE_URL is required")
}
