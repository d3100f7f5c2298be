package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestLoad(t *testing.T) {
	t.Parallel()
	file := writeFile(t, `
host: ftp.example.com
port: 2121
user: alice
timeout: 5s
buffer_size: 8192
rate_limit: 65536
`)

	p, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Host:       "ftp.example.com",
		Port:       2121,
		User:       "alice",
		Timeout:    5 * time.Second,
		BufferSize: 8192,
		RateLimit:  65536,
	}, p)
	assert.Equal(t, "ftp.example.com:2121", p.Addr())
}

func TestLoad_KeepsDefaults(t *testing.T) {
	t.Parallel()
	p, err := Load(writeFile(t, "host: localhost\n"))
	require.NoError(t, err)
	assert.Equal(t, 21, p.Port)
	assert.Equal(t, "anonymous", p.User)
	assert.Equal(t, 30*time.Second, p.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "hots: typo\n"))
	assert.ErrorContains(t, err, "parse profile")

	_, err = Load(writeFile(t, "port: [1, 2]\n"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	base := Profile{Host: "a", Port: 21, User: "anonymous", Timeout: time.Second}
	got := base.Merge(Profile{Host: "b", RateLimit: 10})
	assert.Equal(t, Profile{Host: "b", Port: 21, User: "anonymous", Timeout: time.Second, RateLimit: 10}, got)
	assert.Equal(t, "a", base.Host)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{PasswordEnv: "from-env"}
	getenv := func(k string) string { return env[k] }

	p := Profile{User: "alice"}
	p.ApplyEnv(getenv)
	assert.Equal(t, "from-env", p.Password)

	p = Profile{User: "alice", Password: "explicit"}
	p.ApplyEnv(getenv)
	assert.Equal(t, "explicit", p.Password)

	p = Profile{User: "anonymous"}
	p.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, "anonymous@", p.Password)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	ok := Default()
	ok.Host = "localhost"
	require.NoError(t, ok.Validate())

	for name, mutate := range map[string]func(*Profile){
		"no host":         func(p *Profile) { p.Host = "" },
		"port zero":       func(p *Profile) { p.Port = 0 },
		"port too large":  func(p *Profile) { p.Port = 70000 },
		"negative buffer": func(p *Profile) { p.BufferSize = -1 },
		"negative timeout": func(p *Profile) {
			p.Timeout = -time.Second
		},
	} {
		p := ok
		mutate(&p)
		assert.Error(t, p.Validate(), name)
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "out.yaml")
	want := Profile{Host: "h", Port: 990, User: "u", Timeout: 90 * time.Second, BufferSize: 1024}
	require.NoError(t, want.Save(file))

	got, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
