package main

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gonzalop/miniftp"
	"github.com/gonzalop/miniftp/internal/config"
)

// app carries the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer
	getenv func(string) string

	configFile string
	verbose    bool
	flags      config.Profile
}

func newRootCmd(out, errOut io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{out: out, errOut: errOut, getenv: getenv}

	root := &cobra.Command{
		Use:   "miniftp",
		Short: "A minimal passive-mode FTP client",
		Long: `miniftp talks to an FTP server over a single control connection and
passive data connections.

Connection settings come from, in increasing priority: built-in defaults
(anonymous on port 21), a YAML profile given with --config, the
MINIFTP_PASSWORD environment variable for the password, and flags.

	miniftp -H ftp.example.com ls /pub
	miniftp --config work.yaml get reports/q3.csv
	miniftp --config work.yaml put build.tar.gz releases/build.tar.gz`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "YAML profile with connection settings")
	pf.StringVarP(&a.flags.Host, "host", "H", "", "server host")
	pf.IntVarP(&a.flags.Port, "port", "P", 0, "server port (default 21)")
	pf.StringVarP(&a.flags.User, "user", "u", "", "user name (default anonymous)")
	pf.StringVarP(&a.flags.Password, "password", "p", "", "password (or set "+config.PasswordEnv+")")
	pf.DurationVar(&a.flags.Timeout, "timeout", 0, "dial and I/O timeout (default 30s)")
	pf.IntVar(&a.flags.BufferSize, "buffer-size", 0, "transfer chunk size in bytes")
	pf.Int64Var(&a.flags.RateLimit, "rate-limit", 0, "bandwidth limit in bytes per second")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log the FTP conversation to stderr")

	root.AddCommand(
		a.lsCmd(),
		a.getCmd(),
		a.putCmd(),
		a.mkdirCmd(),
		a.rmdirCmd(),
		a.mvCmd(),
		a.rmCmd(),
		a.pwdCmd(),
		a.profileCmd(),
	)
	return root
}

// profile resolves the effective connection settings.
func (a *app) profile() (config.Profile, error) {
	p := config.Default()
	if a.configFile != "" {
		loaded, err := config.Load(a.configFile)
		if err != nil {
			return p, err
		}
		p = loaded
	}
	p = p.Merge(a.flags)
	p.ApplyEnv(a.getenv)
	return p, p.Validate()
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
}

// session connects and logs in. The caller must Quit the client.
func (a *app) session() (*miniftp.Client, error) {
	p, err := a.profile()
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}

	opts := []miniftp.Option{
		miniftp.WithTimeout(p.Timeout),
		miniftp.WithLogger(a.logger()),
	}
	if p.BufferSize > 0 {
		opts = append(opts, miniftp.WithBufferSize(p.BufferSize))
	}
	if p.RateLimit > 0 {
		opts = append(opts, miniftp.WithBandwidthLimit(p.RateLimit))
	}

	client, err := miniftp.Dial(p.Addr(), opts...)
	if err != nil {
		return nil, err
	}
	if _, err := client.Login(p.User, p.Password); err != nil {
		_ = client.Quit()
		return nil, errors.Wrapf(err, "login as %s", p.User)
	}
	return client, nil
}
