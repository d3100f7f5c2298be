package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gonzalop/miniftp"
)

func (a *app) lsCmd() *cobra.Command {
	var names bool
	cmd := &cobra.Command{
		Use:   "ls [remote_dir]",
		Short: "List a remote directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}

			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			listing, err := client.List(dir)
			if err != nil {
				return errors.Wrapf(err, "list %q", dir)
			}
			if !names {
				_, err = fmt.Fprint(a.out, listing)
				return err
			}
			for _, e := range miniftp.ParseListing(listing) {
				if _, err := fmt.Fprintln(a.out, e.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&names, "names", "n", false, "print entry names only")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "get remote_file [local_file]",
		Short: "Download a file",
		Long: `Download a file. The local name defaults to the remote base name.
With --zstd the download is compressed while it streams and ".zst" is
appended to the default local name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote := args[0]
			local := path.Base(remote)
			if compress {
				local += ".zst"
			}
			if len(args) == 2 {
				local = args[1]
			}

			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			if compress {
				err = retrieveCompressed(client, remote, local)
			} else {
				err = client.RetrieveTo(remote, local)
			}
			return errors.Wrapf(err, "get %s", remote)
		},
	}
	cmd.Flags().BoolVar(&compress, "zstd", false, "zstd-compress the local copy")
	return cmd
}

// retrieveCompressed streams remote through a zstd encoder into local.
// The local file is removed on failure.
func retrieveCompressed(client *miniftp.Client, remote, local string) (err error) {
	f, err := os.Create(local)
	if err != nil {
		return errors.Wrap(err, "create local file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(local)
		}
	}()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return errors.Wrap(err, "zstd encoder")
	}
	if err := client.Retrieve(remote, enc); err != nil {
		_ = enc.Close()
		return err
	}
	return errors.Wrap(enc.Close(), "zstd flush")
}

func (a *app) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put local_file [remote_file]",
		Short: "Upload a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local := args[0]
			remote := filepath.Base(local)
			if len(args) == 2 {
				remote = args[1]
			}

			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			return errors.Wrapf(client.StoreFrom(remote, local), "put %s", local)
		},
	}
}

// replyCmd builds a one-argument command that prints the server reply.
func (a *app) replyCmd(use, short string, op func(*miniftp.Client, string) (*miniftp.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			resp, err := op(client, args[0])
			if err != nil {
				return errors.Wrap(err, cmd.Name())
			}
			_, err = fmt.Fprintln(a.out, resp.Message)
			return err
		},
	}
}

func (a *app) mkdirCmd() *cobra.Command {
	return a.replyCmd("mkdir remote_dir", "Create a remote directory", (*miniftp.Client).MakeDir)
}

func (a *app) rmdirCmd() *cobra.Command {
	return a.replyCmd("rmdir remote_dir", "Remove a remote directory", (*miniftp.Client).RemoveDir)
}

func (a *app) rmCmd() *cobra.Command {
	return a.replyCmd("rm remote_file", "Delete a remote file", (*miniftp.Client).Delete)
}

func (a *app) mvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv from to",
		Short: "Rename a remote file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			resp, err := client.Rename(args[0], args[1])
			if err != nil {
				return errors.Wrapf(err, "rename %s", args[0])
			}
			_, err = fmt.Fprintln(a.out, resp.Message)
			return err
		},
	}
}

func (a *app) pwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the remote working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.session()
			if err != nil {
				return err
			}
			defer func() { _ = client.Quit() }()

			dir, err := client.CurrentDir()
			if err != nil {
				return errors.Wrap(err, "pwd")
			}
			_, err = fmt.Fprintln(a.out, dir)
			return err
		},
	}
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile file",
		Short: "Write the effective settings to a YAML profile",
		Long: `Write the effective settings (defaults, --config, flags) to a YAML
profile that can be passed back with --config. The password is not saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile()
			if err != nil {
				return errors.Wrap(err, "configuration")
			}
			p.Password = ""
			return p.Save(args[0])
		},
	}
}
