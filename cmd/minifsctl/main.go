// Command minifsctl drives a minifs image from the shell: create, copy
// files in and out, list and remove directories, exactly the surface area
// described in spec.md §8's walkthrough scenarios.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/diskfs/minifs"
)

var imageFlag = &cli.StringFlag{
	Name:     "image",
	Aliases:  []string{"i"},
	Required: true,
	Usage:    "path to the minifs image file (created if missing)",
}

func bootFromCtx(c *cli.Context) (*minifs.FileSystem, error) {
	return minifs.Boot(c.String("image"), nil, minifs.WithLogger(logrus.WithField("cmd", "minifsctl")))
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "minifsctl",
		Usage: "inspect and manipulate a minifs image",
		Commands: []*cli.Command{
			mkdirCmd,
			lsCmd,
			rmdirCmd,
			putCmd,
			getCmd,
			rmCmd,
		},
	}
}

func main() {
	os.Exit(run())
}

// run is the CLI's entrypoint, factored out of main so it can also be
// registered as an in-process binary for the testscript harness in
// main_test.go (spec.md §8's S1-S3 and S5 walkthroughs, exercised against
// the thin CLI surface rather than the library directly).
func run() int {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "minifsctl:", err)
		return 1
	}
	return 0
}

var mkdirCmd = &cli.Command{
	Name:      "mkdir",
	Usage:     "create a directory",
	ArgsUsage: "PATH",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		if ferr := fs.DirCreate(c.Args().First()); ferr != nil {
			return ferr
		}
		return fs.Sync()
	},
}

var rmdirCmd = &cli.Command{
	Name:      "rmdir",
	Usage:     "remove an empty directory",
	ArgsUsage: "PATH",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		if ferr := fs.DirUnlink(c.Args().First()); ferr != nil {
			return ferr
		}
		return fs.Sync()
	},
}

var lsCmd = &cli.Command{
	Name:      "ls",
	Usage:     "list a directory's entries",
	ArgsUsage: "PATH",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		names, ferr := fs.ReadDir(c.Args().First())
		if ferr != nil {
			return ferr
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var rmCmd = &cli.Command{
	Name:      "rm",
	Usage:     "remove a file",
	ArgsUsage: "PATH",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		if ferr := fs.FileUnlink(c.Args().First()); ferr != nil {
			return ferr
		}
		return fs.Sync()
	},
}

var putCmd = &cli.Command{
	Name:      "put",
	Usage:     "copy a local file into the image",
	ArgsUsage: "LOCAL-SRC DEST-PATH",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("put requires LOCAL-SRC and DEST-PATH", 1)
		}
		src, err := os.Open(c.Args().Get(0))
		if err != nil {
			return err
		}
		defer src.Close()

		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		dest := c.Args().Get(1)
		if ferr := fs.FileCreate(dest); ferr != nil {
			return ferr
		}
		fd, ferr := fs.FileOpen(dest)
		if ferr != nil {
			return ferr
		}
		defer fs.FileClose(fd)

		buf := make([]byte, 4096)
		for {
			n, rerr := src.Read(buf)
			if n > 0 {
				if _, werr := fs.FileWrite(fd, buf[:n]); werr != nil {
					return werr
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
		return fs.Sync()
	},
}

var getCmd = &cli.Command{
	Name:      "get",
	Usage:     "copy a file out of the image",
	ArgsUsage: "SRC-PATH LOCAL-DEST",
	Flags:     []cli.Flag{imageFlag},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("get requires SRC-PATH and LOCAL-DEST", 1)
		}
		fs, err := bootFromCtx(c)
		if err != nil {
			return err
		}
		fd, ferr := fs.FileOpen(c.Args().Get(0))
		if ferr != nil {
			return ferr
		}
		defer fs.FileClose(fd)

		dst, err := os.Create(c.Args().Get(1))
		if err != nil {
			return err
		}
		defer dst.Close()

		buf := make([]byte, 4096)
		for {
			n, ferr := fs.FileRead(fd, buf)
			if n > 0 {
				if _, err := dst.Write(buf[:n]); err != nil {
					return err
				}
			}
			if ferr != nil {
				return ferr
			}
			if n == 0 {
				break
			}
		}
		return nil
	},
}
