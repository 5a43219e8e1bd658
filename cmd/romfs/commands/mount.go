// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/romfsfuse"
)

type mountParams struct {
	globalParams
	AllowOther bool `flag:"allow-other" desc:"let other users read the mount (needs user_allow_other in /etc/fuse.conf)"`
}

func mountCommand() *cli.Command {
	var params mountParams

	return &cli.Command{
		Name:    "mount",
		Summary: "Mount an image read-only with FUSE",
		Description: `Mount an image, zip archive, or directory read-only at a mountpoint
and serve it until interrupted. File reads go straight to the image.`,
		Usage:  "romfs mount <image> <mountpoint> [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, 2, "romfs mount <image> <mountpoint>"); err != nil {
				return err
			}
			env, err := params.load("mount")
			if err != nil {
				return err
			}

			tree, closer, err := openTree(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			server, err := romfsfuse.Mount(romfsfuse.Options{
				Mountpoint: args[1],
				Root:       tree,
				FsName:     args[0],
				AllowOther: params.AllowOther,
				Logger:     env.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			env.logger.Info("unmounting", "mountpoint", args[1])
			return server.Unmount()
		},
		Examples: []cli.Example{
			{
				Description: "Browse an image",
				Command:     "romfs mount game.romfs /mnt/game",
			},
		},
	}
}
