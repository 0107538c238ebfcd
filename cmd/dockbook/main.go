package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dockbook/internal/cli"
	"github.com/julianstephens/dockbook/internal/config"
	"github.com/julianstephens/dockbook/internal/constants"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/dockbook/config.yaml"`
	Debug   bool   `help:"Enable debug logging."`

	Tui        cli.TuiCmd        `cmd:"" help:"Launch the interactive week dashboard." default:"1"`
	Login      cli.LoginCmd      `cmd:"" help:"Log in to the appointment service."`
	Logout     cli.LogoutCmd     `cmd:"" help:"Forget the stored session."`
	Whoami     cli.WhoamiCmd     `cmd:"" help:"Show the logged in user."`
	Week       cli.WeekCmd       `cmd:"" help:"Show the slot grid of a week."`
	Book       cli.BookCmd       `cmd:"" help:"Book a free slot."`
	Reschedule cli.RescheduleCmd `cmd:"" help:"Edit or move one of your appointments."`
	Cancel     cli.CancelCmd     `cmd:"" help:"Cancel one of your appointments."`
	Emulate    cli.EmulateCmd    `cmd:"" help:"Run a local emulator of the appointment service."`
	Doctor     cli.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Dock appointment booking for suppliers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Debug,
		ConfigDir: filepath.Dir(CLI.Config),
		Quiet:     ctx.Command() == "tui",
	}); err != nil {
		apperrors.Fatal(fmt.Errorf("failed to initialize logger: %w", err))
	}

	appCtx, err := cli.NewContext(context.Background(), cfg, CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	apperrors.Fatal(ctx.Run(appCtx))
}
