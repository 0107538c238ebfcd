package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/julianstephens/dockbook/internal/backup"
	"github.com/julianstephens/dockbook/internal/calendar"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/emulator"
	"github.com/julianstephens/dockbook/internal/logger"
)

type EmulateCmd struct {
	Addr    string `help:"Listen address. Defaults to emulator.addr from the config."`
	DB      string `name:"db" help:"SQLite database path, ':memory:' for a throwaway one. Defaults to emulator.db_path from the config."`
	Restore string `help:"Restore the database from this snapshot before starting." type:"path"`
}

func (c *EmulateCmd) Run(ctx *Context) error {
	addr := firstNonEmpty(c.Addr, ctx.Config.Emulator.Addr, constants.DefaultEmulatorAddr)
	path := firstNonEmpty(c.DB, ctx.Config.Emulator.DBPath, constants.DefaultEmulatorDBPath)

	runCtx, stop := signal.NotifyContext(ctx.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if path != constants.DefaultEmulatorDBPath {
		if err := prepareDatabase(ctx, path, c.Restore); err != nil {
			return err
		}
	} else if c.Restore != "" {
		return fmt.Errorf("--restore needs a file database (--db)")
	}

	store, err := emulator.OpenStore(runCtx, path)
	if err != nil {
		return err
	}
	defer store.Close()

	sched := ctx.Config.Schedule
	srv := emulator.NewServer(store, emulator.Options{
		Interval: sched.SlotIntervalMinutes,
		Open:     calendar.MustParseTime(sched.BookingOpen),
		Close:    calendar.MustParseTime(sched.BookingClose),
		Location: ctx.location(),
		Now:      ctx.Now,
	})

	logger.Info("Starting emulator", "db", path)
	return srv.ListenAndServe(runCtx, addr, func(bound string) {
		ctx.printf("Emulating the appointment service on http://%s/api\n", bound)
		ctx.printf("Log in with supplier@dockbook.test / password (Ctrl+C to stop)\n")
	})
}

// prepareDatabase restores a snapshot when asked, and snapshots an existing
// database before it is migrated.
func prepareDatabase(ctx *Context, path, restore string) error {
	mgr := backup.NewManager(path)
	if restore != "" {
		if err := mgr.Restore(restore); err != nil {
			return err
		}
		ctx.printf("✓ Restored %s from %s\n", path, restore)
	}

	current, latest, err := emulator.SchemaStatus(ctx.Ctx, path)
	if err != nil || current == 0 || current >= latest {
		// missing, fresh or current: nothing worth saving
		return nil
	}
	snap, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("failed to snapshot database before migrating: %w", err)
	}
	ctx.printf("Saved %s before migrating schema %d to %d\n", snap, current, latest)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
