package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/dockbook/internal/api"
	"github.com/julianstephens/dockbook/internal/backup"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/emulator"
	apperrors "github.com/julianstephens/dockbook/internal/errors"
	"github.com/julianstephens/dockbook/internal/session"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.printf("Running diagnostics...\n\n")

	hasError := false
	fail := func(name string, err error) {
		ctx.printf("❌ %s: FAIL\n", name)
		ctx.printf("   Error: %v\n", err)
		hasError = true
	}

	// Check 1: configuration
	if err := ctx.Config.Validate(); err != nil {
		fail("Configuration", err)
	} else {
		ctx.printf("✓ Configuration: OK\n")
	}

	// Check 2: session store reachable
	storeOK := true
	if err := checkSessionStore(ctx); err != nil {
		fail("Session store", err)
		storeOK = false
	} else {
		ctx.printf("✓ Session store (%s): OK\n", backendName(ctx))
	}

	// Check 3: service reachable and session valid (warning only when logged out)
	if storeOK {
		switch u, err := ctx.API.Verify(ctx.Ctx); {
		case err == nil:
			ctx.printf("✓ Appointment service: OK (logged in as %s)\n", u.Email)
		case apperrors.Is(err, api.ErrUnauthorized):
			ctx.printf("⚠ Appointment service: WARNING\n")
			ctx.printf("   not logged in - run 'dockbook login'\n")
		default:
			fail("Appointment service", err)
		}
	} else {
		ctx.printf("⊘ Appointment service: SKIPPED (session store not reachable)\n")
	}

	// Check 4: emulator schema, only for a file-backed database
	if path := ctx.Config.Emulator.DBPath; path != "" && path != constants.DefaultEmulatorDBPath {
		if err := checkEmulatorSchema(ctx, path); err != nil {
			ctx.printf("⚠ Emulator schema: WARNING\n")
			ctx.printf("   %v\n", err)
		} else {
			ctx.printf("✓ Emulator schema: OK\n")
		}

		// Check 5: emulator snapshots (warning only)
		if err := checkSnapshotsPresent(path); err != nil {
			ctx.printf("⚠ Emulator snapshots: WARNING\n")
			ctx.printf("   %v\n", err)
		} else {
			ctx.printf("✓ Emulator snapshots: OK\n")
		}
	}

	// Check 6: clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		fail("Clock/timezone", err)
	} else {
		ctx.printf("✓ Clock/timezone: OK\n")
	}

	ctx.printf("\n")
	if hasError {
		ctx.printf("Diagnostics completed with errors.\n")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.printf("All diagnostics passed!\n")
	return nil
}

func backendName(ctx *Context) string {
	if ctx.Config.Session.Backend == "" {
		return constants.DefaultSessionBackend
	}
	return ctx.Config.Session.Backend
}

func checkSessionStore(ctx *Context) error {
	_, err := ctx.Session.Get(ctx.Ctx, constants.KeyringTokenUser)
	if err != nil && !apperrors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

func checkEmulatorSchema(ctx *Context, path string) error {
	current, latest, err := emulator.SchemaStatus(ctx.Ctx, path)
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d - run 'dockbook emulate' once", current, latest)
	}
	return nil
}

func checkSnapshotsPresent(path string) error {
	snaps, err := backup.NewManager(path).List()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no snapshots found in %s", backup.NewManager(path).Dir())
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	if loc == time.UTC {
		ctx.printf("   Note: schedule timezone is UTC\n")
	}
	return nil
}
