package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dockbook/internal/models"
)

type LoginCmd struct {
	Email    string `help:"Account email. Prompted for when omitted."`
	Password string `help:"Account password. Prompted for when omitted." env:"DOCKBOOK_PASSWORD"`
}

func (c *LoginCmd) Run(ctx *Context) error {
	creds := models.Credentials{Email: strings.TrimSpace(c.Email), Password: c.Password}
	if creds.Email == "" || creds.Password == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Email").
					Value(&creds.Email),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&creds.Password),
			),
		).WithTheme(huh.ThemeDracula())
		if err := form.Run(); err != nil {
			return err
		}
	}

	resp, err := ctx.API.Login(ctx.Ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	ctx.printf("Logged in as %s (%s)\n", resp.User.Email, resp.User.Role)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	if err := ctx.API.Logout(ctx.Ctx); err != nil {
		return err
	}
	ctx.printf("Logged out\n")
	return nil
}

type WhoamiCmd struct {
	JSON bool `help:"Print the profile as JSON."`
}

func (c *WhoamiCmd) Run(ctx *Context) error {
	u, err := ctx.API.Verify(ctx.Ctx)
	if err != nil {
		return err
	}
	if c.JSON {
		return ctx.printJSON(u)
	}
	ctx.printf("%s (%s)\n", u.Email, u.Role)
	return nil
}
