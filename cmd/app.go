package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/config"
	"github.com/maprix/maprix/internal/connectivity"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app is the per-invocation wiring of the operator client.
type app struct {
	store   *store.Store
	client  *apiclient.Client
	monitor *connectivity.Monitor
	ctrl    *operator.Controller
}

// appOptions tune openApp for a command.
type appOptions struct {
	prompter operator.Prompter
	probe    bool
}

// newClient builds the API client from --server or the configured URL.
func newClient(cmd *cobra.Command) *apiclient.Client {
	url, _ := cmd.Flags().GetString("server")
	if url == "" {
		url = config.GetServerURL()
	}
	return apiclient.New(url)
}

// newLocator returns the configured position source.
func newLocator() geo.Locator {
	ls := config.GetLocator()
	if ls.Kind == config.LocatorGPSD {
		return geo.GPSD{Addr: ls.GPSDAddr}
	}
	return geo.Fixed{Latitude: ls.Latitude, Longitude: ls.Longitude}
}

// openApp opens the local store and builds the controller. With probe set,
// the server is checked once so offline captures skip the network.
func openApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (*app, error) {
	st, err := store.Open(getBaseDir())
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client := newClient(cmd)
	mon := connectivity.New(client)
	offline, _ := cmd.Flags().GetBool("offline")
	mon.PinOffline(offline || config.IsOffline())
	if opts.probe {
		mon.Probe(ctx)
	}

	ctrl := operator.New(operator.Options{
		Store:      st,
		API:        client,
		Monitor:    mon,
		Locator:    newLocator(),
		GPSTimeout: config.GetGPSTimeout(),
		Prompter:   opts.prompter,
	})
	return &app{store: st, client: client, monitor: mon, ctrl: ctrl}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// isInteractive reports whether stdin is a terminal a form can run on.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmPrompter asks on the terminal before registering unknown equipment.
type confirmPrompter struct {
	assumeYes bool
}

func (p confirmPrompter) ConfirmRegister(ctx context.Context, equipment string, suggestions []string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}
	if !isInteractive() {
		return false, nil
	}

	desc := "It will be registered without a type, so no checklist applies."
	if len(suggestions) > 0 {
		desc = "Similar registered equipment: " + strings.Join(suggestions, ", ") + "\n" + desc
	}
	ok := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Equipment %q is not registered. Register it now?", equipment)).
			Description(desc).
			Affirmative("Register").
			Negative("Continue without").
			Value(&ok),
	)).WithTheme(huh.ThemeDracula())
	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return ok, nil
}
