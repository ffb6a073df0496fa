package console

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maprix/maprix/internal/operator"
)

// Run shows the console until the operator quits. Connectivity is probed
// every probeInterval and each transition is pushed into the program.
func Run(ctx context.Context, ctrl *operator.Controller, opts Options, probeInterval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))

	mon := ctrl.Monitor()
	mon.OnChange(func(online bool) {
		p.Send(OnlineMsg{Online: online})
	})
	if probeInterval > 0 {
		go mon.Watch(ctx, probeInterval)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
