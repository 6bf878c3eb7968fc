// Package ui renders the live query dashboard of "pkresolve monitor --ui".
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go-pkresolve/service"
	"go-pkresolve/stats"
	"go-pkresolve/util"
)

// MonitorUI shows database counts and query statistics of a server.
type MonitorUI struct {
	app         *tview.Application
	screen      tcell.Screen // Optional injected screen (for testing)
	headerText  *tview.TextView
	queriesText *tview.TextView
	opsText     *tview.TextView
	layout      *tview.Flex
	mu          sync.Mutex
	stopped     bool
	onInterrupt func()
}

// NewMonitorUI creates a dashboard. Start must be called before updates
// are shown.
func NewMonitorUI() *MonitorUI {
	return &MonitorUI{}
}

// SetScreen injects a custom tcell.Screen. Must be called before Start.
func (ui *MonitorUI) SetScreen(screen tcell.Screen) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.screen = screen
}

// SetInterruptHandler sets the callback run when q or Ctrl+C is pressed.
func (ui *MonitorUI) SetInterruptHandler(handler func()) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.onInterrupt = handler
}

func (ui *MonitorUI) interrupt() {
	ui.mu.Lock()
	handler := ui.onInterrupt
	ui.mu.Unlock()
	if handler != nil {
		go handler()
	}
}

// Start builds the layout and runs the application in the background.
func (ui *MonitorUI) Start() error {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	ui.app = tview.NewApplication()
	if ui.screen != nil {
		ui.app.SetScreen(ui.screen)
	}

	ui.headerText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.headerText.SetBorder(true).SetTitle(" Database ").SetTitleAlign(tview.AlignLeft)
	ui.headerText.SetText("[yellow]Waiting for server...[white]")

	ui.queriesText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.queriesText.SetBorder(true).SetTitle(" Queries ").SetTitleAlign(tview.AlignLeft)

	ui.opsText = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	ui.opsText.SetBorder(true).SetTitle(" By Operation ").SetTitleAlign(tview.AlignLeft)

	ui.layout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.headerText, 5, 0, false).
		AddItem(ui.queriesText, 6, 0, false).
		AddItem(ui.opsText, 0, 1, true)

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			ui.interrupt()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 3, 'q', 'Q': // 3 is Ctrl+C as ETX
				ui.interrupt()
				return nil
			}
		}
		return event
	})

	go func() {
		_ = ui.app.SetRoot(ui.layout, true).Run()
	}()

	// Give the UI a moment to initialize
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Stop shuts the application down. It is safe to call more than once.
func (ui *MonitorUI) Stop() {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.stopped {
		return
	}
	ui.stopped = true
	if ui.app != nil {
		ui.app.Stop()
	}
	time.Sleep(100 * time.Millisecond)
}

// Update redraws the dashboard from a server status.
func (ui *MonitorUI) Update(st service.StatusResult) {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.app == nil || ui.stopped {
		return
	}

	header := fmt.Sprintf("[yellow]Database:[white] %s (%s, schema %s)\n"+
		"[yellow]Installed:[white] %d  [yellow]Available:[white] %d  [yellow]Repositories:[white] %d\n"+
		"[yellow]Sets:[white] %s",
		st.DatabasePath, util.FormatBytes(st.DatabaseSize), st.SchemaVersion,
		st.Counts.Installed, st.Counts.Repository, st.Counts.Repos,
		strings.Join(st.Sets, ", "))

	q := st.Queries
	queries := fmt.Sprintf("[green]Queries:[white]     %5d   [red]Failed:[white] %d\n"+
		"[yellow]Item errors:[white] %5d   [green]Emitted:[white] %d\n"+
		"[yellow]Elapsed:[white] %s   [yellow]Avg latency:[white] %s",
		q.Queries, q.Failed, q.ItemErrors, q.Emitted,
		stats.FormatDuration(q.Elapsed), stats.AverageLatency(q).Round(time.Microsecond))

	var ops strings.Builder
	for _, op := range q.Ops() {
		fmt.Fprintf(&ops, "[cyan]%-20s[white] %d\n", op, q.ByOp[op])
	}

	borderColor := tcell.ColorWhite
	if q.Failed > 0 {
		borderColor = tcell.ColorYellow
	}

	ui.app.QueueUpdateDraw(func() {
		ui.headerText.SetText(header)
		ui.queriesText.SetText(queries)
		ui.queriesText.SetBorderColor(borderColor)
		ui.opsText.SetText(ops.String())
	})
}

// ShowError replaces the header with a connection error.
func (ui *MonitorUI) ShowError(err error) {
	ui.mu.Lock()
	defer ui.mu.Unlock()

	if ui.app == nil || ui.stopped {
		return
	}
	text := fmt.Sprintf("[red]Error reading status:[white] %v", err)
	ui.app.QueueUpdateDraw(func() {
		ui.headerText.SetText(text)
	})
}
