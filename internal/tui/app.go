package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jfmyers9/jellyctl/pkg/jellyfin"
)

const maxRecentItems = 5

// Config holds TUI configuration options
type Config struct {
	RefreshRate time.Duration // How often to refresh the display
	Theme       string        // Color theme
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 500 * time.Millisecond,
		Theme:       "default",
	}
}

// Controller is the slice of the session service the keyboard shortcuts
// need. Commands target the currently selected session.
type Controller interface {
	Pause(ctx context.Context, sessionID string) error
	Unpause(ctx context.Context, sessionID string) error
	Stop(ctx context.Context, sessionID string) error
}

// SessionUpdate carries one poll result into the TUI.
type SessionUpdate struct {
	Sessions []jellyfin.SessionInfo
	Err      error
}

// RecentItem stores info about a recently played item
type RecentItem struct {
	Name     string
	Subtitle string
	PlayedAt time.Time
}

// App is the TUI application for watching server playback sessions
type App struct {
	app        *tview.Application
	nowPlaying *tview.TextView
	progress   *tview.TextView
	status     *tview.TextView
	sessions   *tview.TextView
	recent     *tview.TextView

	// Configuration
	config Config

	// Session controller for keyboard shortcuts
	controller Controller

	// Mutex protects shared state accessed by both the channel consumer
	// goroutine and the ticker goroutine in handleUpdates.
	mu sync.Mutex

	// Current state (guarded by mu)
	sessionList  []jellyfin.SessionInfo
	selected     int
	pendingCount int

	// Session stats (guarded by mu)
	viewStart   time.Time
	itemsPlayed int

	// Ring buffer for recent items (avoids allocation on every item change)
	recentBuf   [maxRecentItems]RecentItem
	recentCount int // total items added (recentCount % maxRecentItems = next write index)

	// Last now-playing item id per session, for change detection
	lastItemID map[string]string

	// Last-rendered content for change detection
	lastNowPlaying string
	lastProgress   string
	lastSessions   string
	lastRecent     string

	// Cached progress bar width to stabilize change detection.
	// Updated only when GetInnerRect returns a positive value.
	lastBarWidth int

	// Context cancel function
	cancelFunc context.CancelFunc
}

// New creates a new TUI application with default config
func New() *App {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new TUI application with the given config
func NewWithConfig(cfg Config) *App {
	a := &App{
		app:        tview.NewApplication(),
		config:     cfg,
		viewStart:  time.Now(),
		lastItemID: make(map[string]string),
	}
	a.setupUI()
	return a
}

// SetController sets the session controller for playback shortcuts
func (a *App) SetController(c Controller) {
	a.controller = c
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	// Now playing panel
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	// Progress bar
	a.progress = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.progress.SetBorder(true)

	// Sessions panel
	a.sessions = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.sessions.SetBorder(true).
		SetTitle(" Sessions ").
		SetTitleAlign(tview.AlignLeft)

	// Recent items
	a.recent = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.recent.SetBorder(true).
		SetTitle(" Recent ").
		SetTitleAlign(tview.AlignLeft)

	// Status bar
	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]q:quit  space:play/pause  s:stop  tab:next session[-]")

	// Create layout
	// Top row: now playing (takes most space)
	// Middle row: progress bar
	// Bottom row: sessions | recent items
	// Footer: status bar

	bottomRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.sessions, 0, 1, false).
		AddItem(a.recent, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.nowPlaying, 0, 3, false).
		AddItem(a.progress, 3, 1, false).
		AddItem(bottomRow, 7, 1, false).
		AddItem(a.status, 1, 1, false)

	// Handle keyboard input
	a.app.SetInputCapture(a.handleKeyEvent)

	a.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyTab {
		a.mu.Lock()
		if len(a.sessionList) > 0 {
			a.selected = (a.selected + 1) % len(a.sessionList)
		}
		a.mu.Unlock()
		return nil
	}

	switch event.Rune() {
	case 'q', 'Q':
		a.app.Stop()
		return nil
	case ' ':
		// Play/pause toggle for the selected session
		session, ok := a.selectedSession()
		if a.controller != nil && ok {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if session.PlayState != nil && session.PlayState.IsPaused {
				_ = a.controller.Unpause(ctx, session.ID)
			} else {
				_ = a.controller.Pause(ctx, session.ID)
			}
		}
		return nil
	case 's', 'S':
		// Stop playback on the selected session
		session, ok := a.selectedSession()
		if a.controller != nil && ok {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = a.controller.Stop(ctx, session.ID)
		}
		return nil
	}
	return event
}

// selectedSession returns a copy of the currently selected session.
func (a *App) selectedSession() (jellyfin.SessionInfo, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.selected < 0 || a.selected >= len(a.sessionList) {
		return jellyfin.SessionInfo{}, false
	}
	return a.sessionList[a.selected], true
}

// Run starts the TUI with a session update channel from the poller
func (a *App) Run(ctx context.Context, updates <-chan SessionUpdate) error {
	// Create cancellable context
	ctx, a.cancelFunc = context.WithCancel(ctx)

	// Start update goroutine
	go a.handleUpdates(ctx, updates)

	// Run application
	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// handleUpdates processes session updates and refreshes the display.
// It splits work into two goroutines: one consumes channel updates (state only),
// and a single ticker drives all redraws to prevent queued redraw buildup.
// All shared App fields are protected by a.mu.
func (a *App) handleUpdates(ctx context.Context, updates <-chan SessionUpdate) {
	// Channel consumer goroutine: updates session info but does NOT trigger
	// redraws. The ticker goroutine is the sole caller of refresh().
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update := <-updates:
				if update.Err != nil {
					continue
				}

				a.mu.Lock()
				a.recordItemChanges(update.Sessions)
				a.sessionList = update.Sessions
				if a.selected >= len(a.sessionList) {
					a.selected = 0
				}
				a.mu.Unlock()
			}
		}
	}()

	// Single refresh ticker: the only source of redraws
	refreshRate := a.config.RefreshRate
	if refreshRate <= 0 {
		refreshRate = 500 * time.Millisecond
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// recordItemChanges compares incoming sessions against the last seen
// now-playing item per session and records finished items in the recent
// list. Must be called with a.mu held.
func (a *App) recordItemChanges(sessions []jellyfin.SessionInfo) {
	seen := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		seen[s.ID] = true

		itemID := ""
		if s.NowPlayingItem != nil {
			itemID = s.NowPlayingItem.ID
		}
		last := a.lastItemID[s.ID]
		if last != "" && last != itemID {
			// The previous item finished or was replaced
			a.addToRecentItems(a.previousItem(s.ID))
			a.itemsPlayed++
		}
		if itemID == "" {
			delete(a.lastItemID, s.ID)
		} else {
			a.lastItemID[s.ID] = itemID
		}
	}
	for id := range a.lastItemID {
		if !seen[id] {
			delete(a.lastItemID, id)
		}
	}
}

// previousItem finds the item a session was playing in the stored list.
// Must be called with a.mu held.
func (a *App) previousItem(sessionID string) *jellyfin.Item {
	for _, s := range a.sessionList {
		if s.ID == sessionID {
			return s.NowPlayingItem
		}
	}
	return nil
}

// addToRecentItems adds an item to the ring buffer of recent items.
// Must be called with a.mu held.
func (a *App) addToRecentItems(item *jellyfin.Item) {
	if item == nil {
		return
	}

	// Write into ring buffer at the current position
	idx := a.recentCount % maxRecentItems
	a.recentBuf[idx] = RecentItem{
		Name:     item.Name,
		Subtitle: itemSubtitle(item),
		PlayedAt: time.Now(),
	}
	a.recentCount++
}

// getRecentItems returns recent items in most-recent-first order.
// Must be called with a.mu held.
func (a *App) getRecentItems() []RecentItem {
	n := a.recentCount
	if n > maxRecentItems {
		n = maxRecentItems
	}
	result := make([]RecentItem, n)
	for i := 0; i < n; i++ {
		// Walk backwards from the most recently written slot
		idx := (a.recentCount - 1 - i) % maxRecentItems
		result[i] = a.recentBuf[idx]
	}
	return result
}

// refresh updates all UI components
func (a *App) refresh() {
	a.app.QueueUpdateDraw(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.updateNowPlaying()
		a.updateProgress()
		a.updateSessions()
		a.updateRecentItems()
	})
}

// current returns the selected session. Must be called with a.mu held.
func (a *App) current() *jellyfin.SessionInfo {
	if a.selected < 0 || a.selected >= len(a.sessionList) {
		return nil
	}
	return &a.sessionList[a.selected]
}

// updateNowPlaying updates the now playing panel
func (a *App) updateNowPlaying() {
	var text string

	session := a.current()
	if session == nil || session.NowPlayingItem == nil {
		text = "\n\n[gray]Nothing playing[-]"
	} else {
		item := session.NowPlayingItem
		var sb strings.Builder
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(item.Name)))
		sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(itemSubtitle(item))))
		sb.WriteString(fmt.Sprintf("[gray]%s on %s[-]", tview.Escape(session.UserName), tview.Escape(session.DeviceName)))

		// Play state indicator
		stateIcon := "[green]▶[-]" // Play triangle
		if session.PlayState != nil && session.PlayState.IsPaused {
			stateIcon = "[yellow]⏸[-]" // Pause icon
		}
		sb.WriteString(fmt.Sprintf("\n\n%s", stateIcon))
		text = sb.String()
	}

	if text != a.lastNowPlaying {
		a.lastNowPlaying = text
		a.nowPlaying.SetText(text)
	}
}

// updateProgress updates the progress bar
func (a *App) updateProgress() {
	var text string

	session := a.current()
	if session == nil || session.NowPlayingItem == nil {
		text = ""
	} else {
		position := time.Duration(0)
		if session.PlayState != nil {
			position = ticksToDuration(session.PlayState.PositionTicks)
		}
		duration := ticksToDuration(session.NowPlayingItem.RunTimeTicks)

		_, _, width, _ := a.progress.GetInnerRect()
		barWidth := width - 14 // Account for time display
		// Only update cached width when GetInnerRect returns a positive value,
		// avoiding flicker from transient zero-width during layout.
		if barWidth > 0 {
			a.lastBarWidth = barWidth
		}
		if a.lastBarWidth < 10 {
			a.lastBarWidth = 10
		}

		progressBar := buildProgressBar(position, duration, a.lastBarWidth)
		posStr := formatDuration(position)
		durStr := formatDuration(duration)
		text = fmt.Sprintf("%s %s %s", posStr, progressBar, durStr)
	}

	if text != a.lastProgress {
		a.lastProgress = text
		a.progress.SetText(text)
	}
}

// updateSessions updates the sessions panel
func (a *App) updateSessions() {
	var sb strings.Builder

	if len(a.sessionList) == 0 {
		sb.WriteString("[gray]No sessions[-]\n\n")
	} else {
		for i, s := range a.sessionList {
			if i > 0 {
				sb.WriteString("\n")
			}
			marker := "  "
			if i == a.selected {
				marker = "[green]>[-] "
			}
			name := s.DeviceName
			if name == "" {
				name = s.Client
			}
			if len(name) > 18 {
				name = name[:15] + "..."
			}
			sb.WriteString(fmt.Sprintf("%s[white]%s[-]", marker, tview.Escape(name)))
			if s.PlayState != nil && s.PlayState.IsPaused {
				sb.WriteString(" [yellow](paused)[-]")
			}
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("Pending: %d\n", a.pendingCount))
	sb.WriteString(fmt.Sprintf("Watching: %s", formatDuration(time.Since(a.viewStart))))

	text := sb.String()
	if text != a.lastSessions {
		a.lastSessions = text
		a.sessions.SetText(text)
	}
}

// updateRecentItems updates the recent items panel
func (a *App) updateRecentItems() {
	var sb strings.Builder

	items := a.getRecentItems()
	if len(items) == 0 {
		sb.WriteString("[gray]No recent items[-]")
	} else {
		for i, item := range items {
			if i > 0 {
				sb.WriteString("\n")
			}

			// Truncate name if too long
			name := item.Name
			if len(name) > 20 {
				name = name[:17] + "..."
			}
			sb.WriteString(fmt.Sprintf("[white]%s[-]", tview.Escape(name)))
		}
	}

	text := sb.String()
	if text != a.lastRecent {
		a.lastRecent = text
		a.recent.SetText(text)
	}
}

// SetPendingCount updates the pending report count
func (a *App) SetPendingCount(count int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pendingCount = count
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

// itemSubtitle builds the secondary line for an item: series and episode
// for TV, artist for music, year for everything else.
func itemSubtitle(item *jellyfin.Item) string {
	switch {
	case item.SeriesName != "":
		if item.ParentIndexNumber != nil && item.IndexNumber != nil {
			return fmt.Sprintf("%s S%02dE%02d", item.SeriesName, *item.ParentIndexNumber, *item.IndexNumber)
		}
		return item.SeriesName
	case len(item.Artists) > 0:
		return strings.Join(item.Artists, ", ")
	case item.ProductionYear > 0:
		return fmt.Sprintf("%d", item.ProductionYear)
	default:
		return string(item.Type)
	}
}

// ticksToDuration converts server ticks (100ns units) to a duration.
func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * 100 * time.Nanosecond
}

// buildProgressBar creates a text-based progress bar
func buildProgressBar(position, duration time.Duration, width int) string {
	if duration == 0 || width <= 0 {
		return strings.Repeat("-", width)
	}

	progress := float64(position) / float64(duration)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	empty := width - filled

	bar := "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"

	return bar
}

// formatDuration formats a duration as MM:SS or HH:MM:SS for longer durations
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
