// Package gridaccess provides the concrete grid accessor strategies: a
// live Chrome-driven accessor (rod) and an offline HTML-snapshot accessor
// (snapshot).
package gridaccess

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/codenarok/SteamGameFetcher/internal/config"
	"github.com/codenarok/SteamGameFetcher/internal/grid"
)

// RodAccessor drives the live compatibility grid through a Chrome page.
// The page is exclusively owned by one extraction or resolution operation
// at a time.
type RodAccessor struct {
	cfg     config.GridConfig
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
	logger  *slog.Logger
}

var _ grid.Accessor = (*RodAccessor)(nil)

// NewRod launches Chrome (or attaches to a running instance over CDP when
// RemoteURL is set), opens a stealth page on the grid URL, and waits out
// the configured manual-login window.
func NewRod(ctx context.Context, cfg config.GridConfig, logger *slog.Logger, console *log.Logger) (*RodAccessor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &RodAccessor{cfg: cfg, logger: logger}

	var controlURL string
	if cfg.RemoteURL != "" {
		u, err := launcher.ResolveURL(cfg.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("resolve remote browser %s: %w", cfg.RemoteURL, err)
		}
		controlURL = u
		logger.Info("attaching to running browser", "url", cfg.RemoteURL)
	} else {
		// Headful so the operator can clear login/anti-bot challenges.
		a.lnch = launcher.New().Headless(false)
		u, err := a.lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	a.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := a.browser.Connect(); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(a.browser)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("open stealth page: %w", err)
	}
	a.page = page

	if console != nil {
		go page.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
			for _, arg := range e.Args {
				console.Println(arg.Value.Str())
			}
		})()
	}

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(cfg.URL); err != nil {
		a.cleanup()
		return nil, fmt.Errorf("navigate %s: %w", cfg.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("wait load timeout", "url", cfg.URL, "error", err)
	}

	if cfg.LoginWait > 0 {
		logger.Info("waiting for manual login/challenge", "wait", cfg.LoginWait)
		if err := sleep(ctx, cfg.LoginWait); err != nil {
			a.cleanup()
			return nil, err
		}
	}

	return a, nil
}

// WaitReady blocks until the grid container and the filter input are both
// present. A timeout here is fatal to the session.
func (a *RodAccessor) WaitReady(ctx context.Context) error {
	p := a.page.Context(ctx).Timeout(a.cfg.ReadyTimeout)
	if _, err := p.Element(a.cfg.GridSelector); err != nil {
		return fmt.Errorf("grid container %q not found: %w", a.cfg.GridSelector, err)
	}
	if _, err := p.Element(a.cfg.FilterSelector); err != nil {
		return fmt.Errorf("filter input %q not found: %w", a.cfg.FilterSelector, err)
	}
	a.logger.Info("grid and filter input ready")
	return nil
}

// SetFilter replaces the filter term and sleeps the settle delay; the grid
// gives no explicit "filtering complete" signal.
func (a *RodAccessor) SetFilter(ctx context.Context, text string) error {
	el, err := a.page.Context(ctx).Timeout(a.cfg.ReadyTimeout).Element(a.cfg.FilterSelector)
	if err != nil {
		return fmt.Errorf("locate filter input: %w", err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select filter text: %w", err)
	}
	if text == "" {
		if err := el.Type(input.Backspace); err != nil {
			return fmt.Errorf("clear filter: %w", err)
		}
	} else if err := el.Input(text); err != nil {
		return fmt.Errorf("type filter term: %w", err)
	}
	return sleep(ctx, a.cfg.SettleWait)
}

// Rows enumerates the currently rendered window. Ordinal and style tokens
// are read eagerly per row; cell text is read lazily.
func (a *RodAccessor) Rows(ctx context.Context) ([]grid.RenderedRow, error) {
	els, err := a.page.Context(ctx).Elements(a.cfg.RowSelector)
	if err != nil {
		return nil, fmt.Errorf("query rows %q: %w", a.cfg.RowSelector, err)
	}

	rows := make([]grid.RenderedRow, 0, len(els))
	for _, el := range els {
		row := &rodRow{el: el, cellSelector: a.cfg.CellSelector}
		if attr, err := el.Attribute("aria-rowindex"); err == nil && attr != nil {
			if n, err := strconv.Atoi(strings.TrimSpace(*attr)); err == nil && n > 0 {
				row.ordinal, row.hasOrdinal = n, true
			}
		}
		if attr, err := el.Attribute("class"); err == nil && attr != nil {
			row.tokens = strings.Fields(*attr)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Scroll moves the grid container's viewport down and waits the scroll
// interval for the virtualized rows to re-render.
func (a *RodAccessor) Scroll(ctx context.Context, amount int) error {
	el, err := a.page.Context(ctx).Timeout(a.cfg.ReadyTimeout).Element(a.cfg.GridSelector)
	if err != nil {
		return fmt.Errorf("grid container not found during scroll: %w", err)
	}
	if _, err := el.Eval(`(amount) => this.scrollBy(0, amount)`, amount); err != nil {
		return fmt.Errorf("scroll grid: %w", err)
	}
	return sleep(ctx, a.cfg.ScrollWait)
}

// Close releases the page and the browser connection. A launched browser
// is terminated; an attached one is left running.
func (a *RodAccessor) Close() error {
	a.cleanup()
	return nil
}

func (a *RodAccessor) cleanup() {
	if a.page != nil {
		_ = a.page.Close()
		a.page = nil
	}
	if a.browser != nil {
		_ = a.browser.Close()
		a.browser = nil
	}
	if a.lnch != nil {
		a.lnch.Cleanup()
		a.lnch = nil
	}
}

type rodRow struct {
	el           *rod.Element
	cellSelector string
	ordinal      int
	hasOrdinal   bool
	tokens       []string
}

func (r *rodRow) Ordinal() (int, bool) { return r.ordinal, r.hasOrdinal }

func (r *rodRow) StyleTokens() []string { return r.tokens }

func (r *rodRow) Cells(ctx context.Context) ([]string, error) {
	els, err := r.el.Elements(r.cellSelector)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	cells := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("read cell %d: %w", len(cells), err)
		}
		cells = append(cells, strings.TrimSpace(text))
	}
	return cells, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
