package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/example/dfg-downloader/internal/ui"
)

// Options configures the browser session.
type Options struct {
	Headless    bool
	DownloadDir string
}

// Session drives a single Firefox instance through playwright and
// implements ui.Surface. All views share one browser context, so login
// state and cookies carry across them.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	pages   []playwright.Page
	current int
}

func NewSession(opts Options) (*Session, error) {
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"firefox"},
		Verbose:  false,
	}); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	b, err := pw.Firefox.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		FirefoxUserPrefs: map[string]interface{}{
			"browser.download.folderList":               2,
			"browser.download.dir":                      opts.DownloadDir,
			"browser.download.manager.showWhenStarting": false,
			"browser.helperApps.neverAsk.saveToDisk":    "application/zip",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch firefox: %w", err)
	}

	ctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}

	return &Session{
		pw:      pw,
		browser: b,
		context: ctx,
		pages:   []playwright.Page{page},
	}, nil
}

func (s *Session) Close() error {
	for _, p := range s.pages {
		p.Close()
	}
	s.context.Close()
	s.browser.Close()
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}

func (s *Session) page() playwright.Page {
	return s.pages[s.current]
}

func (s *Session) NavigateTo(url string) error {
	_, err := s.page().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Find(selector string) (ui.Element, error) {
	return &element{loc: s.page().Locator(selector).First()}, nil
}

func (s *Session) FindAll(selector string) ([]ui.Element, error) {
	locs, err := s.page().Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	out := make([]ui.Element, 0, len(locs))
	for _, l := range locs {
		out = append(out, &element{loc: l})
	}
	return out, nil
}

// WaitActionable waits until the element is both visible and enabled.
// Visibility alone is not enough: day cells and dialog buttons render
// disabled before the portal is ready to take the click.
func (s *Session) WaitActionable(el ui.Element, timeout time.Duration) error {
	e, ok := el.(*element)
	if !ok {
		return fmt.Errorf("element does not belong to this surface")
	}
	deadline := time.Now().Add(timeout)
	err := e.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("wait for element: %w", err)
	}
	probe := func() (bool, error) { return e.loc.IsEnabled() }
	if err := pollEnabled(probe, deadline, 100*time.Millisecond); err != nil {
		return fmt.Errorf("wait for element: %w", err)
	}
	return nil
}

// pollEnabled polls probe until it reports true or deadline passes.
func pollEnabled(probe func() (bool, error), deadline time.Time, interval time.Duration) error {
	for {
		enabled, err := probe()
		if err != nil {
			return err
		}
		if enabled {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("element did not become enabled")
		}
		time.Sleep(interval)
	}
}

func (s *Session) SendEscape() error {
	return s.page().Keyboard().Press("Escape")
}

func (s *Session) OpenNewView() (int, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return 0, fmt.Errorf("open view: %w", err)
	}
	s.pages = append(s.pages, page)
	return len(s.pages) - 1, nil
}

func (s *Session) SwitchToView(index int) error {
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("no view with index %d", index)
	}
	s.current = index
	return s.pages[index].BringToFront()
}

type element struct {
	loc playwright.Locator
}

func (e *element) Click() error {
	return e.loc.Click()
}

func (e *element) TypeText(text string) error {
	return e.loc.Fill(text)
}

func (e *element) PressEnter() error {
	return e.loc.Press("Enter")
}

func (e *element) ReadAttribute(name string) (string, error) {
	v, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", err
	}
	return v, nil
}

func (e *element) ReadText() (string, error) {
	return e.loc.TextContent()
}

func (e *element) FindAll(selector string) ([]ui.Element, error) {
	locs, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	out := make([]ui.Element, 0, len(locs))
	for _, l := range locs {
		out = append(out, &element{loc: l})
	}
	return out, nil
}
