// Package platform drives the Data for Good partner portal through a
// ui.Surface. It owns every selector of the portal markup; the
// scanner and the orchestrator only see the narrow interfaces this
// package implements.
package platform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/dfg-downloader/internal/calendar"
	"github.com/example/dfg-downloader/internal/ui"
)

// Portal markup selectors. Button labels are partly localized; they
// match what the portal actually renders for an Italian account.
const (
	selAllowCookies   = `xpath=//button[@title='Only allow essential cookies']`
	selVisitLogin     = `xpath=//a[text()='Log In']`
	selLoginEmail     = `#email`
	selLoginPass      = `#pass`
	selLoginButton    = `#loginbutton`
	selDiscontinued   = `xpath=//div[text()='Show discontinued datasets']`
	selSearchField    = `xpath=//input[@placeholder='Find datasets by name']`
	selTypeField      = `xpath=((//*[text()='Dataset type'])[1]//following::input)[1]`
	selOpenDownload   = `xpath=//a[text()='Scarica']`
	selOpenCalendar   = `xpath=(//div[text()='Intervallo di date']//following::span)[1]`
	selMonthHeader    = `xpath=//h2[contains(@id, 'js_')]`
	selDayCells       = `xpath=..//div[@role='button']`
	selPrevMonth      = `xpath=(//div[text()='Mese precedente']//following::div)[1]`
	selRefresh        = `xpath=//div[text()='Aggiorna']`
	selSubmitDownload = `xpath=//div[text()='Download files']`
	selTransferRow    = `.download`
)

const monitorURL = "about:downloads"

// StartURL builds the portal entry point for a partner.
func StartURL(partnerID string) string {
	return fmt.Sprintf("https://partners.facebook.com/data_for_good/data/?partner_id=%s", partnerID)
}

// Portal wraps one authenticated portal session. It implements
// calendar.View and the orchestrator's portal interface.
type Portal struct {
	surface ui.Surface

	calendarView int // view index of the portal page
	monitorView  int // view index of the transfer monitor, once opened
}

func New(s ui.Surface) *Portal {
	return &Portal{surface: s, monitorView: -1}
}

func (p *Portal) Open(partnerID string) error {
	return p.surface.NavigateTo(StartURL(partnerID))
}

func (p *Portal) waitAndClick(el ui.Element) error {
	if err := p.surface.WaitActionable(el, ui.DefaultActionableTimeout); err != nil {
		return err
	}
	return el.Click()
}

// AllowCookies dismisses the cookie consent dialog if it is shown.
// Its absence is a valid state, not an error.
func (p *Portal) AllowCookies() {
	els, err := p.surface.FindAll(selAllowCookies)
	if err != nil || len(els) == 0 {
		return
	}
	_ = p.waitAndClick(els[0])
}

// VisitLogin follows the login link from the landing page.
func (p *Portal) VisitLogin() error {
	el, err := p.surface.Find(selVisitLogin)
	if err != nil {
		return fmt.Errorf("login link: %w", err)
	}
	return p.waitAndClick(el)
}

// Login submits the account credentials.
func (p *Portal) Login(username, password string) error {
	email, err := p.surface.Find(selLoginEmail)
	if err != nil {
		return err
	}
	pass, err := p.surface.Find(selLoginPass)
	if err != nil {
		return err
	}
	btn, err := p.surface.Find(selLoginButton)
	if err != nil {
		return err
	}
	if err := email.TypeText(username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := pass.TypeText(password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	return btn.Click()
}

// FilterDatasets narrows the dataset list by search term and dataset
// type, optionally including discontinued datasets.
func (p *Portal) FilterDatasets(searchTerm, datasetType string, discontinued bool) error {
	// The filter widgets render a few seconds after the page settles.
	time.Sleep(5 * time.Second)

	search, err := p.surface.Find(selSearchField)
	if err != nil {
		return fmt.Errorf("search field: %w", err)
	}
	if err := p.surface.WaitActionable(search, ui.DefaultActionableTimeout); err != nil {
		return err
	}
	if err := search.TypeText(searchTerm); err != nil {
		return fmt.Errorf("fill search term: %w", err)
	}

	if discontinued {
		box, err := p.surface.Find(selDiscontinued)
		if err != nil {
			return fmt.Errorf("discontinued checkbox: %w", err)
		}
		if err := p.waitAndClick(box); err != nil {
			return err
		}
	}

	if datasetType != "" {
		field, err := p.surface.Find(selTypeField)
		if err != nil {
			return fmt.Errorf("dataset type field: %w", err)
		}
		if err := field.TypeText(datasetType); err != nil {
			return err
		}
		if err := field.PressEnter(); err != nil {
			return err
		}
	}
	return nil
}

// OpenDownloadDialog opens the download dialog from the search result.
func (p *Portal) OpenDownloadDialog() error {
	// Give the filtered result a moment to render.
	time.Sleep(time.Second)
	el, err := p.surface.Find(selOpenDownload)
	if err != nil {
		return fmt.Errorf("download link: %w", err)
	}
	return p.waitAndClick(el)
}

// OpenCalendar opens the date range panel inside the download dialog.
func (p *Portal) OpenCalendar() error {
	el, err := p.surface.Find(selOpenCalendar)
	if err != nil {
		return fmt.Errorf("calendar toggle: %w", err)
	}
	return p.waitAndClick(el)
}

// VisibleDates reads every day cell of the currently rendered calendar
// page. The month header id carries the month and year; each day cell
// holds the day number as text and its availability in aria-disabled.
func (p *Portal) VisibleDates() ([]calendar.DateAvailability, error) {
	headers, err := p.surface.FindAll(selMonthHeader)
	if err != nil {
		return nil, fmt.Errorf("month headers: %w", err)
	}

	var out []calendar.DateAvailability
	for _, h := range headers {
		id, err := h.ReadAttribute("id")
		if err != nil {
			return nil, fmt.Errorf("month header id: %w", err)
		}
		year, month, err := parseMonthHeaderID(id)
		if err != nil {
			return nil, err
		}

		cells, err := h.FindAll(selDayCells)
		if err != nil {
			return nil, fmt.Errorf("day cells for %s: %w", id, err)
		}
		for _, cell := range cells {
			text, err := cell.ReadText()
			if err != nil {
				return nil, fmt.Errorf("day cell text: %w", err)
			}
			day, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil {
				return nil, fmt.Errorf("day cell %q: %w", text, err)
			}
			disabled, err := cell.ReadAttribute("aria-disabled")
			if err != nil {
				return nil, fmt.Errorf("day cell aria-disabled: %w", err)
			}
			out = append(out, calendar.DateAvailability{
				Cell:      cell,
				Date:      calendar.Day(year, month, day),
				Available: disabled != "true",
			})
		}
	}
	return out, nil
}

// parseMonthHeaderID extracts month and year from a header id of the
// form "js_<seq>-<month>-<year>".
func parseMonthHeaderID(id string) (int, time.Month, error) {
	parts := strings.Split(id, "-")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("malformed month header id %q", id)
	}
	month, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("malformed month in header id %q", id)
	}
	year, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed year in header id %q", id)
	}
	return year, time.Month(month), nil
}

// PrevMonth moves the calendar view back by n months.
func (p *Portal) PrevMonth(n int) error {
	btn, err := p.surface.Find(selPrevMonth)
	if err != nil {
		return fmt.Errorf("previous month control: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := btn.Click(); err != nil {
			return fmt.Errorf("page back: %w", err)
		}
	}
	return nil
}

// Refresh applies the selected date range in the download dialog.
func (p *Portal) Refresh() error {
	el, err := p.surface.Find(selRefresh)
	if err != nil {
		return fmt.Errorf("refresh control: %w", err)
	}
	return p.waitAndClick(el)
}

// SubmitDownload triggers the file download for the applied range.
// Submitting closes the dialog and the calendar panel.
func (p *Portal) SubmitDownload() error {
	el, err := p.surface.Find(selSubmitDownload)
	if err != nil {
		return fmt.Errorf("download control: %w", err)
	}
	return p.waitAndClick(el)
}

// Escape sends an Escape key press, closing the topmost dialog.
func (p *Portal) Escape() error {
	return p.surface.SendEscape()
}
