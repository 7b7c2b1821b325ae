package ui

import "time"

// DefaultActionableTimeout bounds how long we wait for an element to
// become clickable before giving up.
const DefaultActionableTimeout = 10 * time.Second

// Surface is the capability set the core needs from an interactive UI.
// Element references returned by Find/FindAll are valid only until the
// next navigation or pagination on the surface; callers must re-resolve
// instead of retaining them.
type Surface interface {
	NavigateTo(url string) error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	WaitActionable(el Element, timeout time.Duration) error
	SendEscape() error

	// OpenNewView opens an additional view sharing the same session and
	// returns its index. View 0 is the initial view.
	OpenNewView() (int, error)
	SwitchToView(index int) error
}

// Element is a live reference to a rendered element.
type Element interface {
	Click() error
	TypeText(text string) error
	PressEnter() error
	ReadAttribute(name string) (string, error)
	ReadText() (string, error)
	FindAll(selector string) ([]Element, error)
}
