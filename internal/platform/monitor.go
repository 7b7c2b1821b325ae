package platform

import (
	"fmt"

	"github.com/example/dfg-downloader/internal/download"
)

// TransferMonitor reads the browser's own download list from a second
// view of the shared session. The calendar view and the monitor view
// are independently addressable, but focus is exclusive: every read
// switches to the monitor and back.
type TransferMonitor struct {
	portal *Portal
}

// OpenMonitor opens the transfer monitor in a new view and returns
// focus to the portal page. It is called once per run, before the
// first block is submitted.
func (p *Portal) OpenMonitor() (*TransferMonitor, error) {
	if p.monitorView >= 0 {
		return &TransferMonitor{portal: p}, nil
	}
	idx, err := p.surface.OpenNewView()
	if err != nil {
		return nil, fmt.Errorf("open monitor view: %w", err)
	}
	if err := p.surface.SwitchToView(idx); err != nil {
		return nil, err
	}
	if err := p.surface.NavigateTo(monitorURL); err != nil {
		return nil, err
	}
	if err := p.surface.SwitchToView(p.calendarView); err != nil {
		return nil, err
	}
	p.monitorView = idx
	return &TransferMonitor{portal: p}, nil
}

// Transfers snapshots the monitor's transfer rows. A row without a
// state attribute is still in progress.
func (m *TransferMonitor) Transfers() ([]download.Transfer, error) {
	p := m.portal
	if err := p.surface.SwitchToView(p.monitorView); err != nil {
		return nil, err
	}
	defer p.surface.SwitchToView(p.calendarView)

	rows, err := p.surface.FindAll(selTransferRow)
	if err != nil {
		return nil, fmt.Errorf("transfer rows: %w", err)
	}
	out := make([]download.Transfer, 0, len(rows))
	for _, row := range rows {
		state, err := row.ReadAttribute("state")
		if err != nil {
			return nil, fmt.Errorf("transfer state: %w", err)
		}
		id, _ := row.ReadAttribute("id")
		out = append(out, download.Transfer{ID: id, State: state})
	}
	return out, nil
}
