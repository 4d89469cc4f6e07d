package ui

import "fyne.io/fyne/v2/widget"

// AddressEntry is the address bar input. It consumes Tab so that
// completing a path does not move keyboard focus out of the bar.
type AddressEntry struct {
	widget.Entry
}

// NewAddressEntry creates an empty address bar entry.
func NewAddressEntry() *AddressEntry {
	e := &AddressEntry{}
	e.ExtendBaseWidget(e)
	e.SetPlaceHolder("scheme://path")
	return e
}

// AcceptsTab marks the entry as fyne.Tabbable.
func (e *AddressEntry) AcceptsTab() bool { return true }
