package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	"vdir/internal/host"
)

// showNoticeDialog pops a modal for a notification severe enough to
// interrupt; lesser severities stay on the status line only.
func showNoticeDialog(parent fyne.Window, severity host.Severity, msg string) {
	title := "Notice"
	if severity == host.SeverityError {
		title = "Error"
	}
	dialog.NewInformation(title, msg, parent).Show()
}
