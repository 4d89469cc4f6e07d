package ui

import (
	"errors"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"vdir/internal/secret"
)

// LoginPrompt asks the user for share credentials via a modal form.
type LoginPrompt struct {
	parent fyne.Window
}

func NewLoginPrompt(parent fyne.Window) *LoginPrompt {
	return &LoginPrompt{parent: parent}
}

// Get blocks until the user submits or cancels the form. persist
// reports whether the credentials should be written to the keyring.
func (p *LoginPrompt) Get(host, share string) (creds secret.Credentials, persist bool, err error) {
	var mu sync.Mutex
	done := make(chan struct{})

	fyne.Do(func() {
		userEntry := widget.NewEntry()
		passEntry := widget.NewPasswordEntry()
		domainEntry := widget.NewEntry()
		saveCheck := widget.NewCheck("Remember on this machine (keyring)", nil)
		userEntry.SetPlaceHolder("username")
		domainEntry.SetPlaceHolder("domain (optional)")

		form := dialog.NewForm(
			"Login: "+host+"/"+share,
			"Login",
			"Cancel",
			[]*widget.FormItem{
				widget.NewFormItem("Domain", domainEntry),
				widget.NewFormItem("Username", userEntry),
				widget.NewFormItem("Password", passEntry),
				widget.NewFormItem("", saveCheck),
			},
			func(ok bool) {
				defer close(done)
				mu.Lock()
				defer mu.Unlock()
				if !ok {
					err = errors.New("login cancelled")
					return
				}
				creds = secret.Credentials{
					Domain: domainEntry.Text,
					User:   userEntry.Text,
					Pass:   passEntry.Text,
				}
				persist = saveCheck.Checked
			},
			p.parent,
		)
		form.Resize(fyne.NewSize(420, 200))
		form.Show()
	})

	<-done
	mu.Lock()
	defer mu.Unlock()
	return creds, persist, err
}
