package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"vdir/internal/adapter"
	"vdir/internal/adapter/archive"
	"vdir/internal/adapter/local"
	"vdir/internal/adapter/smb"
	"vdir/internal/cache"
	"vdir/internal/config"
	"vdir/internal/constants"
	"vdir/internal/float"
	"vdir/internal/host"
	"vdir/internal/jobs"
	"vdir/internal/keymanager"
	"vdir/internal/lifecycle"
	"vdir/internal/mutate"
	"vdir/internal/nav"
	"vdir/internal/secret"
	customtheme "vdir/internal/theme"
	"vdir/internal/ui"
	"vdir/internal/url"
	"vdir/internal/view"
	"vdir/internal/watcher"
)

// Global debug flag
var debugMode bool

// debugPrint prints debug messages only when debug mode is enabled
func debugPrint(format string, args ...interface{}) {
	if debugMode {
		log.Printf("DEBUG: "+format, args...)
	}
}

// App wires the engine to the Fyne host and carries everything the
// per-window key handlers act on.
type App struct {
	cfg     *config.Config
	cfgMgr  *config.Manager
	fh      *ui.FyneHost
	ctrl    *lifecycle.Controller
	nav     *nav.Executor
	runner  *jobs.Manager
	watch   *watcher.Watcher
	smb     *smb.Adapter
	start   url.URL
	nFrames int
}

var _ keymanager.ViewActions = (*App)(nil)

func (a *App) GetCursorLine() int {
	w := a.fh.CurrentWindow()
	if w == nil {
		return 1
	}
	line, _ := w.Cursor()
	return line
}

func (a *App) SetCursorLine(line int) {
	if w := a.fh.CurrentWindow(); w != nil {
		w.SetCursor(line, 0)
	}
}

func (a *App) LineCount() int {
	w := a.fh.CurrentWindow()
	if w == nil {
		return 0
	}
	return w.Buffer().LineCount()
}

func (a *App) OpenUnderCursor() {
	if w := a.fh.CurrentWindow(); w != nil {
		line, _ := w.Cursor()
		a.nav.Select(w, nav.ModeReplace, line, line)
	}
}

func (a *App) OpenSelection(startLine, endLine int) {
	if w := a.fh.CurrentWindow(); w != nil {
		a.nav.Select(w, nav.ModeReplace, startLine, endLine)
	}
}

func (a *App) PreviewUnderCursor() {
	if w := a.fh.CurrentWindow(); w != nil {
		line, _ := w.Cursor()
		a.nav.Select(w, nav.ModePreview, line, line)
	}
}

func (a *App) OpenParent() {
	if w := a.fh.CurrentWindow(); w != nil {
		a.nav.Parent(w)
	}
}

func (a *App) OpenInSplit(vertical bool) {
	w := a.fh.CurrentWindow()
	if w == nil {
		return
	}
	mode := nav.ModeSplitH
	if vertical {
		mode = nav.ModeSplitV
	}
	line, _ := w.Cursor()
	a.nav.Select(w, mode, line, line)
}

func (a *App) Refresh() {
	if w := a.fh.CurrentWindow(); w != nil {
		a.ctrl.HandleBufReadRequest(w.Buffer())
	}
}

func (a *App) SaveChanges() {
	if w := a.fh.CurrentWindow(); w != nil {
		a.ctrl.HandleBufWriteRequest(w.Buffer())
	}
}

func (a *App) DiscardChanges() {
	a.ctrl.DiscardAll()
}

func (a *App) OpenNewWindow() {
	a.newFrame(a.start)
}

func (a *App) CloseActiveWindow() {
	if w := a.fh.CurrentWindow(); w != nil {
		a.ctrl.HandleWinLeave(w)
		w.Close()
	}
}

func (a *App) FocusAddressBar() {
	if f := a.fh.ActiveFrame(); f != nil {
		f.FocusAddress()
	}
}

// ShowHistoryDialog lists recently visited addresses; choosing one
// opens it in the current window.
func (a *App) ShowHistoryDialog() {
	f := a.fh.ActiveFrame()
	if f == nil {
		return
	}
	history := a.cfg.GetNavigationHistory()
	if len(history) == 0 {
		return
	}
	list := widget.NewList(
		func() int { return len(history) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(history[i])
		},
	)
	d := dialog.NewCustom("History", "Close", list, f.Win())
	list.OnSelected = func(i widget.ListItemID) {
		d.Hide()
		a.openAddress(history[i])
		f.FocusList()
	}
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// openAddress resolves a typed address and opens it in the current
// window. Scheme-less input is treated as a local path.
func (a *App) openAddress(raw string) {
	if raw == "" {
		return
	}
	u, ok := url.Parse(raw)
	if !ok {
		u = url.URL{Scheme: "file", Path: url.FromHostPath(raw)}
	}
	w := a.fh.CurrentWindow()
	if w == nil {
		return
	}
	a.ctrl.OpenInWindow(w, u)
	a.cfg.AddToNavigationHistory(u.String())
}

// newFrame opens an application window with its own key handler stack
// and shows startAt in its first pane.
func (a *App) newFrame(startAt url.URL) {
	a.nFrames++
	km := keymanager.NewKeyManager(debugPrint)
	km.PushHandler(keymanager.NewDirViewKeyHandler(a, debugPrint))

	title := constants.ApplicationTitle
	if a.nFrames > 1 {
		title = fmt.Sprintf("%s (%d)", constants.ApplicationTitle, a.nFrames)
	}
	f, w := a.fh.NewFrame(title, a.cfg.Window.Width, a.cfg.Window.Height, km)
	f.Address().OnSubmitted = func(text string) {
		a.openAddress(text)
		f.FocusList()
	}
	a.smb.SetPrompt(func(server, share string) (secret.Credentials, bool, error) {
		return ui.NewLoginPrompt(f.Win()).Get(server, share)
	})

	a.ctrl.HandleWinNew(w)
	a.ctrl.OpenInWindow(w, startAt)
}

func (a *App) shutdown() {
	if a.watch != nil {
		a.watch.Stop()
	}
	a.runner.Close()
	a.cfg.CursorMemory.Entries = a.ctrl.Views().ExportCursors()
	if err := a.cfgMgr.Save(a.cfg); err != nil {
		debugPrint("failed to save config: %v", err)
	}
}

func main() {
	var startPath string
	flag.BoolVar(&debugMode, "d", false, "enable debug output")
	flag.StringVar(&startPath, "path", "", "address or directory to open")
	flag.Parse()
	if flag.NArg() > 0 {
		startPath = flag.Arg(0)
	}
	if startPath == "" {
		if wd, err := os.Getwd(); err == nil {
			startPath = wd
		} else {
			startPath = "."
		}
	}

	cfgMgr := config.NewManager()
	cfg, err := cfgMgr.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		os.Exit(1)
	}

	fyneApp := app.NewWithID(constants.ApplicationName)
	fyneApp.Settings().SetTheme(customtheme.NewCustomTheme(cfg))

	store := secret.Open()

	registry := adapter.NewRegistry()
	smbAdapter := smb.New(store)
	for _, ad := range []adapter.Adapter{
		local.New(local.Config{
			ShowHidden:     cfg.View.ShowHiddenFiles,
			IgnorePatterns: cfg.View.IgnorePatterns,
		}),
		smbAdapter,
		archive.New(),
	} {
		if err := registry.Register(ad); err != nil {
			log.Printf("Error registering adapter %s: %v", ad.Scheme(), err)
			os.Exit(1)
		}
	}
	for alias, target := range map[string]string{
		"local": "file",
		"cifs":  "smb",
		"zip":   "archive",
		"tar":   "archive",
	} {
		if err := registry.Alias(alias, target); err != nil {
			log.Printf("Error registering alias %s: %v", alias, err)
			os.Exit(1)
		}
	}

	fh := ui.NewFyneHost(fyneApp, debugPrint)
	views := view.NewStore(cfg.CursorMemory.MaxEntries)
	views.ImportCursors(cfg.CursorMemory.Entries)
	ctrl := lifecycle.NewController(fh, registry, cache.New(), views, cfg.View.Columns, "file", debugPrint)

	jobs.SetDebug(debugPrint)
	runner := jobs.NewManager()
	ctrl.SetTaskRunner(func(fn func()) { runner.Submit("adapter call", fn) })
	ctrl.SetMutator(mutate.New(fh, ctrl, debugPrint))

	floats := float.NewManager(fh, float.Config{
		Padding:   cfg.Float.Padding,
		Border:    cfg.Float.Border,
		MaxWidth:  cfg.Float.MaxWidth,
		MaxHeight: cfg.Float.MaxHeight,
	}, debugPrint)

	// Clicking into another pane tears down any open preview and runs
	// the controller's enter bookkeeping for the focused window.
	fh.SetOnFocusChange(func(w host.Window) {
		floats.HandleWinEnter(w)
		ctrl.HandleWinEnter(w)
	})

	a := &App{
		cfg:    cfg,
		cfgMgr: cfgMgr,
		fh:     fh,
		ctrl:   ctrl,
		nav:    nav.NewExecutor(fh, ctrl, floats, debugPrint),
		runner: runner,
		smb:    smbAdapter,
	}

	if cfg.Watcher.Enabled {
		a.watch = watcher.New(fh, ctrl, time.Duration(cfg.Watcher.IntervalSeconds)*time.Second, debugPrint)
		a.watch.Start()
	}
	fh.SetOnShutdown(a.shutdown)

	start, ok := url.Parse(startPath)
	if !ok {
		start = url.URL{Scheme: "file", Path: url.FromHostPath(startPath)}
	}
	a.start = start
	a.newFrame(start)

	fyneApp.Run()
}
