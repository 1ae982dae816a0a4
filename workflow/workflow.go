// Package workflow is the single-threaded state machine that sequences
// detection, confirmation, and the per-post launch/paste/save/verify/close
// loop. All UI, network, and file work is synchronous; the kill-switch
// check immediately before each of those points is the only cancellation
// mechanism.
package workflow

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"desktop-autopilot/content"
	"desktop-autopilot/detector"
	"desktop-autopilot/killswitch"
	"desktop-autopilot/retry"
	"desktop-autopilot/screenshot"
	"desktop-autopilot/uiauto"
)

const (
	verifyRetries = 3
	verifyDelay   = 400 * time.Millisecond
)

// Gate is the human confirmation step; satisfied by confirm.Gate.
type Gate interface {
	Confirm(shot image.Image, x, y int, label string) (bool, error)
}

type Config struct {
	AppName        string
	ScreenshotPath string // static screenshot instead of live capture
	AutoMode       bool   // skip the confirmation gate
	OutputDir      string
	PostLimit      int
}

// Workflow owns the run state. It is not safe for concurrent use; the only
// other goroutine in the process is the kill-switch listener, which touches
// nothing here.
type Workflow struct {
	cfg   Config
	det   *detector.Client
	posts *content.Client
	ui    uiauto.Driver
	gate  Gate
	ks    *killswitch.Switch

	sleep func(time.Duration)

	state     State
	appCoords *image.Point // set once per run, after a confirmed detection
	lastShot  image.Image
}

func New(cfg Config, det *detector.Client, posts *content.Client, ui uiauto.Driver, gate Gate, ks *killswitch.Switch) (*Workflow, error) {
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = 10
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}
	log.Printf("[DIR] Output directory: %s", cfg.OutputDir)
	mode := "CONFIRMATION"
	if cfg.AutoMode {
		mode = "AUTO"
	}
	log.Printf("[MODE] Running in %s mode", mode)
	log.Printf("[TARGET] Looking for: %s", cfg.AppName)

	return &Workflow{
		cfg:   cfg,
		det:   det,
		posts: posts,
		ui:    ui,
		gate:  gate,
		ks:    ks,
		sleep: time.Sleep,
		state: StateIdle,
	}, nil
}

// Run drives the workflow to one of the terminal states. An operator abort
// surfaces here, once, as a clean stop.
func (w *Workflow) Run() State {
	log.Printf("[FLOW] Automation started")
	state, err := w.run()
	if errors.Is(err, killswitch.ErrAborted) {
		log.Printf("[STOPPED] Automation aborted safely")
		state = StateAborted
	}
	w.transition(state)
	return state
}

func (w *Workflow) run() (State, error) {
	w.transition(StateDetecting)
	ok, err := w.detectAppIcon()
	if err != nil {
		return StateAborted, err
	}
	if !ok {
		log.Printf("[FLOW] Stopping due to detection failure")
		return StateDetectionFailed, nil
	}

	w.transition(StateReady)
	w.pause(1 * time.Second)

	posts, err := w.posts.Fetch(w.cfg.PostLimit)
	if err != nil {
		log.Printf("[API] Failed to fetch posts: %v", err)
	}
	if len(posts) == 0 {
		log.Printf("[FLOW] No posts to process")
		return StateNoContent, nil
	}

	for _, p := range posts {
		if err := w.ks.Check(); err != nil {
			return StateAborted, err
		}
		log.Printf("[FLOW] Processing post ID %d", p.ID)
		if err := w.processPost(p); err != nil {
			return StateAborted, err
		}
	}
	return StateDone, nil
}

// detectAppIcon health-checks the detector, obtains a screenshot, runs the
// detection, and routes through the confirmation gate unless in auto mode.
// false means the run stops with DetectionFailed; the only error returned
// is the kill-switch abort.
func (w *Workflow) detectAppIcon() (bool, error) {
	log.Printf("[FLOW] Starting %s icon detection", w.cfg.AppName)

	if !w.det.HealthCheck() {
		log.Printf("[FLOW] API health check failed")
		return false, nil
	}

	shot, err := w.obtainScreenshot()
	if err != nil {
		if errors.Is(err, killswitch.ErrAborted) {
			return false, err
		}
		log.Printf("[FLOW] Screenshot unavailable: %v", err)
		return false, nil
	}
	w.lastShot = shot

	encoded, err := screenshot.EncodePNG(shot)
	if err != nil {
		log.Printf("[FLOW] Failed to encode screenshot: %v", err)
		return false, nil
	}

	description := fmt.Sprintf(
		"Locate the %s Windows application icon from this desktop screenshot and return the center coordinates as (x, y)",
		w.cfg.AppName)
	res, err := w.det.Detect(w.ks, encoded, description)
	if err != nil {
		return false, err
	}
	if !res.Found {
		log.Printf("[FLOW] %s icon not detected", w.cfg.AppName)
		return false, nil
	}

	w.appCoords = &image.Point{X: res.X, Y: res.Y}
	log.Printf("[FLOW] Stored %s coordinates: (%d, %d)", w.cfg.AppName, res.X, res.Y)

	if !w.cfg.AutoMode {
		w.transition(StateConfirming)
		ok, err := w.gate.Confirm(shot, res.X, res.Y, w.cfg.AppName+" icon")
		if err != nil {
			log.Printf("[CONFIRM] Confirmation failed: %v", err)
			return false, nil
		}
		if !ok {
			log.Printf("[FLOW] User rejected detection")
			return false, nil
		}
	}
	return true, nil
}

// obtainScreenshot loads the static screenshot when one was supplied,
// otherwise minimizes everything, captures the full screen, and restores
// the previously active window (best-effort).
func (w *Workflow) obtainScreenshot() (image.Image, error) {
	if w.cfg.ScreenshotPath != "" {
		log.Printf("[FLOW] Loading screenshot from %s", w.cfg.ScreenshotPath)
		return screenshot.Load(w.cfg.ScreenshotPath)
	}

	if err := w.ks.Check(); err != nil {
		return nil, err
	}
	log.Printf("[CAPTURE] Preparing to take screenshot")

	prevTitle, err := w.ui.ActiveWindowTitle()
	if err != nil {
		log.Printf("[CAPTURE] Unable to read active window: %v", err)
		prevTitle = ""
	}

	if err := w.minimizeAll(); err != nil {
		return nil, err
	}

	shot, err := w.ui.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %v", err)
	}
	b := shot.Bounds()
	log.Printf("[CAPTURE] Screenshot size: %dx%d", b.Dx(), b.Dy())

	if err := w.restoreWindow(prevTitle); err != nil {
		return nil, err
	}
	return shot, nil
}

// processPost runs one post through launch, save, and verify. The close
// step always executes, abort included, before the abort propagates.
// Per-post failures are logged and do not end the run.
func (w *Workflow) processPost(p content.Post) error {
	launched, err := w.launchApp()
	if err != nil {
		return err
	}
	if !launched {
		return nil
	}

	var saveErr error
	func() {
		defer w.closeApp()
		saveErr = w.savePost(p)
	}()

	if errors.Is(saveErr, killswitch.ErrAborted) {
		return saveErr
	}
	if saveErr != nil {
		log.Printf("[FLOW] Post %d failed: %v", p.ID, saveErr)
	}
	return nil
}

// launchApp double-clicks the stored icon coordinates on a cleared desktop.
// Missing coordinates skip the post without ending the run.
func (w *Workflow) launchApp() (bool, error) {
	w.transition(StateLaunching)
	if w.appCoords == nil {
		log.Printf("[FLOW] No %s coordinates available", w.cfg.AppName)
		return false, nil
	}

	log.Printf("[FLOW] Minimizing windows to show desktop before launching %s", w.cfg.AppName)
	if err := w.minimizeAll(); err != nil {
		return false, err
	}
	if err := w.clickAt(w.appCoords.X, w.appCoords.Y, true); err != nil {
		return false, err
	}
	w.pause(1200 * time.Millisecond)
	return true, nil
}

func (w *Workflow) savePost(p content.Post) error {
	if err := w.ks.Check(); err != nil {
		return err
	}

	text := content.Format(p)
	path := safeFilePath(filepath.Join(w.cfg.OutputDir, fmt.Sprintf("post_%d.txt", p.ID)))
	log.Printf("[SAVE] Saving post %d to %s", p.ID, path)

	w.transition(StatePasting)
	if err := w.setClipboard(text); err != nil {
		return err
	}
	w.pause(150 * time.Millisecond)

	if !w.appFocused() {
		log.Printf("[FOCUS] Attempting to refocus %s", w.cfg.AppName)
		if err := w.ks.Check(); err != nil {
			return err
		}
		if err := w.ui.Click(); err != nil {
			log.Printf("[UI] Refocus click failed: %v", err)
		}
		w.pause(200 * time.Millisecond)
	}

	if err := w.combo("v", "ctrl"); err != nil {
		return err
	}
	w.pause(400 * time.Millisecond)

	w.transition(StateSaving)
	if err := w.combo("s", "ctrl"); err != nil {
		return err
	}
	w.pause(800 * time.Millisecond)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := w.setClipboard(abs); err != nil {
		return err
	}
	w.pause(150 * time.Millisecond)

	if err := w.combo("a", "ctrl"); err != nil {
		return err
	}
	if err := w.combo("v", "ctrl"); err != nil {
		return err
	}
	w.pause(250 * time.Millisecond)

	if err := w.tap("enter"); err != nil {
		return err
	}
	w.pause(400 * time.Millisecond)
	// Dismiss the overwrite-confirmation dialog if one appeared.
	if err := w.combo("y", "alt"); err != nil {
		return err
	}

	w.transition(StateVerifying)
	matched, err := w.verifyFileSaved(path, text)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("saved content does not match post %d", p.ID)
	}
	return nil
}

// closeApp always runs via defer, so it must not consult the kill-switch.
func (w *Workflow) closeApp() {
	w.transition(StateClosing)
	log.Printf("[UI] Closing %s", w.cfg.AppName)
	if err := w.ui.KeyCombo("f4", "alt"); err != nil {
		log.Printf("[UI] Close failed: %v", err)
	}
	w.pause(500 * time.Millisecond)
	// Pacing before the next post.
	w.pause(600 * time.Millisecond)
}

// verifyFileSaved re-reads the saved file up to verifyRetries times,
// pausing between attempts. A mismatch after all attempts is reported as
// false; the only error is the kill-switch abort.
func (w *Workflow) verifyFileSaved(path, expected string) (bool, error) {
	policy := retry.Policy{Attempts: verifyRetries, Backoff: verifyDelay, Sleep: w.sleep}
	matched := false
	err := policy.Do(w.ks.Check, func(attempt int) (bool, error) {
		log.Printf("[VERIFY] Verification attempt %d/%d", attempt, verifyRetries)
		if verifyOnce(path, expected) {
			matched = true
			return true, nil
		}
		return false, fmt.Errorf("content mismatch")
	})
	if errors.Is(err, killswitch.ErrAborted) {
		return false, err
	}
	if !matched {
		log.Printf("[VERIFY] Verification failed after retries")
	}
	return matched, nil
}

func (w *Workflow) minimizeAll() error {
	if err := w.ks.Check(); err != nil {
		return err
	}
	log.Printf("[UI] Minimizing all windows")
	if err := w.ui.MinimizeAll(); err != nil {
		log.Printf("[UI] Minimize failed: %v", err)
	}
	w.pause(600 * time.Millisecond)
	return nil
}

// restoreWindow re-activates the window that was focused before capture.
// Activation failure is logged and non-fatal.
func (w *Workflow) restoreWindow(title string) error {
	if title == "" {
		return nil
	}
	if err := w.ks.Check(); err != nil {
		return err
	}
	log.Printf("[UI] Restoring window: %s", title)
	if err := w.ui.ActivateWindow(title); err != nil {
		log.Printf("[UI] Failed to restore window: %v", err)
		return nil
	}
	w.pause(600 * time.Millisecond)
	return nil
}

func (w *Workflow) clickAt(x, y int, double bool) error {
	if err := w.ks.Check(); err != nil {
		return err
	}
	log.Printf("[UI] Moving mouse to (%d, %d)", x, y)
	if double {
		log.Printf("[UI] Double click")
	} else {
		log.Printf("[UI] Single click")
	}
	if err := w.ui.MoveClick(x, y, double); err != nil {
		log.Printf("[UI] Click failed: %v", err)
	}
	return nil
}

func (w *Workflow) appFocused() bool {
	title, err := w.ui.ActiveWindowTitle()
	if err != nil {
		log.Printf("[FOCUS] Unable to read active window: %v", err)
		return false
	}
	focused := strings.Contains(strings.ToLower(title), strings.ToLower(w.cfg.AppName))
	log.Printf("[FOCUS] %s focused: %v", w.cfg.AppName, focused)
	return focused
}

func (w *Workflow) setClipboard(text string) error {
	if err := w.ks.Check(); err != nil {
		return err
	}
	if err := w.ui.WriteClipboard(text); err != nil {
		return fmt.Errorf("clipboard write failed: %v", err)
	}
	return nil
}

func (w *Workflow) combo(key string, mods ...string) error {
	if err := w.ks.Check(); err != nil {
		return err
	}
	if err := w.ui.KeyCombo(key, mods...); err != nil {
		return fmt.Errorf("key combo %s+%s failed: %v", strings.Join(mods, "+"), key, err)
	}
	return nil
}

func (w *Workflow) tap(key string) error {
	if err := w.ks.Check(); err != nil {
		return err
	}
	if err := w.ui.KeyTap(key); err != nil {
		return fmt.Errorf("key tap %s failed: %v", key, err)
	}
	return nil
}

func (w *Workflow) transition(s State) {
	w.state = s
	log.Printf("[FLOW] State: %s", s)
}

func (w *Workflow) pause(d time.Duration) {
	w.sleep(d)
}
