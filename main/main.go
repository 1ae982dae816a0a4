package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"desktop-autopilot/clipboard"
	"desktop-autopilot/config"
	"desktop-autopilot/confirm"
	"desktop-autopilot/content"
	"desktop-autopilot/detector"
	"desktop-autopilot/killswitch"
	"desktop-autopilot/logutil"
	"desktop-autopilot/tray"
	"desktop-autopilot/uiauto"
	"desktop-autopilot/workflow"
)

func main() {
	screenshotPath := flag.String("screenshot", "", "Path to screenshot file (skips live capture)")
	autoMode := flag.Bool("auto", false, "Run in auto mode without confirmation prompts")
	appName := flag.String("app", "", "App name to detect (e.g., Notepad, Chrome)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logutil.Setup(cfg.EnableFileLogging)

	reader := bufio.NewReader(os.Stdin)

	apiURL := promptLine(reader, "Enter detector API URL: ")
	if apiURL == "" {
		log.Printf("[INIT] No URL provided")
		return
	}
	if !strings.HasPrefix(apiURL, "http") {
		apiURL = "https://" + apiURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	app := *appName
	if app == "" {
		app = promptLine(reader, "Enter app name to detect (e.g., Notepad): ")
	}
	if app == "" {
		log.Printf("[INIT] No app name provided")
		return
	}

	log.Printf("[INIT] Using API URL: %s", apiURL)

	// One automation session per machine; a second instance would fight
	// over the same mouse and keyboard.
	ensureSingleInstance()
	defer os.Remove(pidFile)

	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	ks := killswitch.New()
	killswitch.Listen(ks, cfg.Hotkey)

	trayIcon, err := tray.New(tray.Config{
		Title:   "Desktop Autopilot",
		Tooltip: fmt.Sprintf("Desktop Autopilot - press %s to abort", cfg.Hotkey),
		OnAbort: ks.Trigger,
	})
	if err != nil {
		log.Printf("Failed to create tray icon: %v", err)
	} else {
		go trayIcon.Run()
		defer trayIcon.Destroy()
	}

	ui := uiauto.NewRobot()
	wf, err := workflow.New(workflow.Config{
		AppName:        app,
		ScreenshotPath: *screenshotPath,
		AutoMode:       *autoMode,
		OutputDir:      cfg.OutputDir,
		PostLimit:      cfg.PostLimit,
	},
		detector.New(apiURL),
		content.New(cfg.ContentURL),
		ui,
		confirm.New(cfg.OutputDir, ui),
		ks,
	)
	if err != nil {
		log.Fatalf("Failed to set up workflow: %v", err)
	}

	state := wf.Run()
	log.Printf("[FLOW] Run finished: %s", state)
}

func promptLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

const pidFile = "desktop-autopilot.pid"

func ensureSingleInstance() {
	if _, err := os.Stat(pidFile); err == nil {
		pidBytes, err := os.ReadFile(pidFile)
		if err == nil {
			if oldPid, err := strconv.Atoi(strings.TrimSpace(string(pidBytes))); err == nil {
				if process, err := os.FindProcess(oldPid); err == nil {
					log.Printf("Found existing instance with PID %d, killing it...", oldPid)
					process.Kill()
					process.Wait()
				}
			}
		}
	}

	currentPid := os.Getpid()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(currentPid)), 0644); err != nil {
		log.Printf("Warning: Could not write PID file: %v", err)
	} else {
		log.Printf("Running as PID %d", currentPid)
	}
}
