// Package confirm is the human-in-the-loop step: it renders the detection
// marker onto the screenshot, shows it to the operator, and blocks on a
// yes/no prompt. The workflow skips it entirely in auto mode.
package confirm

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// PreviewName is the fixed preview file name inside the output directory;
// it is overwritten on every confirmation.
const PreviewName = "detection_preview.png"

// Opener opens a file with the OS default handler. Satisfied by
// uiauto.Driver.
type Opener interface {
	OpenPath(path string) error
}

// Gate renders a detection preview and blocks for operator approval.
type Gate struct {
	outputDir string
	opener    Opener
	in        *bufio.Reader
	out       io.Writer
}

func New(outputDir string, opener Opener) *Gate {
	return &Gate{
		outputDir: outputDir,
		opener:    opener,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
}

// Confirm draws the marker, saves and opens the preview, then blocks until
// the operator answers yes or no. A failure to open the viewer is logged
// and non-fatal; a failure to save the preview counts as a rejection since
// there is nothing to approve.
func (g *Gate) Confirm(shot image.Image, x, y int, label string) (bool, error) {
	previewPath, err := g.savePreview(shot, x, y, label)
	if err != nil {
		log.Printf("[CONFIRM] Could not save preview: %v", err)
		return false, err
	}
	log.Printf("[CONFIRM] Preview saved to: %s", previewPath)

	fmt.Fprintln(g.out)
	fmt.Fprintln(g.out, strings.Repeat("=", 50))
	fmt.Fprintf(g.out, "DETECTION RESULT: %s\n", label)
	fmt.Fprintf(g.out, "Coordinates: (%d, %d)\n", x, y)
	fmt.Fprintf(g.out, "Preview image: %s\n", previewPath)
	fmt.Fprintln(g.out, strings.Repeat("=", 50))

	if err := g.opener.OpenPath(previewPath); err != nil {
		log.Printf("[CONFIRM] Could not open preview: %v", err)
	}

	return g.ask("Does the detection look correct? Continue?")
}

func (g *Gate) savePreview(shot image.Image, x, y int, label string) (string, error) {
	preview := DrawMarker(shot, x, y, label)
	previewPath := filepath.Join(g.outputDir, PreviewName)

	f, err := os.Create(previewPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, preview); err != nil {
		return "", err
	}
	return previewPath, nil
}

// ask reprompts until it reads an exact yes/no token. Only a read failure
// (e.g. closed stdin) escapes the loop.
func (g *Gate) ask(prompt string) (bool, error) {
	for {
		fmt.Fprintf(g.out, "%s [y/n]: ", prompt)
		line, err := g.in.ReadString('\n')
		if err != nil && line == "" {
			return false, fmt.Errorf("failed to read confirmation: %v", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(g.out, "Please enter 'y' or 'n'")
		if err != nil {
			return false, fmt.Errorf("failed to read confirmation: %v", err)
		}
	}
}
