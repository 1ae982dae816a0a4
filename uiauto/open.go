package uiauto

import (
	"os/exec"
	"runtime"
)

// OpenPath opens a file with the OS default handler. Start, not Run: the
// viewer keeps running while the workflow continues.
func (r *Robot) OpenPath(path string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Start()
	case "darwin":
		return exec.Command("open", path).Start()
	default:
		return exec.Command("xdg-open", path).Start()
	}
}
