package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openExternal hands a URL to the OS default handler. PDFs (and images
// on request) go this way; the terminal cannot render them.
func openExternal(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	// Detach: the handler outlives the client.
	go cmd.Wait()
	return nil
}
