package oauth

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

// Browser opens URLs in the system's default browser.
type Browser struct{}

var _ driven.BrowserOpener = (*Browser)(nil)

// Open opens the default browser at the given URL.
func (Browser) Open(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
