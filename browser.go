package vecplot

import (
	"os/exec"
	"runtime"

	"github.com/sirupsen/logrus"
)

// OpenBrowser opens url with the platform's default handler. Failure is only
// logged: the URL is printed too, so the chart can still be opened by hand.
func OpenBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	err := exec.Command(cmd, args...).Start()
	if err != nil {
		logrus.WithError(err).Warn("failed to start web browser automatically")
	}
}
