package server

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
)

// openFirewall adds inbound allow rules for the bound ports. Best effort:
// failures are logged and never abort startup.
func (s *Server) openFirewall() {
	ports := []int{s.cfg.Port}
	if s.secureLn != nil {
		ports = append(ports, s.cfg.TLS.Port)
	}

	for _, port := range ports {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "windows":
			cmd = exec.Command("netsh", "advfirewall", "firewall", "add", "rule",
				fmt.Sprintf("name=hwmon-%d", port),
				"dir=in", "action=allow", "protocol=TCP",
				fmt.Sprintf("localport=%d", port),
			)
		case "linux":
			cmd = exec.Command("ufw", "allow", fmt.Sprintf("%d/tcp", port))
		default:
			s.log.Debug("firewall opening not supported on this platform",
				slog.String("goos", runtime.GOOS))
			return
		}

		if out, err := cmd.CombinedOutput(); err != nil {
			s.log.Warn("failed to open firewall port",
				slog.Int("port", port),
				slog.String("output", string(out)),
				sl.Err(err),
			)
		} else {
			s.log.Info("opened firewall port", slog.Int("port", port))
		}
	}
}
