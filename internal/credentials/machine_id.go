package credentials

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazyreport-keyring-salt-v1"

// deriveFilePassword builds the file backend password from the machine id
// and the current user so it is stable across restarts on one machine.
func deriveFilePassword() (string, error) {
	machineID, err := machineID()
	if err != nil {
		machineID, _ = os.Hostname()
	}

	hash := sha256.Sum256([]byte(machineID + currentUser() + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

func currentUser() string {
	for _, env := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(env); u != "" {
			return u
		}
	}
	// containers and service accounts often run without USER
	return fmt.Sprintf("uid-%d", os.Getuid())
}

func machineID() (string, error) {
	switch runtime.GOOS {
	case "linux":
		for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
			if data, err := os.ReadFile(path); err == nil {
				return strings.TrimSpace(string(data)), nil
			}
		}
	case "darwin":
		out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
		if err == nil {
			if id := valueAfter(string(out), "IOPlatformUUID"); id != "" {
				return id, nil
			}
		}
	case "windows":
		out, err := exec.Command("wmic", "csproduct", "get", "UUID").Output()
		if err == nil {
			for _, line := range strings.Split(string(out), "\n") {
				line = strings.TrimSpace(line)
				if line != "" && line != "UUID" {
					return line, nil
				}
			}
		}
	}
	return os.Hostname()
}

// valueAfter extracts the quoted value of `"key" = "value"` from ioreg output
func valueAfter(output, key string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, key) {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"")
		}
	}
	return ""
}
