package adb

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindADB locates the adb executable, trying the configured path first,
// then the emulator install folders and finally PATH.
func FindADB(preferredPath string) (string, error) {
	exe := "adb"
	if runtime.GOOS == "windows" {
		exe = "adb.exe"
	}

	if preferredPath != "" {
		candidates := []string{preferredPath, filepath.Join(preferredPath, exe)}
		for _, c := range candidates {
			if info, err := os.Stat(c); err == nil && !info.IsDir() {
				return c, nil
			}
		}
	}

	commonPaths := []string{
		// LDPlayer
		`C:\LDPlayer\LDPlayer9\adb.exe`,
		`C:\LDPlayer\LDPlayer4.0\adb.exe`,
		`D:\LDPlayer\LDPlayer9\adb.exe`,
		// Android SDK
		`C:\Android\sdk\platform-tools\adb.exe`,
		`%LOCALAPPDATA%\Android\Sdk\platform-tools\adb.exe`,
	}
	if runtime.GOOS != "windows" {
		commonPaths = []string{
			"/usr/bin/adb",
			"/usr/local/bin/adb",
			"$HOME/Android/Sdk/platform-tools/adb",
		}
	}

	for _, path := range commonPaths {
		expanded := os.ExpandEnv(strings.ReplaceAll(path, "%LOCALAPPDATA%", "$LOCALAPPDATA"))
		if _, err := os.Stat(expanded); err == nil {
			return expanded, nil
		}
	}

	if path, err := exec.LookPath(exe); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("adb not found, please set AdbPath in Settings.ini")
}

// FindConsole returns the emulator console shipped next to adb, if any
func FindConsole(adbPath string) (string, bool) {
	dir := filepath.Dir(adbPath)
	names := []string{"dnconsole", "ldconsole"}
	for _, n := range names {
		if runtime.GOOS == "windows" {
			n += ".exe"
		}
		p := filepath.Join(dir, n)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}
