package emulator

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// LDPlayer console list2 columns read here: index,title,top hwnd,bind hwnd,running,adb port
const (
	list2Index   = 0
	list2Title   = 1
	list2ADBPort = 5
	list2Min     = 6
)

// TitleSource returns a serial to window-title map
type TitleSource func(ctx context.Context) (map[string]string, error)

// ConsoleTitles queries an LDPlayer console (ldconsole/dnconsole) for titles
func ConsoleTitles(consolePath string) TitleSource {
	return func(ctx context.Context) (map[string]string, error) {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()

		out, err := exec.CommandContext(ctx, consolePath, "list2").Output()
		if err != nil {
			return nil, fmt.Errorf("failed to run %s list2: %w", consolePath, err)
		}
		return parseList2(string(out)), nil
	}
}

// parseList2 maps every serial form an LDPlayer instance can appear under
// (emulator-55xx, 127.0.0.1:55xx+1 and the reported adb port) to its title.
func parseList2(output string) map[string]string {
	titles := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(parts) < list2Min {
			continue
		}
		name := strings.TrimSpace(parts[list2Title])
		index, errIdx := strconv.Atoi(strings.TrimSpace(parts[list2Index]))
		adbPort, errPort := strconv.Atoi(strings.TrimSpace(parts[list2ADBPort]))
		if name == "" || errIdx != nil || errPort != nil {
			continue
		}

		emuPort := 5554 + index*2
		titles[fmt.Sprintf("emulator-%d", emuPort)] = name
		titles[fmt.Sprintf("127.0.0.1:%d", emuPort+1)] = name
		titles[fmt.Sprintf("127.0.0.1:%d", adbPort)] = name
	}
	return titles
}
