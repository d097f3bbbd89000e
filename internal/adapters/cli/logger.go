package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// consoleLogger prints runner progress to stderr so stdout stays clean
// for command output. Debug lines are suppressed unless verbose is set.
type consoleLogger struct {
	verbose bool
	asJSON  bool
}

func newConsoleLogger(verbose bool) *consoleLogger {
	return &consoleLogger{verbose: verbose}
}

func newJSONLogger(verbose bool) *consoleLogger {
	return &consoleLogger{verbose: verbose, asJSON: true}
}

func (l *consoleLogger) Log(level, message string, metadata map[string]interface{}) {
	if level == "debug" && !l.verbose {
		return
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	if l.asJSON {
		entry := map[string]interface{}{
			"ts":    ts,
			"level": level,
			"msg":   message,
		}
		for k, v := range metadata {
			entry[k] = v
		}
		if line, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(os.Stderr, string(line))
		}
		return
	}
	line := fmt.Sprintf("%s [%s] %s", ts, level, message)
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%v", k, metadata[k])
		}
	}
	fmt.Fprintln(os.Stderr, line)
}
