package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFile is a dated per-stage pipeline log under the log root. Logs have
// only two states, live and purged, so no State field is needed.
type LogFile struct {
	Name    string
	Path    string
	Stage   string
	ModTime time.Time
}

// Age returns how old the log file is relative to now.
func (l LogFile) Age(now time.Time) time.Duration {
	return now.Sub(l.ModTime)
}

// LogExt is the required extension for pipeline log files.
const LogExt = ".log"

// ParseLogName splits a log file name of the form <stage>_<timestamp>.log.
// The timestamp must use the same layout as batch names so that names stay
// collision-free within a day.
func ParseLogName(name string) (stage string, ts time.Time, err error) {
	if !strings.HasSuffix(name, LogExt) {
		return "", time.Time{}, fmt.Errorf("name %q does not end with %s", name, LogExt)
	}
	base := strings.TrimSuffix(name, LogExt)
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return "", time.Time{}, fmt.Errorf("name %q has no stage prefix", name)
	}
	stage = base[:idx]
	ts, err = time.Parse(TimestampLayout, base[idx+1:])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse timestamp in %q: %w", name, err)
	}
	return stage, ts, nil
}

// ListLogs enumerates recognized pipeline log files under logRoot. Files that
// do not follow the <stage>_<timestamp>.log convention are left alone.
func ListLogs(logRoot string) ([]LogFile, error) {
	entries, err := os.ReadDir(logRoot)
	if err != nil {
		return nil, fmt.Errorf("list log root %s: %w", logRoot, err)
	}
	var logs []LogFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stage, _, err := ParseLogName(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logs = append(logs, LogFile{
			Name:    entry.Name(),
			Path:    filepath.Join(logRoot, entry.Name()),
			Stage:   stage,
			ModTime: info.ModTime(),
		})
	}
	return logs, nil
}
