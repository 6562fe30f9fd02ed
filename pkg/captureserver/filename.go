package captureserver

import (
	"strconv"
	"strings"
)

const (
	logFilePrefix = "log"
	logFileExt    = ".flm"
)

// logFileName renders the sequential capture filename
// original_source/flmserv.py's makeFileName produces: "log0.flm",
// "log1.flm", and so on.
func logFileName(idx int64) string {
	return logFilePrefix + strconv.FormatInt(idx, 10) + logFileExt
}

// parseLogFileIndex parses a capture filename produced by
// logFileName, reporting ok=false for anything else found in the
// capture directory.
func parseLogFileIndex(name string) (int64, bool) {
	if !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, logFileExt) {
		return 0, false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, logFilePrefix), logFileExt)
	idx, err := strconv.ParseInt(mid, 10, 64)
	if err != nil {
		return 0, false
	}
	return idx, true
}
