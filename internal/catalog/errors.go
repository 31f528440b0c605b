package catalog

import (
	"strconv"
	"strings"

	"github.com/jrosolowski/videolib/internal/videoerr"
)

// isRetryable reports whether err came from a 429 or 5xx upstream
// response, the only conditions the retry loop should spend attempts on.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "upstream status ") {
		return false
	}
	code := extractStatus(msg)
	return code == 429 || (code >= 500 && code < 600)
}

func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "upstream status ") {
		code := extractStatus(msg)
		switch {
		case code == 429:
			return videoerr.New(videoerr.ExternalRateLimited, "catalog", err)
		case code >= 500:
			return videoerr.New(videoerr.ExternalTransient, "catalog", err)
		case code >= 400:
			return videoerr.New(videoerr.ExternalPermanent, "catalog", err)
		}
	}
	return videoerr.New(videoerr.ExternalTransient, "catalog", err)
}

func extractStatus(msg string) int {
	idx := strings.Index(msg, "upstream status ")
	if idx < 0 {
		return 0
	}
	rest := msg[idx+len("upstream status "):]
	end := strings.IndexByte(rest, ':')
	if end < 0 {
		end = len(rest)
	}
	code, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil {
		return 0
	}
	return code
}
