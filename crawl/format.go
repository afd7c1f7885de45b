package crawl

import "fmt"

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatProgress renders a progress event as a single status line, or an
// empty string for events that carry no target.
func FormatProgress(ev ProgressEvent, width int) string {
	switch ev.Type {
	case ProgressCompleted:
		return fmt.Sprintf("[%d/%d] ok   %s", ev.Completed, ev.Total, TruncateURL(ev.URL, width))
	case ProgressFailed:
		return fmt.Sprintf("[%d/%d] fail %s", ev.Completed, ev.Total, TruncateURL(ev.URL, width))
	default:
		return ""
	}
}
