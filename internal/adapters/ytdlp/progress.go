package ytdlp

import (
	"regexp"
	"strconv"
	"strings"

	"tubegrab/internal/core/ports"
)

var progressPercent = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)

// progressParser turns yt-dlp's --newline progress output into events.
// It tracks the destination most recently announced so percent-only
// lines can be attributed to a file.
type progressParser struct {
	current string
}

// parse reports whether line was a progress line and, if so, the event
// it describes.
func (p *progressParser) parse(line string) (ports.ProgressEvent, bool) {
	if dest, ok := strings.CutPrefix(line, "[download] Destination: "); ok {
		p.current = dest
		return ports.ProgressEvent{Filename: dest, Status: ports.StatusDownloading}, true
	}

	rest, ok := strings.CutPrefix(line, "[download] ")
	if !ok {
		return ports.ProgressEvent{}, false
	}

	if name, found := strings.CutSuffix(rest, " has already been downloaded"); found {
		p.current = name
		return ports.ProgressEvent{Filename: name, Status: ports.StatusFinished, Percent: 100}, true
	}

	m := progressPercent.FindStringSubmatch(line)
	if m == nil {
		return ports.ProgressEvent{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ports.ProgressEvent{}, false
	}
	status := ports.StatusDownloading
	if pct >= 100 {
		status = ports.StatusFinished
	}
	return ports.ProgressEvent{Filename: p.current, Status: status, Percent: pct}, true
}
