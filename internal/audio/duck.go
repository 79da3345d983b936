package audio

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type streamInfo struct {
	ID      int
	Volume  int
	AppName string
}

// Ducker lowers the volume of other playback streams while the
// microphone is open, then restores them. Streams whose
// application.name matches selfNames are left alone.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int
	duckPercent int
}

func NewDucker(selfNames []string, duckPercent int) *Ducker {
	if duckPercent < 0 {
		duckPercent = 0
	}
	if duckPercent > 100 {
		duckPercent = 100
	}
	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		duckPercent: duckPercent,
	}
}

// Duck drops every foreign stream to the configured percentage.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listStreams(ctx)
	if err != nil {
		return err
	}

	d.originalVol = make(map[int]int)
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		d.originalVol[s.ID] = s.Volume
		if err := setSinkInputVolume(ctx, s.ID, d.duckPercent); err != nil {
			return err
		}
	}
	d.active = true
	return nil
}

// Unduck restores the volumes recorded by Duck. Streams that appeared
// after the duck are left untouched.
func (d *Ducker) Unduck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	for id, vol := range d.originalVol {
		if err := setSinkInputVolume(ctx, id, vol); err != nil {
			return err
		}
	}
	d.originalVol = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s streamInfo) bool {
	for _, name := range d.selfNames {
		if s.AppName == name {
			return true
		}
	}
	return false
}

func listStreams(ctx context.Context) ([]streamInfo, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func parseSinkInputs(out string) []streamInfo {
	blocks := strings.Split(out, "Sink Input #")
	var res []streamInfo
	for _, block := range blocks[1:] {
		nl := strings.IndexByte(block, '\n')
		if nl <= 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(block[:nl]))
		if err != nil {
			continue
		}

		s := streamInfo{ID: id}
		for _, line := range strings.Split(block[nl+1:], "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "Volume:") && s.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					s.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if strings.HasPrefix(line, "application.name =") && s.AppName == "" {
				if open := strings.Index(line, "\""); open >= 0 {
					rest := line[open+1:]
					if end := strings.Index(rest, "\""); end >= 0 {
						s.AppName = rest[:end]
					}
				}
			}
		}
		if s.Volume == 0 && s.AppName == "" {
			continue
		}
		res = append(res, s)
	}
	return res
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 150 {
		percent = 150
	}
	return exec.CommandContext(ctx, "pactl",
		"set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", percent)).Run()
}
