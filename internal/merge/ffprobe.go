package merge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// probeFunc returns the duration of an audio file in seconds.
type probeFunc func(ctx context.Context, path string) (float64, error)

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ffprobeDuration asks ffprobe for the container duration.
func ffprobeDuration(ctx context.Context, ffprobePath, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return 0, fmt.Errorf("could not parse ffprobe output for %s: %w", path, err)
	}
	if probed.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	dur, err := strconv.ParseFloat(probed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q for %s: %w", probed.Format.Duration, path, err)
	}
	return dur, nil
}
