package planner

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vitali-fedulov/imagehash2"
	"github.com/vitali-fedulov/images4"

	"github.com/Pimboto/VideoLab/internal/logging"
)

const (
	// imagehash2 parameters for hash table pre-filtering
	hashNumBuckets = 4
	hashEpsilon    = 0.25
)

// DuplicatePair names two source videos whose first frames look alike.
type DuplicatePair struct {
	A string
	B string
}

// FindDuplicateSources extracts the first frame of every video and
// compares them perceptually. Near-duplicate inputs inflate the
// cartesian product with visually identical outputs, so the batch
// runner warns about them before planning. Videos whose frame cannot
// be extracted are skipped, not failed.
func FindDuplicateSources(ctx context.Context, videos []string, workDir string, log *logging.Logger) []DuplicatePair {
	type probedIcon struct {
		path    string
		icon    images4.IconT
		central uint64
		hashSet []uint64
	}

	icons := make([]probedIcon, 0, len(videos))
	for _, v := range videos {
		img, err := extractFirstFrame(ctx, v, workDir)
		if err != nil {
			log.Warnf("planner: cannot hash first frame of %s: %v", filepath.Base(v), err)
			continue
		}
		icon := images4.Icon(img)
		icons = append(icons, probedIcon{
			path:    v,
			icon:    icon,
			central: imagehash2.CentralHash9(icon, hashEpsilon, hashNumBuckets),
			hashSet: imagehash2.HashSet9(icon, hashEpsilon, hashNumBuckets),
		})
	}

	var dupes []DuplicatePair
	for i := 0; i < len(icons); i++ {
		for j := i + 1; j < len(icons); j++ {
			// Fast hash-set pre-filter before the full comparison.
			match := false
			for _, h := range icons[j].hashSet {
				if h == icons[i].central {
					match = true
					break
				}
			}
			if !match {
				continue
			}
			if images4.Similar(icons[i].icon, icons[j].icon) {
				dupes = append(dupes, DuplicatePair{A: icons[i].path, B: icons[j].path})
			}
		}
	}
	return dupes
}

// extractFirstFrame decodes the first frame of a video into an image
// via a single-frame ffmpeg export.
func extractFirstFrame(ctx context.Context, videoPath, workDir string) (image.Image, error) {
	tmp := filepath.Join(workDir, "thumb_"+sanitizeName(filepath.Base(videoPath))+".png")
	defer os.Remove(tmp)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-frames:v", "1",
		"-y",
		tmp,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.Errorf("ffmpeg: %s", msg)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return nil, errors.Wrap(err, "read extracted frame")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode extracted frame")
	}
	return img, nil
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
