package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Frame naming convention shared by the sampler, the sanitizer and the
// encoder. Names are bit-exact: "frame-" + three digits + ".png".
const (
	FramePrefix = "frame-"
	FrameExt    = ".png"

	// MaxFrames is the largest sequence number expressible in three digits.
	MaxFrames = 999
)

var frameNameRe = regexp.MustCompile(`^frame-(\d{3})\.png$`)

// IsFrameName reports whether name (a base name, not a path) is a sampled
// frame file.
func IsFrameName(name string) bool {
	return frameNameRe.MatchString(name)
}

// IsFramePath reports whether the base name of path is a sampled frame file.
func IsFramePath(path string) bool {
	return IsFrameName(filepath.Base(path))
}

// FrameSequence returns the sequence number embedded in a frame name.
func FrameSequence(name string) (int, bool) {
	m := frameNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FrameName returns the file name for sequence number seq.
func FrameName(seq int) string {
	return fmt.Sprintf("%s%03d%s", FramePrefix, seq, FrameExt)
}

// framePattern is the ffmpeg image2 output pattern for dir.
func framePattern(dir string) string {
	return filepath.Join(dir, FramePrefix+"%03d"+FrameExt)
}

// SortFrames orders paths by frame sequence number. Paths that are not
// frame files keep their relative order after all frame files.
func SortFrames(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		si, oki := FrameSequence(paths[i])
		sj, okj := FrameSequence(paths[j])
		switch {
		case oki && okj:
			return si < sj
		case oki:
			return true
		default:
			return false
		}
	})
}
