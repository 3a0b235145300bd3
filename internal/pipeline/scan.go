package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// videoExtensions are the clip formats discovered by the scanner
var videoExtensions = map[string]bool{
	".mkv": true,
	".mp4": true,
	".avi": true,
	".mov": true,
}

// FindVideos recursively collects video files under root. The walk is
// lexical, so the result order is stable within a run.
func FindVideos(root string) ([]string, error) {
	var videos []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if videoExtensions[strings.ToLower(filepath.Ext(path))] {
			videos = append(videos, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return videos, nil
}

// listFiles returns every regular file under root, for diagnostics when
// discovery comes up empty
func listFiles(root string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}
