package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider loads image results from a local JSON file for offline/testing use.
// The file uses the provider response shape: {"images": [{"title", "link", "imageUrl"}]}.
// The query is ignored; the file is the answer for every query.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, _ string, limit int) ([]Candidate, error) {
	if strings.TrimSpace(f.Path) == "" {
		return nil, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var raw imagesResponse
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := NormalizeImages(raw.Images)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
