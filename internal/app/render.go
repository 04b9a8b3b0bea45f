package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shpitdev/eventbrite-extractor/pkg/event"
	"github.com/shpitdev/eventbrite-extractor/pkg/newsletter"
	localio "github.com/shpitdev/eventbrite-extractor/pkg/pipeline/io/local"
)

// ReadViews loads views from a .json or .csv export.
func ReadViews(path string) ([]event.View, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return localio.ReadViewsJSON(f)
	case ".csv":
		return localio.ReadViewsCSV(f)
	default:
		return nil, fmt.Errorf("unsupported input extension %q (want .json or .csv)", ext)
	}
}

// RunRender renders a previously exported view file into an HTML newsletter.
func RunRender(inputPath, outputPath string, opts newsletter.Options) (int, error) {
	views, err := ReadViews(inputPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", inputPath, err)
	}
	err = localio.WriteFileAtomic(outputPath, func(b *bytes.Buffer) error {
		return newsletter.Render(b, views, opts)
	})
	if err != nil {
		return 0, err
	}
	return len(views), nil
}
