// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdiddy/zotero-ingest/internal/container"
)

// DefaultImage is the container image used when the configuration does not
// name one.
const DefaultImage = "pdftotext:latest"

// pdftotextArgs runs the extractor as a stdin-to-stdout filter.
var pdftotextArgs = []string{"pdftotext", "-", "-"}

// PdftotextConverter extracts text by piping PDFs through a pdftotext
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type PdftotextConverter struct {
	runtime container.Runtime
	image   string
}

// NewPdftotextConverter creates a converter that uses the given container
// runtime. It verifies that the image exists locally before returning.
func NewPdftotextConverter(rt container.Runtime, image string) (*PdftotextConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("extraction image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextConverter{runtime: rt, image: image}, nil
}

// Convert reads the PDF at pdfPath, pipes it through the container, and
// returns the extracted text.
func (p *PdftotextConverter) Convert(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := p.runtime.Run(p.image, pdftotextArgs, f, &out); err != nil {
		return "", fmt.Errorf("extracting %s: %w", pdfPath, err)
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}

	return out.String(), nil
}
