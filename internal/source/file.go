package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/searchlab/termindex/pkg/errors"
)

// FileProvider streams lines from a local text file.
type FileProvider struct {
	Path string
}

func (p *FileProvider) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errors.ErrSourceUnavailable, p.Path, err)
	}
	return f, nil
}
