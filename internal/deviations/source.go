package deviations

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Fetcher downloads a document by URL. *github.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Source names where a deviation list comes from. File wins over URL.
type Source struct {
	URL  string
	File string
}

func (s Source) String() string {
	if s.File != "" {
		return s.File
	}
	return s.URL
}

// Load reads and parses the deviation list named by src.
func Load(ctx context.Context, f Fetcher, src Source) ([]Deviation, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case src.File != "":
		data, err = os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("read deviation list: %w", err)
		}
	case src.URL != "":
		if f == nil {
			return nil, errors.New("no fetcher configured for deviation URL")
		}
		data, err = f.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("deviation source is empty")
	}

	return Parse(data)
}
