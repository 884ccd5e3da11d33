package settings

import (
	"fmt"
	"io"
	"strings"
)

// ImportError reports a failed hosts import. The stored hosts are left unchanged.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	if e == nil || e.Err == nil {
		return "import hosts failed"
	}

	return fmt.Sprintf("import hosts failed: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

type HostsWriter interface {
	SetHosts(text string) error
}

// HostsImporter stores the full content of an external resource as the local
// hosts snapshot, so the resource is not needed afterwards.
type HostsImporter struct {
	Store HostsWriter
}

func (i HostsImporter) Import(r io.ReadCloser) (string, error) {
	if r == nil {
		return "", &ImportError{Err: fmt.Errorf("no resource selected")}
	}
	defer func() {
		_ = r.Close()
	}()

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", &ImportError{Err: err}
	}
	text := string(raw)
	if err := i.Store.SetHosts(text); err != nil {
		return "", &ImportError{Err: err}
	}

	return text, nil
}

// HostsSummary counts host entries, skipping blank and comment lines.
func HostsSummary(text string) string {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		count++
	}
	switch count {
	case 0:
		return "No entries"
	case 1:
		return "1 entry"
	default:
		return fmt.Sprintf("%d entries", count)
	}
}
