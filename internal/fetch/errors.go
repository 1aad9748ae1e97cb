package fetch

import (
	"fmt"
)

// FetchError is a page that could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempts", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GetStatusCode implements retry.StatusCoder
func (e *FetchError) GetStatusCode() int {
	return e.StatusCode
}
