package translator

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAuthKey is returned before any network call when no auth key is configured.
	ErrMissingAuthKey = errors.New("DeepL auth key is not configured (set DEEPL_AUTH_KEY or run \"deepltr key set\")")
	// ErrNoTranslation is returned when a successful response carries an empty translations list.
	ErrNoTranslation = errors.New("no translation returned")
)

// RemoteError reports a remote call that did not return HTTP 200.
// All such failures share this one kind; StatusCode is kept for diagnosis.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote call failed: status %d: %s", e.StatusCode, e.Body)
}
