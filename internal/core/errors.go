package core

import "errors"

// ErrHubStopped is returned by hub operations after Run has returned.
var ErrHubStopped = errors.New("hub stopped")
