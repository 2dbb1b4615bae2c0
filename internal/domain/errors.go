package domain

import "errors"

// ErrCookieExpired indicates the acquisition credentials were rejected or
// bot detection kicked in. Needs manual remediation, never retried.
var ErrCookieExpired = errors.New("acquisition cookies expired or rejected")

// ErrTransientStore indicates a store-side hiccup that is safe to retry
// at the part level.
var ErrTransientStore = errors.New("transient object store error")

// ErrEmptySource indicates the resolver reported a zero-length source.
var ErrEmptySource = errors.New("source reported zero length")
