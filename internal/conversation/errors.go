package conversation

import "errors"

var (
	ErrContactNotFound      = errors.New("contact not found")
	ErrNoQuestions          = errors.New("no questions defined for survey")
	ErrCatalogUnavailable   = errors.New("question catalog unavailable")
	ErrSendFailed           = errors.New("transport send failed")
	ErrDirectoryUnavailable = errors.New("contact directory unavailable")
	ErrPhaseMismatch        = errors.New("conversation not in expected phase")
)
