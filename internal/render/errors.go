package render

import "errors"

var (
	ErrUnavailable  = errors.New("render service unavailable")
	ErrRenderFailed = errors.New("render request rejected")
	ErrEmptyResult  = errors.New("render service returned an empty document")
)
