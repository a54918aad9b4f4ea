package domain

import "errors"

var (
	ErrValidation     = errors.New("invalid input")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrAlreadyVoted   = errors.New("user has already voted on this poll")
	ErrInternal       = errors.New("internal error")
)
