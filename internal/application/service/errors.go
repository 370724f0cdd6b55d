package service

import "errors"

var (
	// ErrNotAuthorized: the request is not PENDING or the actor is not its current approver
	ErrNotAuthorized = errors.New("not authorized to act on this request")

	// ErrConflict: another action on the same request committed first
	ErrConflict = errors.New("request was modified concurrently")

	ErrRequestNotFound = errors.New("request not found")

	ErrInvalidRequest = errors.New("invalid request")
)
