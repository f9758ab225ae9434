package services

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrForbidden       = errors.New("you don't have permission to modify this project")
	ErrInvalidProject  = errors.New("invalid project")
)
