package service

import "errors"

var (
	ErrLEDNotFound = errors.New("led not found")
	ErrActuator    = errors.New("actuator command failed")
)
