package entities

import "errors"

func errInvalidMetrics(msg string) error {
	return errors.New("invalid exercise metrics: " + msg)
}
