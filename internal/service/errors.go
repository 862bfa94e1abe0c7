package service

import (
	"errors"

	"Lee_Forum/internal/apperr"
)

func ignoreNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
