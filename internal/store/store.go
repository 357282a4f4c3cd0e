// Package store implements the domain repositories on the local query
// facade.
package store

import (
	"errors"
	"fmt"

	"github.com/ganot/estimate-poker/internal/localdb"
	"github.com/ganot/estimate-poker/internal/repository"
)

// mapErr translates facade errors into repository errors.
func mapErr(err error, action string) error {
	if errors.Is(err, localdb.ErrInvalidQuery) || errors.Is(err, localdb.ErrDuplicateID) {
		return fmt.Errorf("%s: %w: %w", action, repository.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// one decodes a single-row response into dst, reporting absence as
// repository.ErrNotFound.
func one(resp localdb.Response, dst any, action string) error {
	if resp.Error != nil {
		return mapErr(resp.Error, action)
	}
	if !resp.Found() {
		return repository.ErrNotFound
	}
	if err := resp.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// many decodes a list response into dst.
func many(resp localdb.Response, dst any, action string) error {
	if resp.Error != nil {
		return mapErr(resp.Error, action)
	}
	if err := resp.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}
