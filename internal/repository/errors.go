package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bamskydbest/pharm-back/internal/apierror"

	"gorm.io/gorm"
)

// storeErr translates gorm errors into the domain taxonomy: a missing row
// becomes ErrNotFound, anything else ErrPersistence.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.ErrNotFound
	}
	if errors.Is(err, apierror.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", apierror.ErrPersistence, err)
}

// conn returns tx when the caller runs inside a transaction, the pool otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
