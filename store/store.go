// Package store is the system of record: gorm repositories over Postgres for
// every collection of the social graph.
package store

import (
	"github.com/Luismorlan/localsocial/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("not allowed for this user")
	ErrInvalidInput = errors.New("invalid input")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// notFound maps gorm's not found error to ErrNotFound and wraps everything
// else.
func notFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, what)
	}
	return errors.Wrapf(err, "failed to load %s", what)
}

func (s *Store) transaction(fn utils.GormTransaction) error {
	return s.db.Transaction(fn)
}
