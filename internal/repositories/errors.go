package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrForbidden         = errors.New("forbidden")
	ErrConnection        = errors.New("database connection unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var (
	ErrChatNotFound         = fmt.Errorf("chat %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrParticipantNotFound  = fmt.Errorf("participant %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message %w", ErrNotFound)
	ErrReceiptNotFound      = fmt.Errorf("receipt %w", ErrNotFound)
	ErrContactNotFound      = fmt.Errorf("contact %w", ErrNotFound)
	ErrContactGroupNotFound = fmt.Errorf("contact group %w", ErrNotFound)
	ErrAgentNotFound        = fmt.Errorf("agent %w", ErrNotFound)
	ErrConversationNotFound = fmt.Errorf("conversation %w", ErrNotFound)
)

// DatabaseError wraps a store failure that has no domain meaning.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// SQLite result codes, see https://sqlite.org/rescode.html.
const (
	sqliteBusy                 = 5
	sqliteLocked               = 6
	sqliteCantOpen             = 14
	sqliteConstraint           = 19
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// classify turns a driver error into the package taxonomy. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	case isConnectionError(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConnection, err)
	}
	return &DatabaseError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidArgument)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey {
			return true
		}
		if code == sqliteConstraint {
			return strings.Contains(sqliteErr.Error(), "UNIQUE")
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqliteBusy, sqliteLocked, sqliteCantOpen:
			return true
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 53: insufficient resources
		return pqErr.Code.Class() == "08" || pqErr.Code.Class() == "53"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Outcome labels an operation result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrConnection):
		return "connection"
	}
	return "error"
}
