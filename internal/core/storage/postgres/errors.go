package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/lib/pq"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
)

// classify maps driver failures onto the pipeline's error kinds. op names the
// failing step for the wrapped message.
func classify(op, callID string, hash int64, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23503":
			switch pqErr.Constraint {
			case constraintFreqCall, constraintSrcCall:
				return fmt.Errorf("%s: %w", op, storage.ErrParentMissing)
			case constraintSrcSource, constraintCallTalkgroup:
				e := ingesterr.Wrap(ingesterr.KindReferenceNotFound, callID, err)
				e.Hash = hash
				e.Msg = pqErr.Constraint
				return e
			}
		case isTransientCode(pqErr.Code):
			return ingesterr.Wrap(ingesterr.KindStorageUnavailable, callID, fmt.Errorf("%s: %w", op, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isConnectionError(err) {
		return ingesterr.Wrap(ingesterr.KindStorageUnavailable, callID, fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransientCode covers connection exceptions, resource exhaustion,
// operator intervention and serialization failures.
func isTransientCode(code pq.ErrorCode) bool {
	switch code.Class() {
	case "08", "53", "57":
		return true
	}
	switch code {
	case "40001", "40P01":
		return true
	}
	return false
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
