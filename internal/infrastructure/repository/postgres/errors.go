package postgres

import (
	"database/sql/driver"
	"io"
	"net"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

// SQLSTATE classes and codes the repository reacts to.
const (
	classConnection   = "08"
	classResources    = "53"
	classOperatorStop = "57"

	codeSerialization = "40001"
	codeDeadlock      = "40P01"
	codeUniqueViolate = "23505"
)

// errPostgresTransient marks a failure the caller already judged retryable.
var errPostgresTransient = errors.New("postgres transient failure")

var transientSentinels = []error{errPostgresTransient, driver.ErrBadConn, io.ErrUnexpectedEOF, syscall.ECONNREFUSED, syscall.ECONNRESET}

// isTransient reports failures worth retrying on a fresh connection: dropped
// sockets, server shutdown or overload, serialization aborts and deadlocks.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	for _, sentinel := range transientSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	if pqErr, ok := asPQ(err); ok {
		switch pqErr.Code.Class() {
		case classConnection, classResources, classOperatorStop:
			return true
		}
		return pqErr.Code == codeSerialization || pqErr.Code == codeDeadlock
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := asPQ(err)
	return ok && pqErr.Code == codeUniqueViolate
}

func asPQ(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}
