package snmp

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTimeout means no response arrived before retries ran out.
	ErrTimeout = errors.New("snmp request timed out")
	// ErrExchange means the agent answered but flagged the requested OID.
	ErrExchange = errors.New("snmp agent returned an error")
	// ErrTransport means the session could not be opened or the socket failed.
	ErrTransport = errors.New("snmp transport failure")
)

// RequestError carries the error kind together with the target and OID that
// produced it. errors.Is matches both the kind and the cause.
type RequestError struct {
	Kind   error
	Target string
	OID    string
	Err    error
}

func (e *RequestError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, " (target=%s", e.Target)
	if e.OID != "" {
		fmt.Fprintf(&b, " oid=%s", e.OID)
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify maps a failed round trip to ErrTimeout or ErrTransport. gosnmp
// reports exhausted retries as a plain "request timeout" error.
func classify(err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return ErrTimeout
	}
	return ErrTransport
}
