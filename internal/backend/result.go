package backend

import (
	"fmt"

	"github.com/san-kum/atsform/internal/form"
)

type Kind int

const (
	KindOK Kind = iota
	KindNetwork
	KindHTTPStatus
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http-status"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Result is the outcome of one submission. Status is always the text to put
// on the status line, for failures too.
type Result struct {
	Kind   Kind
	Status string
	Detail string
	Code   int
	Err    error
}

// Done reports a completed computation; only then do the result pages exist.
func (r Result) Done() bool {
	return r.Kind == KindOK && form.IsDone(r.Status)
}

func failure(kind Kind, code int, err error) Result {
	var reason string
	switch kind {
	case KindNetwork:
		reason = "сервер недоступен"
	case KindHTTPStatus:
		reason = fmt.Sprintf("HTTP %d", code)
	default:
		reason = "некорректный ответ сервера"
	}
	return Result{
		Kind:   kind,
		Status: form.StatusFailed + ": " + reason,
		Detail: err.Error(),
		Code:   code,
		Err:    err,
	}
}
