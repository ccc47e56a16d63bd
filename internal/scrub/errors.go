// Copyright by Eric S. Raymond
// SPDX-License-Identifier: BSD-2-Clause

package scrub

import (
	"fmt"
)

// Go's panic/defer/recover feature is a weak primitive for catchable
// exceptions, but it's all we have. So we write a throw/catch pair;
// throw() builds the exception value, which the caller either passes
// to panic() or returns as an error; catch() can only be
// called in a defer hook either at the current level or further up the
// call stack and must take recover() as its second argument.
//
// Defined error classes:
//
// config = malformed or self-contradictory configuration. Fatal,
// discovered before any file is scrubbed.
//
// io = failure to read a source file. Fatal; aborts the run.
//
// Unlabeled panics are presumed to be unrecoverable internal errors.
type exception struct {
	class   string
	message string
}

func (e *exception) Error() string {
	return e.message
}

func throw(class string, msg string, args ...interface{}) *exception {
	e := new(exception)
	e.class = class
	e.message = fmt.Sprintf(msg, args...)
	return e
}

func catch(accept string, x interface{}) *exception {
	if x == nil {
		return nil
	}
	if err, ok := x.(*exception); ok {
		if err.class == accept {
			return err
		}
	}
	panic(x)
}

// CatchIOError is the exported half of the throw/catch pair callers
// outside this package use to recover a fatal "io" exception (spec.md
// §7: a failure to read a source file aborts the run, but the CLI
// still wants a clean diagnostic rather than a raw Go panic trace). Call
// it from a deferred recover(); it re-panics anything that isn't an
// "io"-class exception, per catch()'s usual contract.
func CatchIOError(r interface{}) (message string, ok bool) {
	e := catch("io", r)
	if e == nil {
		return "", false
	}
	return e.message, true
}
