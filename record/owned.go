package record

import "unsafe"

// Owned is a Record whose LoggerName and Message are copied into a
// private buffer and rebased to point into it, so the value is safe
// to stash inside a ring buffer (backtrace.Recorder) or move across
// worker boundaries without aliasing the producer's original strings
// — mirroring the reference implementation's log_msg_buf
// (original_source/base/log_msg_buf.h), which exists for exactly the
// same reason in a language where a string_view can alias a stack
// frame that is about to unwind.
//
// Invariant I7: after NewOwned or Clone, both LoggerName and Message
// point into buf; buf is never shared between two Owned values.
type Owned struct {
	Record
	buf []byte
}

// NewOwned copies r's LoggerName and Message into a freshly allocated
// buffer and returns an Owned record rebased to point into it.
func NewOwned(r Record) *Owned {
	o := &Owned{Record: r}
	o.rebase(r.LoggerName, r.Message)
	return o
}

// Clone deep-copies o into a new Owned value with its own buffer.
func (o *Owned) Clone() *Owned {
	c := &Owned{Record: o.Record}
	c.rebase(o.LoggerName, o.Message)
	return c
}

// rebase copies name and msg into o.buf and repoints o.LoggerName /
// o.Message at the copies.
func (o *Owned) rebase(name, msg string) {
	o.buf = append(o.buf[:0], name...)
	o.buf = append(o.buf, msg...)

	var namePart, msgPart string
	if len(name) > 0 {
		namePart = unsafe.String(&o.buf[0], len(name))
	}
	if len(msg) > 0 {
		msgPart = unsafe.String(&o.buf[len(name)], len(msg))
	}
	o.LoggerName = namePart
	o.Message = msgPart
}
