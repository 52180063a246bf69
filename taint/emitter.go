package taint

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Emitter appends provenance records to a line-oriented UTF-8 stream
// (spec §4.3). The zero value is not usable; construct one with
// NewEmitter.
type Emitter struct {
	w   *bufio.Writer
	sync bool
}

// NewEmitter wraps dst. Passing nil defaults to os.Stderr, matching the
// spec's "standard error by default" (§6, "Emitter sink").
func NewEmitter(dst io.Writer) *Emitter {
	if dst == nil {
		dst = os.Stderr
	}
	return &Emitter{w: bufio.NewWriter(dst)}
}

// AutoFlush enables flushing the underlying writer after every record,
// useful for tests and for consumers that read the trace while the
// instrumented program is still running rather than at process exit.
func (e *Emitter) AutoFlush(on bool) { e.sync = on }

func (e *Emitter) emit(line string) {
	_, _ = fmt.Fprintln(e.w, line)
	if e.sync {
		_ = e.w.Flush()
	}
}

// Flush writes any buffered records to the underlying writer. Callers
// should flush at process exit even when AutoFlush is off.
func (e *Emitter) Flush() error { return e.w.Flush() }

// Value emits "t<id>=V(<n>)".
func (e *Emitter) Value(id uint32, n uintptr) {
	e.emit(fmt.Sprintf("t%d=V(%d)", id, n))
}

// BinOp emits "t<id>=A(\"<op>\",t<a>,t<b>)".
func (e *Emitter) BinOp(id uint32, op string, a, b Label) {
	e.emit(fmt.Sprintf("t%d=A(%q,t%d,t%d)", id, op, a.ID(), b.ID()))
}

// Object emits "t<id>=O(t<a0>[<o0>],...)".
func (e *Emitter) Object(id uint32, bytes []Label) {
	refs := make([]byte, 0, len(bytes)*8)
	for i, b := range bytes {
		if i > 0 {
			refs = append(refs, ',')
		}
		refs = append(refs, b.Ref()...)
	}
	e.emit(fmt.Sprintf("t%d=O(%s)", id, refs))
}

// Block emits "t<id>=B(<size>,<nr>,t<st>,t<nt>)".
func (e *Emitter) Block(id uint32, size, nr uintptr, sizeTaint, nrTaint Label) {
	e.emit(fmt.Sprintf("t%d=B(%d,%d,t%d,t%d)", id, size, nr, sizeTaint.ID(), nrTaint.ID()))
}

// Malloc emits "t<id>=M(<size>,t<a>[,t<b>])".
func (e *Emitter) Malloc(id uint32, size uintptr, a Label, b *Label) {
	if b == nil {
		e.emit(fmt.Sprintf("t%d=M(%d,t%d)", id, size, a.ID()))
		return
	}
	e.emit(fmt.Sprintf("t%d=M(%d,t%d,t%d)", id, size, a.ID(), b.ID()))
}

// Name emits "t<id>=N(<len>)".
func (e *Emitter) Name(id uint32, length uintptr) {
	e.emit(fmt.Sprintf("t%d=N(%d)", id, length))
}

// Data emits "t<id>=D(<len>)".
func (e *Emitter) Data(id uint32, length uintptr) {
	e.emit(fmt.Sprintf("t%d=D(%d)", id, length))
}

// CrossEdge emits "t<a>[<o>]=t<b>[<p>]".
func (e *Emitter) CrossEdge(dst Label, src Label) {
	e.emit(fmt.Sprintf("%s=%s", dst.Ref(), src.Ref()))
}
