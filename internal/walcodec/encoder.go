// Package walcodec persists the piece of RaftState a host must durably write
// before replying to any message: (current_term, voted_for, log[1..]). It
// never touches log_size, which is derived from len(log) on load (see
// DESIGN.md, Open Question 3).
package walcodec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"
)

// checked records which reflect.Types have already been warned about,
// so repeated encodes of the same shape don't spam the log.
var (
	checkedMu sync.Mutex
	checked   map[reflect.Type]bool
)

// encoder wraps encoding/gob.Encoder with a one-time-per-type warning for
// unexported fields, which gob silently drops — a mistake that is otherwise
// invisible until a restart loses state.
type encoder struct {
	gob *gob.Encoder
}

func newEncoder(w *bytes.Buffer) *encoder {
	return &encoder{gob: gob.NewEncoder(w)}
}

func (e *encoder) encode(v interface{}) error {
	warnUnexportedFields(v)
	return e.gob.Encode(v)
}

type decoder struct {
	gob *gob.Decoder
}

func newDecoder(r *bytes.Buffer) *decoder {
	return &decoder{gob: gob.NewDecoder(r)}
}

func (d *decoder) decode(v interface{}) error {
	warnUnexportedFields(v)
	return d.gob.Decode(v)
}

func warnUnexportedFields(value interface{}) {
	warnType(reflect.TypeOf(value))
}

func warnType(t reflect.Type) {
	if t == nil {
		return
	}
	k := t.Kind()

	checkedMu.Lock()
	if checked == nil {
		checked = map[reflect.Type]bool{}
	}
	if checked[t] {
		checkedMu.Unlock()
		return
	}
	checked[t] = true
	checkedMu.Unlock()

	switch k {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			r, _ := utf8.DecodeRuneInString(f.Name)
			if !unicode.IsUpper(r) {
				fmt.Printf("walcodec warning: lower-case field %v of %v won't survive persistence\n", f.Name, t.Name())
			}
			warnType(f.Type)
		}
	case reflect.Slice, reflect.Array, reflect.Ptr:
		warnType(t.Elem())
	case reflect.Map:
		warnType(t.Elem())
		warnType(t.Key())
	}
}
