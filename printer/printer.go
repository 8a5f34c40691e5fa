// Package printer renders tabular analyzer output as either plain text
// or JSON. A printer is created fresh for each command invocation that
// supports the -json flag and discarded afterwards.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
)

// Printer receives a flat stream of dict/array structure events and
// renders them in its output format. The event sequence must be
// balanced: every OpenDict/OpenArray has a matching close, and Close
// is called exactly once at the end.
type Printer interface {
	OpenDict()
	CloseDict()
	OpenArray()
	CloseArray()
	KeyString(key, value string)
	KeyUint(key string, value uint64)
	Close()
}

// New creates a text printer, or a JSON printer when json is true.
func New(w io.Writer, json bool) Printer {
	if json {
		return &jsonPrinter{w: w}
	}
	return &textPrinter{w: w}
}

// textPrinter renders key: value lines with a blank line between
// records.
type textPrinter struct {
	w        io.Writer
	anyDicts bool
}

func (p *textPrinter) OpenDict() {
	if p.anyDicts {
		fmt.Fprintln(p.w)
	}
	p.anyDicts = true
}

func (p *textPrinter) CloseDict()  {}
func (p *textPrinter) OpenArray()  {}
func (p *textPrinter) CloseArray() {}

func (p *textPrinter) KeyString(key, value string) {
	fmt.Fprintf(p.w, "%s: %s\n", key, value)
}

func (p *textPrinter) KeyUint(key string, value uint64) {
	fmt.Fprintf(p.w, "%s: %d\n", key, value)
}

func (p *textPrinter) Close() {}

// jsonPrinter renders the same event stream as JSON. Values are
// buffered into a tree and marshaled on Close so the output is always
// well formed.
type jsonPrinter struct {
	w     io.Writer
	root  any
	stack []any // *orderedDict or *[]any currently open
}

// orderedDict preserves key insertion order when marshaling.
type orderedDict struct {
	keys   []string
	values map[string]any
}

func newOrderedDict() *orderedDict {
	return &orderedDict{values: make(map[string]any)}
}

func (d *orderedDict) set(key string, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d *orderedDict) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range d.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}

func (p *jsonPrinter) push(node any) {
	if p.root == nil {
		p.root = node
	} else if top, ok := p.top().(*[]any); ok {
		*top = append(*top, node)
	}
	p.stack = append(p.stack, node)
}

func (p *jsonPrinter) top() any {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *jsonPrinter) pop() {
	if len(p.stack) > 0 {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

func (p *jsonPrinter) OpenDict() {
	p.push(newOrderedDict())
}

func (p *jsonPrinter) CloseDict() {
	p.pop()
}

func (p *jsonPrinter) OpenArray() {
	arr := &[]any{}
	p.push(arr)
}

func (p *jsonPrinter) CloseArray() {
	p.pop()
}

func (p *jsonPrinter) KeyString(key, value string) {
	if d, ok := p.top().(*orderedDict); ok {
		d.set(key, value)
	}
}

func (p *jsonPrinter) KeyUint(key string, value uint64) {
	if d, ok := p.top().(*orderedDict); ok {
		d.set(key, value)
	}
}

func (p *jsonPrinter) Close() {
	if p.root == nil {
		return
	}
	out, err := json.Marshal(p.root)
	if err != nil {
		fmt.Fprintf(p.w, "{}\n")
		return
	}
	fmt.Fprintf(p.w, "%s\n", out)
}
