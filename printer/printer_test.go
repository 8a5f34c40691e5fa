package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func emitTwoRecords(p Printer) {
	p.OpenArray()
	p.OpenDict()
	p.KeyUint("id", 0)
	p.KeyString("name", "main")
	p.CloseDict()
	p.OpenDict()
	p.KeyUint("id", 1)
	p.KeyString("name", "helper")
	p.CloseDict()
	p.CloseArray()
	p.Close()
}

func TestTextPrinter(t *testing.T) {
	var buf bytes.Buffer
	emitTwoRecords(New(&buf, false))

	want := "id: 0\nname: main\n\nid: 1\nname: helper\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestJSONPrinterArray(t *testing.T) {
	var buf bytes.Buffer
	emitTwoRecords(New(&buf, true))

	var records []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1]["name"] != "helper" {
		t.Errorf("records[1] = %v", records[1])
	}
}

func TestJSONPrinterSingleDict(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	p.OpenDict()
	p.KeyUint("functionId", 3)
	p.KeyString("name", "main")
	p.KeyUint("start", 40)
	p.KeyUint("end", 48)
	p.CloseDict()
	p.Close()

	// Keys come out in insertion order, not sorted.
	want := `{"functionId":3,"name":"main","start":40,"end":48}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestJSONPrinterNothingEmitted(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Close()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestTextPrinterEscapesNothing(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	p.OpenDict()
	p.KeyString("name", `<anonymous 7>`)
	p.CloseDict()
	p.Close()

	if !strings.Contains(buf.String(), "name: <anonymous 7>") {
		t.Errorf("text output mangled the value: %q", buf.String())
	}
}
