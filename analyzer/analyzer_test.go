package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/bcdump/pkg/bytecode"
	"github.com/chazu/bcdump/printer"
)

var testCodeMain = []byte{
	byte(bytecode.OpConst), 0x00, 0x02,
	byte(bytecode.OpCall), 0x00, 0x01, 0x01,
	byte(bytecode.OpReturn),
}

var testCodeHelper = []byte{
	byte(bytecode.OpLoadParam), 0x00,
	byte(bytecode.OpJumpFalse), 0x00, 0x02,
	byte(bytecode.OpConstOne),
	byte(bytecode.OpReturn),
	byte(bytecode.OpConstZero),
	byte(bytecode.OpReturn),
}

func buildTestModule(t *testing.T) *bytecode.Module {
	t.Helper()

	m := &bytecode.Module{
		Version:   bytecode.ModuleVersion,
		Flags:     bytecode.ModuleFlagDebug,
		Strings:   []string{"main", "helper", "hello world"},
		Filenames: []string{"main.src"},
		Functions: []bytecode.Function{
			{NameIndex: 0, ParamCount: 0, FilenameIndex: 0, Line: 1, Code: testCodeMain},
			{NameIndex: 1, ParamCount: 1, FilenameIndex: 0, Line: 10, Code: testCodeHelper},
		},
		Epilogue: []byte("trailing"),
	}
	data, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	mod, err := bytecode.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	return mod
}

// testTrace executes main once per 10 and takes the true branch of
// helper 3 of 5 times.
const testTrace = `{
	"pageSize": 16,
	"functions": [
		{"functionId": 0, "blocks": [{"offset": 0, "executionCount": 10}]},
		{"functionId": 1, "blocks": [
			{"offset": 0, "executionCount": 5},
			{"offset": 5, "executionCount": 3},
			{"offset": 7, "executionCount": 2}
		]}
	]
}`

func newTestAnalyzer(t *testing.T, profile []byte) (*Analyzer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	a, err := New(&buf, buildTestModule(t), profile)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a, &buf
}

func TestParseTraceDefaults(t *testing.T) {
	tr, err := ParseTrace([]byte(`{"functions":[]}`))
	if err != nil {
		t.Fatalf("ParseTrace failed: %v", err)
	}
	if tr.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want default %d", tr.PageSize, DefaultPageSize)
	}
	if tr.ForFunction(0) != nil {
		t.Error("ForFunction on empty trace should return nil")
	}
}

func TestParseTraceInvalid(t *testing.T) {
	if _, err := ParseTrace([]byte("not json")); err == nil {
		t.Error("expected error for malformed trace")
	}
}

func TestHasProfile(t *testing.T) {
	a, _ := newTestAnalyzer(t, nil)
	if a.HasProfile() {
		t.Error("HasProfile = true without a trace")
	}
	a, _ = newTestAnalyzer(t, []byte(testTrace))
	if !a.HasProfile() {
		t.Error("HasProfile = false with a trace")
	}
}

func TestFrequencyCommandsWithoutProfile(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)

	a.DumpFunctionStats()
	a.DumpInstructionStats()
	a.DumpBasicBlockStats()
	a.DumpIO()

	if n := strings.Count(buf.String(), "No profile data loaded."); n != 4 {
		t.Errorf("profile notice printed %d times, want 4:\n%s", n, buf.String())
	}
}

func TestDumpFunctionStats(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	a.DumpFunctionStats()
	out := buf.String()

	if !strings.Contains(out, "FUNC_ID") {
		t.Errorf("missing header:\n%s", out)
	}
	// main: one block of 3 instructions, executed 10 times = 30.
	// helper: three blocks of 2 instructions, 5+3+2 executions = 20.
	if !strings.Contains(out, "30") || !strings.Contains(out, "20") {
		t.Errorf("missing expected weights:\n%s", out)
	}
	if !strings.Contains(out, "main (main.src:1)") {
		t.Errorf("missing source annotation:\n%s", out)
	}
	// Descending order: main before helper.
	if strings.Index(out, "main") > strings.Index(out, "helper") {
		t.Errorf("rows not in descending weight order:\n%s", out)
	}
}

func TestDumpFunctionBasicBlockStats(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	if err := a.DumpFunctionBasicBlockStats(1); err != nil {
		t.Fatalf("DumpFunctionBasicBlockStats failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Basic blocks for helper [1]:") {
		t.Errorf("missing title:\n%s", out)
	}
	for _, want := range []string{"0000", "0005", "0007"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing block start %s:\n%s", want, out)
		}
	}
}

func TestDumpFunctionBasicBlockStatsBadID(t *testing.T) {
	a, _ := newTestAnalyzer(t, []byte(testTrace))
	if err := a.DumpFunctionBasicBlockStats(42); !errors.Is(err, bytecode.ErrInvalidFunctionID) {
		t.Errorf("error = %v, want ErrInvalidFunctionID", err)
	}
}

func TestDumpInstructionStats(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	a.DumpInstructionStats()
	out := buf.String()

	if !strings.Contains(out, "INSTRUCTION") {
		t.Errorf("missing header:\n%s", out)
	}
	for _, want := range []string{"CONST", "CALL", "RETURN", "LOAD_PARAM", "JUMP_FALSE"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing opcode %s:\n%s", want, out)
		}
	}
}

func TestDumpString(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	if err := a.DumpString(2); err != nil {
		t.Fatalf("DumpString failed: %v", err)
	}
	if got := buf.String(); got != "String 2: \"hello world\"\n" {
		t.Errorf("output = %q", got)
	}
	if err := a.DumpString(99); !errors.Is(err, bytecode.ErrInvalidStringIndex) {
		t.Errorf("error = %v, want ErrInvalidStringIndex", err)
	}
}

func TestDumpFileName(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	if err := a.DumpFileName(0); err != nil {
		t.Fatalf("DumpFileName failed: %v", err)
	}
	if got := buf.String(); got != "Filename 0: main.src\n" {
		t.Errorf("output = %q", got)
	}
	if err := a.DumpFileName(5); !errors.Is(err, bytecode.ErrInvalidFileIndex) {
		t.Errorf("error = %v, want ErrInvalidFileIndex", err)
	}
}

func TestDumpIO(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	a.DumpIO()
	out := buf.String()

	if !strings.Contains(out, "16-byte pages") {
		t.Errorf("missing page size:\n%s", out)
	}
	if !strings.Contains(out, "#") {
		t.Errorf("no page marked touched:\n%s", out)
	}
	if !strings.Contains(out, "pages touched") {
		t.Errorf("missing totals line:\n%s", out)
	}
}

func TestDumpSummary(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	a.DumpSummary()
	out := buf.String()

	for _, want := range []string{
		"Module version: 1",
		"Functions:      2",
		"Strings:        3",
		"Epilogue:       8 bytes",
		"Profile trace:  true",
		"Sections:",
		"string table",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestDumpBasicBlockStats(t *testing.T) {
	a, buf := newTestAnalyzer(t, []byte(testTrace))
	a.DumpBasicBlockStats()
	out := buf.String()

	if !strings.Contains(out, "RANK") {
		t.Errorf("missing header:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header plus the four traced blocks.
	if len(lines) != 5 {
		t.Errorf("got %d lines, want 5:\n%s", len(lines), out)
	}
	// Hottest block is function 0 at offset 0 with count 10.
	if !strings.Contains(lines[1], "10") || !strings.Contains(lines[1], "main [0]") {
		t.Errorf("rank 1 row wrong: %q", lines[1])
	}
}

func TestDumpFunctionOffsetsText(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	if err := a.DumpFunctionOffsets(0, printer.New(buf, false)); err != nil {
		t.Fatalf("DumpFunctionOffsets failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "functionId: 0") || !strings.Contains(out, "name: main") {
		t.Errorf("missing fields:\n%s", out)
	}
}

func TestDumpFunctionOffsetsBadID(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	err := a.DumpFunctionOffsets(42, printer.New(buf, false))
	if !errors.Is(err, bytecode.ErrInvalidFunctionID) {
		t.Errorf("error = %v, want ErrInvalidFunctionID", err)
	}
}

func TestDumpAllFunctionOffsetsJSON(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	a.DumpAllFunctionOffsets(printer.New(buf, true))

	var records []struct {
		FunctionID uint32 `json:"functionId"`
		Name       string `json:"name"`
		Start      uint32 `json:"start"`
		End        uint32 `json:"end"`
	}
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "main" || records[1].Name != "helper" {
		t.Errorf("unexpected names: %+v", records)
	}
	if records[0].End-records[0].Start != uint32(len(testCodeMain)) {
		t.Errorf("function 0 range %d..%d does not cover its code", records[0].Start, records[0].End)
	}
}

func TestFunctionFromVirtualOffset(t *testing.T) {
	a, _ := newTestAnalyzer(t, nil)
	mod := buildTestModule(t)

	f1 := mod.Functions[1]
	id, ok := a.FunctionFromVirtualOffset(f1.VirtualOffset + 2)
	if !ok || id != 1 {
		t.Errorf("resolve(%d) = %d, %v; want 1, true", f1.VirtualOffset+2, id, ok)
	}
	// Header bytes between functions belong to no function.
	if _, ok := a.FunctionFromVirtualOffset(0); ok {
		t.Error("offset 0 resolved inside a function")
	}
	if _, ok := a.FunctionFromVirtualOffset(1 << 30); ok {
		t.Error("huge offset resolved inside a function")
	}
}

func TestDumpEpilogue(t *testing.T) {
	a, buf := newTestAnalyzer(t, nil)
	a.DumpEpilogue()
	out := buf.String()

	if !strings.Contains(out, "Epilogue: 8 bytes") {
		t.Errorf("missing size line:\n%s", out)
	}
	if !strings.Contains(out, "trailing") {
		t.Errorf("hex dump missing ASCII column:\n%s", out)
	}
}

func TestDumpEpilogueEmpty(t *testing.T) {
	var buf bytes.Buffer
	mod := buildTestModule(t)
	mod.Epilogue = nil
	a, err := New(&buf, mod, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a.DumpEpilogue()
	if got := buf.String(); got != "No epilogue data.\n" {
		t.Errorf("output = %q", got)
	}
}
