package analyzer

import (
	"encoding/json"
	"fmt"
)

// DefaultPageSize is assumed when a trace does not declare one.
const DefaultPageSize uint32 = 4096

// BlockTrace is the execution count for one basic block, identified by
// the code offset of its first instruction within the function.
type BlockTrace struct {
	Offset         uint32 `json:"offset"`
	ExecutionCount uint64 `json:"executionCount"`
}

// FunctionTrace holds the traced blocks of one function.
type FunctionTrace struct {
	FunctionID uint32       `json:"functionId"`
	Blocks     []BlockTrace `json:"blocks"`
}

// Trace is a parsed basic-block profile trace, as produced by the
// basic block profiler in JSON form.
type Trace struct {
	PageSize  uint32          `json:"pageSize"`
	Functions []FunctionTrace `json:"functions"`

	byFunction map[uint32]*FunctionTrace
}

// ParseTrace decodes a JSON profile trace.
func ParseTrace(data []byte) (*Trace, error) {
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("analyzer: parse profile trace: %w", err)
	}
	if t.PageSize == 0 {
		t.PageSize = DefaultPageSize
	}
	t.byFunction = make(map[uint32]*FunctionTrace, len(t.Functions))
	for i := range t.Functions {
		t.byFunction[t.Functions[i].FunctionID] = &t.Functions[i]
	}
	return &t, nil
}

// ForFunction returns the trace record for a function id, or nil when
// the function was never traced.
func (t *Trace) ForFunction(id uint32) *FunctionTrace {
	if t == nil {
		return nil
	}
	return t.byFunction[id]
}
