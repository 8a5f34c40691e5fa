package bytecode

import (
	"fmt"
	"io"
)

// SectionWalker prints the byte range each module section occupies.
// Used by the -show-section-ranges mode instead of the interactive
// shell.
type SectionWalker struct {
	mod *Module
	w   io.Writer
}

// NewSectionWalker creates a walker over the given module.
func NewSectionWalker(mod *Module, w io.Writer) *SectionWalker {
	return &SectionWalker{mod: mod, w: w}
}

// PrintSectionRanges writes one line per section. When human is true,
// ranges are printed in hex; otherwise in decimal.
func (sw *SectionWalker) PrintSectionRanges(human bool) {
	for _, sec := range sw.mod.Sections {
		if human {
			fmt.Fprintf(sw.w, "%-16s 0x%08X .. 0x%08X (%d bytes)\n", sec.Name+":", sec.Start, sec.End, sec.End-sec.Start)
		} else {
			fmt.Fprintf(sw.w, "%-16s %d .. %d (%d bytes)\n", sec.Name+":", sec.Start, sec.End, sec.End-sec.Start)
		}
	}
	if human {
		fmt.Fprintf(sw.w, "%-16s 0x%08X\n", "file size:", sw.mod.FileSize)
	} else {
		fmt.Fprintf(sw.w, "%-16s %d\n", "file size:", sw.mod.FileSize)
	}
}
