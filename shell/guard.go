package shell

import "github.com/chazu/bcdump/pkg/bytecode"

// optionsGuard temporarily overrides the disassembler's persistent
// option set for the duration of one command. The caller defers
// Release so the baseline is restored on every exit path, including
// early returns on argument errors.
type optionsGuard struct {
	dis   Disassembler
	saved bytecode.Options
}

// holdOptions saves the disassembler's current options and applies
// opts in their place.
func holdOptions(dis Disassembler, opts bytecode.Options) *optionsGuard {
	g := &optionsGuard{dis: dis, saved: dis.Options()}
	dis.SetOptions(opts)
	return g
}

// Release restores the saved option set.
func (g *optionsGuard) Release() {
	g.dis.SetOptions(g.saved)
}
