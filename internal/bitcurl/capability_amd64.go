//go:build amd64

package bitcurl

import "golang.org/x/sys/cpu"

// Available reports whether the running CPU has the AVX2 instruction
// set this package's 64-way bit-slicing is naturally suited to. The
// permutation itself is portable Go and runs identically either way;
// Available is purely diagnostic, surfaced in logs around a
// proof-of-work search.
var Available = cpu.X86.HasAVX2
