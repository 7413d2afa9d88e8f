package minifs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// OverwriteDecision is the outcome of consulting an OverwritePolicy when a
// write targets a file whose cursor is not already at EOF (spec.md §4.8).
type OverwriteDecision int

const (
	// OverwriteTruncate truncates the file to empty, frees all its data
	// sectors, and resets the cursor before the write proceeds.
	OverwriteTruncate OverwriteDecision = iota
	// OverwriteAppend moves the cursor to EOF before the write proceeds.
	OverwriteAppend
	// OverwriteCancel aborts the write; File_Write returns 0.
	OverwriteCancel
)

// TailDecision is the outcome of consulting a TailPolicy when a write would
// not fit in the file's remaining capacity (spec.md §4.8).
type TailDecision int

const (
	// TailClip writes only as much as fits.
	TailClip TailDecision = iota
	// TailCancel aborts the write; File_Write returns 0.
	TailCancel
)

// OverwritePolicy decides what File_Write does when asked to write into a
// file whose cursor is not at EOF. The core never reads a terminal itself;
// this hook is how spec.md §4.8 replaces the two interactive source variants.
type OverwritePolicy interface {
	OnNonEmpty(of *OpenFile) OverwriteDecision
}

// TailPolicy decides what File_Write does when the requested write would
// exceed the file's remaining capacity under MaxSectorsPerFile.
type TailPolicy interface {
	OnInsufficientSpace(of *OpenFile, requested, available int) TailDecision
}

// OpenFile is the read-only view of open-file state exposed to policy hooks.
type OpenFile struct {
	Inode   int32
	Size    int64
	Pos     int
	PosByte int
}

// OverwritePolicyFunc adapts a plain function to an OverwritePolicy.
type OverwritePolicyFunc func(*OpenFile) OverwriteDecision

// OnNonEmpty implements OverwritePolicy.
func (f OverwritePolicyFunc) OnNonEmpty(of *OpenFile) OverwriteDecision { return f(of) }

// TailPolicyFunc adapts a plain function to a TailPolicy.
type TailPolicyFunc func(of *OpenFile, requested, available int) TailDecision

// OnInsufficientSpace implements TailPolicy.
func (f TailPolicyFunc) OnInsufficientSpace(of *OpenFile, requested, available int) TailDecision {
	return f(of, requested, available)
}

// DefaultOverwritePolicy always appends, the recommendation spec.md §4.8
// makes for non-interactive systems-language implementations and test suites.
var DefaultOverwritePolicy OverwritePolicy = OverwritePolicyFunc(func(*OpenFile) OverwriteDecision {
	return OverwriteAppend
})

// DefaultTailPolicy always clips to the available space, spec.md §4.8's
// other non-interactive recommendation.
var DefaultTailPolicy TailPolicy = TailPolicyFunc(func(*OpenFile, int, int) TailDecision {
	return TailClip
})

// AlwaysCancelOverwritePolicy is a static policy useful for tests that want
// to assert a write is refused whenever the cursor isn't at EOF.
var AlwaysCancelOverwritePolicy OverwritePolicy = OverwritePolicyFunc(func(*OpenFile) OverwriteDecision {
	return OverwriteCancel
})

// AlwaysCancelTailPolicy is the tail-side equivalent of AlwaysCancelOverwritePolicy.
var AlwaysCancelTailPolicy TailPolicy = TailPolicyFunc(func(*OpenFile, int, int) TailDecision {
	return TailCancel
})

// InteractiveOverwritePolicy prompts on the given reader/writer, the
// behavior the two interactive LibFS.c variants implement directly inside
// File_Write. It refuses to prompt when out is not a terminal (checked with
// go-isatty), falling back to DefaultOverwritePolicy instead of blocking a
// non-interactive caller on an unanswerable prompt.
type InteractiveOverwritePolicy struct {
	In  io.Reader
	Out io.Writer
}

// NewInteractiveOverwritePolicy builds a policy that prompts on os.Stdin/os.Stdout.
func NewInteractiveOverwritePolicy() *InteractiveOverwritePolicy {
	return &InteractiveOverwritePolicy{In: os.Stdin, Out: os.Stdout}
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// OnNonEmpty implements OverwritePolicy.
func (p *InteractiveOverwritePolicy) OnNonEmpty(of *OpenFile) OverwriteDecision {
	if !isTerminalWriter(p.Out) {
		return DefaultOverwritePolicy.OnNonEmpty(of)
	}
	fmt.Fprintf(p.Out, "file (inode %d, %d bytes) is not empty: [o]verwrite, [a]ppend, [c]ancel? ", of.Inode, of.Size)
	answer := readAnswer(p.In)
	switch answer {
	case "o":
		return OverwriteTruncate
	case "c":
		return OverwriteCancel
	default:
		return OverwriteAppend
	}
}

// InteractiveTailPolicy is the tail-side counterpart of InteractiveOverwritePolicy.
type InteractiveTailPolicy struct {
	In  io.Reader
	Out io.Writer
}

// NewInteractiveTailPolicy builds a policy that prompts on os.Stdin/os.Stdout.
func NewInteractiveTailPolicy() *InteractiveTailPolicy {
	return &InteractiveTailPolicy{In: os.Stdin, Out: os.Stdout}
}

// OnInsufficientSpace implements TailPolicy.
func (p *InteractiveTailPolicy) OnInsufficientSpace(of *OpenFile, requested, available int) TailDecision {
	if !isTerminalWriter(p.Out) {
		return DefaultTailPolicy.OnInsufficientSpace(of, requested, available)
	}
	fmt.Fprintf(p.Out, "only %d of %d requested bytes fit: [c]lip, [x]cancel? ", available, requested)
	answer := readAnswer(p.In)
	if answer == "x" {
		return TailCancel
	}
	return TailClip
}

func readAnswer(r io.Reader) string {
	line, _, err := bufio.NewReader(r).ReadLine()
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(string(line)))
}
