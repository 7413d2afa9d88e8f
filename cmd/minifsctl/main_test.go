package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain registers minifsctl as an in-process binary the txtar scripts
// under testdata/script can invoke with `exec minifsctl ...`, the
// standard testscript pattern for black-box CLI testing without forking a
// real subprocess per command.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"minifsctl": run,
	}))
}

// TestScripts drives spec.md §8's walkthrough scenarios through minifsctl
// itself rather than the library API (see fs_test.go for the latter). Not
// every scenario translates: each minifsctl invocation boots, performs one
// operation, and syncs, so no file descriptor (or process-wide error slot)
// survives across commands — S4's FILE_IN_USE and S6's raw Seek bounds need
// a live fd within a single process and aren't expressible through this
// one-shot-per-invocation CLI (spec.md §6 calls the CLI surface a
// non-normative collaborator for exactly this reason). The scenarios that
// only depend on image-file state surviving between invocations — S1, S2,
// S3, S5 — are covered below.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
