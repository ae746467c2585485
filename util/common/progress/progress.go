// Package progress provides progress reporting functionality
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/cookware/cargo-cook/util/common"
)

// Reporter defines the interface for reporting progress.
// It provides methods to report different stages of an operation
// and its status.
type Reporter interface {
	// Start begins progress reporting with an initial message
	Start(message string)

	// Step reports a new step in the operation
	Step(message string)

	// Info reports informational text, such as remote command output
	Info(message string)

	// Warn reports a non-fatal problem
	Warn(message string)

	// Error reports an error condition
	Error(message string)

	// Success reports successful completion
	Success(message string)

	// Wait runs fn while the operation is shown as in progress
	Wait(message string, fn func() error) error

	// Transfer starts a byte-count status for a file being sent
	Transfer(name string, total int64) Transfer

	// End finalizes progress reporting
	End()
}

// Transfer is the running "bytes sent of total" status of one file.
type Transfer interface {
	Add(n int)
	Done()
}

// ConsoleReporter implements Reporter by printing messages to console
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewWriterReporter creates a ConsoleReporter writing to w
func NewWriterReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) Start(message string) {
	fmt.Fprintf(r.out, "⚡ %s\n", message)
}

func (r *ConsoleReporter) Step(message string) {
	fmt.Fprintf(r.out, "  ▶ %s\n", message)
}

func (r *ConsoleReporter) Info(message string) {
	fmt.Fprintf(r.out, "    %s\n", message)
}

func (r *ConsoleReporter) Warn(message string) {
	fmt.Fprintf(r.out, "  ⚠ %s\n", message)
}

func (r *ConsoleReporter) Error(message string) {
	fmt.Fprintf(r.out, "  ❌ %s\n", message)
}

func (r *ConsoleReporter) Success(message string) {
	fmt.Fprintf(r.out, "  ✅ %s\n", message)
}

func (r *ConsoleReporter) Wait(message string, fn func() error) error {
	r.Step(message)
	return fn()
}

func (r *ConsoleReporter) Transfer(name string, total int64) Transfer {
	return &lineTransfer{out: r.out, name: name, total: total}
}

func (r *ConsoleReporter) End() {}

// lineTransfer rewrites a single status line on every chunk.
type lineTransfer struct {
	out   io.Writer
	name  string
	total int64
	sent  int64
}

func (t *lineTransfer) Add(n int) {
	t.sent += int64(n)
	t.print()
}

// Done ends the status line. Empty files never see Add, so their status is
// printed here.
func (t *lineTransfer) Done() {
	if t.sent == 0 {
		t.print()
	}
	fmt.Fprintln(t.out)
}

func (t *lineTransfer) print() {
	fmt.Fprintf(t.out, "\r  ▶ Sending %q %s", t.name, common.TransferStatus(t.sent, t.total))
}

// NopReporter implements Reporter with no-op operations
type NopReporter struct{}

// NewNopReporter creates a new NopReporter
func NewNopReporter() *NopReporter {
	return &NopReporter{}
}

func (r *NopReporter) Start(message string)                       {}
func (r *NopReporter) Step(message string)                        {}
func (r *NopReporter) Info(message string)                        {}
func (r *NopReporter) Warn(message string)                        {}
func (r *NopReporter) Error(message string)                       {}
func (r *NopReporter) Success(message string)                     {}
func (r *NopReporter) Wait(message string, fn func() error) error { return fn() }
func (r *NopReporter) Transfer(name string, total int64) Transfer { return nopTransfer{} }
func (r *NopReporter) End()                                       {}

type nopTransfer struct{}

func (nopTransfer) Add(n int) {}
func (nopTransfer) Done()     {}
