package progress

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/cookware/cargo-cook/util/common"
)

// barTransfer feeds a pterm progress bar with the bytes sent so far.
type barTransfer struct {
	bar *pterm.ProgressbarPrinter
}

func newBarTransfer(name string, total int64) Transfer {
	title := fmt.Sprintf("Sending %s (%s)", name, common.GetSize(total))
	bar := pterm.DefaultProgressbar.
		WithTitle(title).
		WithRemoveWhenDone(false)

	if total > 0 {
		bar = bar.WithTotal(int(total))
	}

	pb, err := bar.Start()
	if err != nil {
		return nopTransfer{}
	}
	return &barTransfer{bar: pb}
}

func (t *barTransfer) Add(n int) {
	t.bar.Add(n)
}

func (t *barTransfer) Done() {
	t.bar.Stop()
}
