package console

import (
	"fmt"
	"strings"

	"github.com/CloudNativeWorks/etlctl/pkg/tools"
)

const barWidth = 30

func renderBar(done, total int64) string {
	if total <= 0 {
		return "[" + strings.Repeat("·", barWidth) + "]"
	}
	filled := int(done * barWidth / total)
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("·", barWidth-filled) + "]"
}

// TransferProgress returns a callback drawing a byte transfer on one line.
// The line is finished once written reaches total.
func (c *Console) TransferProgress(label string) func(written, total int64) {
	var lastPct int64 = -1
	return func(written, total int64) {
		if total <= 0 {
			fmt.Fprintf(c.out, "\r%s %s", label, tools.HumanSize(written))
			return
		}
		pct := written * 100 / total
		if pct == lastPct {
			return
		}
		lastPct = pct
		fmt.Fprintf(c.out, "\r%s %s %3d%% %s/%s", label, renderBar(written, total), pct,
			tools.HumanSize(written), tools.HumanSize(total))
		if written >= total {
			fmt.Fprintln(c.out)
		}
	}
}

// ItemProgress returns a callback drawing progress over a counted batch
func (c *Console) ItemProgress(label string) func(index, total int, name string) {
	return func(index, total int, name string) {
		fmt.Fprintf(c.out, "\r\033[K%s %s %d/%d %s", label, renderBar(int64(index), int64(total)), index, total, mutedStyle.Render(name))
		if index >= total {
			fmt.Fprintln(c.out)
		}
	}
}
