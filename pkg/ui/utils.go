package ui

import (
	"github.com/muesli/reflow/wordwrap"
)

func wrapWords(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := wordwrap.NewWriter(width)
	_, _ = w.Write([]byte(s))
	_ = w.Close()
	return w.String()
}
