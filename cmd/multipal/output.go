package main

import (
	"io"

	"github.com/hyperengineering/multipal"
)

// noticePrinter surfaces client notices on the terminal with the level's
// icon and style.
type noticePrinter struct {
	w io.Writer
}

func (p noticePrinter) Notify(n multipal.Notice) {
	switch n.Level {
	case multipal.NoticeSuccess:
		printSuccess(p.w, "%s", n.Message)
	case multipal.NoticeError:
		printError(p.w, "%s", n.Message)
	default:
		printInfo(p.w, "%s", n.Message)
	}
}
