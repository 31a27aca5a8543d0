package compiler

import (
	"strconv"
	"strings"
)

// nilSource is the end-of-output cell, cons const (cons const const).
const nilSource = "1 ! @ . . 1 ! @ . . ! @ . . @ . ."

// Quote returns source for a program that emits data and then ends. It
// spells the same list vm.EncodeBytes builds: each cell cons b rest is
// written "1 b @ . . rest @ . .".
func Quote(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		b.WriteString("1 ")
		b.WriteString(byteLiteral(c))
		b.WriteString(" @ . . ")
	}
	b.WriteString(nilSource)
	for range data {
		b.WriteString(" @ . .")
	}
	b.WriteByte('\n')
	return b.String()
}

// byteLiteral spells c as a letter literal when it is printable and as a
// decimal numeral otherwise.
func byteLiteral(c byte) string {
	if c > ' ' && c < 0x7f {
		return "'" + string(c)
	}
	return strconv.Itoa(int(c))
}
