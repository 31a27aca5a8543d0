package main

import (
	"errors"
	"io"

	"github.com/peterh/liner"
)

// promptReader feeds a program input typed at a line-editing prompt. Each
// line is delivered with its newline; Ctrl-D or Ctrl-C ends the input.
type promptReader struct {
	ln     *liner.State
	prompt string
	buf    []byte
	eof    bool
}

func newPromptReader(prompt string) *promptReader {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	return &promptReader{ln: ln, prompt: prompt}
}

func (p *promptReader) Read(b []byte) (int, error) {
	if len(p.buf) == 0 {
		if p.eof {
			return 0, io.EOF
		}
		line, err := p.ln.Prompt(p.prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				p.eof = true
				return 0, io.EOF
			}
			return 0, err
		}
		if line != "" {
			p.ln.AppendHistory(line)
		}
		p.buf = append([]byte(line), '\n')
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// Close restores the terminal.
func (p *promptReader) Close() error {
	return p.ln.Close()
}
