package repl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	prompt         = "> "
	continuePrompt = "...> "
)

// Run reads lines from the terminal until EOF or a second interrupt.
// Results go to out and errors to errOut.
func (s *Session) Run(out, errOut io.Writer) error {
	rl, err := readline.New(prompt)
	if err != nil {
		return err
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if buf.Len() > 0 {
					rl.SetPrompt(prompt)
					buf.Reset()
					fmt.Fprint(errOut, "Press ctrl-c again to quit.\n")
					continue
				}
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		buf.WriteString(line + " ")
		res, err := s.Eval(buf.String())
		if errors.Is(err, ErrIncomplete) {
			rl.SetPrompt(continuePrompt)
			continue
		}
		rl.SetPrompt(prompt)
		buf.Reset()
		if err != nil {
			fmt.Fprintln(errOut, err)
			continue
		}
		if res != "" {
			fmt.Fprintln(out, res)
		}
	}
}
