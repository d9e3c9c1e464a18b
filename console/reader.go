package console

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/peterh/liner"

	"github.com/cellforge/cellcore/runner"
)

// Run drives the operator REPL against r until the operator quits or
// aborts with ctrl-C, mirroring the teacher's liner-backed console
// reader.
func Run(r *runner.Runner) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(CompleteCmd)

	for {
		input, err := line.Prompt("cellcore> ")
		if err == nil {
			line.AppendHistory(input)
			quit, err := ProcessCommand(input, r)
			if err != nil {
				fmt.Println("error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("console: error reading line", "err", err)
		return
	}
}
