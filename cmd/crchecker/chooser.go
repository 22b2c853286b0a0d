package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// promptChooser asks on the terminal which extraction log to use.
type promptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptChooser(in io.Reader, out io.Writer) *promptChooser {
	return &promptChooser{in: bufio.NewReader(in), out: out}
}

// Choose lists the candidates and reads an index until a valid one (or -1)
// is entered.
func (p *promptChooser) Choose(ctx context.Context, candidates []string) (int, error) {
	fmt.Fprintln(p.out, "Multiple log files were found:")
	for i, name := range candidates {
		fmt.Fprintf(p.out, "%d. %s\n", i, name)
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprint(p.out, "Select the log file (-1 to exit): ")
		line, err := p.in.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				return 0, fmt.Errorf("no log file selected: input closed")
			}
			return 0, fmt.Errorf("read selection: %w", err)
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		switch {
		case convErr != nil:
			fmt.Fprintln(p.out, "Invalid choice.")
		case choice == -1:
			return -1, nil
		case choice < 0 || choice >= len(candidates):
			fmt.Fprintln(p.out, "Invalid choice.")
		default:
			return choice, nil
		}
	}
}
