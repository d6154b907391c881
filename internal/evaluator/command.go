package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// #region command
// Command runs an external scoring process with the program text on stdin
// and reads the fitness line it prints.
type Command struct {
	Path    string
	Args    []string
	Timeout time.Duration // 0 means no timeout beyond ctx
}

func (c *Command) Evaluate(ctx context.Context, program string) (float64, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = strings.NewReader(program)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("%w: run %s: %v: %s", ErrEvaluatorFailure, c.Path, err, strings.TrimSpace(stderr.String()))
	}
	return ParseFitness(string(out))
}

// #endregion command

// #region parse-fitness
var fitnessRe = regexp.MustCompile(`Evaluation fitness is: (-?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?)`)

// ParseFitness extracts the score from "Evaluation fitness is: <x>". Output
// without that line is an evaluator failure rather than a zero score.
func ParseFitness(output string) (float64, error) {
	m := fitnessRe.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("%w: fitness value not found in output %q", ErrEvaluatorFailure, truncate(output, 200))
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse fitness %q: %v", ErrEvaluatorFailure, m[1], err)
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion parse-fitness
