package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/AgentCanvas/internal/adapter/a2aclient"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
)

// runSend sends a single task to an agent. The query comes from --query,
// piped stdin, or an interactive prompt.
func runSend(args []string) error {
	fs := flag.NewFlagSet("agentcanvas send", flag.ContinueOnError)
	url := fs.String("url", "http://localhost:12001", "agent base URL")
	query := fs.String("query", "", "query text (default: read stdin)")
	timeout := fs.Duration("timeout", 60*time.Second, "send timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := strings.TrimSpace(*query)
	if q == "" {
		var err error
		if q, err = readQuery(os.Stdin); err != nil {
			return err
		}
	}
	if q == "" {
		return fmt.Errorf("query is required")
	}

	env, err := task.NewQueryEnvelope(q, task.WithAcceptedOutputModes("text", "text/plain", "image/png"))
	if err != nil {
		return err
	}
	res, err := a2aclient.NewClient(*url, *timeout).SendTask(context.Background(), env)
	if err != nil {
		return err
	}

	for _, line := range res.Flatten() {
		fmt.Println(line)
	}
	if res.Status.State != task.StateCompleted {
		fmt.Fprintf(os.Stderr, "task %s: %s\n", res.ID, res.Status.State)
	}
	if res.Status.State.Failed() {
		return fmt.Errorf("task %s %s", res.ID, res.Status.State)
	}
	return nil
}

// readQuery reads all of a piped stdin, or one line after a prompt on a
// terminal.
func readQuery(in *os.File) (string, error) {
	if !term.IsTerminal(int(in.Fd())) {
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	fmt.Fprint(os.Stderr, "Query: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read query: %w", err)
	}
	return strings.TrimSpace(line), nil
}
