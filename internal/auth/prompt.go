package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompter obtains an authorization code for a consent URL
type Prompter interface {
	Prompt(ctx context.Context, authURL string) (string, error)
}

// PrompterFunc adapts a function to Prompter
type PrompterFunc func(ctx context.Context, authURL string) (string, error)

// Prompt calls f
func (f PrompterFunc) Prompt(ctx context.Context, authURL string) (string, error) {
	return f(ctx, authURL)
}

// ConsolePrompter prints the consent URL and reads the code from a line of input
type ConsolePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsolePrompter reads codes from in and writes instructions to out
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt implements Prompter
func (p *ConsolePrompter) Prompt(ctx context.Context, authURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "Go to the following link in your browser:\n\n    %s\n\nEnter verification code: ", authURL)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("empty verification code")
	}
	return code, nil
}
