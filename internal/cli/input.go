package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from the user. Passwords are read without echo
// when input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal descriptor, or -1 when input is not a terminal.
	fd           int
	readPassword func(fd int) ([]byte, error)
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		in:           bufio.NewReader(in),
		out:          out,
		fd:           -1,
		readPassword: term.ReadPassword,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// Line prints prompt and returns the next line without surrounding space.
// io.EOF is returned only when no text was read.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Required repeats the prompt until a non-empty answer is given.
func (p *Prompter) Required(prompt string) (string, error) {
	for {
		v, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintln(p.out, "  a value is required")
	}
}

func (p *Prompter) Password(prompt string) (string, error) {
	if p.fd < 0 {
		return p.Line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	b, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Choice asks until the answer is one of options (case-insensitive).
func (p *Prompter) Choice(prompt string, options ...string) (string, error) {
	for {
		v, err := p.Line(fmt.Sprintf("%s [%s]: ", prompt, strings.Join(options, "/")))
		if err != nil {
			return "", err
		}
		for _, o := range options {
			if strings.EqualFold(v, o) {
				return o, nil
			}
		}
		fmt.Fprintf(p.out, "  choose one of: %s\n", strings.Join(options, ", "))
	}
}
