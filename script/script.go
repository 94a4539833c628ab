// Package script implements reveal.Generator from a small action script.
// It needs no network access and is used for offline demos and tests.
//
// A script is a comma-separated list of actions:
//
//	msg:TEXT     yield TEXT as one fragment (surrounding text kept verbatim)
//	msgb64:B64   yield the base64-decoded fragment, for text containing commas
//	sleep:DUR    pause for a time.ParseDuration value, e.g. 50ms
//	echo         yield the prompt word by word
//	err:TEXT     fail the stream with TEXT
//	hang         block until the request is cancelled
//
// For example "msg:Hello ,sleep:50ms,msg:world" streams "Hello world".
package script

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/reveal"
)

// Interface compliance check.
var _ reveal.Generator = (*Generator)(nil)

// DefaultScript answers by repeating the prompt.
const DefaultScript = "msg:You said: ,echo"

type kind int

const (
	kindMsg kind = iota
	kindSleep
	kindEcho
	kindErr
	kindHang
)

type action struct {
	kind  kind
	text  string
	delay time.Duration
}

// parse validates a script and returns its actions.
func parse(s string) ([]action, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("script is empty: %w", reveal.ErrValidation)
	}
	var actions []action
	for _, part := range strings.Split(s, ",") {
		token := strings.TrimLeft(part, " \t\n")
		if token == "" {
			continue
		}
		switch {
		case strings.HasPrefix(token, "msg:"):
			actions = append(actions, action{kind: kindMsg, text: strings.TrimPrefix(token, "msg:")})
		case strings.HasPrefix(token, "msgb64:"):
			raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(token, "msgb64:")))
			if err != nil {
				return nil, fmt.Errorf("script: decode %q: %w", token, err)
			}
			actions = append(actions, action{kind: kindMsg, text: string(raw)})
		case strings.HasPrefix(token, "sleep:"):
			d, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(token, "sleep:")))
			if err != nil {
				return nil, fmt.Errorf("script: %w", err)
			}
			if d < 0 {
				return nil, fmt.Errorf("script: negative sleep %s: %w", d, reveal.ErrValidation)
			}
			actions = append(actions, action{kind: kindSleep, delay: d})
		case strings.HasPrefix(token, "err:"):
			actions = append(actions, action{kind: kindErr, text: strings.TrimPrefix(token, "err:")})
		case strings.TrimSpace(token) == "echo":
			actions = append(actions, action{kind: kindEcho})
		case strings.TrimSpace(token) == "hang":
			actions = append(actions, action{kind: kindHang})
		default:
			return nil, fmt.Errorf("script: invalid action %q: %w", token, reveal.ErrValidation)
		}
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("script has no actions: %w", reveal.ErrValidation)
	}
	return actions, nil
}

// Generator replays the same script for every request.
type Generator struct {
	actions []action
	delay   time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithDelay pauses before every fragment, imitating a token-by-token service.
func WithDelay(d time.Duration) Option {
	return func(g *Generator) {
		g.delay = d
	}
}

// New parses script and returns a Generator that plays it.
func New(script string, opts ...Option) (*Generator, error) {
	actions, err := parse(script)
	if err != nil {
		return nil, err
	}
	g := &Generator{actions: actions}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Stream starts a new run of the script.
func (g *Generator) Stream(ctx context.Context, req reveal.Request) (reveal.FragmentStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var expanded []action
	for _, a := range g.actions {
		if a.kind != kindEcho {
			expanded = append(expanded, a)
			continue
		}
		for _, w := range words(req.Prompt) {
			expanded = append(expanded, action{kind: kindMsg, text: w})
		}
	}
	return &stream{ctx: ctx, actions: expanded, delay: g.delay}, nil
}

// words splits s after each run of spaces so the pieces join back to s.
func words(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, s)
			break
		}
		j := i
		for j < len(s) && s[j] == ' ' {
			j++
		}
		out = append(out, s[:j])
		s = s[j:]
	}
	return out
}

type stream struct {
	ctx     context.Context
	actions []action
	delay   time.Duration
	closed  bool
}

func (s *stream) Next() (string, error) {
	if s.closed {
		return "", reveal.ErrStreamClosed
	}
	for len(s.actions) > 0 {
		a := s.actions[0]
		s.actions = s.actions[1:]
		switch a.kind {
		case kindMsg:
			if err := s.sleep(s.delay); err != nil {
				return "", err
			}
			return a.text, nil
		case kindSleep:
			if err := s.sleep(a.delay); err != nil {
				return "", err
			}
		case kindErr:
			return "", fmt.Errorf("script: %s", a.text)
		case kindHang:
			<-s.ctx.Done()
			return "", s.ctx.Err()
		}
	}
	return "", io.EOF
}

func (s *stream) Close() error {
	s.closed = true
	return nil
}

func (s *stream) sleep(d time.Duration) error {
	if d <= 0 {
		return s.ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}
