package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/reveal"
	"google.golang.org/genai"
)

type streamState int

const (
	stateStreaming streamState = iota
	stateComplete
	stateError
	stateClosed
)

// stream implements [reveal.FragmentStream] by wrapping the genai SDK's
// streaming iterator. One response chunk can carry several text parts; they
// are queued and returned one per Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	pending []string
	state   streamState
	err     error
}

// Interface compliance check.
var _ reveal.FragmentStream = (*stream)(nil)

func newStream(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:  ctx,
		pull: next,
		stop: stop,
	}
}

func (s *stream) Next() (string, error) {
	switch s.state {
	case stateComplete:
		return "", io.EOF
	case stateError:
		return "", s.err
	case stateClosed:
		return "", fmt.Errorf("gemini: %w", reveal.ErrStreamClosed)
	}

	for len(s.pending) == 0 {
		if err := s.ctx.Err(); err != nil {
			return "", s.fail(err)
		}
		resp, err, ok := s.pull()
		if !ok {
			s.state = stateComplete
			return "", io.EOF
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return "", s.fail(s.ctx.Err())
			}
			return "", s.fail(fmt.Errorf("gemini: %w", err))
		}
		s.pending = textParts(resp)
	}

	text := s.pending[0]
	s.pending = s.pending[1:]
	return text, nil
}

func (s *stream) Close() error {
	if s.state == stateStreaming {
		s.state = stateClosed
	}
	s.stop()
	return nil
}

func (s *stream) fail(err error) error {
	s.state = stateError
	s.err = err
	return err
}

// textParts returns the non-empty reply text of the first candidate. Thought
// summaries are not part of the reply.
func textParts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil
	}
	var out []string
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		out = append(out, p.Text)
	}
	return out
}
