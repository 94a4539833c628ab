package playback_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/reveal"
	"github.com/fwojciec/reveal/mock"
	"github.com/fwojciec/reveal/playback"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

// generator yields fragments in order, then returns whatever end returns.
func generator(end func(ctx context.Context) error, fragments ...string) *mock.Generator {
	return &mock.Generator{
		StreamFn: func(ctx context.Context, _ reveal.Request) (reveal.FragmentStream, error) {
			i := 0
			return &mock.FragmentStream{
				NextFn: func() (string, error) {
					if i < len(fragments) {
						i++
						return fragments[i-1], nil
					}
					return "", end(ctx)
				},
			}, nil
		},
	}
}

func endEOF(context.Context) error { return io.EOF }

func endWith(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

// endHold blocks until the stream context is cancelled. held is closed the
// first time the stream blocks, which means every fragment was appended.
func endHold(held chan struct{}) func(context.Context) error {
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(held) })
		<-ctx.Done()
		return ctx.Err()
	}
}

func testConfig(modify func(*reveal.Config)) reveal.Config {
	cfg := reveal.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	if modify != nil {
		modify(&cfg)
	}
	return cfg
}

func newController(t *testing.T, gen reveal.Generator, opts ...playback.Option) *playback.Controller {
	t.Helper()
	ids := 0
	base := []playback.Option{
		playback.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("msg-%d", ids)
		}),
		playback.WithConfig(testConfig(nil)),
	}
	c, err := playback.New(gen, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func wait(t *testing.T, c *playback.Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for channel")
	}
}

// nextEvent returns the next event matching match, skipping the others.
func nextEvent(t *testing.T, events <-chan reveal.Event, match func(reveal.Event) bool) reveal.Event {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed")
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

// eventsUntilEnded collects events up to and including the first
// EventSessionEnded.
func eventsUntilEnded(t *testing.T, events <-chan reveal.Event) []reveal.Event {
	t.Helper()
	return nextEventsUntil(t, events, func(e reveal.Event) bool {
		_, ended := e.(reveal.EventSessionEnded)
		return ended
	})
}

// nextEventsUntil collects events up to and including the first one matching
// match.
func nextEventsUntil(t *testing.T, events <-chan reveal.Event, match func(reveal.Event) bool) []reveal.Event {
	t.Helper()
	var got []reveal.Event
	timeout := time.After(waitTimeout)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed")
			got = append(got, e)
			if match(e) {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event, got %v", got)
			return nil
		}
	}
}

func updates(events []reveal.Event) []string {
	var out []string
	for _, e := range events {
		if u, ok := e.(reveal.EventMessageUpdated); ok {
			out = append(out, u.Content)
		}
	}
	return out
}

func isUpdate(content string) func(reveal.Event) bool {
	return func(e reveal.Event) bool {
		u, ok := e.(reveal.EventMessageUpdated)
		return ok && u.Content == content
	}
}
