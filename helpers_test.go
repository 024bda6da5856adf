package authflow

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authflow/gateway"
)

type reply struct {
	res gateway.Result
	err error
}

// stubCaller answers requests from a script and records them.
type stubCaller struct {
	mu       sync.Mutex
	replies  []reply
	requests []gateway.Request
	ids      []string

	// entered and release, when set, hold every call until release is closed.
	entered chan struct{}
	release chan struct{}
}

func (s *stubCaller) Do(ctx context.Context, req gateway.Request) (gateway.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.ids = append(s.ids, gateway.RequestIDFromContext(ctx))
	var r reply
	if len(s.replies) > 0 {
		r = s.replies[0]
		s.replies = s.replies[1:]
	}
	entered, release := s.entered, s.release
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return r.res, r.err
}

func (s *stubCaller) push(res gateway.Result) *stubCaller {
	s.mu.Lock()
	s.replies = append(s.replies, reply{res: res})
	s.mu.Unlock()
	return s
}

func (s *stubCaller) fail(err error) *stubCaller {
	s.mu.Lock()
	s.replies = append(s.replies, reply{err: err})
	s.mu.Unlock()
	return s
}

func (s *stubCaller) calls() []gateway.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.Request(nil), s.requests...)
}

func ok(message string) gateway.Result {
	return gateway.Result{HTTPStatus: 200, OK: true, Success: true, Message: message}
}

func rejected(status int, message string) gateway.Result {
	return gateway.Result{HTTPStatus: status, OK: status >= 200 && status < 300, Message: message}
}

func boolPtr(v bool) *bool { return &v }

type navRecorder struct {
	mu      sync.Mutex
	targets []string
	err     error
}

func (n *navRecorder) Navigate(_ context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
	return n.err
}

func (n *navRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

type testEnv struct {
	client *Client
	caller *stubCaller
	nav    *navRecorder
}

func newTestEnv(t *testing.T, configure ...func(*Builder)) testEnv {
	t.Helper()
	env := testEnv{caller: &stubCaller{}, nav: &navRecorder{}}
	b := New().
		WithBaseURL("http://api.example.test").
		WithGateway(env.caller).
		WithNavigator(env.nav)
	for _, fn := range configure {
		fn(b)
	}
	client, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(client.Close)
	env.client = client
	return env
}
