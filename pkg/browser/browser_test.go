package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityPoolRotation(t *testing.T) {
	pool := IdentityPool{{Label: "one"}, {Label: "two"}, {Label: "three"}}

	tests := []struct {
		attempt int
		want    string
	}{
		{0, "one"},
		{1, "two"},
		{2, "three"},
		{3, "one"},
		{-4, "one"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, pool.For(tt.attempt).Label)
		})
	}
}

func TestIdentityPoolEmptyFallsBack(t *testing.T) {
	var pool IdentityPool
	assert.Equal(t, DefaultIdentities[0], pool.For(0))
	assert.Equal(t, DefaultIdentities[1], pool.For(1))
}

func TestDefaultIdentitiesDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range DefaultIdentities {
		assert.NotEmpty(t, id.UserAgent)
		assert.False(t, seen[id.UserAgent], "duplicate user agent %s", id.Label)
		seen[id.UserAgent] = true
	}
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 90000.0, Milliseconds(90*time.Second))
	assert.Equal(t, 1.5, Milliseconds(1500*time.Microsecond))
	assert.Equal(t, 0.0, Milliseconds(0))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(fmt.Errorf("wait failed: %w", playwright.ErrTimeout)))
	assert.False(t, IsTimeout(errors.New("net::ERR_CONNECTION_REFUSED")))
	assert.False(t, IsTimeout(nil))
}

func TestNewLauncherDefaults(t *testing.T) {
	l := NewLauncher(LaunchOptions{Headless: true})

	require.NotNil(t, l.opts.Viewport)
	assert.Equal(t, DefaultViewportWidth, l.opts.Viewport.Width)
	assert.Equal(t, DefaultViewportHeight, l.opts.Viewport.Height)
	assert.Equal(t, DefaultTimeout, l.opts.Timeout)
	assert.Equal(t, DefaultArgs, l.opts.Args)
	assert.Equal(t, 0, l.ActiveSessions())
}

func TestNewLauncherKeepsOverrides(t *testing.T) {
	l := NewLauncher(LaunchOptions{
		Args:     []string{},
		Viewport: &Viewport{Width: 800, Height: 600},
		Timeout:  5000,
	})

	assert.Empty(t, l.opts.Args, "an explicit empty list disables the default switches")
	assert.Equal(t, 800, l.opts.Viewport.Width)
	assert.Equal(t, 5000.0, l.opts.Timeout)
}

func TestOpenRequiresInitialize(t *testing.T) {
	l := NewLauncher(LaunchOptions{})

	_, err := l.Open(context.Background(), "a@x.com#1", DefaultIdentities[0])
	assert.ErrorContains(t, err, "not initialized")
}

func TestOpenHonoursCancelledContext(t *testing.T) {
	l := NewLauncher(LaunchOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Open(ctx, "a@x.com#1", DefaultIdentities[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShutdownWithoutInitialize(t *testing.T) {
	l := NewLauncher(LaunchOptions{})
	assert.NoError(t, l.Shutdown())
}

func TestSessionCloseReleasesOnce(t *testing.T) {
	var released int
	s := &Session{release: func(*Session) { released++ }}

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, released)
}

type recordingLog struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLog) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *recordingLog) Debugf(format string, args ...interface{}) { r.add(format, args...) }
func (r *recordingLog) Infof(format string, args ...interface{})  { r.add(format, args...) }
func (r *recordingLog) Warnf(format string, args ...interface{})  { r.add(format, args...) }
func (r *recordingLog) Errorf(format string, args ...interface{}) { r.add(format, args...) }

func TestSessionReleaseDeregistersAndLogs(t *testing.T) {
	log := &recordingLog{}
	l := NewLauncher(LaunchOptions{})
	l.SetLogger(log)

	s := &Session{
		Name:       "a@x.com#2",
		CreatedAt:  time.Now().Add(-3 * time.Second),
		CurrentURL: "https://wispbyte.com/client/login",
		release:    l.forget,
	}
	l.mu.Lock()
	l.sessions[s] = struct{}{}
	l.mu.Unlock()
	require.Equal(t, 1, l.ActiveSessions())

	require.NoError(t, s.Close())

	assert.Equal(t, 0, l.ActiveSessions())
	assert.GreaterOrEqual(t, s.Age(), 3*time.Second)
	require.Len(t, log.lines, 1)
	assert.True(t, strings.HasPrefix(log.lines[0], "released browser session a@x.com#2 after "))
	assert.Contains(t, log.lines[0], "last at https://wispbyte.com/client/login")
}

func TestShutdownClosesRegisteredSessions(t *testing.T) {
	l := NewLauncher(LaunchOptions{})
	l.SetLogger(nil)

	for i := 0; i < 3; i++ {
		s := &Session{Name: fmt.Sprintf("s%d", i), CreatedAt: time.Now(), release: l.forget}
		l.sessions[s] = struct{}{}
	}

	require.NoError(t, l.Shutdown())
	assert.Equal(t, 0, l.ActiveSessions())
}
