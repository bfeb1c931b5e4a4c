package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// gateContext stubs just the pieces the gate reads from an update.
type gateContext struct {
	tele.Context
	sender *tele.User
	text   string
}

func (c *gateContext) Sender() *tele.User { return c.sender }
func (c *gateContext) Text() string       { return c.text }

func runGate(t *testing.T, svc *Service, opts GateOptions, c tele.Context) (handlerRan bool) {
	t.Helper()
	next := func(tele.Context) error {
		handlerRan = true
		return nil
	}
	require.NoError(t, svc.Gate(opts)(next)(c))
	return handlerRan
}

func TestGateBlocksBannedUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Ban(context.Background(), 555, 1)
	require.NoError(t, err)

	blocked := false
	opts := GateOptions{
		OnBlocked: func(tele.Context) error {
			blocked = true
			return nil
		},
	}

	ran := runGate(t, svc, opts, &gateContext{sender: &tele.User{ID: 555}, text: "/order"})
	require.False(t, ran, "handler must not run for a banned user")
	require.True(t, blocked, "OnBlocked must answer the banned user")
}

func TestGatePassesCleanUser(t *testing.T) {
	svc, _ := newTestService(t)

	opts := GateOptions{
		OnBlocked: func(tele.Context) error {
			t.Fatal("OnBlocked must not run for a clean user")
			return nil
		},
	}
	ran := runGate(t, svc, opts, &gateContext{sender: &tele.User{ID: 556}, text: "/order"})
	require.True(t, ran)
}

func TestGateNeverBlocksAdmins(t *testing.T) {
	svc, _ := newTestService(t)
	// Even a listed id passes when the sender is an admin.
	_, err := svc.Ban(context.Background(), 555, 1)
	require.NoError(t, err)

	opts := GateOptions{
		IsAdmin: func(id int64) bool { return id == 555 },
		OnBlocked: func(tele.Context) error {
			t.Fatal("OnBlocked must not run for an admin")
			return nil
		},
	}
	ran := runGate(t, svc, opts, &gateContext{sender: &tele.User{ID: 555}, text: "/order"})
	require.True(t, ran)
}

func TestGateLetsAdminCommandsThrough(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Ban(context.Background(), 555, 1)
	require.NoError(t, err)

	// Moderation commands bypass the gate so a mislisted admin can still
	// unban themselves.
	ran := runGate(t, svc, GateOptions{}, &gateContext{sender: &tele.User{ID: 555}, text: "/unban 555"})
	require.True(t, ran)
}

func TestGateDropsBannedUserSilentlyWithoutOnBlocked(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Ban(context.Background(), 555, 1)
	require.NoError(t, err)

	ran := runGate(t, svc, GateOptions{}, &gateContext{sender: &tele.User{ID: 555}, text: "hello"})
	require.False(t, ran)
}
