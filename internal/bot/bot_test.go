package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/orderbot/internal/provider"
	"github.com/m3rciful/orderbot/internal/store"
)

func TestGroupDigits(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1.000",
		25000:    "25.000",
		1234567:  "1.234.567",
		-1500000: "-1.500.000",
	}
	for in, want := range cases {
		require.Equal(t, want, groupDigits(in), "input %d", in)
	}
}

func TestMoneyUsesCurrencyLabel(t *testing.T) {
	b := New(Options{Shop: ShopSettings{CurrencyLabel: "Rp"}})
	require.Equal(t, "Rp 10.000", b.money(10000))
}

func TestCensorTarget(t *testing.T) {
	require.Equal(t, "http****le_1", censorTarget("https://example.com/profile_1"))
	require.Equal(t, "u***", censorTarget("username"))
	require.Equal(t, "a***", censorTarget("ab"))
	require.Equal(t, "", censorTarget(""))
}

func TestIsCancelText(t *testing.T) {
	require.True(t, isCancelText("/cancel"))
	require.True(t, isCancelText("/CANCEL"))
	require.True(t, isCancelText("/cancel@orderbot"))
	require.True(t, isCancelText("/cancel please"))
	require.False(t, isCancelText("cancel"))
	require.False(t, isCancelText("/cancellation"))
	require.False(t, isCancelText(""))
}

func TestIsAdmin(t *testing.T) {
	b := New(Options{AdminIDs: []int64{1, 2}})
	require.True(t, b.IsAdmin(1))
	require.True(t, b.IsAdmin(2))
	require.False(t, b.IsAdmin(3))
}

func TestSenderName(t *testing.T) {
	require.Equal(t, "Ada Lovelace", senderName(&tele.User{FirstName: "Ada", LastName: "Lovelace"}))
	require.Equal(t, "Ada", senderName(&tele.User{FirstName: "Ada"}))
	require.Equal(t, "ada", senderName(&tele.User{Username: "ada"}))
}

func TestConfirmationTextIncludesDraftFields(t *testing.T) {
	d := &store.OrderDraft{
		ServiceID:   101,
		ServiceName: "Likes",
		Quantity:    500,
		Target:      "https://example.com/p/1",
	}
	text := confirmationText(d, "Rp 600")
	require.Contains(t, text, "Likes")
	require.Contains(t, text, "ID 101")
	require.Contains(t, text, "500")
	require.Contains(t, text, "Rp 600")
	require.Contains(t, text, "https://example.com/p/1")
}

func TestPanelMessageOnlyForUpstreamRejections(t *testing.T) {
	msg, ok := panelMessage(fmt.Errorf("wrap: %w", &provider.Error{Op: "profile", Message: "maintenance"}))
	require.True(t, ok)
	require.Equal(t, "maintenance", msg)

	_, ok = panelMessage(errors.New("dial tcp: connection refused"))
	require.False(t, ok)
}

func TestMdSafeEscapesMarkup(t *testing.T) {
	require.Equal(t, `john\_doe`, mdSafe("john_doe"))
	require.Equal(t, `\*bold\* name`, mdSafe("*bold* name"))
	require.Equal(t, "plain", mdSafe("plain"))
}

func TestRoundMoney(t *testing.T) {
	require.Equal(t, int64(2), roundMoney(1.5))
	require.Equal(t, int64(1), roundMoney(1.4))
	require.Equal(t, int64(-2), roundMoney(-1.5))
}
