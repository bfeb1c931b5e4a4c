package moderation

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// adminCommands bypass the ban gate so moderation itself keeps working even
// if an admin id ever lands on the list.
var adminCommands = []string{
	"/ban",
	"/unban",
	"/bc",
	"/totalusers",
	"/serverbalance",
	"/addbalance",
	"/activity",
}

// GateOptions configure the ban gate middleware.
type GateOptions struct {
	IsAdmin func(userID int64) bool
	// OnBlocked is invoked instead of the handler for banned users; nil
	// silently drops the update.
	OnBlocked tele.HandlerFunc
}

// Gate returns middleware that drops updates from banned users. Admins and
// admin commands pass through unconditionally.
func (s *Service) Gate(opts GateOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}
			if opts.IsAdmin != nil && opts.IsAdmin(sender.ID) {
				return next(c)
			}
			if isAdminCommand(c.Text()) {
				return next(c)
			}
			if !s.IsBanned(sender.ID) {
				return next(c)
			}
			if opts.OnBlocked != nil {
				return opts.OnBlocked(c)
			}
			return nil
		}
	}
}

// isAdminCommand matches the bare command or a command with arguments,
// including the /cmd@botname form.
func isAdminCommand(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || text[0] != '/' {
		return false
	}
	head := text
	if i := strings.IndexByte(head, ' '); i >= 0 {
		head = head[:i]
	}
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	for _, cmd := range adminCommands {
		if head == cmd {
			return true
		}
	}
	return false
}
