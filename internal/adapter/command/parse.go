// Package command turns chat messages into ledger operations and renders their
// outcome as reply text.
package command

import (
	"strconv"
	"strings"
)

// Prefix marks a chat message as a command.
const Prefix = "!"

// Verbs understood by the Router.
const (
	VerbRegister    = "register"
	VerbBalance     = "balance"
	VerbAddMoney    = "addmoney"
	VerbRemoveMoney = "removemoney"
	VerbAddItem     = "additem"
	VerbSend        = "send"
	VerbBuy         = "buy"
	VerbShop        = "shop"
	VerbInventory   = "inventory"
)

// Command is one parsed chat command.
type Command struct {
	CallerID   string
	Verb       string
	Args       []string
	Privileged bool
	// MessageID identifies the chat message. Redelivered messages carry the same id.
	MessageID string
}

// Parse splits text of the form "!verb arg..." into a Command issued by callerID.
// It reports false when text is not a command.
func Parse(callerID, text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Prefix) {
		return Command{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, Prefix))
	if len(fields) == 0 {
		return Command{}, false
	}

	return Command{
		CallerID: callerID,
		Verb:     strings.ToLower(fields[0]),
		Args:     fields[1:],
	}, true
}

// MentionID unwraps a user mention of the form <@123> or <@!123>.
func MentionID(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "<@") || !strings.HasSuffix(arg, ">") {
		return "", false
	}

	id := strings.TrimPrefix(strings.TrimSuffix(arg[2:], ">"), "!")
	if id == "" {
		return "", false
	}

	return id, true
}

// Mention formats id the way MentionID reads it back.
func Mention(id string) string {
	return "<@" + id + ">"
}

func parseAmount(arg string) (int64, bool) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
