package commands

import (
	"strconv"
	"strings"
	"unicode"
)

// UsageText is the canonical help line returned for empty or unrecognized input.
const UsageText = "Usage: /task [create|list|complete] <description>"

const invalidTaskIDText = "Please provide a valid task ID number."

type Kind int

const (
	KindUsage Kind = iota
	KindCreate
	KindList
	KindComplete
	KindParseError
)

// Command is the parsed form of a /task command body. Exactly one of the
// payload fields is meaningful for a given Kind: Title for KindCreate,
// TaskID for KindComplete, Message for KindUsage and KindParseError.
type Command struct {
	Kind    Kind
	Title   string
	TaskID  uint
	Message string
}

// Parse interprets the text following the /task command name. The command
// name itself is resolved by the caller; Parse only sees the remainder.
// Actions are matched case-insensitively.
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{Kind: KindUsage, Message: UsageText}
	}

	action, rest := splitAction(text)

	switch strings.ToLower(action) {
	case "create":
		if rest == "" {
			return Command{Kind: KindUsage, Message: UsageText}
		}
		return Command{Kind: KindCreate, Title: rest}
	case "list":
		return Command{Kind: KindList}
	case "complete":
		if rest == "" {
			return Command{Kind: KindUsage, Message: UsageText}
		}
		id, err := strconv.ParseUint(rest, 10, 32)
		if err != nil || id == 0 {
			return Command{Kind: KindParseError, Message: invalidTaskIDText}
		}
		return Command{Kind: KindComplete, TaskID: uint(id)}
	default:
		return Command{Kind: KindUsage, Message: UsageText}
	}
}

// splitAction divides the input at the first whitespace run into the action
// token and the remainder, with surrounding whitespace stripped from both.
func splitAction(text string) (string, string) {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}
