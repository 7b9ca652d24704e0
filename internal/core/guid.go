package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/adamavenir/threadchat/internal/types"
	"github.com/google/uuid"
)

const (
	messagePrefix       = "msg"
	displayLengthSmall  = 6
	displayLengthMedium = 8
	displayLengthLarge  = 10
)

// ErrMessageNotFound is returned when a message reference resolves to nothing.
var ErrMessageNotFound = errors.New("message not found")

// GenerateGUID creates an id with the provided prefix. The body is a UUIDv7: a
// millisecond timestamp followed by random bits, so ids sort roughly by creation
// time without consulting any registry.
func GenerateGUID(prefix string) (string, error) {
	normalized := strings.TrimSuffix(prefix, "-")

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate guid: %w", err)
	}
	if normalized == "" {
		return id.String(), nil
	}
	return fmt.Sprintf("%s-%s", normalized, id.String()), nil
}

// GenerateMessageID creates a new message id.
func GenerateMessageID() (string, error) {
	return GenerateGUID(messagePrefix)
}

// GetDisplayPrefixLength returns the short id length for display.
// UUIDv7 ids share their leading timestamp digits, so short forms come from the
// random tail instead.
func GetDisplayPrefixLength(messageCount int) int {
	if messageCount < 500 {
		return displayLengthSmall
	}
	if messageCount < 5000 {
		return displayLengthMedium
	}
	return displayLengthLarge
}

// ShortID returns the abbreviated form of a message id used in listings.
func ShortID(id string, length int) string {
	base := strings.TrimPrefix(id, messagePrefix+"-")
	base = strings.ReplaceAll(base, "-", "")
	if length <= 0 {
		return ""
	}
	if length >= len(base) {
		return base
	}
	return base[len(base)-length:]
}

// ResolveMessageID finds the message id matching ref: an exact id, the id
// without its "msg-" prefix, or a unique short form as printed by ShortID.
func ResolveMessageID(ids []string, ref string) (string, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "#")
	if ref == "" {
		return "", fmt.Errorf("empty message reference")
	}

	var matches []string
	for _, id := range ids {
		if id == ref || id == messagePrefix+"-"+ref {
			return id, nil
		}
		compact := strings.ReplaceAll(strings.TrimPrefix(id, messagePrefix+"-"), "-", "")
		if strings.HasSuffix(compact, ref) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrMessageNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous message reference %s matches %d messages", ref, len(matches))
	}
}

// FindMessage resolves ref against the messages in store.
func FindMessage(store types.ChatStore, ref string) (types.Message, error) {
	ids := make([]string, 0, len(store.Messages))
	for id := range store.Messages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	id, err := ResolveMessageID(ids, ref)
	if err != nil {
		return types.Message{}, err
	}
	return store.Messages[id], nil
}
