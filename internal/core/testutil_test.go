package core

import (
	"github.com/adamavenir/threadchat/internal/types"
)

func strPtr(value string) *string {
	return &value
}

func fileMsg(id, path string, ts int64) types.Message {
	return types.Message{
		ID:         id,
		Content:    "body of " + id,
		CreatedAt:  ts,
		AuthorName: "User",
		AuthorID:   "user-1",
		Location:   types.FileLocation(path),
	}
}

func replyMsg(id, parent, path string, ts int64) types.Message {
	msg := fileMsg(id, path, ts)
	msg.ParentID = strPtr(parent)
	return msg
}

func buildStore(messages ...types.Message) types.ChatStore {
	store := types.NewChatStore()
	for _, msg := range messages {
		store = AddMessage(store, msg)
	}
	return store
}

func messageIDs(messages []types.Message) []string {
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	return ids
}
