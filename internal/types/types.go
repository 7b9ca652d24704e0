package types

// LocationKind distinguishes files from folders.
type LocationKind string

const (
	LocationFile   LocationKind = "file"
	LocationFolder LocationKind = "folder"
)

// Valid reports whether the kind is one of the known location kinds.
func (k LocationKind) Valid() bool {
	return k == LocationFile || k == LocationFolder
}

// Location identifies a file or folder in the vault that messages attach to.
type Location struct {
	Path string       `json:"path"`
	Kind LocationKind `json:"type"`
}

// FileLocation returns a file location for path.
func FileLocation(path string) Location {
	return Location{Path: path, Kind: LocationFile}
}

// FolderLocation returns a folder location for path.
func FolderLocation(path string) Location {
	return Location{Path: path, Kind: LocationFolder}
}

// Message is a single chat message attached to a location.
type Message struct {
	ID         string              `json:"id"`
	Content    string              `json:"content"`
	CreatedAt  int64               `json:"timestamp"`
	AuthorName string              `json:"authorName"`
	AuthorID   string              `json:"authorId"`
	ParentID   *string             `json:"parentId,omitempty"`
	Location   Location            `json:"targetPath"`
	Reactions  map[string][]string `json:"reactions,omitempty"`
}

// IsRoot reports whether the message starts a thread.
func (m Message) IsRoot() bool {
	return m.ParentID == nil || *m.ParentID == ""
}

// Parent returns the parent id, or "" for a root message.
func (m Message) Parent() string {
	if m.ParentID == nil {
		return ""
	}
	return *m.ParentID
}

// ChatStore is the persisted aggregate: the message table plus the location index.
// Values are treated as immutable; mutations in internal/core return new stores.
type ChatStore struct {
	Messages  map[string]Message  `json:"messages"`
	PathIndex map[string][]string `json:"pathIndex"`
}

// NewChatStore returns an empty store.
func NewChatStore() ChatStore {
	return ChatStore{
		Messages:  map[string]Message{},
		PathIndex: map[string][]string{},
	}
}

// Thread is a root message with its ordered replies.
// SubThreads holds an entry only for replies that have replies of their own.
type Thread struct {
	Root       Message            `json:"rootMessage"`
	Replies    []Message          `json:"replies"`
	SubThreads map[string]*Thread `json:"subThreads,omitempty"`
}

// ChildLocation pairs a direct child of a folder with its threads.
type ChildLocation struct {
	Location Location `json:"path"`
	Threads  []Thread `json:"threads"`
}

// StorageLocation selects where the chat document lives.
type StorageLocation string

const (
	StoragePlugin StorageLocation = "plugin"
	StorageVault  StorageLocation = "vault"
)
