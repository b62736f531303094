package imap

import "strings"

// Folder caches per-mailbox state: permanent flags, access mode, UID
// bookkeeping, and message counters. The client fills in Messages, Recent,
// UIDNext, UIDValidity, Unseen and ReadOnly under its own lock when a
// SELECT or EXAMINE completes; LIST, STATUS and unsolicited responses do
// not update it. FolderCache.Rename changes Name.
type Folder struct {
	Name            string
	Delimiter       byte
	Attrs           []MailboxAttr
	PermanentFlags  []Flag
	Flags           []Flag
	ReadOnly        bool
	UIDValidity     uint32
	UIDNext         uint32
	HighestModSeq   uint64
	Messages        uint32
	Recent          uint32
	Unseen          uint32
	FirstUnseen     uint32
	AppendLimit     uint32
	HasAppendLimit  bool
	NamespaceRoot   bool
}

// FolderCache is an instance-scoped, case-insensitive cache of
// Folder records. The original per-process static map the distilled
// specification's Design Notes reject would leak state between unrelated
// connections talking to different servers (different separators, different
// case-folding rules); scoping it to the Client avoids that.
type FolderCache struct {
	delimiter byte
	folders   map[string]*Folder
}

// NewFolderCache creates an empty folder cache with the default delimiter
// '/'. Call SetDelimiter once the server's real separator is learned from
// LIST, LSUB, or NAMESPACE.
func NewFolderCache() *FolderCache {
	return &FolderCache{
		delimiter: '/',
		folders:   make(map[string]*Folder),
	}
}

// SetDelimiter updates the hierarchy separator recorded on Folders created
// afterwards. Existing entries keep their keys: a canonical key is the
// lower-cased name and does not depend on the separator.
func (fc *FolderCache) SetDelimiter(delim byte) {
	if delim == fc.delimiter || delim == 0 {
		return
	}
	fc.delimiter = delim
}

func (fc *FolderCache) canonicalKey(name string) string {
	return strings.ToLower(name)
}

// Get returns the cached Folder for name, creating it if absent.
func (fc *FolderCache) Get(name string) *Folder {
	key := fc.canonicalKey(name)
	f, ok := fc.folders[key]
	if !ok {
		f = &Folder{Name: name, Delimiter: fc.delimiter}
		fc.folders[key] = f
	}
	return f
}

// Lookup returns the cached Folder for name without creating it.
func (fc *FolderCache) Lookup(name string) (*Folder, bool) {
	f, ok := fc.folders[fc.canonicalKey(name)]
	return f, ok
}

// Delete removes name from the cache, e.g. after a successful RENAME/DELETE.
func (fc *FolderCache) Delete(name string) {
	delete(fc.folders, fc.canonicalKey(name))
}

// Rename moves the cache entry at oldName to newName, preserving counters.
// The client's Rename method and response reader do not call it.
func (fc *FolderCache) Rename(oldName, newName string) {
	oldKey := fc.canonicalKey(oldName)
	f, ok := fc.folders[oldKey]
	if !ok {
		return
	}
	delete(fc.folders, oldKey)
	f.Name = newName
	fc.folders[fc.canonicalKey(newName)] = f
}

// Len returns the number of cached folders.
func (fc *FolderCache) Len() int {
	return len(fc.folders)
}
