package imap

// StoreAction specifies how flags should be modified.
type StoreAction int

const (
	// StoreFlagsSet replaces existing flags.
	StoreFlagsSet StoreAction = iota
	// StoreFlagsAdd adds to existing flags.
	StoreFlagsAdd
	// StoreFlagsDel removes from existing flags.
	StoreFlagsDel
)

// String returns the IMAP representation of the store action.
func (a StoreAction) String() string {
	switch a {
	case StoreFlagsSet:
		return "FLAGS"
	case StoreFlagsAdd:
		return "+FLAGS"
	case StoreFlagsDel:
		return "-FLAGS"
	default:
		return "FLAGS"
	}
}

// StoreFlags specifies the flag changes for a STORE command.
type StoreFlags struct {
	// Action specifies how to modify flags.
	Action StoreAction
	// Silent prevents the server from sending updated flags.
	Silent bool
	// Flags is the list of flags to set/add/remove.
	Flags []Flag
}

// StoreOptions contains additional STORE options.
type StoreOptions struct {
	// UnchangedSince only stores if the message's mod-sequence is <= this value (CONDSTORE).
	UnchangedSince uint64
}

// GMailLabels specifies a Gmail X-GM-LABELS STORE request (X-GM-EXT-1).
// It mirrors StoreFlags but operates on Gmail label strings, which are
// astrings rather than IMAP flag atoms and may contain spaces.
type GMailLabels struct {
	// Action specifies how to modify the label set. Only StoreFlagsSet,
	// StoreFlagsAdd, and StoreFlagsDel are meaningful here.
	Action StoreAction
	// Silent prevents the server from sending updated labels.
	Silent bool
	// Labels is the list of Gmail labels to set/add/remove.
	Labels []string
}

// item renders the X-GM-LABELS item name for the action,
// e.g. "X-GM-LABELS", "+X-GM-LABELS", "-X-GM-LABELS".
func (g *GMailLabels) item() string {
	switch g.Action {
	case StoreFlagsAdd:
		return "+X-GM-LABELS"
	case StoreFlagsDel:
		return "-X-GM-LABELS"
	default:
		return "X-GM-LABELS"
	}
}

// ModifiedSet aggregates the UIDs or sequence numbers a STORE with
// UNCHANGEDSINCE failed to update because their mod-sequence had already
// advanced past the given value, surfaced via the MODIFIED response code
// (RFC 7162 §3.2.10). The engine sends each STORE as a single command; Add
// lets a caller that issues several STOREs collect the union of their
// MODIFIED sets.
type ModifiedSet struct {
	UIDs *UIDSet
}

// Add merges another MODIFIED response code's UID set into the aggregate.
func (m *ModifiedSet) Add(other *UIDSet) {
	if other == nil || other.IsEmpty() {
		return
	}
	if m.UIDs == nil {
		m.UIDs = &UIDSet{}
	}
	m.UIDs.Set = append(m.UIDs.Set, other.Set...)
}

// IsEmpty reports whether no message was ever reported as modified.
func (m *ModifiedSet) IsEmpty() bool {
	return m.UIDs == nil || m.UIDs.IsEmpty()
}
