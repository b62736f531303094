package imap

import (
	"strings"
	"sync/atomic"
)

// Cap identifies an IMAP capability as a single bit position in a packed
// uint64 set. Capabilities that carry a parameter (AUTH=, THREAD=, …) are
// represented by one bit for "the family is present" plus a side-channel
// field on CapSet holding the parameter values actually advertised.
type Cap uint64

// Bit positions for the capability bitset. Order is insignificant; values
// must stay stable within a process since they are never serialized.
const (
	CapIMAP4rev1 Cap = 1 << iota
	CapIMAP4rev2
	CapAuth // presence of one or more AUTH= mechanisms; see CapSet.AuthMechanisms
	CapSASLIR
	CapIdle
	CapNamespace
	CapID
	CapChildren
	CapStartTLS
	CapLoginDisabled
	CapMultiAppend
	CapBinary
	CapUnselect
	CapACL
	CapUIDPlus
	CapURLAuth
	CapCatenate
	CapESearch
	CapCompress // presence of one or more COMPRESS= algorithms; see CapSet.CompressionAlgorithms
	CapWithin
	CapEnable
	CapSearchRes
	CapLanguage
	CapSort
	CapThread // presence of one or more THREAD= algorithms; see CapSet.ThreadingAlgorithms
	CapListExtended
	CapConvert
	CapContextSearch
	CapContextSort
	CapESort
	CapMetadata
	CapMetadataServer
	CapNotify
	CapFilters
	CapListStatus
	CapSortDisplay
	CapSpecialUse
	CapCreateSpecialUse
	CapSearchFuzzy
	CapMove
	CapUTF8Accept
	CapUTF8Only
	CapCondStore
	CapQResync
	CapMultiSearch
	CapOAuthBearer
	CapLiteralPlus
	CapLiteralMinus
	CapAppendLimit
	CapUnauthenticate
	CapStatusSize
	CapListMyRights
	CapObjectID
	CapReplace
	CapSaveDate
	CapPreview
	CapQuota
	CapPartial
	CapInProgress
	CapUIDOnly
	CapListMetadata
	CapJMAPAccess
	CapMessageLimit
	CapGMailExt1 // X-GM-EXT-1 (Gmail labels/msgid/thrid/raw search)
)

// capNames maps each bit to its wire-protocol capability string, for the
// bits that have a single, parameterless wire form.
var capNames = map[Cap]string{
	CapIMAP4rev1:        "IMAP4rev1",
	CapIMAP4rev2:        "IMAP4rev2",
	CapSASLIR:           "SASL-IR",
	CapIdle:             "IDLE",
	CapNamespace:        "NAMESPACE",
	CapID:               "ID",
	CapChildren:         "CHILDREN",
	CapStartTLS:         "STARTTLS",
	CapLoginDisabled:    "LOGINDISABLED",
	CapMultiAppend:      "MULTIAPPEND",
	CapBinary:           "BINARY",
	CapUnselect:         "UNSELECT",
	CapACL:              "ACL",
	CapUIDPlus:          "UIDPLUS",
	CapURLAuth:          "URLAUTH",
	CapCatenate:         "CATENATE",
	CapESearch:          "ESEARCH",
	CapWithin:           "WITHIN",
	CapEnable:           "ENABLE",
	CapSearchRes:        "SEARCHRES",
	CapLanguage:         "LANGUAGE",
	CapSort:             "SORT",
	CapListExtended:     "LIST-EXTENDED",
	CapConvert:          "CONVERT",
	CapContextSearch:    "CONTEXT=SEARCH",
	CapContextSort:      "CONTEXT=SORT",
	CapESort:            "ESORT",
	CapMetadata:         "METADATA",
	CapMetadataServer:   "METADATA-SERVER",
	CapNotify:           "NOTIFY",
	CapFilters:          "FILTERS",
	CapListStatus:       "LIST-STATUS",
	CapSortDisplay:      "SORT=DISPLAY",
	CapSpecialUse:       "SPECIAL-USE",
	CapCreateSpecialUse: "CREATE-SPECIAL-USE",
	CapSearchFuzzy:      "SEARCH=FUZZY",
	CapMove:             "MOVE",
	CapUTF8Accept:       "UTF8=ACCEPT",
	CapUTF8Only:         "UTF8=ONLY",
	CapCondStore:        "CONDSTORE",
	CapQResync:          "QRESYNC",
	CapMultiSearch:      "MULTISEARCH",
	CapOAuthBearer:      "OAUTHBEARER",
	CapLiteralPlus:      "LITERAL+",
	CapLiteralMinus:     "LITERAL-",
	CapAppendLimit:      "APPENDLIMIT",
	CapUnauthenticate:   "UNAUTHENTICATE",
	CapStatusSize:       "STATUS=SIZE",
	CapListMyRights:     "LIST-MYRIGHTS",
	CapObjectID:         "OBJECTID",
	CapReplace:          "REPLACE",
	CapSaveDate:         "SAVEDATE",
	CapPreview:          "PREVIEW",
	CapQuota:            "QUOTA",
	CapPartial:          "PARTIAL",
	CapInProgress:       "INPROGRESS",
	CapUIDOnly:          "UIDONLY",
	CapListMetadata:     "LIST-METADATA",
	CapJMAPAccess:       "JMAPACCESS",
	CapMessageLimit:     "MESSAGELIMIT",
	CapGMailExt1:        "X-GM-EXT-1",
}

var capByName map[string]Cap

func init() {
	capByName = make(map[string]Cap, len(capNames))
	for bit, name := range capNames {
		capByName[strings.ToUpper(name)] = bit
	}
}

// CapSet is a packed, O(1)-membership set of IMAP capabilities plus the
// side-channel parameter lists that bit-only membership can't express
// (which AUTH mechanisms, which THREAD algorithms, …).
//
// The zero value is an empty, usable set.
type CapSet struct {
	bits uint64

	// AuthMechanisms holds the upper-cased mechanism names advertised via
	// AUTH=xxx (e.g. "PLAIN", "SCRAM-SHA-256").
	AuthMechanisms []string
	// CompressionAlgorithms holds the names advertised via COMPRESS=xxx.
	CompressionAlgorithms []string
	// ThreadingAlgorithms holds the names advertised via THREAD=xxx.
	ThreadingAlgorithms []string
	// SupportedCharsets is set to {"UTF-8"} by NewCapSet; the engine does
	// not update it from BADCHARSET response codes.
	SupportedCharsets []string
	// AppendLimit is the server-advertised APPENDLIMIT, 0 if unknown.
	AppendLimit uint32
	// I18NLevel is the RFC 5255 I18NLEVEL value, 0 if not advertised.
	I18NLevel int

	// CapabilitiesVersion increments every time the set is mutated, so
	// callers can detect a capability refresh (post-STARTTLS, post-AUTH)
	// without diffing the whole set.
	CapabilitiesVersion atomic.Int64
}

// NewCapSet builds a CapSet from a raw CAPABILITY response token list.
func NewCapSet(tokens ...string) *CapSet {
	cs := &CapSet{SupportedCharsets: []string{"UTF-8"}}
	cs.AddTokens(tokens...)
	return cs
}

// AddTokens merges raw CAPABILITY tokens (as seen on the wire, e.g.
// "AUTH=PLAIN", "THREAD=REFERENCES", "X-GM-EXT-1") into the set.
func (cs *CapSet) AddTokens(tokens ...string) {
	changed := false
	for _, tok := range tokens {
		upper := strings.ToUpper(tok)
		switch {
		case strings.HasPrefix(upper, "AUTH="):
			cs.bits |= uint64(CapAuth)
			cs.AuthMechanisms = appendUnique(cs.AuthMechanisms, upper[len("AUTH="):])
			changed = true
		case strings.HasPrefix(upper, "COMPRESS="):
			cs.bits |= uint64(CapCompress)
			cs.CompressionAlgorithms = appendUnique(cs.CompressionAlgorithms, upper[len("COMPRESS="):])
			changed = true
		case strings.HasPrefix(upper, "THREAD="):
			cs.bits |= uint64(CapThread)
			cs.ThreadingAlgorithms = appendUnique(cs.ThreadingAlgorithms, upper[len("THREAD="):])
			changed = true
		default:
			if bit, ok := capByName[upper]; ok {
				cs.bits |= uint64(bit)
				changed = true
			}
		}
	}
	if changed {
		cs.CapabilitiesVersion.Add(1)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Has returns true if the set contains the given capability bit.
func (cs *CapSet) Has(c Cap) bool {
	return cs.bits&uint64(c) != 0
}

// Add sets the given capability bits directly (no side-channel update —
// use AddTokens for AUTH=/COMPRESS=/THREAD= families).
func (cs *CapSet) Add(caps ...Cap) {
	for _, c := range caps {
		cs.bits |= uint64(c)
	}
	cs.CapabilitiesVersion.Add(1)
}

// Remove clears the given capability bits.
func (cs *CapSet) Remove(caps ...Cap) {
	for _, c := range caps {
		cs.bits &^= uint64(c)
	}
	cs.CapabilitiesVersion.Add(1)
}

// HasAuth reports whether the given SASL mechanism name was advertised.
func (cs *CapSet) HasAuth(mechanism string) bool {
	mechanism = strings.ToUpper(mechanism)
	for _, m := range cs.AuthMechanisms {
		if m == mechanism {
			return true
		}
	}
	return false
}

// All returns the set bits as Cap values, in ascending bit order.
func (cs *CapSet) All() []Cap {
	var result []Cap
	for bit := Cap(1); bit != 0; bit <<= 1 {
		if cs.bits&uint64(bit) != 0 {
			result = append(result, bit)
		}
	}
	return result
}

// Len returns the number of set capability bits.
func (cs *CapSet) Len() int {
	n := 0
	for b := cs.bits; b != 0; b &= b - 1 {
		n++
	}
	return n
}

// String renders the set as the space-separated wire tokens it absorbed.
func (cs *CapSet) String() string {
	var parts []string
	for _, bit := range cs.All() {
		if name, ok := capNames[bit]; ok {
			parts = append(parts, name)
		}
	}
	for _, m := range cs.AuthMechanisms {
		parts = append(parts, "AUTH="+m)
	}
	for _, m := range cs.CompressionAlgorithms {
		parts = append(parts, "COMPRESS="+m)
	}
	for _, m := range cs.ThreadingAlgorithms {
		parts = append(parts, "THREAD="+m)
	}
	return strings.Join(parts, " ")
}

// Clone returns a deep copy of the set.
func (cs *CapSet) Clone() *CapSet {
	nc := &CapSet{
		bits:                  cs.bits,
		AuthMechanisms:        append([]string(nil), cs.AuthMechanisms...),
		CompressionAlgorithms: append([]string(nil), cs.CompressionAlgorithms...),
		ThreadingAlgorithms:   append([]string(nil), cs.ThreadingAlgorithms...),
		SupportedCharsets:     append([]string(nil), cs.SupportedCharsets...),
		AppendLimit:           cs.AppendLimit,
		I18NLevel:             cs.I18NLevel,
	}
	nc.CapabilitiesVersion.Store(cs.CapabilitiesVersion.Load())
	return nc
}
