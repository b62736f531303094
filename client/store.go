package client

import (
	"fmt"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// Store modifies message flags for the given sequence set.
func (c *Client) Store(seqSet string, flags *imap.StoreFlags, opts *imap.StoreOptions) (*imap.ModifiedSet, error) {
	return c.store("STORE", seqSet, flags, opts)
}

// UIDStore modifies message flags using UIDs.
func (c *Client) UIDStore(uidSet string, flags *imap.StoreFlags, opts *imap.StoreOptions) (*imap.ModifiedSet, error) {
	return c.store("UID STORE", uidSet, flags, opts)
}

func (c *Client) store(cmdName, set string, flags *imap.StoreFlags, opts *imap.StoreOptions) (*imap.ModifiedSet, error) {
	item := flags.Action.String()
	if flags.Silent {
		item += ".SILENT"
	}

	flagStrs := make([]string, len(flags.Flags))
	for i, f := range flags.Flags {
		flagStrs[i] = string(f)
	}
	flagList := "(" + strings.Join(flagStrs, " ") + ")"

	args := []string{set}
	if opts != nil && opts.UnchangedSince > 0 {
		args = append(args, fmt.Sprintf("(UNCHANGEDSINCE %d)", opts.UnchangedSince))
	}
	args = append(args, item, flagList)

	c.collectUntagged()
	result, err := c.execute(cmdName, args...)
	if err != nil {
		return nil, err
	}
	if err := commandResultError(result); err != nil {
		return nil, err
	}

	modified := &imap.ModifiedSet{}
	if set, ok := parseModifiedCode(result.code); ok {
		modified.Add(set)
	}
	return modified, nil
}

// StoreGMailLabels modifies Gmail X-GM-LABELS for the given sequence set
// (X-GM-EXT-1). Label values are astrings, so they are quoted individually
// rather than joined as bare flag atoms.
func (c *Client) StoreGMailLabels(seqSet string, labels *imap.GMailLabels) error {
	if !c.HasCap(imap.CapGMailExt1) {
		return imap.NotSupported(imap.CapGMailExt1)
	}
	return c.storeGMailLabels("STORE", seqSet, labels)
}

// UIDStoreGMailLabels modifies Gmail X-GM-LABELS using UIDs.
func (c *Client) UIDStoreGMailLabels(uidSet string, labels *imap.GMailLabels) error {
	if !c.HasCap(imap.CapGMailExt1) {
		return imap.NotSupported(imap.CapGMailExt1)
	}
	return c.storeGMailLabels("UID STORE", uidSet, labels)
}

func (c *Client) storeGMailLabels(cmdName, set string, labels *imap.GMailLabels) error {
	item := labelsItemName(labels)
	if labels.Silent {
		item += ".SILENT"
	}

	quoted := make([]string, len(labels.Labels))
	for i, l := range labels.Labels {
		quoted[i] = quoteArg(l)
	}
	labelList := "(" + strings.Join(quoted, " ") + ")"

	return c.executeCheck(cmdName, set, item, labelList)
}

func labelsItemName(g *imap.GMailLabels) string {
	switch g.Action {
	case imap.StoreFlagsAdd:
		return "+X-GM-LABELS"
	case imap.StoreFlagsDel:
		return "-X-GM-LABELS"
	default:
		return "X-GM-LABELS"
	}
}

// parseModifiedCode parses a "MODIFIED uid-set" response code emitted when a
// STORE with UNCHANGEDSINCE skips messages whose mod-sequence had already
// advanced (RFC 7162 §3.2.10).
func parseModifiedCode(code string) (*imap.UIDSet, bool) {
	if !strings.HasPrefix(code, "MODIFIED ") {
		return nil, false
	}
	set, err := imap.ParseUIDSet(strings.TrimSpace(code[len("MODIFIED "):]))
	if err != nil {
		return nil, false
	}
	return set, true
}
