package client

import (
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// GetMetadata sends the GETMETADATA command (RFC 5464) for the given
// mailbox ("" for the server annotation root) and entry names.
func (c *Client) GetMetadata(mailbox string, entries []string, opts *imap.MetadataOptions) (*imap.MetadataData, error) {
	if !c.HasCap(imap.CapMetadata) && !c.HasCap(imap.CapMetadataServer) {
		return nil, imap.NotSupported(imap.CapMetadata)
	}

	c.collectUntagged()

	args := []string{quoteArg(mailbox)}
	if opts != nil {
		var optArgs []string
		if opts.MaxSize != nil {
			optArgs = append(optArgs, "MAXSIZE "+strconv.FormatInt(*opts.MaxSize, 10))
		}
		if opts.Depth != "" {
			optArgs = append(optArgs, "DEPTH "+opts.Depth)
		}
		if len(optArgs) > 0 {
			args = append(args, "("+strings.Join(optArgs, " ")+")")
		}
	}

	entryArgs := make([]string, len(entries))
	for i, e := range entries {
		entryArgs[i] = quoteArg(e)
	}
	args = append(args, "("+strings.Join(entryArgs, " ")+")")

	result, err := c.execute("GETMETADATA", args...)
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.MetadataData{Entries: map[string]*string{}}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "METADATA ") {
			continue
		}
		rest := line[len("METADATA "):]
		data.Mailbox, rest = readQuotedOrAtom(rest)
		rest = strings.TrimPrefix(rest, " ")
		inner, _ := extractParenthesized(rest)
		for inner != "" {
			var name, value string
			name, inner = readQuotedOrAtom(inner)
			if name == "" {
				break
			}
			inner = strings.TrimPrefix(inner, " ")
			value, inner = readQuotedOrAtom(inner)
			if strings.EqualFold(value, "NIL") {
				data.Entries[name] = nil
			} else {
				v := value
				data.Entries[name] = &v
			}
			inner = strings.TrimPrefix(inner, " ")
		}
	}
	return data, nil
}

// SetMetadata sends the SETMETADATA command (RFC 5464). A nil Value on an
// entry removes it from the server.
func (c *Client) SetMetadata(mailbox string, entries []imap.MetadataEntry) error {
	if !c.HasCap(imap.CapMetadata) && !c.HasCap(imap.CapMetadataServer) {
		return imap.NotSupported(imap.CapMetadata)
	}

	var pairs []string
	for _, e := range entries {
		if e.Value == nil {
			pairs = append(pairs, quoteArg(e.Name), "NIL")
		} else {
			pairs = append(pairs, quoteArg(e.Name), quoteArg(*e.Value))
		}
	}

	result, err := c.execute("SETMETADATA", quoteArg(mailbox), "("+strings.Join(pairs, " ")+")")
	if err != nil {
		return err
	}
	if result.status != "OK" {
		return commandResultError(result)
	}
	return nil
}
