package client

import (
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// Namespace sends the NAMESPACE command (RFC 2342) and returns the
// personal, other-users', and shared namespace roots the server exposes.
func (c *Client) Namespace() (*imap.NamespaceData, error) {
	if !c.HasCap(imap.CapNamespace) {
		return nil, imap.NotSupported(imap.CapNamespace)
	}

	c.collectUntagged()

	result, err := c.execute("NAMESPACE")
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.NamespaceData{}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "NAMESPACE ") {
			continue
		}
		rest := line[len("NAMESPACE "):]
		var personal, other, shared string
		personal, rest = extractParenthesized(rest)
		rest = strings.TrimPrefix(rest, " ")
		other, rest = extractParenthesized(rest)
		rest = strings.TrimPrefix(rest, " ")
		shared, _ = extractParenthesized(rest)

		data.Personal = parseNamespaceDescriptors(personal)
		data.Other = parseNamespaceDescriptors(other)
		data.Shared = parseNamespaceDescriptors(shared)
	}
	return data, nil
}

func parseNamespaceDescriptors(s string) []imap.NamespaceDescriptor {
	if s == "" || strings.EqualFold(s, "NIL") {
		return nil
	}

	var descs []imap.NamespaceDescriptor
	for {
		inner, rest := extractParenthesized(s)
		if inner == "" {
			break
		}

		var prefix, delimTok string
		prefix, inner = readQuotedOrAtom(inner)
		inner = strings.TrimPrefix(inner, " ")
		delimTok, _ = readQuotedOrAtom(inner)

		desc := imap.NamespaceDescriptor{Prefix: prefix}
		if unquoted, err := strconv.Unquote(`"` + delimTok + `"`); err == nil && len(unquoted) == 1 {
			desc.Delim = rune(unquoted[0])
		} else if len(delimTok) == 1 {
			desc.Delim = rune(delimTok[0])
		}
		descs = append(descs, desc)

		s = strings.TrimPrefix(rest, " ")
		if s == "" {
			break
		}
	}
	return descs
}
