package client

import (
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// GetQuota sends the GETQUOTA command (RFC 2087) for the given quota root.
func (c *Client) GetQuota(root string) (*imap.QuotaData, error) {
	if !c.HasCap(imap.CapQuota) {
		return nil, imap.NotSupported(imap.CapQuota)
	}

	c.collectUntagged()

	result, err := c.execute("GETQUOTA", quoteArg(root))
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.QuotaData{}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "QUOTA ") {
			continue
		}
		parseQuotaLine(line[len("QUOTA "):], data)
	}
	return data, nil
}

// GetQuotaRoot sends the GETQUOTAROOT command (RFC 2087) for a mailbox,
// returning the quota roots that apply to it.
func (c *Client) GetQuotaRoot(mailbox string) (*imap.QuotaRootData, error) {
	if !c.HasCap(imap.CapQuota) {
		return nil, imap.NotSupported(imap.CapQuota)
	}

	c.collectUntagged()

	result, err := c.execute("GETQUOTAROOT", quoteArg(mailbox))
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.QuotaRootData{Mailbox: mailbox}
	for _, line := range c.collectUntagged() {
		switch {
		case strings.HasPrefix(line, "QUOTAROOT "):
			rest := line[len("QUOTAROOT "):]
			_, rest = readQuotedOrAtom(rest)
			rest = strings.TrimPrefix(rest, " ")
			for rest != "" {
				var root string
				root, rest = readQuotedOrAtom(rest)
				if root == "" {
					break
				}
				data.Roots = append(data.Roots, root)
				rest = strings.TrimPrefix(rest, " ")
			}
		}
	}
	return data, nil
}

func parseQuotaLine(s string, data *imap.QuotaData) {
	root, rest := readQuotedOrAtom(s)
	data.Root = root

	rest = strings.TrimPrefix(rest, " ")
	inner, _ := extractParenthesized(rest)
	fields := strings.Fields(inner)
	for i := 0; i+2 < len(fields)+1 && i+2 <= len(fields); i += 3 {
		usage, uerr := strconv.ParseInt(fields[i+1], 10, 64)
		limit, lerr := strconv.ParseInt(fields[i+2], 10, 64)
		if uerr != nil || lerr != nil {
			continue
		}
		data.Resources = append(data.Resources, imap.QuotaResourceData{
			Name:  imap.QuotaResource(fields[i]),
			Usage: usage,
			Limit: limit,
		})
	}
}
