package client

import (
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// GetACL sends the GETACL command (RFC 4314) and returns the access
// control list entries for the given mailbox.
func (c *Client) GetACL(mailbox string) (*imap.ACLData, error) {
	if !c.HasCap(imap.CapACL) {
		return nil, imap.NotSupported(imap.CapACL)
	}

	c.collectUntagged()

	result, err := c.execute("GETACL", quoteArg(mailbox))
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.ACLData{Rights: map[string]imap.ACLRights{}}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "ACL ") {
			continue
		}
		rest := line[len("ACL "):]
		data.Mailbox, rest = readQuotedOrAtom(rest)
		rest = strings.TrimPrefix(rest, " ")
		for rest != "" {
			var identifier, rights string
			identifier, rest = readQuotedOrAtom(rest)
			if identifier == "" {
				break
			}
			rest = strings.TrimPrefix(rest, " ")
			rights, rest = readQuotedOrAtom(rest)
			data.Rights[identifier] = imap.ACLRights(rights)
			rest = strings.TrimPrefix(rest, " ")
		}
	}
	return data, nil
}

// SetACL sends the SETACL command (RFC 4314), replacing the rights
// granted to identifier on mailbox.
func (c *Client) SetACL(mailbox, identifier string, rights imap.ACLRights) error {
	if !c.HasCap(imap.CapACL) {
		return imap.NotSupported(imap.CapACL)
	}

	result, err := c.execute("SETACL", quoteArg(mailbox), quoteArg(identifier), quoteArg(string(rights)))
	if err != nil {
		return err
	}
	if result.status != "OK" {
		return commandResultError(result)
	}
	return nil
}

// DeleteACL sends the DELETEACL command (RFC 4314), removing any rights
// granted to identifier on mailbox.
func (c *Client) DeleteACL(mailbox, identifier string) error {
	if !c.HasCap(imap.CapACL) {
		return imap.NotSupported(imap.CapACL)
	}

	result, err := c.execute("DELETEACL", quoteArg(mailbox), quoteArg(identifier))
	if err != nil {
		return err
	}
	if result.status != "OK" {
		return commandResultError(result)
	}
	return nil
}

// ListRights sends the LISTRIGHTS command (RFC 4314), returning the rights
// that may and may not be granted to identifier on mailbox.
func (c *Client) ListRights(mailbox, identifier string) (*imap.ACLListRightsData, error) {
	if !c.HasCap(imap.CapACL) {
		return nil, imap.NotSupported(imap.CapACL)
	}

	c.collectUntagged()

	result, err := c.execute("LISTRIGHTS", quoteArg(mailbox), quoteArg(identifier))
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.ACLListRightsData{}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "LISTRIGHTS ") {
			continue
		}
		rest := line[len("LISTRIGHTS "):]
		data.Mailbox, rest = readQuotedOrAtom(rest)
		rest = strings.TrimPrefix(rest, " ")
		data.Identifier, rest = readQuotedOrAtom(rest)
		rest = strings.TrimPrefix(rest, " ")

		var required string
		required, rest = readQuotedOrAtom(rest)
		data.Required = imap.ACLRights(required)

		for rest != "" {
			var optional string
			optional, rest = readQuotedOrAtom(rest)
			if optional == "" {
				break
			}
			data.Optional = append(data.Optional, imap.ACLRights(optional))
			rest = strings.TrimPrefix(rest, " ")
		}
	}
	return data, nil
}

// MyRights sends the MYRIGHTS command (RFC 4314), returning the rights
// the authenticated user has on mailbox.
func (c *Client) MyRights(mailbox string) (*imap.ACLMyRightsData, error) {
	if !c.HasCap(imap.CapACL) {
		return nil, imap.NotSupported(imap.CapACL)
	}

	c.collectUntagged()

	result, err := c.execute("MYRIGHTS", quoteArg(mailbox))
	if err != nil {
		return nil, err
	}
	if result.status != "OK" {
		return nil, commandResultError(result)
	}

	data := &imap.ACLMyRightsData{}
	for _, line := range c.collectUntagged() {
		if !strings.HasPrefix(line, "MYRIGHTS ") {
			continue
		}
		rest := line[len("MYRIGHTS "):]
		var rights string
		data.Mailbox, rest = readQuotedOrAtom(rest)
		rest = strings.TrimPrefix(rest, " ")
		rights, _ = readQuotedOrAtom(rest)
		data.Rights = imap.ACLRights(rights)
	}
	return data, nil
}
