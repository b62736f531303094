package client

import imap "github.com/mailflow-dev/imapengine"

// SupportsIMAP4rev2 returns true if the server supports IMAP4rev2.
func (c *Client) SupportsIMAP4rev2() bool {
	return c.HasCap(imap.CapIMAP4rev2)
}

// SupportsIdle returns true if the server supports IDLE.
func (c *Client) SupportsIdle() bool {
	return c.HasCap(imap.CapIdle)
}

// SupportsMove returns true if the server supports MOVE.
func (c *Client) SupportsMove() bool {
	return c.HasCap(imap.CapMove)
}

// SupportsLiteralPlus returns true if the server supports LITERAL+.
func (c *Client) SupportsLiteralPlus() bool {
	return c.HasCap(imap.CapLiteralPlus)
}

// SupportsUIDPlus returns true if the server supports UIDPLUS.
func (c *Client) SupportsUIDPlus() bool {
	return c.HasCap(imap.CapUIDPlus)
}

// SupportsCondStore returns true if the server supports CONDSTORE.
func (c *Client) SupportsCondStore() bool {
	return c.HasCap(imap.CapCondStore)
}

// SupportsQResync returns true if the server supports QRESYNC.
func (c *Client) SupportsQResync() bool {
	return c.HasCap(imap.CapQResync)
}

// SupportsNamespace returns true if the server supports NAMESPACE.
func (c *Client) SupportsNamespace() bool {
	return c.HasCap(imap.CapNamespace)
}

// SupportsSort returns true if the server supports SORT.
func (c *Client) SupportsSort() bool {
	return c.HasCap(imap.CapSort)
}

// SupportsID returns true if the server supports ID.
func (c *Client) SupportsID() bool {
	return c.HasCap(imap.CapID)
}

// SupportsEnable returns true if the server supports ENABLE.
func (c *Client) SupportsEnable() bool {
	return c.HasCap(imap.CapEnable)
}

// SupportsStartTLS returns true if the server supports STARTTLS.
func (c *Client) SupportsStartTLS() bool {
	return c.HasCap(imap.CapStartTLS)
}

// SupportsGMailExt1 returns true if the server supports Gmail's X-GM-EXT-1
// extension (X-GM-LABELS, X-GM-MSGID, X-GM-THRID, X-GM-RAW).
func (c *Client) SupportsGMailExt1() bool {
	return c.HasCap(imap.CapGMailExt1)
}
