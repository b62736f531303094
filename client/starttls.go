package client

import (
	"crypto/tls"

	imap "github.com/mailflow-dev/imapengine"
)

// StartTLS upgrades the connection to TLS.
func (c *Client) StartTLS(config *tls.Config) error {
	if config == nil {
		config = c.options.TLSConfig
	}
	if config == nil {
		return imap.ProtocolError("TLS config required")
	}

	if err := c.executeCheck("STARTTLS"); err != nil {
		return err
	}

	tlsConn := tls.Client(c.conn, config)
	if err := tlsConn.Handshake(); err != nil {
		return imap.IoError(err)
	}

	c.SetStream(tlsConn)

	return nil
}
