// Package client implements an IMAP client.
//
// The client supports pipelining (sending multiple commands before waiting
// for responses), automatic capability negotiation, and extensible
// response handling.
package client

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	imap "github.com/mailflow-dev/imapengine"
	"github.com/mailflow-dev/imapengine/wire"
)

// Client is an IMAP client. It owns exactly one connection and runs exactly
// one command at a time (the single-active-command invariant): command
// methods are serialized by cmdMu so a second goroutine calling a command
// method blocks until the first's tagged response (or disconnect) arrives,
// rather than interleaving command lines on the wire. Writer() hands out
// the raw connection without taking cmdMu.
type Client struct {
	conn    net.Conn
	encoder *wire.Encoder
	decoder *wire.Decoder
	options *Options
	tags    *tagGenerator
	pending *pendingCommands
	reader  *reader

	cmdMu sync.Mutex

	mu                 sync.Mutex
	state              imap.EngineState
	caps               *imap.CapSet
	folders            *imap.FolderCache
	mailboxName        string
	mailboxMessages    uint32
	mailboxRecent      uint32
	mailboxUIDValidity uint32
	mailboxUIDNext     uint32
	mailboxUnseen      uint32
	mailboxReadOnly    bool

	// untaggedData collects untagged responses for the current command.
	untaggedMu   sync.Mutex
	untaggedData []string

	// continuationCh is used to signal continuation requests to waiting commands.
	continuationCh chan continuation

	closed         bool
	disconnectOnce sync.Once
	disconnectCh   chan struct{}
	disconnectErr  error
}

type continuation struct {
	text string
	err  error
}

// New creates a new Client from an existing connection.
// The caller is responsible for reading the server greeting before calling this.
func New(conn net.Conn, opts ...Option) (*Client, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	c := &Client{
		conn:           conn,
		encoder:        wire.NewEncoder(conn),
		decoder:        wire.NewDecoder(conn),
		options:        options,
		tags:           newTagGenerator(""),
		pending:        newPendingCommands(),
		folders:        imap.NewFolderCache(),
		continuationCh: make(chan continuation, 1),
		disconnectCh:   make(chan struct{}),
		caps:           imap.NewCapSet(),
		state:          imap.StateConnected,
	}

	line, err := c.decoder.ReadLine()
	if err != nil {
		return nil, imap.IoError(fmt.Errorf("reading greeting: %w", err))
	}

	c.options.Logger.Debug().Str("line", line).Msg("greeting")

	switch {
	case strings.HasPrefix(line, "* OK"):
		c.state = imap.StatePreAuth
	case strings.HasPrefix(line, "* PREAUTH"):
		c.state = imap.StateAuthenticated
	case strings.HasPrefix(line, "* BYE"):
		return nil, imap.ProtocolError("server rejected connection: %s", line)
	default:
		return nil, imap.ProtocolError("unexpected greeting: %s", line)
	}

	if bracketIdx := strings.Index(line, "[CAPABILITY "); bracketIdx >= 0 {
		end := strings.IndexByte(line[bracketIdx:], ']')
		if end > 0 {
			capStr := line[bracketIdx+12 : bracketIdx+end]
			c.caps.AddTokens(strings.Fields(capStr)...)
		}
	}

	c.reader = newReader(c.decoder, c)
	go c.reader.run()

	return c, nil
}

// Dial connects to an IMAP server at the given address.
func Dial(addr string, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, imap.IoError(fmt.Errorf("dial: %w", err))
	}
	return New(conn, opts...)
}

// DialTLS connects to an IMAP server using TLS.
func DialTLS(addr string, config *tls.Config, opts ...Option) (*Client, error) {
	conn, err := tls.Dial("tcp", addr, config)
	if err != nil {
		return nil, imap.IoError(fmt.Errorf("dial TLS: %w", err))
	}
	return New(conn, opts...)
}

// SetStream replaces the underlying duplex stream without disturbing
// pipeline state (pending commands, tag counter, folder cache). This is
// how STARTTLS and a future COMPRESS=DEFLATE wrapper swap transports
// mid-connection: the caller performs the upgrade handshake, then hands
// the new net.Conn back here so subsequent reads/writes go through it.
func (c *Client) SetStream(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.encoder = wire.NewEncoder(conn)
	c.decoder = wire.NewDecoder(conn)
	c.reader.swap(c.decoder)
}

// State returns the current engine state.
func (c *Client) State() imap.EngineState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s imap.EngineState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Caps returns a snapshot of the server's capability set.
func (c *Client) Caps() *imap.CapSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.Clone()
}

// HasCap returns true if the server advertises the given capability.
func (c *Client) HasCap(cap imap.Cap) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.Has(cap)
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.conn.Close()
	c.handleDisconnect(imap.Disconnected(err))
	return err
}

// execute sends a command and waits for the tagged response. It holds
// cmdMu for its whole lifetime, enforcing invariant 4 (exactly one command
// in flight at a time).
func (c *Client) execute(name string, args ...string) (*commandResult, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	tag := c.tags.Next()
	cmd := c.pending.Add(tag)

	var line strings.Builder
	line.WriteString(tag)
	line.WriteByte(' ')
	line.WriteString(name)
	for _, arg := range args {
		line.WriteByte(' ')
		line.WriteString(arg)
	}
	line.WriteString("\r\n")

	c.options.Logger.Debug().
		Str("tag", tag).
		Str("correlation_id", cmd.correlationID.String()).
		Str("line", strings.TrimRight(line.String(), "\r\n")).
		Msg("send")

	c.encoder.RawString(line.String())
	if err := c.encoder.Flush(); err != nil {
		werr := imap.IoError(err)
		c.pending.Complete(tag, &commandResult{err: werr})
		return nil, werr
	}

	result := <-cmd.done
	if result.err != nil {
		return nil, result.err
	}

	return result, nil
}

// executeCheck executes a command and returns an error if the response is not OK.
func (c *Client) executeCheck(name string, args ...string) error {
	result, err := c.execute(name, args...)
	if err != nil {
		return err
	}
	return commandResultError(result)
}

// collectUntagged returns and clears collected untagged data.
func (c *Client) collectUntagged() []string {
	c.untaggedMu.Lock()
	defer c.untaggedMu.Unlock()
	data := c.untaggedData
	c.untaggedData = nil
	return data
}

// storeUntagged adds an untagged response to the collection.
func (c *Client) storeUntagged(line string) {
	c.untaggedMu.Lock()
	c.untaggedData = append(c.untaggedData, line)
	c.untaggedMu.Unlock()
}

// handleContinuation processes a continuation request.
func (c *Client) handleContinuation(line string) {
	text := ""
	if len(line) > 2 {
		text = line[2:]
	}
	select {
	case c.continuationCh <- continuation{text: text}:
	default:
	}
}

func (c *Client) handleDisconnect(err error) {
	if err == nil {
		err = imap.Disconnected(fmt.Errorf("connection closed"))
	}

	c.disconnectOnce.Do(func() {
		c.mu.Lock()
		c.disconnectErr = err
		c.state = imap.StateDisconnected
		c.mu.Unlock()

		c.pending.CompleteAll(imap.Disconnected(err))
		select {
		case c.continuationCh <- continuation{err: imap.Disconnected(err)}:
		default:
		}
		close(c.disconnectCh)
	})
}

// Done returns a channel that is closed when the client disconnects.
func (c *Client) Done() <-chan struct{} {
	return c.disconnectCh
}

// DisconnectErr returns the disconnect cause after Done is closed.
func (c *Client) DisconnectErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectErr
}

func commandResultError(result *commandResult) error {
	if result == nil {
		return imap.ProtocolError("missing command result")
	}
	if result.err != nil {
		return result.err
	}
	if result.status == "OK" {
		return nil
	}
	sr := &imap.StatusResponse{
		Type: imap.StatusResponseType(result.status),
		Code: imap.ResponseCode(result.code),
		Text: result.text,
	}
	if result.status == "BAD" {
		return imap.CommandError(sr)
	}
	return imap.CommandFailed(sr)
}

func (c *Client) waitForContinuation(cmd *pendingCommand) (string, error) {
	for {
		select {
		case cont := <-c.continuationCh:
			if cont.err != nil {
				return "", cont.err
			}
			return cont.text, nil
		case result := <-cmd.done:
			if err := commandResultError(result); err != nil {
				return "", err
			}
			return "", imap.ProtocolError("missing continuation request")
		}
	}
}

// Writer returns the underlying connection for advanced use.
func (c *Client) Writer() io.Writer {
	return c.conn
}
