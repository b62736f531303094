package client

import (
	"fmt"
	"strconv"
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// Append appends a message to a mailbox with the given flags and a
// server-assigned internal date.
func (c *Client) Append(mailbox string, flags []imap.Flag, literal []byte) (*imap.AppendData, error) {
	return c.AppendWithOptions(mailbox, literal, &imap.AppendOptions{Flags: flags})
}

// AppendWithOptions appends a message with explicit flags and internal date.
func (c *Client) AppendWithOptions(mailbox string, literal []byte, opts *imap.AppendOptions) (*imap.AppendData, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	tag := c.tags.Next()
	cmd := c.pending.Add(tag)

	var line strings.Builder
	line.WriteString(tag)
	line.WriteString(" APPEND ")
	line.WriteString(quoteArg(mailbox))
	writeAppendFlagsAndDate(&line, opts)
	line.WriteString(fmt.Sprintf(" {%d}\r\n", len(literal)))

	c.encoder.RawString(line.String())
	if err := c.encoder.Flush(); err != nil {
		werr := imap.IoError(err)
		c.pending.Complete(tag, &commandResult{err: werr})
		return nil, werr
	}

	if _, err := c.waitForContinuation(cmd); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write(literal); err != nil {
		return nil, imap.IoError(err)
	}
	if _, err := c.conn.Write([]byte("\r\n")); err != nil {
		return nil, imap.IoError(err)
	}

	result := <-cmd.done
	if err := commandResultError(result); err != nil {
		return nil, err
	}

	data := &imap.AppendData{}
	if uidValidity, uid, ok := parseAppendUID(result.code); ok {
		data.UIDValidity = uidValidity
		data.UID = uid
	}
	return data, nil
}

// MultiAppend appends several messages in a single command (RFC 3502). Per
// UIDPLUS, the server returns one UID range spanning the whole batch rather
// than per-message UIDs.
func (c *Client) MultiAppend(mailbox string, messages []imap.MultiAppendMessage) (*imap.MultiAppendData, error) {
	if len(messages) == 0 {
		return nil, imap.ProtocolError("MULTIAPPEND requires at least one message")
	}
	if !c.HasCap(imap.CapMultiAppend) {
		return nil, imap.NotSupported(imap.CapMultiAppend)
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	tag := c.tags.Next()
	cmd := c.pending.Add(tag)

	var line strings.Builder
	line.WriteString(tag)
	line.WriteString(" APPEND ")
	line.WriteString(quoteArg(mailbox))
	writeAppendFlagsAndDate(&line, &messages[0].Options)
	line.WriteString(fmt.Sprintf(" {%d}\r\n", len(messages[0].Literal)))

	c.encoder.RawString(line.String())
	if err := c.encoder.Flush(); err != nil {
		werr := imap.IoError(err)
		c.pending.Complete(tag, &commandResult{err: werr})
		return nil, werr
	}

	for i, msg := range messages {
		if _, err := c.waitForContinuation(cmd); err != nil {
			return nil, err
		}
		if _, err := c.conn.Write(msg.Literal); err != nil {
			return nil, imap.IoError(err)
		}
		if i < len(messages)-1 {
			var next strings.Builder
			writeAppendFlagsAndDate(&next, &messages[i+1].Options)
			next.WriteString(fmt.Sprintf(" {%d}\r\n", len(messages[i+1].Literal)))
			if _, err := c.conn.Write([]byte(next.String())); err != nil {
				return nil, imap.IoError(err)
			}
		} else {
			if _, err := c.conn.Write([]byte("\r\n")); err != nil {
				return nil, imap.IoError(err)
			}
		}
	}

	result := <-cmd.done
	if err := commandResultError(result); err != nil {
		return nil, err
	}

	data := &imap.MultiAppendData{}
	if uidValidity, uidSet, ok := parseAppendUIDSet(result.code); ok {
		data.UIDValidity = uidValidity
		data.UIDs = uidSet
	}
	return data, nil
}

func writeAppendFlagsAndDate(line *strings.Builder, opts *imap.AppendOptions) {
	if opts == nil {
		return
	}
	if len(opts.Flags) > 0 {
		line.WriteString(" (")
		for i, f := range opts.Flags {
			if i > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(string(f))
		}
		line.WriteByte(')')
	}
	if !opts.InternalDate.IsZero() {
		line.WriteString(" \"")
		line.WriteString(opts.InternalDate.Format(imap.InternalDateLayout))
		line.WriteString("\"")
	}
}

func parseAppendUID(code string) (uint32, imap.UID, bool) {
	if !strings.HasPrefix(code, "APPENDUID ") {
		return 0, 0, false
	}
	parts := strings.Fields(code[len("APPENDUID "):])
	if len(parts) < 2 {
		return 0, 0, false
	}
	validity, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	uid, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(validity), imap.UID(uid), true
}

func parseAppendUIDSet(code string) (uint32, imap.UIDSet, bool) {
	if !strings.HasPrefix(code, "APPENDUID ") {
		return 0, imap.UIDSet{}, false
	}
	parts := strings.Fields(code[len("APPENDUID "):])
	if len(parts) < 2 {
		return 0, imap.UIDSet{}, false
	}
	validity, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, imap.UIDSet{}, false
	}
	set, err := imap.ParseUIDSet(parts[1])
	if err != nil {
		return 0, imap.UIDSet{}, false
	}
	return uint32(validity), *set, true
}
