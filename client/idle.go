package client

import (
	"strings"

	imap "github.com/mailflow-dev/imapengine"
)

// IdleCommand represents an in-progress IDLE command.
type IdleCommand struct {
	tag       string
	client    *Client
	cmd       *pendingCommand
	prevState imap.EngineState
}

// Idle starts an IDLE command. Call Done() on the returned IdleCommand to stop.
func (c *Client) Idle() (*IdleCommand, error) {
	c.cmdMu.Lock()

	tag := c.tags.Next()
	cmd := c.pending.Add(tag)

	var line strings.Builder
	line.WriteString(tag)
	line.WriteString(" IDLE\r\n")

	c.encoder.RawString(line.String())
	if err := c.encoder.Flush(); err != nil {
		werr := imap.IoError(err)
		c.pending.Complete(tag, &commandResult{err: werr})
		c.cmdMu.Unlock()
		return nil, werr
	}

	if _, err := c.waitForContinuation(cmd); err != nil {
		c.cmdMu.Unlock()
		return nil, err
	}

	prevState := c.State()
	c.setState(imap.StateIdle)

	return &IdleCommand{
		tag:       tag,
		client:    c,
		cmd:       cmd,
		prevState: prevState,
	}, nil
}

// Wait blocks until the IDLE command completes or is stopped.
func (ic *IdleCommand) Wait() error {
	result := <-ic.cmd.done
	if err := commandResultError(result); err != nil {
		return err
	}
	return nil
}

// Done sends the DONE continuation to stop IDLE, restoring the prior state
// and releasing the single-command lock Idle acquired.
func (ic *IdleCommand) Done() error {
	defer ic.client.cmdMu.Unlock()

	ic.client.encoder.RawString("DONE\r\n")
	if err := ic.client.encoder.Flush(); err != nil {
		return imap.IoError(err)
	}
	err := ic.Wait()
	ic.client.setState(ic.prevState)
	return err
}
