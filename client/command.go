package client

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// pendingCommand represents a command awaiting its tagged response.
type pendingCommand struct {
	tag string
	// correlationID is a per-command uuid attached to the log line that
	// records the command being sent, so a slow or misbehaving exchange can
	// be traced across a whole transcript without grepping by tag (tags
	// restart with every new Client; uuids never repeat).
	correlationID uuid.UUID
	done          chan *commandResult
}

// commandResult is the result of a completed command.
type commandResult struct {
	status string // "OK", "NO", "BAD"
	code   string // response code (may be empty)
	text   string // human-readable text
	err    error  // non-nil if an error occurred before getting a response
}

// tagGenerator generates unique command tags using a rotating single-letter
// prefix (A, B, C, … Z, A, …) followed by a monotonic counter that is never
// reset, so tags run A1, B2, … Z26, A27, … and stay visually distinct
// across a long session.
type tagGenerator struct {
	counter atomic.Int64
	// fixedPrefix, when set, disables letter rotation (used by tests that
	// assert on exact tag sequences).
	fixedPrefix string
}

// newTagGenerator creates a new tag generator. The prefix argument is kept
// for API compatibility with callers that pin a fixed prefix (primarily
// tests); pass "" to use the default rotating-letter scheme.
func newTagGenerator(prefix string) *tagGenerator {
	return &tagGenerator{fixedPrefix: prefix}
}

// Next returns the next unique tag.
func (g *tagGenerator) Next() string {
	n := g.counter.Add(1)
	if g.fixedPrefix != "" {
		return g.fixedPrefix + strconv.FormatInt(n, 10)
	}
	letter := rotatingLetter(n)
	return letter + strconv.FormatInt(n, 10)
}

// rotatingLetter returns the n-th rotating tag prefix letter (A..Z, A..Z, …).
func rotatingLetter(n int64) string {
	idx := (n - 1) % 26
	if idx < 0 {
		idx += 26
	}
	return string(rune('A' + idx))
}

// pendingCommands tracks commands awaiting responses.
type pendingCommands struct {
	mu       sync.Mutex
	commands map[string]*pendingCommand
}

func newPendingCommands() *pendingCommands {
	return &pendingCommands{
		commands: make(map[string]*pendingCommand),
	}
}

// Add registers a new pending command and returns it.
func (pc *pendingCommands) Add(tag string) *pendingCommand {
	cmd := &pendingCommand{
		tag:           tag,
		correlationID: uuid.New(),
		done:          make(chan *commandResult, 1),
	}
	pc.mu.Lock()
	pc.commands[tag] = cmd
	pc.mu.Unlock()
	return cmd
}

// Complete completes a pending command with the given result.
func (pc *pendingCommands) Complete(tag string, result *commandResult) {
	pc.mu.Lock()
	cmd, ok := pc.commands[tag]
	if ok {
		delete(pc.commands, tag)
	}
	pc.mu.Unlock()

	if ok {
		cmd.done <- result
	}
}

// CompleteAll completes all pending commands with an error.
func (pc *pendingCommands) CompleteAll(err error) {
	pc.mu.Lock()
	commands := pc.commands
	pc.commands = make(map[string]*pendingCommand)
	pc.mu.Unlock()

	for _, cmd := range commands {
		cmd.done <- &commandResult{err: err}
	}
}
