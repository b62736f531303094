package state

import (
	imap "github.com/mailflow-dev/imapengine"
)

// DefaultTransitions returns the default state transition rules spanning
// the engine's six states.
//
// The allowed transitions are:
//   - Disconnected -> Connected (TCP connect)
//   - Connected -> PreAuth (OK greeting)
//   - Connected -> Authenticated (PREAUTH greeting)
//   - Connected -> Disconnected (BYE greeting or network loss)
//   - PreAuth -> Authenticated (via LOGIN/AUTHENTICATE)
//   - PreAuth -> Disconnected (via LOGOUT or network loss)
//   - Authenticated -> Selected (via SELECT/EXAMINE)
//   - Authenticated -> Disconnected (via LOGOUT)
//   - Authenticated -> PreAuth (via UNAUTHENTICATE)
//   - Selected -> Authenticated (via CLOSE/UNSELECT)
//   - Selected -> Selected (via SELECT/EXAMINE of another mailbox)
//   - Selected -> Idle (via IDLE)
//   - Selected -> Disconnected (via LOGOUT)
//   - Idle -> Selected (via DONE)
func DefaultTransitions() map[imap.EngineState][]imap.EngineState {
	return map[imap.EngineState][]imap.EngineState{
		imap.StateDisconnected: {
			imap.StateConnected,
		},
		imap.StateConnected: {
			imap.StatePreAuth,
			imap.StateAuthenticated, // server greeted with PREAUTH already resolved
			imap.StateDisconnected,
		},
		imap.StatePreAuth: {
			imap.StateAuthenticated,
			imap.StateDisconnected,
		},
		imap.StateAuthenticated: {
			imap.StateSelected,
			imap.StateDisconnected,
			imap.StatePreAuth, // UNAUTHENTICATE
		},
		imap.StateSelected: {
			imap.StateAuthenticated,
			imap.StateSelected, // re-select
			imap.StateIdle,
			imap.StateDisconnected,
		},
		imap.StateIdle: {
			imap.StateSelected, // DONE
			imap.StateDisconnected,
		},
	}
}

// CommandAllowedStates returns the states in which a command is allowed.
func CommandAllowedStates(cmd string) []imap.EngineState {
	switch cmd {
	// Any state once the greeting has been read.
	case "CAPABILITY", "NOOP", "LOGOUT":
		return []imap.EngineState{
			imap.StatePreAuth,
			imap.StateAuthenticated,
			imap.StateSelected,
			imap.StateIdle,
		}

	// Pre-authentication state.
	case "STARTTLS", "AUTHENTICATE", "LOGIN":
		return []imap.EngineState{
			imap.StatePreAuth,
		}

	// Authenticated state.
	case "ENABLE", "SELECT", "EXAMINE", "CREATE", "DELETE", "RENAME",
		"SUBSCRIBE", "UNSUBSCRIBE", "LIST", "LSUB", "NAMESPACE",
		"STATUS", "APPEND", "IDLE", "UNAUTHENTICATE":
		return []imap.EngineState{
			imap.StateAuthenticated,
			imap.StateSelected,
		}

	// Selected state.
	case "CLOSE", "UNSELECT", "EXPUNGE", "SEARCH", "FETCH", "STORE",
		"COPY", "MOVE", "SORT", "THREAD", "UID":
		return []imap.EngineState{
			imap.StateSelected,
		}

	default:
		return nil
	}
}
