// Package auth holds the wallet handshake state machine. Transition is pure:
// it returns the next machine and the effects a runner has to carry out, and
// every I/O completion comes back in as an Event.
package auth

import (
	"errors"
	"fmt"

	"nftconnect/internal/models"
	"nftconnect/internal/render"
)

type Machine struct {
	State   State
	Session Session
}

func New() Machine {
	return Machine{State: StateUninitialized}
}

func Transition(m Machine, ev Event) (Machine, []Effect) {
	var effects []Effect
	switch e := ev.(type) {
	case Opened:
		effects = m.open()
	case Closed:
		effects = m.close()
	case ManifestResolved:
		effects = m.manifestResolved(e)
	case AdapterFailed:
		effects = m.adapterFailed(e)
	case NonceResolved:
		effects = m.nonceResolved(e)
	case StatusChanged:
		effects = m.statusChanged(e)
	case SubmitAcked:
		effects = m.submitAcked(e)
	case ResultArrived:
		effects = m.resultArrived(e)
	case VerificationFailed:
		effects = m.verificationFailed(e)
	default:
		effects = []Effect{Log{Level: LevelWarn, Message: fmt.Sprintf("unhandled event %T", ev)}}
	}
	return m, effects
}

func (m *Machine) open() []Effect {
	if m.State.Open() {
		return []Effect{Log{Level: LevelDebug, Message: "panel already open, ignoring show"}}
	}

	m.Session.Reset()
	m.Session.ProofErrors = 0
	effects := []Effect{SetVisible{Visible: true}}

	if !m.Session.Initialized {
		m.Session.Initialized = true
		m.State = StateInitializing
		return append(effects,
			Log{Level: LevelInfo, Message: "initializing wallet connection"},
			FetchManifest{Ticket: m.Session.issueTicket()},
		)
	}

	m.State = StateAwaitingConnection
	return append(effects,
		Log{Level: LevelInfo, Message: "re-opening panel, requesting a new payload"},
		RequestNonce{Ticket: m.Session.issueTicket()},
	)
}

func (m *Machine) close() []Effect {
	effects := []Effect{SetVisible{Visible: false}, Disconnect{}}
	if m.State == StateInitializing {
		m.Session.Initialized = false
		effects = append(effects, DiscardAdapter{})
	}

	m.Session.Reset()
	m.Session.invalidateTicket()
	m.State = StateClosed
	return append(effects, Render{Display: render.Clear()})
}

func (m *Machine) manifestResolved(e ManifestResolved) []Effect {
	if e.Ticket != m.Session.ticket || m.State != StateInitializing {
		return []Effect{Log{Level: LevelDebug, Message: "dropping stale manifest response"}}
	}

	if e.Err != nil || e.URL == "" {
		reason := "Could not fetch Manifest URL."
		if e.Err == nil {
			reason = "Manifest URL is missing."
		}

		return m.failInitialization(reason, e.Err)
	}

	return []Effect{
		CreateAdapter{ManifestURL: e.URL},
		RequestNonce{Ticket: m.Session.issueTicket()},
	}
}

func (m *Machine) adapterFailed(e AdapterFailed) []Effect {
	if m.State != StateInitializing {
		return []Effect{Log{Level: LevelDebug, Message: "dropping stale adapter failure"}}
	}

	m.Session.invalidateTicket()
	return m.failInitialization("", e.Err)
}

func (m *Machine) failInitialization(reason string, err error) []Effect {
	m.Session.Reset()
	m.Session.Initialized = false
	m.State = StateUninitialized
	return []Effect{
		Log{Level: LevelError, Message: "wallet connection setup failed", Err: asKind(err, ErrConfigUnavailable)},
		DiscardAdapter{},
		Render{Display: render.InitializationError(reason)},
	}
}

func (m *Machine) nonceResolved(e NonceResolved) []Effect {
	if e.Ticket != m.Session.ticket || !m.State.Open() {
		return []Effect{Log{Level: LevelDebug, Message: "dropping stale payload response"}}
	}

	if e.Err != nil || e.Payload == "" {
		text := render.TextSessionDataFailed
		if e.Err == nil {
			text = render.TextSessionDataInvalid
		}

		m.Session.Reset()
		effects := []Effect{
			Log{Level: LevelError, Message: "could not obtain payload", Err: asKind(e.Err, ErrNonceUnavailable)},
		}
		if m.State == StateInitializing {
			m.Session.Initialized = false
			m.State = StateUninitialized
			effects = append(effects, DiscardAdapter{})
		} else {
			m.State = StateAwaitingConnection
		}
		return append(effects, Render{Display: render.Notice(models.ToneError, text)})
	}

	m.Session.Nonce = e.Payload
	effects := []Effect{Configure{Nonce: e.Payload}}
	if m.State == StateInitializing {
		m.State = StateAwaitingConnection
		effects = append(effects, Subscribe{}, Log{Level: LevelInfo, Message: "wallet connection ready"})
	}
	return effects
}

func (m *Machine) statusChanged(e StatusChanged) []Effect {
	if !m.State.Subscribed() {
		return []Effect{Log{Level: LevelDebug, Message: "ignoring wallet status while " + m.State.String()}}
	}

	if e.Wallet == nil {
		m.Session.Reset()
		m.State = StateAwaitingConnection
		return []Effect{
			Log{Level: LevelInfo, Message: "wallet disconnected"},
			Render{Display: render.Clear()},
		}
	}

	m.Session.WalletInfo = e.Wallet
	proof := e.Wallet.TonProof()

	switch {
	case proof.IsError():
		reason := ""
		if proof.Error != nil {
			reason = proof.Error.Message
		}

		m.Session.Reset()
		m.Session.ProofErrors++
		m.State = StateAwaitingConnection
		return []Effect{
			Log{Level: LevelWarn, Message: "ton proof attempt failed in wallet", Err: fmt.Errorf("%w: %s", ErrWalletProofError, reason)},
			Render{Display: render.Notice(models.ToneWarning, render.TextWalletProofError)},
			RequestNonce{Ticket: m.Session.issueTicket(), Attempt: m.Session.ProofErrors},
		}
	case proof != nil:
		return m.submit(proof)
	}

	return []Effect{Log{Level: LevelDebug, Message: "wallet connected without a new proof"}}
}

func (m *Machine) submit(proof *models.TonProofItem) []Effect {
	m.State = StateProofPending
	if m.Session.WalletInfo == nil || !proof.Complete() {
		m.State = StateAwaitingConnection
		return []Effect{
			Log{Level: LevelError, Message: "not submitting proof", Err: ErrIncompleteProofData},
			Render{Display: render.Notice(models.ToneError, render.TextIncompleteProof)},
		}
	}

	m.Session.Submission++
	m.Session.awaiting = m.Session.Submission
	m.Session.ProofErrors = 0
	m.State = StateVerifying
	return []Effect{
		Log{Level: LevelInfo, Message: "submitting proof for verification"},
		Submit{Submission: m.Session.Submission, WalletInfo: m.Session.WalletInfo, Proof: proof},
	}
}

func (m *Machine) submitAcked(e SubmitAcked) []Effect {
	if m.State != StateVerifying || e.Submission != m.Session.awaiting {
		return []Effect{Log{Level: LevelDebug, Message: "dropping acknowledgement of an abandoned submission"}}
	}

	if e.Err != nil {
		m.Session.awaiting = 0
		m.State = StateAwaitingConnection
		return []Effect{
			Log{Level: LevelError, Message: "could not submit proof", Err: asKind(e.Err, ErrSubmissionFailed)},
			Render{Display: render.Notice(models.ToneError, render.TextSubmitFailed)},
		}
	}

	if e.Status != models.AckStatusReceived {
		return []Effect{
			Log{Level: LevelWarn, Message: "submission acknowledged with status " + e.Status, Err: ErrUnexpectedAck},
			Render{Display: render.Notice(models.ToneWarning, render.TextAckWarning)},
		}
	}

	return []Effect{Render{Display: render.Notice(models.TonePlain, render.TextVerifying)}}
}

func (m *Machine) resultArrived(e ResultArrived) []Effect {
	if !m.State.Open() {
		return []Effect{Log{Level: LevelDebug, Message: "ignoring verification result while " + m.State.String()}}
	}

	// only a newer submission makes a result stale; a reset alone does not
	if id := e.Result.SubmissionID; id != 0 && id != m.Session.Submission {
		return []Effect{Log{Level: LevelWarn, Message: fmt.Sprintf("dropping result of superseded submission %d", id)}}
	}

	if e.Result.Verified != nil {
		if *e.Result.Verified {
			m.State = StateVerified
		} else {
			m.State = StateFailed
		}
	}
	return []Effect{
		Log{Level: LevelInfo, Message: "verification result received"},
		Render{Display: render.Result(e.Result)},
	}
}

func (m *Machine) verificationFailed(e VerificationFailed) []Effect {
	if !m.State.Open() {
		return []Effect{Log{Level: LevelDebug, Message: "ignoring verification failure while " + m.State.String()}}
	}

	m.State = StateFailed
	return []Effect{
		Log{Level: LevelError, Message: "verification failed: " + e.Message},
		Render{Display: render.VerificationFailed(e.Message)},
	}
}

func asKind(err, kind error) error {
	switch {
	case err == nil:
		return kind
	case errors.Is(err, kind):
		return err
	}
	return fmt.Errorf("%w: %v", kind, err)
}
