package auth

import "nftconnect/internal/models"

// Session is the per-panel handshake state. It is owned by a single Machine
// and only mutated through Transition.
type Session struct {
	WalletInfo  *models.WalletInfo
	Nonce       string
	Initialized bool

	// ProofErrors counts consecutive wallet proof errors.
	ProofErrors int
	// Submission is the id of the latest submission ever issued.
	Submission uint64

	ticket uint64
	// awaiting is the submission whose acknowledgement is still wanted.
	awaiting uint64
}

// Reset drops everything tied to the current attempt. Submission ids stay
// monotonic across resets.
func (s *Session) Reset() {
	s.WalletInfo = nil
	s.Nonce = ""
	s.awaiting = 0
}

func (s *Session) issueTicket() uint64 {
	s.ticket++
	return s.ticket
}

func (s *Session) invalidateTicket() {
	s.ticket++
}
