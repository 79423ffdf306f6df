package auth

import "nftconnect/internal/models"

// Event is an input to the state machine.
type Event interface {
	event()
}

// Opened and Closed come from the visibility controller.
type Opened struct{}

type Closed struct{}

type ManifestResolved struct {
	Ticket uint64
	URL    string
	Err    error
}

// AdapterFailed reports that the wallet session adapter could not be built
// from the resolved manifest.
type AdapterFailed struct {
	Err error
}

type NonceResolved struct {
	Ticket  uint64
	Payload string
	Err     error
}

// StatusChanged carries one wallet status event; a nil Wallet is a disconnect.
type StatusChanged struct {
	Wallet *models.WalletInfo
}

type SubmitAcked struct {
	Submission uint64
	Status     string
	Err        error
}

type ResultArrived struct {
	Result models.VerificationResult
}

type VerificationFailed struct {
	Message string
}

func (Opened) event()             {}
func (Closed) event()             {}
func (ManifestResolved) event()   {}
func (AdapterFailed) event()      {}
func (NonceResolved) event()      {}
func (StatusChanged) event()      {}
func (SubmitAcked) event()        {}
func (ResultArrived) event()      {}
func (VerificationFailed) event() {}
