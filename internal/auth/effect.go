package auth

import "nftconnect/internal/models"

// Effect is an instruction for the runner. The machine never performs I/O
// itself.
type Effect interface {
	effect()
}

type SetVisible struct {
	Visible bool
}

type Render struct {
	Display models.Display
}

type FetchManifest struct {
	Ticket uint64
}

type CreateAdapter struct {
	ManifestURL string
}

type DiscardAdapter struct{}

// RequestNonce asks the nonce channel for a fresh payload. Attempt is the
// number of consecutive wallet proof errors that led to this request.
type RequestNonce struct {
	Ticket  uint64
	Attempt int
}

type Configure struct {
	Nonce string
}

type Subscribe struct{}

type Submit struct {
	Submission uint64
	WalletInfo *models.WalletInfo
	Proof      *models.TonProofItem
}

type Disconnect struct{}

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

type Log struct {
	Level   LogLevel
	Message string
	Err     error
}

func (SetVisible) effect()     {}
func (Render) effect()         {}
func (FetchManifest) effect()  {}
func (CreateAdapter) effect()  {}
func (DiscardAdapter) effect() {}
func (RequestNonce) effect()   {}
func (Configure) effect()      {}
func (Subscribe) effect()      {}
func (Submit) effect()         {}
func (Disconnect) effect()     {}
func (Log) effect()            {}
