package tui

import (
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/gate"
)

// ChannelNotifier adapts domain.Notifier to a channel for Bubble Tea.
type ChannelNotifier struct {
	ch chan<- NoticeMsg
}

// NewChannelNotifier creates a new channel-based notifier.
func NewChannelNotifier(ch chan<- NoticeMsg) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

// Notify sends the notice to the channel (non-blocking if full).
func (n *ChannelNotifier) Notify(severity domain.Severity, message string) {
	select {
	case n.ch <- NoticeMsg{Severity: severity, Message: message}:
	default:
	}
}

// gateBridge adapts gate.View callbacks to GateMsgs for the update loop.
// Callbacks arrive on whatever goroutine published the identity, so they
// never touch the model directly.
type gateBridge struct {
	gen int
	ch  chan<- GateMsg
}

var _ gate.View = (*gateBridge)(nil)

func (b *gateBridge) Placeholder() {
	b.send(GateMsg{Gen: b.gen, Kind: GatePlaceholder})
}

func (b *gateBridge) Admit(identity domain.Identity) {
	b.send(GateMsg{Gen: b.gen, Kind: GateAdmit, Identity: identity})
}

func (b *gateBridge) Redirect(path string) {
	b.send(GateMsg{Gen: b.gen, Kind: GateRedirect, Path: path})
}

func (b *gateBridge) send(msg GateMsg) {
	select {
	case b.ch <- msg:
	default:
	}
}
