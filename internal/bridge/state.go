package bridge

import (
	"sync"

	"github.com/nghyane/oc-bridge/internal/usage"
)

// BridgeState is the process-wide mutable state of one bridge instance: the
// selected model, the usage recorder and the session manager. It is created
// once by the composition root and shared by every front end.
type BridgeState struct {
	mu           sync.RWMutex
	currentModel string

	Sessions *SessionManager
	Usage    *usage.Recorder
}

// NewBridgeState creates state starting on defaultModel.
func NewBridgeState(defaultModel string, sessions *SessionManager, recorder *usage.Recorder) *BridgeState {
	if recorder == nil {
		recorder = usage.NewRecorder(nil)
	}
	return &BridgeState{
		currentModel: defaultModel,
		Sessions:     sessions,
		Usage:        recorder,
	}
}

// CurrentModel returns the selected model id.
func (s *BridgeState) CurrentModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentModel
}

func (s *BridgeState) setCurrentModel(id string) {
	s.mu.Lock()
	s.currentModel = id
	s.mu.Unlock()
}
