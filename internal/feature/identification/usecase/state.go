package usecase

import "fmt"

// RequestState は1回の識別リクエストの処理段階です。
type RequestState int

const (
	StateReceived RequestState = iota
	StateImageStored
	StateProvidersInvoked
	StateNormalized
	StateResponded
	StateFailed
)

func (s RequestState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateImageStored:
		return "image_stored"
	case StateProvidersInvoked:
		return "providers_invoked"
	case StateNormalized:
		return "normalized"
	case StateResponded:
		return "responded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("RequestState(%d)", int(s))
}

// allowedTransitions は状態遷移表です。Failedはすべての非終端状態から到達できます。
// ImageStored→Respondedはキャッシュヒット時の遷移です。
var allowedTransitions = map[RequestState][]RequestState{
	StateReceived:         {StateImageStored, StateFailed},
	StateImageStored:      {StateProvidersInvoked, StateResponded, StateFailed},
	StateProvidersInvoked: {StateNormalized, StateFailed},
	StateNormalized:       {StateResponded, StateFailed},
}

// Terminal は終端状態かどうかを返します。
func (s RequestState) Terminal() bool {
	return s == StateResponded || s == StateFailed
}

// CanTransition はfromからtoへの遷移が許可されているかを返します。
func CanTransition(from, to RequestState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// requestTracker は1リクエスト分の状態と遷移履歴を保持します。
type requestTracker struct {
	state   RequestState
	history []RequestState
}

func newRequestTracker() *requestTracker {
	return &requestTracker{state: StateReceived, history: []RequestState{StateReceived}}
}

func (r *requestTracker) advance(to RequestState) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("invalid request state transition %s -> %s", r.state, to)
	}
	r.state = to
	r.history = append(r.history, to)
	return nil
}

// fail はFailedへ遷移します。既に終端状態であれば何もしません。
func (r *requestTracker) fail() {
	if r.state.Terminal() {
		return
	}
	r.state = StateFailed
	r.history = append(r.history, StateFailed)
}
