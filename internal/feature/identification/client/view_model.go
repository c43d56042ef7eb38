package client

import (
	"errors"
	"fmt"
	"sync"

	"plantid_backend/internal/feature/identification/domain"
	"plantid_backend/internal/feature/identification/domain/entity"
)

// ErrInvalidTransition は現在の状態で許可されていない操作を表します。
var ErrInvalidTransition = errors.New("invalid view transition")

// ViewState はアップロード画面の状態です。
type ViewState int

const (
	StateIdle ViewState = iota
	StateAwaitingResult
	StateDisplaying
)

func (s ViewState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateDisplaying:
		return "displaying"
	}
	return fmt.Sprintf("ViewState(%d)", int(s))
}

// Notice は画面に表示する通知の種類です。
type Notice int

const (
	NoticeNone Notice = iota
	// NoticeValidationProblem はファイルを選び直せば解決する問題です。
	NoticeValidationProblem
	// NoticeTransientError は再試行で解決する可能性のある失敗です。
	NoticeTransientError
)

func (n Notice) String() string {
	switch n {
	case NoticeNone:
		return "none"
	case NoticeValidationProblem:
		return "validation_problem"
	case NoticeTransientError:
		return "transient_error"
	}
	return fmt.Sprintf("Notice(%d)", int(n))
}

// View はViewModelのある時点のスナップショットです。
type View struct {
	State   ViewState
	Notice  Notice
	Message string
	Result  *entity.PlantDetails
}

// ViewModel は Idle → AwaitingResult → Displaying の3状態を管理します。
// 送信中に別の送信を始めることはできません。
type ViewModel struct {
	mu   sync.Mutex
	view View
}

// NewViewModel はIdle状態のViewModelを生成します。
func NewViewModel() *ViewModel {
	return &ViewModel{}
}

// View は現在の状態を返します。
func (m *ViewModel) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Submit は送信開始を記録します。IdleまたはDisplayingから遷移でき、通知と前回の結果は消えます。
func (m *ViewModel) Submit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.State == StateAwaitingResult {
		return m.invalid("submit")
	}
	m.view = View{State: StateAwaitingResult}
	return nil
}

// Reject は送信前に画像を準備できなかったことを記録します。状態は変わりません。
// 検証違反は選び直しを促す通知に、ファイルの読み込み失敗などは再試行を促す通知になります。
func (m *ViewModel) Reject(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.State == StateAwaitingResult {
		return m.invalid("reject")
	}
	m.view.Notice, m.view.Message = classify(err)
	return nil
}

// Resolve は結果の受信を記録し、Displayingへ遷移します。
func (m *ViewModel) Resolve(details entity.PlantDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.State != StateAwaitingResult {
		return m.invalid("resolve")
	}
	m.view = View{State: StateDisplaying, Result: &details}
	return nil
}

// Fail は送信の失敗を記録し、Idleへ戻ります。
func (m *ViewModel) Fail(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.State != StateAwaitingResult {
		return m.invalid("fail")
	}
	notice, msg := classify(err)
	m.view = View{State: StateIdle, Notice: notice, Message: msg}
	return nil
}

// Reset は表示中の結果を閉じてIdleへ戻ります。
func (m *ViewModel) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.view.State == StateAwaitingResult {
		return m.invalid("reset")
	}
	m.view = View{}
	return nil
}

func (m *ViewModel) invalid(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, m.view.State)
}

func classify(err error) (Notice, string) {
	var se *ServerError
	if errors.As(err, &se) {
		if se.Kind == domain.KindValidation {
			return NoticeValidationProblem, se.Message
		}
		return NoticeTransientError, se.Message
	}
	if domain.KindOf(err) == domain.KindValidation {
		return NoticeValidationProblem, err.Error()
	}
	return NoticeTransientError, err.Error()
}
