// Package session owns the conversation transcript and folds response
// streams into it, one turn per request.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/api"
	"github.com/datalens-ai/analytics-console/internal/dispatch"
	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/internal/sse"
	"github.com/datalens-ai/analytics-console/pkg/logger"
	"github.com/datalens-ai/analytics-console/pkg/metrics"
)

// Session is the top-level conversation orchestrator. It holds one
// conversation identifier and the ordered transcript, and wires the frame
// decoder and dispatcher into per-request turn builders.
type Session struct {
	client     *api.Client
	dispatcher *dispatch.Dispatcher
	logger     *logger.Logger

	mu             sync.Mutex
	conversationID string
	transcript     []model.Turn

	// activeReq is the token of the request whose folds may commit. Starting
	// a new request replaces it, so late events from an abandoned stream are
	// dropped instead of landing in the wrong turn.
	activeReq string

	onUpdate    []func([]model.Turn)
	onFinalized []func(model.Turn)

	now func() time.Time
}

// New creates a session with a fresh conversation identifier.
func New(client *api.Client, log *logger.Logger) *Session {
	return &Session{
		client:         client,
		dispatcher:     dispatch.New(log),
		logger:         log,
		conversationID: uuid.Must(uuid.NewV7()).String(),
		now:            time.Now,
	}
}

// ConversationID returns the current conversation identifier.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Transcript returns a snapshot of the transcript.
func (s *Session) Transcript() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OnUpdate registers a listener invoked with a fresh transcript snapshot
// after every fold. Snapshots arrive incrementally while a turn streams.
func (s *Session) OnUpdate(fn func([]model.Turn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = append(s.onUpdate, fn)
}

// OnTurnFinalized registers a listener invoked once per finalized assistant
// turn. The pinned view aggregator and the turn publisher hook in here.
func (s *Session) OnTurnFinalized(fn func(model.Turn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinalized = append(s.onFinalized, fn)
}

// SendMessage submits a user query and folds the streamed response into one
// assistant turn. Blank input is a no-op. The user turn is appended before
// any network activity.
func (s *Session) SendMessage(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	userTurn := model.Turn{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleUser,
		Blocks:    []model.ContentBlock{model.TextBlock(query)},
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, userTurn)
	reqID := uuid.Must(uuid.NewV7()).String()
	s.activeReq = reqID
	conversationID := s.conversationID
	s.mu.Unlock()
	s.publish()
	metrics.TurnsTotal.WithLabelValues(string(model.RoleUser)).Inc()

	builder := newTurnBuilder(s.now)
	start := s.now()

	streamErr := s.streamChat(ctx, conversationID, query, reqID, builder)
	if streamErr != nil {
		builder.applyError(model.ErrorBlock(
			"Connection Error",
			"Failed to reach the analytics service at "+s.client.BaseURL()+api.ChatPath,
		))
		s.logger.Warn("chat stream failed", zap.Error(streamErr))
	}

	builder.finalize()
	committed := s.commit(reqID, builder)

	status := "success"
	if streamErr != nil {
		status = "error"
	}
	metrics.RecordStream("chat", status, s.now().Sub(start).Seconds())

	if committed {
		metrics.TurnsTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
		if turn, ok := builder.snapshot(); ok {
			s.notifyFinalized(turn)
		}
	}
	return streamErr
}

func (s *Session) streamChat(ctx context.Context, conversationID, query, reqID string, builder *turnBuilder) error {
	body, err := s.client.StreamChat(ctx, model.ChatRequest{
		Query:          query,
		ConversationID: conversationID,
	})
	if err != nil {
		return err
	}
	defer body.Close()

	metrics.IncrementStreams()
	defer metrics.DecrementStreams()

	return sse.Stream(ctx, body, func(ev sse.Event) error {
		for _, instr := range s.dispatcher.Dispatch(ev) {
			builder.apply(instr)
		}
		s.commit(reqID, builder)
		return nil
	})
}

// commit replaces or inserts the builder's turn in the transcript, provided
// the request is still the active one. Returns whether the commit landed.
func (s *Session) commit(reqID string, builder *turnBuilder) bool {
	turn, ok := builder.snapshot()
	if !ok {
		return false
	}

	s.mu.Lock()
	if s.activeReq != reqID {
		s.mu.Unlock()
		s.logger.Debug("dropping fold from abandoned stream", zap.String("turn_id", turn.ID))
		return false
	}
	replaced := false
	for i := range s.transcript {
		if s.transcript[i].ID == turn.ID {
			s.transcript[i] = turn
			replaced = true
			break
		}
	}
	if !replaced {
		s.transcript = append(s.transcript, turn)
	}
	s.mu.Unlock()

	s.publish()
	return true
}

// RetryLast resubmits the most recent user query, if any.
func (s *Session) RetryLast(ctx context.Context) error {
	s.mu.Lock()
	var query string
	for i := len(s.transcript) - 1; i >= 0; i-- {
		if s.transcript[i].Role != model.RoleUser {
			continue
		}
		if block, ok := s.transcript[i].Find(model.BlockText); ok {
			query = block.Text()
		}
		break
	}
	s.mu.Unlock()

	if query == "" {
		return nil
	}
	return s.SendMessage(ctx, query)
}

// Clear discards the transcript and detaches any in-flight stream from it.
// The conversation identifier is kept; see NewConversation.
func (s *Session) Clear() {
	s.mu.Lock()
	s.transcript = nil
	s.activeReq = ""
	s.mu.Unlock()
	s.publish()
}

// NewConversation starts over with a fresh conversation identifier and an
// empty transcript.
func (s *Session) NewConversation() {
	s.mu.Lock()
	s.conversationID = uuid.Must(uuid.NewV7()).String()
	s.mu.Unlock()
	s.Clear()
	s.logger.Info("started new conversation", zap.String("conversation_id", s.ConversationID()))
}

func (s *Session) snapshotLocked() []model.Turn {
	out := make([]model.Turn, len(s.transcript))
	for i, t := range s.transcript {
		out[i] = t.Clone()
	}
	return out
}

func (s *Session) publish() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	listeners := s.onUpdate
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (s *Session) notifyFinalized(turn model.Turn) {
	s.mu.Lock()
	listeners := s.onFinalized
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(turn)
	}
}
