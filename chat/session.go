package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/olprint/storefront/core"
)

// State of the conversation turn machine
type State int

const (
	StateIdle State = iota
	StateAwaitingModelStream
	StateExecutingTool
	StateAwaitingFollowupStream
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingModelStream:
		return "awaiting_model_stream"
	case StateExecutingTool:
		return "executing_tool"
	case StateAwaitingFollowupStream:
		return "awaiting_followup_stream"
	default:
		return "unknown"
	}
}

// Message is one entry in the conversation transcript
type Message struct {
	ID        string
	Role      string // "user" or "model"
	Text      string
	IsError   bool
	Grounding []core.GroundingLink
	// ToolStatus is the transient annotation shown while the capability
	// outcome is folded back into the model follow-up.
	ToolStatus string
}

// SessionOption configures a session at creation time
type SessionOption func(*Session)

// WithLocation biases source grounding toward the given coordinates.
// Typically set when the customer grants geolocation; absence degrades to
// ungrounded chat.
func WithLocation(point *core.GeoPoint) SessionOption {
	return func(s *Session) { s.location = point }
}

// WithTelemetry attaches a tracing provider to the session
func WithTelemetry(t core.Telemetry) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.telemetry = t
		}
	}
}

// WithGreeting overrides the assistant's opening message; empty disables it
func WithGreeting(text string) SessionOption {
	return func(s *Session) { s.greeting = text }
}

// Session owns one conversation with the assistant: transcript, model
// history, system instruction, and the turn state machine. The caller
// recreates the session when the catalog (and therefore the system
// instruction) changes. Exactly one turn may be in flight at a time.
type Session struct {
	id           string
	streamer     core.AIStreamer
	tools        *Registry
	systemPrompt string
	location     *core.GeoPoint
	greeting     string
	logger       core.Logger
	telemetry    core.Telemetry

	mu            sync.Mutex
	state         State
	messages      []Message
	history       []core.AIMessage
	stateListener func(State)
}

// NewSession creates a session with the given system instruction. The
// transcript opens with the assistant greeting.
func NewSession(streamer core.AIStreamer, tools *Registry, systemPrompt string, logger core.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if tools == nil {
		tools = NewRegistry(logger)
	}

	s := &Session{
		id:           uuid.NewString(),
		streamer:     streamer,
		tools:        tools,
		systemPrompt: systemPrompt,
		greeting:     Greeting,
		logger:       logger,
		telemetry:    &core.NoOpTelemetry{},
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The greeting is transcript-only; the model history starts empty
	if s.greeting != "" {
		s.messages = append(s.messages, Message{
			ID:   uuid.NewString(),
			Role: "model",
			Text: s.greeting,
		})
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current turn state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the transcript
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetStateListener registers a callback invoked on every state change.
// The UI uses it to disable the input control while a turn is in flight.
func (s *Session) SetStateListener(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateListener = fn
}

// SendMessage runs one full conversation turn: stream the model response,
// execute at most one captured tool call, and stream the follow-up
// confirmation. It blocks until the turn settles back to idle.
//
// Failures inside the turn surface as a generic apology message flagged
// IsError; the underlying cause is returned for logging. Cancellation at a
// chunk boundary keeps whatever text accumulated. Submitting while a turn
// is in flight returns core.ErrTurnInFlight without touching the
// transcript.
func (s *Session) SendMessage(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, core.ErrEmptyMessage
	}

	if err := s.beginTurn(text); err != nil {
		return Message{}, err
	}

	ctx, span := s.telemetry.StartSpan(ctx, "chat.send_message")
	defer span.End()
	span.SetAttribute("session_id", s.id)
	span.SetAttribute("message_length", len(text))

	options := &core.AIOptions{
		SystemPrompt: s.systemPrompt,
		Tools:        s.tools.Declarations(),
		Location:     s.location,
	}

	seen := make(map[string]bool)
	resp, err := s.streamer.StreamGenerateContent(ctx, s.historyCopy(), options, func(chunk core.StreamChunk) error {
		s.applyChunk(chunk, seen, nil)
		return nil
	})
	if err != nil {
		return s.settleStreamError(resp, err, span)
	}

	if resp.FunctionCall == nil {
		// Plain turn: straight back to idle, no tool execution
		s.appendModelHistory(core.AIMessage{Role: "model", Text: resp.Content})
		s.setState(StateIdle)
		return s.lastMessage(), nil
	}

	return s.runToolTurn(ctx, resp, options, seen, span)
}

// runToolTurn executes the captured tool call and streams the follow-up
func (s *Session) runToolTurn(ctx context.Context, resp *core.AIResponse, options *core.AIOptions, seen map[string]bool, span core.Span) (Message, error) {
	call := resp.FunctionCall
	span.SetAttribute("tool", call.Name)

	s.setState(StateExecutingTool)

	status, err := s.tools.Execute(ctx, call)
	if err != nil {
		s.logger.Error("Tool execution rejected", map[string]interface{}{
			"operation":  "chat_tool_error",
			"session_id": s.id,
			"tool":       call.Name,
			"error":      err.Error(),
		})
		span.RecordError(err)
		return s.failTurn(err), err
	}

	s.annotateTool(status)
	s.appendModelHistory(
		core.AIMessage{Role: "model", Text: resp.Content, FunctionCall: call},
		core.AIMessage{Role: "user", FunctionResult: &core.FunctionResult{
			ID:      call.ID,
			Name:    call.Name,
			Content: status,
		}},
	)

	s.setState(StateAwaitingFollowupStream)

	// The confirmation stream appends after the pre-tool text, separated
	// by a blank line once any confirmation text exists
	separated := false
	followResp, err := s.streamer.StreamGenerateContent(ctx, s.historyCopy(), options, func(chunk core.StreamChunk) error {
		s.applyChunk(chunk, seen, &separated)
		return nil
	})
	if err != nil {
		return s.settleStreamError(followResp, err, span)
	}

	s.appendModelHistory(core.AIMessage{Role: "model", Text: followResp.Content})
	s.clearToolAnnotation()
	s.setState(StateIdle)
	return s.lastMessage(), nil
}

// beginTurn atomically claims the turn slot and appends the user message
// plus the streaming placeholder.
func (s *Session) beginTurn(text string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return core.ErrTurnInFlight
	}
	s.state = StateAwaitingModelStream
	listener := s.stateListener

	s.messages = append(s.messages,
		Message{ID: uuid.NewString(), Role: "user", Text: text},
		Message{ID: uuid.NewString(), Role: "model"},
	)
	s.history = append(s.history, core.AIMessage{Role: "user", Text: text})
	s.mu.Unlock()

	if listener != nil {
		listener(StateAwaitingModelStream)
	}
	return nil
}

// applyChunk folds one stream chunk into the in-progress message. Chunks
// arrive sequentially; each is applied before the next is requested. A
// non-nil separated flag marks the follow-up stream, whose first text
// chunk gets a blank-line separator when pre-tool text exists.
func (s *Session) applyChunk(chunk core.StreamChunk, seen map[string]bool, separated *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := &s.messages[len(s.messages)-1]

	if chunk.Text != "" {
		if separated != nil && !*separated {
			*separated = true
			if last.Text != "" {
				last.Text += "\n\n"
			}
		}
		last.Text += chunk.Text
	}

	for _, link := range chunk.Grounding {
		if link.URI == "" || seen[link.URI] {
			continue
		}
		seen[link.URI] = true
		last.Grounding = append(last.Grounding, link)
	}
}

// settleStreamError distinguishes cancellation (keep partial text) from
// failure (generic apology).
func (s *Session) settleStreamError(resp *core.AIResponse, err error, span core.Span) (Message, error) {
	if errors.Is(err, core.ErrStreamPartiallyCompleted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info("Chat turn aborted, keeping partial text", map[string]interface{}{
			"operation":  "chat_turn_aborted",
			"session_id": s.id,
		})
		if resp != nil && resp.Content != "" {
			s.appendModelHistory(core.AIMessage{Role: "model", Text: resp.Content})
		}
		span.SetAttribute("chat.partial", true)
		s.setState(StateIdle)
		return s.lastMessage(), err
	}

	s.logger.Error("Chat turn failed", map[string]interface{}{
		"operation":  "chat_turn_error",
		"session_id": s.id,
		"error":      err.Error(),
	})
	span.RecordError(err)
	return s.failTurn(err), err
}

// failTurn surfaces the generic apology and returns the session to idle.
// The app remains usable after any failure.
func (s *Session) failTurn(cause error) Message {
	s.mu.Lock()
	last := &s.messages[len(s.messages)-1]
	if last.Role == "model" && last.Text == "" {
		last.Text = apologyMessage
		last.IsError = true
		last.ToolStatus = ""
	} else {
		s.messages = append(s.messages, Message{
			ID:      uuid.NewString(),
			Role:    "model",
			Text:    apologyMessage,
			IsError: true,
		})
	}
	msg := s.messages[len(s.messages)-1]
	s.mu.Unlock()

	s.setState(StateIdle)
	return msg
}

func (s *Session) annotateTool(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[len(s.messages)-1].ToolStatus = status
}

func (s *Session) clearToolAnnotation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[len(s.messages)-1].ToolStatus = ""
}

func (s *Session) appendModelHistory(entries ...core.AIMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entries...)
}

func (s *Session) historyCopy() []core.AIMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.AIMessage, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) lastMessage() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[len(s.messages)-1]
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	listener := s.stateListener
	s.mu.Unlock()

	if listener != nil {
		listener(next)
	}
}
