// Package transfer prepares a warm transfer: it produces the briefing summary,
// makes sure the handoff room exists and mints join tokens for both agents.
// The rest of the choreography (who joins or leaves which room, and when) is
// left to the clients.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
	"github.com/jacky-htg/warm-transfer/libs/vendors/livekit"
)

var (
	ErrMissingFields   = errors.New("fromRoom, agentA, and agentB are required fields")
	ErrNoSummarySource = errors.New("Either 'transcript' or 'summary' must be provided")
)

// RoomError wraps a control-plane rejection while creating the handoff room.
type RoomError struct {
	Room string
	Err  error
}

func (e *RoomError) Error() string {
	return "Failed to create transfer room: " + livekit.APIErrorMessage(e.Err)
}

func (e *RoomError) Unwrap() error { return e.Err }

// Summarizer produces the briefing text from a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// TokenIssuer mints room join tokens.
type TokenIssuer interface {
	Issue(identity, room string) (string, error)
}

type Request struct {
	FromRoom   string `json:"fromRoom"`
	AgentA     string `json:"agentA"`
	AgentB     string `json:"agentB"`
	NewRoom    string `json:"newRoom,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

type Result struct {
	Summary     string `json:"summary"`
	NewRoom     string `json:"newRoom"`
	AgentAToken string `json:"agentAToken"`
	AgentBToken string `json:"agentBToken"`
	WSURL       string `json:"wsUrl"`
}

// Service executes transfers. Rooms or Tokens may be nil when LiveKit is not
// configured; Transfer then fails with the configuration error before any
// summary is generated.
type Service struct {
	Rooms      interfaces.RoomService
	Tokens     TokenIssuer
	Summarizer Summarizer
	WSURL      string
	// ConfigErr is reported when Rooms or Tokens are missing.
	ConfigErr error
	Log       *zap.Logger

	now func() time.Time
}

// New returns a Service using the wall clock.
func New(rooms interfaces.RoomService, tokens TokenIssuer, summarizer Summarizer, wsURL string, configErr error, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Rooms:      rooms,
		Tokens:     tokens,
		Summarizer: summarizer,
		WSURL:      wsURL,
		ConfigErr:  configErr,
		Log:        log,
		now:        time.Now,
	}
}

// RoomName returns the handoff room name for req.
func (s *Service) RoomName(req Request) string {
	if req.NewRoom != "" {
		return req.NewRoom
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return req.FromRoom + "-transfer-" + strconv.FormatInt(now().Unix(), 10)
}

// Transfer validates req, then generates the summary and creates the handoff
// room concurrently, and finally mints tokens for both agents.
//
// Errors are reported in a fixed order: validation, configuration, summary,
// room. A room created by this call is deleted again when the summary fails.
func (s *Service) Transfer(ctx context.Context, req Request) (Result, error) {
	if req.FromRoom == "" || req.AgentA == "" || req.AgentB == "" {
		return Result{}, ErrMissingFields
	}
	if req.Transcript == "" && req.Summary == "" {
		return Result{}, ErrNoSummarySource
	}
	if s.Rooms == nil || s.Tokens == nil {
		return Result{}, s.configErr()
	}

	room := s.RoomName(req)
	res := Result{Summary: req.Summary, NewRoom: room, WSURL: s.WSURL}

	// no shared context: one failure must not cancel the other and change
	// which error is reported
	var (
		g       errgroup.Group
		sumErr  error
		roomErr error
		created bool
	)
	if req.Transcript != "" {
		g.Go(func() error {
			var text string
			text, sumErr = s.Summarizer.Summarize(ctx, req.Transcript)
			if sumErr == nil {
				res.Summary = text
			}
			return sumErr
		})
	}
	g.Go(func() error {
		created, roomErr = s.ensureRoom(ctx, room)
		return roomErr
	})
	_ = g.Wait()

	if sumErr != nil {
		if created {
			s.dropRoom(ctx, room)
		}
		return Result{}, sumErr
	}
	if roomErr != nil {
		return Result{}, roomErr
	}

	var err error
	if res.AgentAToken, err = s.Tokens.Issue(req.AgentA, room); err != nil {
		return Result{}, fmt.Errorf("token for %s: %w", req.AgentA, err)
	}
	if res.AgentBToken, err = s.Tokens.Issue(req.AgentB, room); err != nil {
		return Result{}, fmt.Errorf("token for %s: %w", req.AgentB, err)
	}

	s.Log.Info("transfer prepared",
		zap.String("from_room", req.FromRoom),
		zap.String("new_room", room),
		zap.String("agent_a", req.AgentA),
		zap.String("agent_b", req.AgentB),
		zap.Bool("generated_summary", req.Transcript != ""))
	return res, nil
}

// ensureRoom creates room and reports whether it is new.
func (s *Service) ensureRoom(ctx context.Context, room string) (bool, error) {
	_, err := s.Rooms.CreateRoom(ctx, room)
	switch {
	case err == nil:
		return true, nil
	case livekit.IsAlreadyExists(err):
		s.Log.Debug("handoff room already exists", zap.String("room", room))
		return false, nil
	case livekit.IsAPIError(err):
		return false, &RoomError{Room: room, Err: err}
	default:
		return false, err
	}
}

func (s *Service) dropRoom(ctx context.Context, room string) {
	if err := s.Rooms.DeleteRoom(context.WithoutCancel(ctx), room); err != nil {
		s.Log.Warn("delete unused handoff room", zap.String("room", room), zap.Error(err))
	}
}

func (s *Service) configErr() error {
	if s.ConfigErr != nil {
		return s.ConfigErr
	}
	return errors.New("livekit not configured")
}
