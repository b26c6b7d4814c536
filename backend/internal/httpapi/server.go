package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	lkproto "github.com/livekit/protocol/livekit"
	"go.uber.org/zap"

	"github.com/jacky-htg/warm-transfer/backend/internal/factory"
	"github.com/jacky-htg/warm-transfer/backend/internal/summary"
	"github.com/jacky-htg/warm-transfer/backend/internal/transfer"
	"github.com/jacky-htg/warm-transfer/libs/config"
	"github.com/jacky-htg/warm-transfer/libs/interfaces"
	lktoken "github.com/jacky-htg/warm-transfer/libs/livekit"
)

const maxBodyBytes = 1 << 20

// Server holds the dependencies of the HTTP API. Rooms is nil when LiveKit is
// not configured; each endpoint then reports the configuration error.
type Server struct {
	Config     *config.Config
	Rooms      interfaces.RoomService
	Tokens     *lktoken.TokenIssuer
	Summarizer *summary.Summarizer
	Transfers  *transfer.Service
	Log        *zap.Logger
}

// Handler returns the routed API wrapped in request id, access logging,
// panic recovery and CORS.
func (s *Server) Handler() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/token", s.createToken).Methods(http.MethodPost)
	r.HandleFunc("/create-room", s.createRoom).Methods(http.MethodPost)
	r.HandleFunc("/list-rooms", s.listRooms).Methods(http.MethodPost)
	r.HandleFunc("/generate-summary", s.generateSummary).Methods(http.MethodPost)
	r.HandleFunc("/transfer", s.transfer).Methods(http.MethodPost)
	r.HandleFunc("/webhook/livekit", s.webhook).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, &Error{Status: http.StatusNotFound, Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, &Error{Status: http.StatusMethodNotAllowed, Detail: "Method Not Allowed"})
	})

	var h http.Handler = r
	h = cors(s.Config.CORSOrigins)(h)
	h = recovery(s.Log)(h)
	h = accessLog(s.Log)(h)
	h = requestIDMiddleware(h)
	return h
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type tokenRequest struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

type tokenResponse struct {
	Token string `json:"token"`
	WSURL string `json:"wsUrl"`
}

type createRoomRequest struct {
	Room string `json:"room"`
}

type createRoomResponse struct {
	Room interfaces.RoomInfo `json:"room"`
}

type listRoomsResponse struct {
	Rooms []interfaces.RoomInfo `json:"rooms"`
}

type summaryRequest struct {
	Transcript string `json:"transcript"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

func (s *Server) createToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if e := decode(r, &req); e != nil {
		writeError(w, e)
		return
	}
	if missing := s.Config.MissingLiveKit(); missing != "" {
		writeError(w, internal("Failed to create token: %s environment variable not set", missing))
		return
	}
	if strings.TrimSpace(req.Identity) == "" || strings.TrimSpace(req.Room) == "" {
		writeError(w, badRequest("identity and room are required fields"))
		return
	}

	token, err := s.Tokens.Issue(req.Identity, req.Room)
	if err != nil {
		writeError(w, internal("Failed to create token: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, WSURL: s.Config.LiveKitURL})
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if e := decode(r, &req); e != nil {
		writeError(w, e)
		return
	}
	if s.Rooms == nil {
		writeError(w, internal("%s", factory.ErrLiveKitNotConfigured.Error()))
		return
	}
	if strings.TrimSpace(req.Room) == "" {
		writeError(w, badRequest("room is a required field"))
		return
	}

	room, err := s.Rooms.CreateRoom(r.Context(), req.Room)
	if err != nil {
		s.Log.Warn("create room failed", zap.String("room", req.Room), zap.Error(err))
		writeError(w, roomsError(err, "create room"))
		return
	}
	writeJSON(w, http.StatusOK, createRoomResponse{Room: room})
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	if s.Rooms == nil {
		writeError(w, internal("%s", factory.ErrLiveKitNotConfigured.Error()))
		return
	}
	rooms, err := s.Rooms.ListRooms(r.Context())
	if err != nil {
		s.Log.Warn("list rooms failed", zap.Error(err))
		writeError(w, roomsError(err, "list rooms"))
		return
	}
	if rooms == nil {
		rooms = []interfaces.RoomInfo{}
	}
	writeJSON(w, http.StatusOK, listRoomsResponse{Rooms: rooms})
}

func (s *Server) generateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if e := decode(r, &req); e != nil {
		writeError(w, e)
		return
	}
	if !s.Summarizer.Configured() {
		writeError(w, internal("%s", factory.ErrLLMNotConfigured.Error()))
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeError(w, badRequest("%s", summary.ErrEmptyTranscript.Error()))
		return
	}

	text, err := s.Summarizer.Summarize(r.Context(), req.Transcript)
	if err != nil {
		s.Log.Warn("generate summary failed", zap.Error(err))
		writeError(w, summaryError(err))
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: text})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transfer.Request
	if e := decode(r, &req); e != nil {
		writeError(w, e)
		return
	}
	res, err := s.Transfers.Transfer(r.Context(), req)
	if err != nil {
		s.Log.Warn("transfer failed",
			zap.String("from_room", req.FromRoom),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
		writeError(w, transferError(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// webhook verifies and logs LiveKit room events. Nothing is stored.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	evt, err := s.Tokens.VerifyWebhook(r)
	if err != nil {
		if errors.Is(err, lktoken.ErrCredentialsMissing) {
			writeError(w, internal("%s", factory.ErrLiveKitNotConfigured.Error()))
			return
		}
		s.Log.Warn("rejected webhook", zap.Error(err))
		writeError(w, &Error{Status: http.StatusUnauthorized, Detail: "invalid webhook signature"})
		return
	}
	s.Log.Info("livekit event", webhookFields(evt)...)
	w.WriteHeader(http.StatusNoContent)
}

func webhookFields(evt *lkproto.WebhookEvent) []zap.Field {
	fields := []zap.Field{zap.String("event", evt.GetEvent())}
	if room := evt.GetRoom(); room != nil {
		fields = append(fields, zap.String("room", room.GetName()))
	}
	if p := evt.GetParticipant(); p != nil {
		fields = append(fields, zap.String("participant", p.GetIdentity()))
	}
	return fields
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) *Error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}
