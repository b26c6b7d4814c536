package livekit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lkproto "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/twitchtv/twirp"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
)

// roomAPI is the subset of lksdk.RoomServiceClient used here.
type roomAPI interface {
	CreateRoom(ctx context.Context, req *lkproto.CreateRoomRequest) (*lkproto.Room, error)
	ListRooms(ctx context.Context, req *lkproto.ListRoomsRequest) (*lkproto.ListRoomsResponse, error)
	DeleteRoom(ctx context.Context, req *lkproto.DeleteRoomRequest) (*lkproto.DeleteRoomResponse, error)
}

type livekitRooms struct {
	client roomAPI
}

// New returns a RoomService backed by the LiveKit server API at url.
func New(url, apiKey, apiSecret string) interfaces.RoomService {
	return &livekitRooms{client: lksdk.NewRoomServiceClient(url, apiKey, apiSecret)}
}

func (l *livekitRooms) CreateRoom(ctx context.Context, name string) (interfaces.RoomInfo, error) {
	room, err := l.client.CreateRoom(ctx, &lkproto.CreateRoomRequest{Name: name})
	if err != nil {
		return interfaces.RoomInfo{}, fmt.Errorf("create room %q: %w", name, err)
	}
	return RoomInfoFromProto(room), nil
}

func (l *livekitRooms) ListRooms(ctx context.Context) ([]interfaces.RoomInfo, error) {
	resp, err := l.client.ListRooms(ctx, &lkproto.ListRoomsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	out := make([]interfaces.RoomInfo, 0, len(resp.GetRooms()))
	for _, r := range resp.GetRooms() {
		out = append(out, RoomInfoFromProto(r))
	}
	return out, nil
}

func (l *livekitRooms) DeleteRoom(ctx context.Context, name string) error {
	if _, err := l.client.DeleteRoom(ctx, &lkproto.DeleteRoomRequest{Room: name}); err != nil {
		return fmt.Errorf("delete room %q: %w", name, err)
	}
	return nil
}

// RoomInfoFromProto flattens a LiveKit room into the API descriptor.
func RoomInfoFromProto(r *lkproto.Room) interfaces.RoomInfo {
	codecs := make([]string, 0, len(r.GetEnabledCodecs()))
	for _, c := range r.GetEnabledCodecs() {
		codecs = append(codecs, c.GetMime())
	}
	return interfaces.RoomInfo{
		SID:             r.GetSid(),
		Name:            r.GetName(),
		EmptyTimeout:    r.GetEmptyTimeout(),
		MaxParticipants: r.GetMaxParticipants(),
		CreationTime:    r.GetCreationTime(),
		TurnPassword:    r.GetTurnPassword(),
		EnabledCodecs:   codecs,
		Metadata:        r.GetMetadata(),
		NumParticipants: r.GetNumParticipants(),
		NumPublishers:   r.GetNumPublishers(),
		ActiveRecording: r.GetActiveRecording(),
	}
}

// IsAPIError reports whether err is a rejection returned by the LiveKit
// server, as opposed to a local or transport failure.
func IsAPIError(err error) bool {
	var terr twirp.Error
	if !errors.As(err, &terr) {
		return false
	}
	// twirp reports transport failures as internal errors with a cause attached
	if terr.Code() == twirp.Internal && terr.Meta("cause") != "" {
		return false
	}
	return true
}

// IsAlreadyExists reports whether err means the room is already there.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var terr twirp.Error
	if errors.As(err, &terr) && terr.Code() == twirp.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// APIErrorMessage returns the upstream message of a LiveKit rejection.
func APIErrorMessage(err error) string {
	var terr twirp.Error
	if errors.As(err, &terr) {
		return terr.Msg()
	}
	return err.Error()
}
