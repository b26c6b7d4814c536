package livekit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	lkproto "github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twitchtv/twirp"
)

type fakeRoomAPI struct {
	rooms     map[string]*lkproto.Room
	createErr error
	listErr   error
	deleted   []string
}

func (f *fakeRoomAPI) CreateRoom(_ context.Context, req *lkproto.CreateRoomRequest) (*lkproto.Room, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	r := &lkproto.Room{Sid: "RM_" + req.GetName(), Name: req.GetName(), EmptyTimeout: 300}
	f.rooms[req.GetName()] = r
	return r, nil
}

func (f *fakeRoomAPI) ListRooms(context.Context, *lkproto.ListRoomsRequest) (*lkproto.ListRoomsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &lkproto.ListRoomsResponse{}
	for _, r := range f.rooms {
		resp.Rooms = append(resp.Rooms, r)
	}
	return resp, nil
}

func (f *fakeRoomAPI) DeleteRoom(_ context.Context, req *lkproto.DeleteRoomRequest) (*lkproto.DeleteRoomResponse, error) {
	f.deleted = append(f.deleted, req.GetRoom())
	delete(f.rooms, req.GetRoom())
	return &lkproto.DeleteRoomResponse{}, nil
}

func TestRoomInfoFromProto(t *testing.T) {
	info := RoomInfoFromProto(&lkproto.Room{
		Sid:             "RM_abc",
		Name:            "support-1",
		EmptyTimeout:    600,
		MaxParticipants: 4,
		CreationTime:    1700000000,
		TurnPassword:    "turn",
		EnabledCodecs:   []*lkproto.Codec{{Mime: "audio/opus"}, {Mime: "video/VP8"}},
		Metadata:        `{"queue":"billing"}`,
		NumParticipants: 2,
		NumPublishers:   1,
		ActiveRecording: true,
	})

	assert.Equal(t, "RM_abc", info.SID)
	assert.Equal(t, "support-1", info.Name)
	assert.EqualValues(t, 600, info.EmptyTimeout)
	assert.EqualValues(t, 4, info.MaxParticipants)
	assert.EqualValues(t, 1700000000, info.CreationTime)
	assert.Equal(t, "turn", info.TurnPassword)
	assert.Equal(t, []string{"audio/opus", "video/VP8"}, info.EnabledCodecs)
	assert.Equal(t, `{"queue":"billing"}`, info.Metadata)
	assert.EqualValues(t, 2, info.NumParticipants)
	assert.EqualValues(t, 1, info.NumPublishers)
	assert.True(t, info.ActiveRecording)
}

func TestRoomInfoFromProto_NoCodecsIsEmptyList(t *testing.T) {
	info := RoomInfoFromProto(&lkproto.Room{Name: "r"})
	assert.NotNil(t, info.EnabledCodecs)
	assert.Empty(t, info.EnabledCodecs)
}

func TestRooms_CreateListDelete(t *testing.T) {
	api := &fakeRoomAPI{rooms: map[string]*lkproto.Room{}}
	svc := &livekitRooms{client: api}
	ctx := context.Background()

	created, err := svc.CreateRoom(ctx, "handoff")
	require.NoError(t, err)
	assert.Equal(t, "RM_handoff", created.SID)

	rooms, err := svc.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "handoff", rooms[0].Name)

	require.NoError(t, svc.DeleteRoom(ctx, "handoff"))
	assert.Equal(t, []string{"handoff"}, api.deleted)
}

func TestRooms_ErrorsKeepUpstreamType(t *testing.T) {
	api := &fakeRoomAPI{
		rooms:     map[string]*lkproto.Room{},
		createErr: twirp.NewError(twirp.InvalidArgument, "room name too long"),
		listErr:   twirp.NewError(twirp.Unauthenticated, "invalid token"),
	}
	svc := &livekitRooms{client: api}

	_, err := svc.CreateRoom(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, "room name too long", APIErrorMessage(err))

	_, err = svc.ListRooms(context.Background())
	assert.True(t, IsAPIError(err))
}

func TestIsAPIError(t *testing.T) {
	assert.True(t, IsAPIError(twirp.NewError(twirp.PermissionDenied, "no")))
	assert.False(t, IsAPIError(twirp.InternalErrorWith(errors.New("dial tcp: connection refused"))))
	assert.False(t, IsAPIError(errors.New("boom")))
	assert.False(t, IsAPIError(nil))
}

func TestIsAlreadyExists(t *testing.T) {
	assert.True(t, IsAlreadyExists(twirp.NewError(twirp.AlreadyExists, "room")))
	assert.True(t, IsAlreadyExists(fmt.Errorf("create: %w", twirp.NewError(twirp.InvalidArgument, "Room Already Exists"))))
	assert.False(t, IsAlreadyExists(twirp.NewError(twirp.InvalidArgument, "bad name")))
	assert.False(t, IsAlreadyExists(nil))
}
