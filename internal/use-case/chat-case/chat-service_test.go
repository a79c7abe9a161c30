package chat_service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/upstream"
)

func TestSupportScenario_UnreadAcrossUserAndAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u7, staff := user(7), admin(100)
	f.profiles.profiles[7] = &upstream.UserProfile{ID: 7, FirstName: "Ann", LastName: "Lee", Email: "ann@x.io"}

	room, appErr := f.svc.CreateSupportRoom(ctx, u7)
	require.Nil(t, appErr)
	assert.Equal(t, string(entity.RoomKindSupport), room.Kind)
	assert.Equal(t, int64(7), room.OwnerKey)

	_, appErr = f.svc.SendMessage(ctx, room.ID, "hi", u7)
	require.Nil(t, appErr)

	rooms, appErr := f.svc.ListRooms(ctx, staff)
	require.Nil(t, appErr)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Ann Lee", rooms[0].UserDisplayName)
	assert.Equal(t, "ann@x.io", rooms[0].UserEmail)
	assert.Equal(t, int64(1), rooms[0].UnreadCount)

	_, appErr = f.svc.SendMessage(ctx, room.ID, "hello", staff)
	require.Nil(t, appErr)

	rooms, appErr = f.svc.ListRooms(ctx, u7)
	require.Nil(t, appErr)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(1), rooms[0].UnreadCount)

	require.Nil(t, f.svc.MarkRoomRead(ctx, room.ID, u7))
	rooms, _ = f.svc.ListRooms(ctx, u7)
	assert.Equal(t, int64(0), rooms[0].UnreadCount)

	got, appErr := f.svc.GetRoom(ctx, room.ID, u7)
	require.Nil(t, appErr)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hi", got.Messages[0].Content)
	assert.Equal(t, "User Seven", got.Messages[0].SenderName)
	assert.Equal(t, "USER", got.Messages[0].SenderRole)
	assert.Equal(t, "admin@x.io", got.Messages[1].SenderName, "no first name falls back to email")
	assert.Equal(t, "ADMIN", got.Messages[1].SenderRole)

	sent := f.bus.all()
	require.Len(t, sent, 2)
	assert.Equal(t, room.ID, sent[0].RoomID)
	assert.Equal(t, "hello", sent[1].Msg.Content)
}

func TestCreateSupportRoom_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, appErr := f.svc.CreateSupportRoom(ctx, user(7))
	require.Nil(t, appErr)
	second, appErr := f.svc.CreateSupportRoom(ctx, user(7))
	require.Nil(t, appErr)

	assert.Equal(t, first.ID, second.ID)
}

func TestCreateSupportRoom_AdminRejected(t *testing.T) {
	f := newFixture(t)

	_, appErr := f.svc.CreateSupportRoom(context.Background(), admin(100))

	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestListRooms_UserWithoutRoomIsEmpty(t *testing.T) {
	f := newFixture(t)

	rooms, appErr := f.svc.ListRooms(context.Background(), user(9))

	require.Nil(t, appErr)
	assert.Empty(t, rooms)
}

func TestListRooms_AdminSeesSupportRoomsByActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.roster.members[42] = []upstream.TripMember{{UserID: 1, Status: "ACTIVE"}}

	a, _ := f.svc.CreateSupportRoom(ctx, user(1))
	b, _ := f.svc.CreateSupportRoom(ctx, user(2))
	_, appErr := f.svc.SendTripMessage(ctx, 42, "trip hello", user(1))
	require.Nil(t, appErr)
	_, appErr = f.svc.SendMessage(ctx, a.ID, "bump", user(1))
	require.Nil(t, appErr)

	rooms, appErr := f.svc.ListRooms(ctx, admin(100))
	require.Nil(t, appErr)
	require.Len(t, rooms, 2)
	assert.Equal(t, a.ID, rooms[0].ID)
	assert.Equal(t, b.ID, rooms[1].ID)
}

func TestListRooms_ProfileFailureDegrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.profiles.err = fmt.Errorf("user service down")

	room, appErr := f.svc.CreateSupportRoom(ctx, user(7))
	require.Nil(t, appErr)
	assert.Equal(t, "User #7", room.UserDisplayName)

	rooms, appErr := f.svc.ListRooms(ctx, admin(100))
	require.Nil(t, appErr)
	require.Len(t, rooms, 1)
	assert.Equal(t, "User #7", rooms[0].UserDisplayName)
}

func TestGetRoom_NotFoundBeforeForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _ := f.svc.CreateSupportRoom(ctx, user(7))

	_, appErr := f.svc.GetRoom(ctx, 9999, user(8))
	assert.True(t, app_error.Is(appErr, http.StatusNotFound))

	_, appErr = f.svc.GetRoom(ctx, room.ID, user(8))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))

	_, appErr = f.svc.GetRoom(ctx, room.ID, admin(100))
	assert.Nil(t, appErr)

	_, appErr = f.svc.GetRoom(ctx, room.ID, nil)
	assert.True(t, app_error.Is(appErr, http.StatusUnauthorized))
}

func TestSendMessage_ForbiddenStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, _ := f.svc.CreateSupportRoom(ctx, user(7))

	_, appErr := f.svc.SendMessage(ctx, room.ID, "sneaky", user(8))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))

	_, appErr = f.svc.SendMessage(ctx, room.ID, "   ", user(7))
	assert.True(t, app_error.Is(appErr, http.StatusBadRequest))

	history, _ := f.repo.RoomHistory(ctx, room.ID)
	assert.Empty(t, history)
	assert.Empty(t, f.bus.all())
}

func TestGetMessages_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u7 := user(7)
	room, _ := f.svc.CreateSupportRoom(ctx, u7)

	for i := 0; i < 5; i++ {
		_, appErr := f.svc.SendMessage(ctx, room.ID, fmt.Sprintf("m%d", i), u7)
		require.Nil(t, appErr)
	}

	var seen []string
	for page := 0; page < 3; page++ {
		msgs, appErr := f.svc.GetMessages(ctx, room.ID, chat_dto.PageQuery{Page: page, Size: 2}, u7)
		require.Nil(t, appErr)
		for _, m := range msgs {
			seen = append(seen, m.Content)
		}
	}
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, seen)

	all, appErr := f.svc.GetMessages(ctx, room.ID, chat_dto.PageQuery{Size: 0}, u7)
	require.Nil(t, appErr)
	assert.Len(t, all, 5, "non-positive size uses the default page size")

	_, appErr = f.svc.GetMessages(ctx, room.ID, chat_dto.PageQuery{Page: -1}, u7)
	assert.True(t, app_error.Is(appErr, http.StatusBadRequest))
}

func TestNormalizePage_CapsSize(t *testing.T) {
	svc := &ChatService{MaxPageSize: 100}

	page, size, appErr := svc.normalizePage(chat_dto.PageQuery{Page: 2, Size: 5000})
	require.Nil(t, appErr)
	assert.Equal(t, 2, page)
	assert.Equal(t, 100, size)

	_, size, _ = svc.normalizePage(chat_dto.PageQuery{Size: -3})
	assert.Equal(t, chat_dto.DefaultPageSize, size)

	_, size, _ = (&ChatService{}).normalizePage(chat_dto.PageQuery{Size: 1000})
	assert.Equal(t, defaultMaxPageSize, size)
}

func TestTripScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.roster.members[42] = []upstream.TripMember{
		{UserID: 1, Status: "ACTIVE"},
		{UserID: 2, Status: "ACTIVE"},
		{UserID: 3, Status: "REMOVED"},
	}

	// an outsider cannot provision the room
	_, appErr := f.svc.SendTripMessage(ctx, 42, "let me in", user(4))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))
	_, appErr = f.repo.FindTripRoom(ctx, 42)
	assert.True(t, app_error.Is(appErr, http.StatusNotFound))

	msg, appErr := f.svc.SendTripMessage(ctx, 42, "hello team", user(1))
	require.Nil(t, appErr)
	assert.Equal(t, int64(42), msg.TripID)

	sent := f.bus.all()
	require.Len(t, sent, 1)
	assert.Equal(t, msg.ChatRoomID, sent[0].RoomID)
	assert.Equal(t, "hello team", sent[0].Msg.Content)

	msgs, appErr := f.svc.GetTripMessages(ctx, 42, chat_dto.PageQuery{}, user(2))
	require.Nil(t, appErr)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello team", msgs[0].Content)

	_, appErr = f.svc.GetTripMessages(ctx, 42, chat_dto.PageQuery{}, user(3))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))

	_, appErr = f.svc.SendTripMessage(ctx, 42, "still here", user(3))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))

	// the same room is reachable by id for members only
	room, appErr := f.svc.GetRoom(ctx, msg.ChatRoomID, user(2))
	require.Nil(t, appErr)
	assert.Equal(t, chat_dto.TripRoomLabel, room.UserDisplayName)
	assert.Equal(t, int64(-42), room.OwnerKey)
	assert.Equal(t, int64(1), room.UnreadCount)

	require.Nil(t, f.svc.MarkTripRead(ctx, 42, user(2)))
	room, _ = f.svc.GetRoom(ctx, msg.ChatRoomID, user(2))
	assert.Equal(t, int64(0), room.UnreadCount)

	_, appErr = f.svc.GetRoom(ctx, msg.ChatRoomID, admin(100))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden), "trip rooms follow the roster even for admins")
}

func TestTripRoster_FailureDenies(t *testing.T) {
	f := newFixture(t)
	f.roster.err = errUpstreamDown

	_, appErr := f.svc.SendTripMessage(context.Background(), 42, "hi", user(1))

	assert.True(t, app_error.Is(appErr, http.StatusForbidden))
	assert.Empty(t, f.bus.all())
}

func TestSendTripMessage_ConcurrentFirstSendersShareRoom(t *testing.T) {
	f := newFixture(t)
	members := make([]upstream.TripMember, 0, 8)
	for i := int64(1); i <= 8; i++ {
		members = append(members, upstream.TripMember{UserID: i, Status: "ACTIVE"})
	}
	f.roster.members[42] = members

	var wg sync.WaitGroup
	roomIDs := make([]int64, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg, appErr := f.svc.SendTripMessage(context.Background(), 42, "hi", user(int64(i+1)))
			if appErr == nil {
				roomIDs[i] = msg.ChatRoomID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range roomIDs {
		assert.Equal(t, roomIDs[0], id)
		assert.NotZero(t, id)
	}

	history, _ := f.repo.RoomHistory(context.Background(), roomIDs[0])
	assert.Len(t, history, 8)
}

func TestAuthorizeTrip_InvalidTrip(t *testing.T) {
	f := newFixture(t)

	_, appErr := f.svc.AuthorizeTrip(context.Background(), 0, user(1))
	assert.True(t, app_error.Is(appErr, http.StatusForbidden))

	_, appErr = f.svc.AuthorizeRoom(context.Background(), 0, user(1))
	assert.True(t, app_error.Is(appErr, http.StatusBadRequest))
}
