package chat_service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	chat_repo "github.com/xenn00/chat-service/internal/repo/chat"
	"github.com/xenn00/chat-service/internal/upstream"
	"github.com/xenn00/chat-service/state"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errUpstreamDown = errors.New("upstream down")

type fakeRoster struct {
	mu      sync.Mutex
	members map[int64][]upstream.TripMember
	err     error
	calls   int
}

func (f *fakeRoster) ListMembers(ctx context.Context, tripID int64) ([]upstream.TripMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members[tripID], nil
}

type fakeProfiles struct {
	profiles map[int64]*upstream.UserProfile
	err      error
}

func (f *fakeProfiles) ProfileByID(ctx context.Context, userID int64) (*upstream.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, upstream.ErrProfileNotFound
	}
	return p, nil
}

type published struct {
	RoomID int64
	Msg    chat_dto.ChatMessageResponse
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []published
}

func (r *recordingBroadcaster) Publish(ctx context.Context, roomID int64, msg *chat_dto.ChatMessageResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{RoomID: roomID, Msg: *msg})
}

func (r *recordingBroadcaster) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.sent...)
}

// steppingClock advances one second per reading so message order is deterministic.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	svc      *ChatService
	repo     *chat_repo.ChatRepo
	roster   *fakeRoster
	profiles *fakeProfiles
	bus      *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, state.Migrate(db))

	roster := &fakeRoster{members: map[int64][]upstream.TripMember{}}
	profiles := &fakeProfiles{profiles: map[int64]*upstream.UserProfile{}}
	bus := &recordingBroadcaster{}
	clock := &steppingClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	appState := &state.AppState{Ctx: context.Background(), DB: db, Roster: roster, Profiles: profiles}
	svc := NewChatService(appState, bus, 200)
	svc.Now = clock.Now

	return &fixture{
		svc:      svc,
		repo:     svc.ChatRepo.(*chat_repo.ChatRepo),
		roster:   roster,
		profiles: profiles,
		bus:      bus,
	}
}

func user(id int64) *entity.Principal {
	return &entity.Principal{ID: id, FirstName: "User", LastName: "Seven", Email: "u@x.io", UserType: "USER"}
}

func admin(id int64) *entity.Principal {
	return &entity.Principal{ID: id, Email: "admin@x.io", UserType: "admin"}
}
