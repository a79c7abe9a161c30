package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterClient_ListMembers(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/shared-trips/42/members", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"userId":7,"status":"ACTIVE"},{"userId":8,"status":"removed"}]}`))
	}))
	defer srv.Close()

	client := NewRosterClient(srv.URL+"/", "svc-token", time.Second)
	members, err := client.ListMembers(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(7), members[0].UserID)
	assert.False(t, members[0].IsRemoved())
	assert.True(t, members[1].IsRemoved(), "status match should be case-insensitive")
	assert.Equal(t, "Bearer svc-token", gotAuth)
}

func TestRosterClient_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	members, err := NewRosterClient(srv.URL, "", time.Second).ListMembers(context.Background(), 1)

	assert.Error(t, err)
	assert.Nil(t, members)
	assert.Contains(t, err.Error(), "status 502")
}

func TestRosterClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewRosterClient(srv.URL, "", 20*time.Millisecond).ListMembers(context.Background(), 1)
	assert.Error(t, err)
}

func TestRosterClient_NotConfigured(t *testing.T) {
	_, err := NewRosterClient("", "", 0).ListMembers(context.Background(), 1)
	assert.Error(t, err)
}

func TestProfileClient_ProfileByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/by-id/5":
			_, _ = w.Write([]byte(`{"data":[{"id":5,"firstName":"Ann","lastName":"Lee","email":"ann@x.io"}]}`))
		case "/user/by-id/6":
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewProfileClient(srv.URL, "", time.Second)

	profile, err := client.ProfileByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", profile.FullName())

	_, err = client.ProfileByID(context.Background(), 6)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = client.ProfileByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

type countingLookup struct {
	calls   atomic.Int32
	profile *UserProfile
	err     error
}

func (c *countingLookup) ProfileByID(ctx context.Context, userID int64) (*UserProfile, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	p := *c.profile
	p.ID = userID
	return &p, nil
}

func TestCachedProfileLookup_HitsRedisAfterFirstCall(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	defer rdb.Close()

	next := &countingLookup{profile: &UserProfile{FirstName: "Bo", LastName: "Kim"}}
	lookup := NewCachedProfileLookup(next, rdb, time.Minute)

	for i := 0; i < 3; i++ {
		p, err := lookup.ProfileByID(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, "Bo Kim", p.FullName())
		assert.Equal(t, int64(11), p.ID)
	}

	assert.Equal(t, int32(1), next.calls.Load())
	assert.True(t, mockRedis.Exists("profile:11"))

	mockRedis.FastForward(2 * time.Minute)
	_, err := lookup.ProfileByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedProfileLookup_DoesNotCacheFailures(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	defer rdb.Close()

	next := &countingLookup{err: ErrProfileNotFound}
	lookup := NewCachedProfileLookup(next, rdb, time.Minute)

	_, err := lookup.ProfileByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.False(t, mockRedis.Exists("profile:3"))
}

func TestCachedProfileLookup_RedisDownFallsThrough(t *testing.T) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mockRedis.Close()

	next := &countingLookup{profile: &UserProfile{Email: "z@x.io"}}
	p, err := NewCachedProfileLookup(next, rdb, time.Minute).ProfileByID(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, "z@x.io", p.Email)
}

func TestNewCachedProfileLookup_WithoutRedisReturnsNext(t *testing.T) {
	next := &countingLookup{}
	assert.Same(t, ProfileLookup(next), NewCachedProfileLookup(next, nil, time.Minute))
}
