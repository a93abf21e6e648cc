package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
)

func sampleSession() Session {
	return Session{
		UserID: "+919999999999",
		Step:   StepHostelMessDate,
		Draft: Draft{
			MainCategory: catalog.Hostel,
			Location:     "Neeladri",
			SubCategory:  catalog.IssueMess.Token,
			Details:      MessDetails{Meal: "Lunch"},
		},
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[Session]()

	_, ok, err := store.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	s := sampleSession()
	require.NoError(t, store.Set(ctx, s.UserID, s))
	got, ok, err := store.Get(ctx, s.UserID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.Equal(t, 1, store.Len())

	s.Step = StepHostelMessDesc
	require.NoError(t, store.Set(ctx, s.UserID, s))
	got, _, _ = store.Get(ctx, s.UserID)
	assert.Equal(t, StepHostelMessDesc, got.Step, "last write wins")

	require.NoError(t, store.Delete(ctx, s.UserID))
	_, ok, _ = store.Get(ctx, s.UserID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	t.Run("SessionRoundTrip", func(t *testing.T) {
		store := NewRedisStore[Session](client, "resolve:session:", time.Hour)
		s := sampleSession()

		require.NoError(t, store.Set(ctx, s.UserID, s))
		assert.True(t, mr.Exists("resolve:session:"+s.UserID))
		assert.Equal(t, time.Hour, mr.TTL("resolve:session:"+s.UserID))

		got, ok, err := store.Get(ctx, s.UserID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, s, got)

		require.NoError(t, store.Delete(ctx, s.UserID))
		_, ok, err = store.Get(ctx, s.UserID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expiry", func(t *testing.T) {
		store := NewRedisStore[RegistrationField](client, "resolve:registration:", time.Minute)
		require.NoError(t, store.Set(ctx, "u1", FieldRoom))

		got, ok, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, FieldRoom, got)

		mr.FastForward(2 * time.Minute)
		_, ok, err = store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UnknownStepDecodesAsUnknown", func(t *testing.T) {
		require.NoError(t, mr.Set("resolve:session:legacy", `{"user_id":"legacy","step":"college_mess_location_v0","draft":{}}`))
		store := NewRedisStore[Session](client, "resolve:session:", 0)

		got, ok, err := store.Get(ctx, "legacy")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, StepUnknown, got.Step)
	})

	t.Run("Unavailable", func(t *testing.T) {
		dead := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		t.Cleanup(func() { _ = dead.Close() })
		store := NewRedisStore[Session](dead, "x:", 0)

		_, _, err := store.Get(ctx, "u")
		assert.Error(t, err)
	})
}

func TestDraftJSONKeepsDetailsType(t *testing.T) {
	d := Draft{
		MainCategory: catalog.Hostel,
		SubCategory:  catalog.IssueLeave.Token,
		Details:      LeaveDetails{Dates: "2025-11-04 to 2025-11-06", Reason: "home", ApprovalRequest: true},
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"details_kind":"leave"`)

	var back Draft
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)

	var bad Draft
	assert.Error(t, json.Unmarshal([]byte(`{"details_kind":"laundry","details":{}}`), &bad))
}

func TestDetailsMap(t *testing.T) {
	m, err := Draft{}.DetailsMap()
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = Draft{Details: MessDetails{Meal: "Lunch", Date: "2025-11-04"}}.DetailsMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"meal": "Lunch", "date": "2025-11-04"}, m)
}

func TestParseStep(t *testing.T) {
	for s := StepUnknown; s < StepCount; s++ {
		assert.NotEmpty(t, s.String(), "step %d has no name", s)
		assert.Equal(t, s, ParseStep(s.String()))
	}
	assert.Equal(t, StepUnknown, ParseStep("nope"))
	assert.Equal(t, "unknown", Step(200).String())
}
