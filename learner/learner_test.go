package learner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-reply-bot/nlp"
	"x-reply-bot/platform"
	"x-reply-bot/profile"
)

// Mocks

type mockPlatform struct {
	userIDs     map[string]string
	posts       map[string][]platform.Post
	resolveErrs map[string]error
	listErrs    map[string]error
	listLimits  []int
}

func (m *mockPlatform) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if err := m.resolveErrs[handle]; err != nil {
		return "", err
	}
	return m.userIDs[handle], nil
}

func (m *mockPlatform) ListRecentPosts(ctx context.Context, userID string, limit int) ([]platform.Post, error) {
	m.listLimits = append(m.listLimits, limit)
	if err := m.listErrs[userID]; err != nil {
		return nil, err
	}
	return m.posts[userID], nil
}

type mockSink struct {
	saved   []map[string]profile.Profile
	saveErr error
}

func (m *mockSink) SaveProfiles(ctx context.Context, profiles map[string]profile.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, profiles)
	return nil
}

type stubAnalyzer struct {
	score float64
}

func (s *stubAnalyzer) Analyze(text string) nlp.Analysis {
	return nlp.Analysis{SentimentScore: s.score, Tokens: nlp.Tokenize(text)}
}

func reply(id, text string) platform.Post {
	return platform.Post{ID: id, Text: text, CreatedAt: time.Now(), IsReply: true}
}

func original(id, text string) platform.Post {
	return platform.Post{ID: id, Text: text, CreatedAt: time.Now()}
}

func TestRunLearnsFromRepliesOnly(t *testing.T) {
	client := &mockPlatform{
		userIDs: map[string]string{"@ref": "1"},
		posts: map[string][]platform.Post{
			"1": {
				original("10", "one two three four five six"),
				reply("11", "short reply!"),
				reply("12", "another short one."),
			},
		},
	}
	store := profile.NewStore()
	sink := &mockSink{}

	l := New(client, &stubAnalyzer{score: 0.8}, store, sink, []string{"@ref"})
	l.Run(context.Background())

	p, ok := store.Get("@ref")
	require.True(t, ok)
	// Two replies, 2 and 3 tokens; the 6-token original is excluded.
	assert.Equal(t, 2.5, p.AvgTokenCount)
	assert.Equal(t, profile.SentimentVeryPositive, p.Sentiment)
}

func TestRunNoRepliesKeepsExistingProfile(t *testing.T) {
	client := &mockPlatform{
		userIDs: map[string]string{"@ref": "1"},
		posts: map[string][]platform.Post{
			"1": {original("10", "no replies here")},
		},
	}
	store := profile.NewStore()
	existing := profile.Profile{Sentiment: profile.SentimentNegative, Punctuation: profile.PunctuationComma}
	store.Set("@ref", existing)

	l := New(client, &stubAnalyzer{}, store, &mockSink{}, []string{"@ref"})
	l.Run(context.Background())

	p, ok := store.Get("@ref")
	require.True(t, ok)
	assert.Equal(t, existing, p)
}

func TestRunFailureIsolation(t *testing.T) {
	client := &mockPlatform{
		userIDs:     map[string]string{"@bad": "1", "@good": "2"},
		resolveErrs: map[string]error{"@bad": errors.New("network down")},
		posts: map[string][]platform.Post{
			"2": {reply("20", "hello there")},
		},
	}
	store := profile.NewStore()
	sink := &mockSink{}

	l := New(client, &stubAnalyzer{}, store, sink, []string{"@bad", "@good"})
	l.Run(context.Background())

	_, ok := store.Get("@bad")
	assert.False(t, ok)
	_, ok = store.Get("@good")
	assert.True(t, ok, "failure for one account must not stop the others")
}

func TestRunFetchErrorKeepsExistingProfile(t *testing.T) {
	client := &mockPlatform{
		userIDs:  map[string]string{"@ref": "1"},
		listErrs: map[string]error{"1": errors.New("rate limited")},
	}
	store := profile.NewStore()
	existing := profile.Profile{Sentiment: profile.SentimentPositive}
	store.Set("@ref", existing)

	l := New(client, &stubAnalyzer{}, store, &mockSink{}, []string{"@ref"})
	l.Run(context.Background())

	p, _ := store.Get("@ref")
	assert.Equal(t, existing, p)
}

func TestRunPersistsAfterSweep(t *testing.T) {
	client := &mockPlatform{
		userIDs:     map[string]string{"@bad": "1", "@good": "2"},
		resolveErrs: map[string]error{"@bad": errors.New("boom")},
		posts: map[string][]platform.Post{
			"2": {reply("20", "hi")},
		},
	}
	store := profile.NewStore()
	sink := &mockSink{}

	l := New(client, &stubAnalyzer{}, store, sink, []string{"@bad", "@good"})
	l.Run(context.Background())

	// Persisted once, after all accounts, despite the failure.
	require.Len(t, sink.saved, 1)
	assert.Contains(t, sink.saved[0], "@good")
}

func TestRunSurvivesPersistFailure(t *testing.T) {
	client := &mockPlatform{
		userIDs: map[string]string{"@ref": "1"},
		posts:   map[string][]platform.Post{"1": {reply("10", "hi")}},
	}
	store := profile.NewStore()
	sink := &mockSink{saveErr: errors.New("disk full")}

	l := New(client, &stubAnalyzer{}, store, sink, []string{"@ref"})
	l.Run(context.Background()) // must not panic; failure is logged only

	_, ok := store.Get("@ref")
	assert.True(t, ok)
}

func TestWithFetchLimit(t *testing.T) {
	client := &mockPlatform{
		userIDs: map[string]string{"@ref": "1"},
		posts:   map[string][]platform.Post{"1": {reply("10", "hi")}},
	}

	l := New(client, &stubAnalyzer{}, profile.NewStore(), &mockSink{}, []string{"@ref"}, WithFetchLimit(25))
	l.Run(context.Background())

	require.Len(t, client.listLimits, 1)
	assert.Equal(t, 25, client.listLimits[0])
}
