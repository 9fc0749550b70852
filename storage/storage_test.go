package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x-reply-bot/profile"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDBInitializesSchema(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.conn.ExecContext(ctx, "SELECT 1 FROM profiles LIMIT 1")
	assert.NoError(t, err, "profiles table not created")
	_, err = db.conn.ExecContext(ctx, "SELECT 1 FROM responded_posts LIMIT 1")
	assert.NoError(t, err, "responded_posts table not created")
}

func TestProfilesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	in := map[string]profile.Profile{
		"@alice": {
			Sentiment:     profile.SentimentVeryPositive,
			TopTokens:     []string{"go", "ship", "code"},
			AvgTokenCount: 8.5,
			Punctuation:   profile.PunctuationExclamation,
		},
		"@bob": {
			Sentiment:   profile.SentimentNeutral,
			Punctuation: profile.PunctuationPeriod,
		},
	}
	require.NoError(t, db.SaveProfiles(ctx, in))

	out, err := db.LoadProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	alice := out["@alice"]
	assert.Equal(t, profile.SentimentVeryPositive, alice.Sentiment)
	assert.Equal(t, []string{"go", "ship", "code"}, alice.TopTokens)
	assert.Equal(t, 8.5, alice.AvgTokenCount)
	assert.Equal(t, profile.PunctuationExclamation, alice.Punctuation)

	bob := out["@bob"]
	assert.Empty(t, bob.TopTokens)
	assert.Equal(t, profile.SentimentNeutral, bob.Sentiment)
}

func TestSaveProfilesReplacesWholesale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveProfiles(ctx, map[string]profile.Profile{
		"@alice": {Sentiment: profile.SentimentPositive, Punctuation: profile.PunctuationComma},
	}))
	require.NoError(t, db.SaveProfiles(ctx, map[string]profile.Profile{
		"@bob": {Sentiment: profile.SentimentNegative, Punctuation: profile.PunctuationQuestion},
	}))

	out, err := db.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "@bob")
	assert.NotContains(t, out, "@alice")
}

func TestLoadProfilesFreshDB(t *testing.T) {
	db := newTestDB(t)

	out, err := db.LoadProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRespondedPostsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveRespondedPosts(ctx, []string{"100", "101", "102"}))

	ids, err := db.LoadRespondedPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "102"}, ids)
}

func TestSaveRespondedPostsReplacesWholesale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveRespondedPosts(ctx, []string{"100", "101"}))
	require.NoError(t, db.SaveRespondedPosts(ctx, []string{"200"}))

	ids, err := db.LoadRespondedPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"200"}, ids)
}

func TestSaveRespondedPostsEmptySet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveRespondedPosts(ctx, []string{"100"}))
	require.NoError(t, db.SaveRespondedPosts(ctx, nil))

	ids, err := db.LoadRespondedPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
