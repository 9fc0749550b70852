// Package learner drives the periodic style-learning cycle: it samples each
// reference account's recent replies, aggregates them into a style profile,
// and persists the profile store.
package learner

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"x-reply-bot/nlp"
	"x-reply-bot/platform"
	"x-reply-bot/profile"
)

// PlatformClient fetches account data from the social platform.
type PlatformClient interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	ListRecentPosts(ctx context.Context, userID string, limit int) ([]platform.Post, error)
}

// ProfileSink persists the full profile set.
type ProfileSink interface {
	SaveProfiles(ctx context.Context, profiles map[string]profile.Profile) error
}

// Learner updates the profile store from reference accounts' reply posts.
type Learner struct {
	client     PlatformClient
	analyzer   nlp.Analyzer
	store      *profile.Store
	sink       ProfileSink
	accounts   []string
	fetchLimit int
}

// Option configures a Learner.
type Option func(*Learner)

// WithFetchLimit sets how many recent posts are sampled per account.
func WithFetchLimit(limit int) Option {
	return func(l *Learner) {
		l.fetchLimit = limit
	}
}

// New creates a learner over the given reference accounts.
func New(client PlatformClient, analyzer nlp.Analyzer, store *profile.Store, sink ProfileSink, accounts []string, opts ...Option) *Learner {
	l := &Learner{
		client:     client,
		analyzer:   analyzer,
		store:      store,
		sink:       sink,
		accounts:   accounts,
		fetchLimit: 50,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes one learning cycle over all reference accounts. A failure for
// one account never aborts the others; that account's existing profile is
// left untouched. The full profile set is persisted afterward regardless of
// individual failures.
func (l *Learner) Run(ctx context.Context) {
	cycleID := uuid.NewString()
	slog.Info("learning cycle started", "cycle_id", cycleID, "accounts", len(l.accounts))

	for _, handle := range l.accounts {
		if err := l.learnAccount(ctx, handle); err != nil {
			slog.Warn("learning failed for account", "cycle_id", cycleID, "account", handle, "error", err)
		}
	}

	if err := l.sink.SaveProfiles(ctx, l.store.All()); err != nil {
		slog.Warn("failed to persist profiles", "cycle_id", cycleID, "error", err)
	}

	slog.Info("learning cycle complete", "cycle_id", cycleID)
}

func (l *Learner) learnAccount(ctx context.Context, handle string) error {
	userID, err := l.client.ResolveHandle(ctx, handle)
	if err != nil {
		return err
	}

	posts, err := l.client.ListRecentPosts(ctx, userID, l.fetchLimit)
	if err != nil {
		return err
	}

	// Style is learned from the account's replies only.
	var analyzed []profile.AnalyzedPost
	for _, post := range posts {
		if !post.IsReply {
			continue
		}
		analysis := l.analyzer.Analyze(post.Text)
		analyzed = append(analyzed, profile.AnalyzedPost{
			Text:           post.Text,
			CreatedAt:      post.CreatedAt,
			SentimentScore: analysis.SentimentScore,
			Tokens:         analysis.Tokens,
		})
	}

	if len(analyzed) == 0 {
		slog.Warn("no reply posts found, keeping existing profile", "account", handle)
		return nil
	}

	p := profile.Aggregate(analyzed)
	l.store.Set(handle, p)
	slog.Info("learned profile", "account", handle,
		"replies", len(analyzed), "sentiment", p.Sentiment, "punctuation", p.Punctuation)
	return nil
}
