// Package responder drives the response cycle for monitored accounts:
// qualifying original posts get one generated reply each, recorded in the
// dedup cache so they are never replied to twice.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"x-reply-bot/cache"
	"x-reply-bot/generator"
	"x-reply-bot/platform"
	"x-reply-bot/profile"
)

// PlatformClient fetches posts and submits replies.
type PlatformClient interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	ListRecentPosts(ctx context.Context, userID string, limit int) ([]platform.Post, error)
	PostReply(ctx context.Context, text, parentID string) error
}

// Generator produces reply text.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (string, error)
}

// Dispatcher runs the response cycle for one monitored account at a time.
type Dispatcher struct {
	client     PlatformClient
	generator  Generator
	profiles   *profile.Store
	dedup      *cache.DedupCache
	clock      clockwork.Clock
	fetchLimit int
	postMaxAge time.Duration
	throttle   time.Duration
	style      string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFetchLimit sets how many recent posts are examined per account.
func WithFetchLimit(limit int) Option {
	return func(d *Dispatcher) {
		d.fetchLimit = limit
	}
}

// WithPostMaxAge sets the oldest a post may be and still get a reply.
func WithPostMaxAge(age time.Duration) Option {
	return func(d *Dispatcher) {
		d.postMaxAge = age
	}
}

// WithThrottle sets the pause after each handled post.
func WithThrottle(throttle time.Duration) Option {
	return func(d *Dispatcher) {
		d.throttle = throttle
	}
}

// WithStyle sets the response-style adjective embedded in the prompt.
func WithStyle(style string) Option {
	return func(d *Dispatcher) {
		d.style = style
	}
}

// New creates a response dispatcher.
func New(client PlatformClient, gen Generator, profiles *profile.Store, dedup *cache.DedupCache, clock clockwork.Clock, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:     client,
		generator:  gen,
		profiles:   profiles,
		dedup:      dedup,
		clock:      clock,
		fetchLimit: 15,
		postMaxAge: time.Hour,
		throttle:   60 * time.Second,
		style:      "informal",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunAccount handles one monitored account: fetches recent posts and replies
// to each qualifying original post, in fetch order. A fetch failure aborts
// only this account's cycle.
func (d *Dispatcher) RunAccount(ctx context.Context, handle string) error {
	userID, err := d.client.ResolveHandle(ctx, handle)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", handle, err)
	}

	posts, err := d.client.ListRecentPosts(ctx, userID, d.fetchLimit)
	if err != nil {
		return fmt.Errorf("fetch posts for %s: %w", handle, err)
	}

	for _, post := range posts {
		if !d.qualifies(post) {
			continue
		}

		d.handlePost(ctx, handle, post)

		// Rate-limit courtesy pause after every handled post, even when
		// generation or posting failed.
		if err := d.sleep(ctx, d.throttle); err != nil {
			return err
		}
	}
	return nil
}

// qualifies reports whether a post should receive a reply: only original
// posts (not reposts, not replies) younger than the age cutoff and not
// already responded to.
func (d *Dispatcher) qualifies(post platform.Post) bool {
	if d.clock.Since(post.CreatedAt) > d.postMaxAge {
		return false
	}
	if post.IsRepost || post.IsReply {
		return false
	}
	if d.dedup.Contains(post.ID) {
		return false
	}
	return true
}

func (d *Dispatcher) handlePost(ctx context.Context, handle string, post platform.Post) {
	req := generator.Request{
		SystemInstruction: d.buildSystemInstruction(handle),
		Prompt:            fmt.Sprintf("Respond to this post in a short, %s way: %q.", d.style, post.Text),
	}

	text, err := d.generator.Generate(ctx, req)
	if err != nil {
		slog.Warn("generation failed, skipping post", "account", handle, "post_id", post.ID, "error", err)
		return
	}

	if err := d.client.PostReply(ctx, text, post.ID); err != nil {
		// Not recorded in the cache, so a later cycle may retry.
		slog.Warn("failed to post reply", "account", handle, "post_id", post.ID, "error", err)
		return
	}

	d.dedup.Record(post.ID)
	slog.Info("replied to post", "account", handle, "post_id", post.ID, "reply", text)
}

// buildSystemInstruction assembles the persona, the learned style hint for
// this account when one exists, and the time-of-day register.
func (d *Dispatcher) buildSystemInstruction(handle string) string {
	var b strings.Builder
	b.WriteString("You are an assistant. Respond in a short, conversational, and engaging tone.")

	if p, ok := d.profiles.Get(handle); ok {
		fmt.Fprintf(&b, " Mimic the writing style with an average sentence length of %.0f words, and use punctuation like %s.",
			p.AvgTokenCount, p.Punctuation)
		if len(p.TopTokens) > 0 {
			fmt.Fprintf(&b, " Favor vocabulary like: %s.", strings.Join(p.TopTokens, ", "))
		}
	}

	b.WriteString(" Keep the reply " + registerFor(d.clock.Now().Hour()) + ".")
	return b.String()
}

// registerFor maps the local hour to a response register: daytime replies
// are informal, nighttime replies are direct.
func registerFor(hour int) string {
	if hour >= 6 && hour <= 18 {
		return "informal and conversational"
	}
	return "direct and engaging"
}

func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.clock.After(dur):
		return nil
	}
}
