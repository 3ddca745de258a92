package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/domain/course"
	"github.com/spartanofurioso/platform/internal/domain/newsletter"
	"github.com/spartanofurioso/platform/internal/domain/product"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/repository/postgres"
	"github.com/spartanofurioso/platform/internal/testutil"
)

func TestCourseRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewCourseRepository(db)
	c := createProduct(t, db, "trading-course", product.TypeCourse, product.IntervalOneTime)

	hash := "abc123"
	modules := []*course.Module{
		{Title: "Basics", Lessons: []*course.Lesson{
			{Title: "Intro", VimeoID: "100", DurationSeconds: 300, IsFree: true},
			{Title: "Candles", VimeoID: "101", VimeoHash: &hash, DurationSeconds: 600},
		}},
		{Title: "Risk", Lessons: []*course.Lesson{
			{Title: "Sizing", VimeoID: "200", DurationSeconds: 900},
		}},
	}
	require.NoError(t, repo.ReplaceContent(ctx, c.ID, modules))

	content, err := repo.GetContent(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, content.Modules, 2)
	assert.Equal(t, 3, content.TotalLessons)
	assert.Equal(t, 1800, content.TotalDuration)
	assert.Equal(t, "Basics", content.Modules[0].Title)
	assert.Equal(t, 2, content.Modules[1].Position)
	require.Len(t, content.Modules[0].Lessons, 2)
	assert.Equal(t, 2, content.Modules[0].Lessons[1].Position)
	require.NotNil(t, content.Modules[0].Lessons[1].VimeoHash)
	assert.Equal(t, hash, *content.Modules[0].Lessons[1].VimeoHash)

	next, err := repo.NextModulePosition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	risk := content.Modules[1]
	pos, err := repo.NextLessonPosition(ctx, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	lesson := &course.Lesson{ModuleID: risk.ID, Title: "Stops", VimeoID: "201", Position: pos}
	require.NoError(t, repo.CreateLesson(ctx, lesson))

	got, err := repo.GetCourseLesson(ctx, c.ID, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stops", got.Title)

	other := createProduct(t, db, "other-course", product.TypeCourse, product.IntervalOneTime)
	_, err = repo.GetCourseLesson(ctx, other.ID, lesson.ID)
	assert.True(t, errors.IsNotFound(err))

	lesson.Title = "Stop losses"
	lesson.IsFree = true
	require.NoError(t, repo.UpdateLesson(ctx, lesson))
	got, err = repo.GetLesson(ctx, risk.ID, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stop losses", got.Title)
	assert.True(t, got.IsFree)

	require.NoError(t, repo.DeleteModule(ctx, c.ID, content.Modules[0].ID))
	content, err = repo.GetContent(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, content.Modules, 1)
	assert.Equal(t, 2, content.TotalLessons)

	assert.True(t, errors.IsNotFound(repo.DeleteModule(ctx, other.ID, risk.ID)))
	assert.True(t, errors.IsNotFound(repo.DeleteLesson(ctx, risk.ID, 9999)))

	require.NoError(t, repo.ReplaceContent(ctx, c.ID, nil))
	content, err = repo.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, content.Modules)
}

func TestNewsletterRepository_Subscribers(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewNewsletterRepository(db)

	name := "Mario"
	mario := &newsletter.Subscriber{Email: "mario@example.com", Name: &name, Status: newsletter.SubscriberSubscribed, Source: "footer", UnsubscribeToken: "tok-mario"}
	luigi := &newsletter.Subscriber{Email: "luigi@example.com", Status: newsletter.SubscriberSubscribed, Source: newsletter.DefaultSource, UnsubscribeToken: "tok-luigi"}
	require.NoError(t, repo.CreateSubscriber(ctx, mario))
	require.NoError(t, repo.CreateSubscriber(ctx, luigi))

	dup := &newsletter.Subscriber{Email: "mario@example.com", Status: newsletter.SubscriberSubscribed, UnsubscribeToken: "tok-other"}
	assert.True(t, errors.IsCode(repo.CreateSubscriber(ctx, dup), errors.ErrCodeConflict))

	got, err := repo.GetSubscriberByToken(ctx, "tok-luigi")
	require.NoError(t, err)
	assert.Equal(t, luigi.ID, got.ID)
	assert.Nil(t, got.Name)

	now := time.Now().Truncate(time.Second)
	got.Status = newsletter.SubscriberUnsubscribed
	got.UnsubscribedAt = &now
	require.NoError(t, repo.UpdateSubscriber(ctx, got))

	active, err := repo.ActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "mario@example.com", active[0].Email)

	n, err := repo.CountSubscribers(ctx, newsletter.SubscriberUnsubscribed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	subs, total, err := repo.ListSubscribers(ctx, newsletter.SubscriberFilter{Search: "mar"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, mario.ID, subs[0].ID)

	require.NoError(t, repo.DeleteSubscriber(ctx, mario.ID))
	_, err = repo.GetSubscriberByEmail(ctx, "mario@example.com")
	assert.True(t, errors.IsNotFound(err))
}

func TestNewsletterRepository_Messages(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewNewsletterRepository(db)
	admin := createUser(t, db, "admin@example.com")

	msg := &newsletter.Message{Subject: "Weekly", Body: "<p>Hello</p>", Status: newsletter.MessageDraft, CreatedBy: admin.ID}
	require.NoError(t, repo.CreateMessage(ctx, msg))
	require.NoError(t, repo.CreateMessage(ctx, &newsletter.Message{Subject: "Second", Body: "x", Status: newsletter.MessageDraft, CreatedBy: admin.ID}))

	sentAt := time.Now().Truncate(time.Second)
	msg.Status = newsletter.MessageSent
	msg.RecipientCount, msg.SentCount, msg.FailedCount = 3, 2, 1
	msg.SentAt = &sentAt
	require.NoError(t, repo.UpdateMessage(ctx, msg))

	got, err := repo.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, newsletter.MessageSent, got.Status)
	assert.Equal(t, 2, got.SentCount)
	assert.Equal(t, 1, got.FailedCount)
	require.NotNil(t, got.SentAt)
	assert.True(t, got.SentAt.Equal(sentAt))

	msgs, total, err := repo.ListMessages(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, msgs, 1)

	require.NoError(t, repo.DeleteMessage(ctx, msg.ID))
	assert.True(t, errors.IsNotFound(repo.DeleteMessage(ctx, msg.ID)))
}

func TestAnalyticsRepository_Stats(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	ctx := context.Background()
	repo := postgres.NewAnalyticsRepository(db)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	uid := int64(7)
	events := []*analytics.Event{
		{SessionID: "s1", Type: analytics.EventPageView, Path: "/", CreatedAt: day},
		{SessionID: "s1", Type: analytics.EventPageView, Path: "/bots", CreatedAt: day.Add(time.Minute)},
		{SessionID: "s2", UserID: &uid, Type: analytics.EventPageView, Path: "/", CreatedAt: day.Add(24 * time.Hour)},
		{SessionID: "s2", UserID: &uid, Type: analytics.EventClick, Path: "/", Metadata: json.RawMessage(`{"button":"buy"}`), CreatedAt: day.Add(25 * time.Hour)},
		{SessionID: "s3", Type: analytics.EventPageView, Path: "/old", CreatedAt: day.AddDate(0, 0, -30)},
	}
	for _, e := range events {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotZero(t, e.ID)
	}

	from := day.Truncate(24 * time.Hour)
	stats, err := repo.Stats(ctx, from, from.AddDate(0, 0, 7), 10)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalEvents)
	assert.Equal(t, int64(3), stats.PageViews)
	assert.Equal(t, int64(2), stats.UniqueSessions)
	assert.Equal(t, int64(1), stats.UniqueUsers)
	assert.Equal(t, int64(1), stats.ByType[analytics.EventClick])
	assert.Equal(t, []analytics.PageCount{{Path: "/", Views: 2}, {Path: "/bots", Views: 1}}, stats.TopPages)
	assert.Equal(t, []analytics.DayCount{{Day: "2026-03-10", Events: 2}, {Day: "2026-03-11", Events: 2}}, stats.Daily)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	applied, err := postgres.RunMigrations(db, fstest.MapFS{
		"001_initial_schema.sql": &fstest.MapFile{Data: []byte("SELECT 1;")},
		"002_extra.sql":          &fstest.MapFile{Data: []byte("CREATE TABLE extra (id INTEGER PRIMARY KEY);")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	applied, err = postgres.RunMigrations(db, fstest.MapFS{
		"002_extra.sql": &fstest.MapFile{Data: []byte("CREATE TABLE extra (id INTEGER PRIMARY KEY);")},
	})
	require.NoError(t, err)
	assert.Zero(t, applied)
}
