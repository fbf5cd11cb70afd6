package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var postRowColumns = []string{
	"id", "user_id", "poster_name", "title", "description",
	"category", "price_range", "lat", "lng",
	"tags", "rating_avg", "rating_count", "likes_count", "created_at",
}

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID, message, postID string) error {
	n.calls = append(n.calls, userID+"|"+message+"|"+postID)
	return nil
}

func TestCreateAndGetPost(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Harbor Bath", "open-air pool", "nature", "free", 12.568, 55.676, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))
	mock.ExpectExec(`INSERT INTO post_images`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "https://img.example/1.jpg", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, nil)
	created, err := svc.CreatePost(context.Background(), Post{
		Title:       "Harbor Bath",
		Description: "open-air pool",
		Category:    "nature",
		Lat:         55.676,
		Lng:         12.568,
		PostedBy:    "user-1",
		Images:      []Image{{URL: "https://img.example/1.jpg"}},
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if created.ID == "" || created.PriceRange != "free" {
		t.Fatalf("expected id and default price range, got %+v", created)
	}

	mock.ExpectQuery(`SELECT\s+p.id, p.user_id`).
		WithArgs(created.ID).
		WillReturnRows(pgxmock.NewRows(postRowColumns).
			AddRow(created.ID, "user-1", "User One", "Harbor Bath", "open-air pool",
				"nature", "free", 55.676, 12.568,
				[]string{"swim"}, 0.0, 0, 0, createdAt))
	mock.ExpectQuery(`SELECT id, post_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "url"}).
			AddRow("img-1", created.ID, "https://img.example/1.jpg"))

	loaded, err := svc.GetPost(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if loaded.PosterName != "User One" || len(loaded.Images) != 1 {
		t.Fatalf("unexpected post: %+v", loaded)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePostRejectsBadInput(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.CreatePost(context.Background(), Post{Title: "x", Lat: 91, Lng: 0, PostedBy: "u"})
	if err == nil {
		t.Fatalf("expected invalid coordinates error")
	}

	_, err = svc.CreatePost(context.Background(), Post{Title: "x", Lat: 1, Lng: 1, Category: "bogus", PostedBy: "u"})
	if err == nil {
		t.Fatalf("expected unknown category error")
	}

	_, err = svc.CreatePost(context.Background(), Post{Title: "x", Lat: 1, Lng: 1, PriceRange: "bogus", PostedBy: "u"})
	if err == nil {
		t.Fatalf("expected unknown price range error")
	}
}

func TestListPosts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT\s+p.id, p.user_id`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows(postRowColumns).
			AddRow("post-1", "user-1", "User One", "A", "", "general", "free", 1.0, 2.0, []string{}, 4.5, 2, 3, now).
			AddRow("post-2", "user-2", "User Two", "B", "", "food", "low", 3.0, 4.0, []string{}, 0.0, 0, 0, now))
	mock.ExpectQuery(`SELECT id, post_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "url"}))

	svc := NewService(mock, nil)
	posts, err := svc.ListPosts(context.Background(), 0)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 2 || posts[0].LikesCount != 3 {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestLikeNotifiesOwnerOnce(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier)

	mock.ExpectExec(`INSERT INTO post_likes`).
		WithArgs("post-1", "user-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM post_likes`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT user_id FROM posts`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	count, err := svc.Like(context.Background(), "post-1", "user-2")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if count != 1 {
		t.Fatalf("unexpected likes count: %d", count)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.calls))
	}

	// duplicate like: no rows inserted, no notification
	mock.ExpectExec(`INSERT INTO post_likes`).
		WithArgs("post-1", "user-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM post_likes`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	if _, err := svc.Like(context.Background(), "post-1", "user-2"); err != nil {
		t.Fatalf("duplicate like: %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("duplicate like must not notify again")
	}
}

func TestUnlike(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM post_likes`).
		WithArgs("post-1", "user-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM post_likes`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	svc := NewService(mock, nil)
	count, err := svc.Unlike(context.Background(), "post-1", "user-2")
	if err != nil || count != 0 {
		t.Fatalf("unlike: %v count=%d", err, count)
	}
}

func TestRateRecomputesAggregate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier)

	mock.ExpectExec(`INSERT INTO post_ratings`).
		WithArgs("post-1", "user-2", 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`UPDATE posts`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"rating_avg", "rating_count"}).AddRow(4.5, 2))
	mock.ExpectQuery(`SELECT user_id FROM posts`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	agg, err := svc.Rate(context.Background(), "post-1", "user-2", 4)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if agg.RatingAvg != 4.5 || agg.RatingCount != 2 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected rating notification")
	}
}

func TestRateOutOfRange(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.Rate(context.Background(), "post-1", "user-2", 6); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestAddCommentSkipsSelfNotification(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier)

	mock.ExpectQuery(`INSERT INTO post_comments`).
		WithArgs(pgxmock.AnyArg(), "post-1", "user-1", "User One", "lovely spot").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`SELECT user_id FROM posts`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	comment, err := svc.AddComment(context.Background(), "post-1", "user-1", "User One", "lovely spot")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.ID == "" {
		t.Fatalf("expected comment id")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("own comment must not notify")
	}
}

func TestComments(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, post_id, user_id, author, content, created_at`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "user_id", "author", "content", "created_at"}).
			AddRow("c-1", "post-1", "user-2", "User Two", "nice", time.Now()))

	svc := NewService(mock, nil)
	comments, err := svc.Comments(context.Background(), "post-1")
	if err != nil || len(comments) != 1 {
		t.Fatalf("comments: %v", err)
	}
}

func TestUpdatePostOwnership(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT\s+p.id, p.user_id`).
		WithArgs("post-1").
		WillReturnRows(pgxmock.NewRows(postRowColumns).
			AddRow("post-1", "user-1", "User One", "A", "", "general", "free", 1.0, 2.0, []string{}, 0.0, 0, 0, now))
	mock.ExpectQuery(`SELECT id, post_id, url`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "url"}))

	svc := NewService(mock, nil)
	_, err = svc.UpdatePost(context.Background(), "post-1", "someone-else", Post{Title: "B"})
	if err == nil {
		t.Fatalf("expected ownership error")
	}
}

func TestDeletePostNotOwned(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM posts`).
		WithArgs("post-1", "user-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := NewService(mock, nil)
	if err := svc.DeletePost(context.Background(), "post-1", "user-2"); err == nil {
		t.Fatalf("expected not-owned error")
	}
}

func TestSearchPostsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+p.id, p.user_id`).
		WithArgs("harbor", 100).
		WillReturnError(errors.New("db down"))

	svc := NewService(mock, nil)
	if _, err := svc.SearchPosts(context.Background(), "harbor", 0); err == nil {
		t.Fatalf("expected error")
	}
}
