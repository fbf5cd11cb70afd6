package post

import (
	"context"
	"errors"

	"github.com/devasol/PinQuest-sub002/internal/db"
	"github.com/devasol/PinQuest-sub002/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Notifier delivers an alert to a user when someone interacts with
// their post. Satisfied by the notification service; nil disables it.
type Notifier interface {
	Notify(ctx context.Context, userID, message, relatedPostID string) error
}

type Service struct {
	db       db.Querier
	notifier Notifier
}

func NewService(db db.Querier, notifier Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

const postColumns = `
	p.id, p.user_id, COALESCE(u.display_name, u.username, ''), p.title, p.description,
	p.category, p.price_range, ST_Y(p.location::geometry), ST_X(p.location::geometry),
	p.tags, p.rating_avg, p.rating_count,
	(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id), p.created_at`

func (s *Service) CreatePost(ctx context.Context, input Post) (Post, error) {
	if !geo.Valid(input.Lat, input.Lng) {
		return Post{}, errors.New("post requires a valid coordinate pair")
	}
	if input.Category == "" {
		input.Category = "general"
	}
	if !ValidCategory(input.Category) {
		return Post{}, errors.New("unknown category")
	}
	if input.PriceRange == "" {
		input.PriceRange = "free"
	}
	if !ValidPriceRange(input.PriceRange) {
		return Post{}, errors.New("unknown price range")
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, title, description, category, price_range, location, tags)
		VALUES ($1,$2,$3,$4,$5,$6, ST_SetSRID(ST_MakePoint($7,$8), 4326)::geography, $9)
		RETURNING created_at
	`, input.ID, input.PostedBy, input.Title, input.Description, input.Category, input.PriceRange, input.Lng, input.Lat, input.Tags)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Post{}, err
	}

	for i := range input.Images {
		img := &input.Images[i]
		img.ID = uuid.NewString()
		img.PostID = input.ID
		if _, err := s.db.Exec(ctx, `
			INSERT INTO post_images (id, post_id, url, position)
			VALUES ($1,$2,$3,$4)
		`, img.ID, img.PostID, img.URL, i); err != nil {
			return Post{}, err
		}
	}
	return input, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.id=$1
	`, id)
	p, err := scanPost(row)
	if err != nil {
		return Post{}, err
	}

	images, err := s.loadImages(ctx, []string{p.ID})
	if err != nil {
		return Post{}, err
	}
	p.Images = images[p.ID]
	return p, nil
}

func (s *Service) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectPosts(ctx, rows)
}

func (s *Service) SearchPosts(ctx context.Context, query string, limit int) ([]Post, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.title ILIKE '%' || $1 || '%'
		   OR p.description ILIKE '%' || $1 || '%'
		   OR $1 ILIKE ANY(p.tags)
		ORDER BY p.created_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectPosts(ctx, rows)
}

func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+postColumns+`
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE ST_DWithin(p.location, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
		ORDER BY p.created_at DESC
	`, lng, lat, radiusKm*1000)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.collectPosts(ctx, rows)
}

func (s *Service) UpdatePost(ctx context.Context, id, userID string, patch Post) (Post, error) {
	current, err := s.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if current.PostedBy != userID {
		return Post{}, errors.New("not the post owner")
	}
	if patch.Title != "" {
		current.Title = patch.Title
	}
	if patch.Description != "" {
		current.Description = patch.Description
	}
	if patch.Category != "" {
		if !ValidCategory(patch.Category) {
			return Post{}, errors.New("unknown category")
		}
		current.Category = patch.Category
	}
	if patch.PriceRange != "" {
		if !ValidPriceRange(patch.PriceRange) {
			return Post{}, errors.New("unknown price range")
		}
		current.PriceRange = patch.PriceRange
	}
	if patch.Lat != 0 || patch.Lng != 0 {
		if !geo.Valid(patch.Lat, patch.Lng) {
			return Post{}, errors.New("invalid coordinates")
		}
		current.Lat = patch.Lat
		current.Lng = patch.Lng
	}
	if patch.Tags != nil {
		current.Tags = patch.Tags
	}

	_, err = s.db.Exec(ctx, `
		UPDATE posts
		SET title=$2, description=$3, category=$4, price_range=$5,
		    location=ST_SetSRID(ST_MakePoint($6,$7), 4326)::geography, tags=$8
		WHERE id=$1
	`, current.ID, current.Title, current.Description, current.Category, current.PriceRange, current.Lng, current.Lat, current.Tags)
	if err != nil {
		return Post{}, err
	}
	return current, nil
}

func (s *Service) DeletePost(ctx context.Context, id, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("post not found or not owned")
	}
	return nil
}

// Like records userID's like; repeated likes are idempotent. The post
// owner is notified only when the like is new.
func (s *Service) Like(ctx context.Context, postID, userID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, postID, userID)
	if err != nil {
		return 0, err
	}

	count, err := s.likesCount(ctx, postID)
	if err != nil {
		return 0, err
	}

	if tag.RowsAffected() > 0 {
		s.notifyOwner(ctx, postID, userID, "liked your post")
	}
	return count, nil
}

func (s *Service) Unlike(ctx context.Context, postID, userID string) (int, error) {
	if _, err := s.db.Exec(ctx, `
		DELETE FROM post_likes WHERE post_id=$1 AND user_id=$2
	`, postID, userID); err != nil {
		return 0, err
	}
	return s.likesCount(ctx, postID)
}

// Rate upserts userID's rating and recomputes the aggregate on the post
// row. The stored count only grows: a re-rate replaces the value but
// keeps the rater counted once.
func (s *Service) Rate(ctx context.Context, postID, userID string, rating int) (Rating, error) {
	if rating < 1 || rating > 5 {
		return Rating{}, errors.New("rating must be between 1 and 5")
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO post_ratings (post_id, user_id, rating)
		VALUES ($1,$2,$3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET rating=EXCLUDED.rating
	`, postID, userID, rating); err != nil {
		return Rating{}, err
	}

	agg := Rating{PostID: postID}
	row := s.db.QueryRow(ctx, `
		UPDATE posts
		SET rating_avg = (SELECT AVG(rating) FROM post_ratings WHERE post_id=$1),
		    rating_count = (SELECT COUNT(*) FROM post_ratings WHERE post_id=$1)
		WHERE id=$1
		RETURNING rating_avg, rating_count
	`, postID)
	if err := row.Scan(&agg.RatingAvg, &agg.RatingCount); err != nil {
		return Rating{}, err
	}

	s.notifyOwner(ctx, postID, userID, "rated your post")
	return agg, nil
}

func (s *Service) AddComment(ctx context.Context, postID, userID, author, content string) (Comment, error) {
	comment := Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		UserID:  userID,
		Author:  author,
		Content: content,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, author, content)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, comment.ID, comment.PostID, comment.UserID, comment.Author, comment.Content)
	if err := row.Scan(&comment.CreatedAt); err != nil {
		return Comment{}, err
	}

	s.notifyOwner(ctx, postID, userID, "commented on your post")
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id, author, content, created_at
		FROM post_comments WHERE post_id=$1
		ORDER BY created_at DESC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *Service) likesCount(ctx context.Context, postID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id=$1`, postID).Scan(&count)
	return count, err
}

// notifyOwner is best-effort: a lost notification never fails the
// action that produced it. Self-interactions are skipped.
func (s *Service) notifyOwner(ctx context.Context, postID, actorID, message string) {
	if s.notifier == nil {
		return
	}
	var ownerID string
	if err := s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id=$1`, postID).Scan(&ownerID); err != nil {
		return
	}
	if ownerID == "" || ownerID == actorID {
		return
	}
	_ = s.notifier.Notify(ctx, ownerID, message, postID)
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.PostedBy, &p.PosterName, &p.Title, &p.Description,
		&p.Category, &p.PriceRange, &p.Lat, &p.Lng,
		&p.Tags, &p.RatingAvg, &p.RatingCount, &p.LikesCount, &p.CreatedAt)
	return p, err
}

func (s *Service) collectPosts(ctx context.Context, rows pgx.Rows) ([]Post, error) {
	var posts []Post
	var ids []string
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
		posts = append(posts, p)
	}

	images, err := s.loadImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Images = images[posts[i].ID]
	}
	return posts, nil
}

func (s *Service) loadImages(ctx context.Context, postIDs []string) (map[string][]Image, error) {
	if len(postIDs) == 0 {
		return map[string][]Image{}, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, url
		FROM post_images WHERE post_id = ANY($1)
		ORDER BY position
	`, postIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := map[string][]Image{}
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.PostID, &img.URL); err != nil {
			return nil, err
		}
		images[img.PostID] = append(images[img.PostID], img)
	}
	return images, nil
}
