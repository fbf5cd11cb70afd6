package location

import (
	"context"
	"errors"

	"github.com/devasol/PinQuest-sub002/internal/db"
	"github.com/devasol/PinQuest-sub002/internal/shared/geo"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Save(ctx context.Context, input SavedLocation) (SavedLocation, error) {
	if input.Name == "" {
		return SavedLocation{}, errors.New("name required")
	}
	if !geo.Valid(input.Lat, input.Lng) {
		return SavedLocation{}, errors.New("invalid coordinates")
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO saved_locations (id, user_id, name, note, location)
		VALUES ($1,$2,$3,$4, ST_SetSRID(ST_MakePoint($5,$6), 4326)::geography)
		RETURNING created_at
	`, input.ID, input.UserID, input.Name, input.Note, input.Lng, input.Lat)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return SavedLocation{}, err
	}
	return input, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]SavedLocation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, name, note, ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM saved_locations WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SavedLocation
	for rows.Next() {
		var l SavedLocation
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Note, &l.Lat, &l.Lng, &l.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM saved_locations WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("saved location not found")
	}
	return nil
}
