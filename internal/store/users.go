package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
	"github.com/tsucess/paeshift-backend-sub001/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email == "" {
		return errors.InvalidInput("email is required", nil)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var exists bool
	err := s.db.DB().QueryRowContext(ctx,
		s.rebind("SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)"),
		user.Email,
	).Scan(&exists)
	if err != nil {
		return errors.Internal("checking existing user", err)
	}
	if exists {
		return errors.Duplicate("a user with this email already exists", nil)
	}

	_, err = s.db.DB().ExecContext(ctx, s.rebind(`
		INSERT INTO users (id, email, first_name, last_name, password_hash, google_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.GoogleID, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Duplicate("a user with this email already exists", err)
		}
		return errors.Internal("inserting user", err)
	}

	_, err = s.db.DB().ExecContext(ctx,
		s.rebind("INSERT INTO profiles (user_id) VALUES (?)"), user.ID)
	if err != nil {
		return errors.Internal("inserting profile", err)
	}

	return nil
}

// GetUser loads a user together with the profile row in one query.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, *models.Profile, error) {
	row := s.db.DB().QueryRowContext(ctx, s.rebind(`
		SELECT u.id, u.email, u.first_name, u.last_name, u.google_id, u.created_at,
		       p.phone, p.location, p.bio, p.avatar_url, p.average_rating, p.rating_count
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.id = ?
	`), userID)

	var user models.User
	profile := models.Profile{UserID: userID}
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.GoogleID, &user.CreatedAt,
		&profile.Phone, &profile.Location, &profile.Bio, &profile.AvatarURL,
		&profile.AverageRating, &profile.RatingCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NotFound("user not found", err)
	}
	if err != nil {
		return nil, nil, errors.Internal("loading user", err)
	}

	return &user, &profile, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.DB().QueryRowContext(ctx, s.rebind(`
		SELECT id, email, first_name, last_name, google_id, created_at
		FROM users WHERE email = ?
	`), email)

	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.GoogleID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user not found", err)
	}
	if err != nil {
		return nil, errors.Internal("loading user by email", err)
	}

	return &user, nil
}

// UpsertGoogleUser links or creates the account for a completed OAuth
// callback. Matching order: google id, then email, then a fresh user.
func (s *Store) UpsertGoogleUser(ctx context.Context, googleID, email, firstName, lastName string) (*models.User, error) {
	row := s.db.DB().QueryRowContext(ctx, s.rebind(`
		SELECT id, email, first_name, last_name, google_id, created_at
		FROM users WHERE google_id = ?
	`), googleID)

	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.GoogleID, &user.CreatedAt)
	if err == nil {
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, errors.Internal("looking up google user", err)
	}

	existing, lookupErr := s.GetUserByEmail(ctx, email)
	if lookupErr == nil {
		_, err = s.db.DB().ExecContext(ctx,
			s.rebind("UPDATE users SET google_id = ? WHERE id = ?"), googleID, existing.ID)
		if err != nil {
			return nil, errors.Internal("linking google id", err)
		}
		existing.GoogleID = googleID
		return existing, nil
	}
	if errors.TypeOf(lookupErr) != errors.ErrTypeNotFound {
		return nil, lookupErr
	}

	created := &models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		GoogleID:  googleID,
	}
	if err := s.CreateUser(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// RecomputeUserRating refreshes the denormalized rating columns on the
// profile from the reviews table.
func (s *Store) RecomputeUserRating(ctx context.Context, userID string) error {
	_, err := s.db.DB().ExecContext(ctx, s.rebind(`
		UPDATE profiles SET
			average_rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE reviewed_id = ?), 0),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE reviewed_id = ?)
		WHERE user_id = ?
	`), userID, userID, userID)
	if err != nil {
		return errors.Internal("recomputing user rating", err)
	}
	return nil
}
