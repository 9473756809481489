package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/n1kozver/memelords/internal/auth"
	"github.com/n1kozver/memelords/internal/models"
)

func CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	if user.Password != "" {
		hash, err := auth.CreateHash(user.Password, auth.Params)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash
	}

	q := `INSERT INTO users (id, email, password, name, avatar_url, is_ephemeral)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Name,
			user.AvatarURL, user.IsEphemeral,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, name, avatar_url, is_ephemeral
	FROM users
	WHERE email=$1
	`
	err := DB.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL, &u.IsEphemeral,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `
	SELECT id, email, password, name, avatar_url, is_ephemeral
	FROM users
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.AvatarURL, &u.IsEphemeral,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func AuthenticateUser(ctx context.Context, email, password string) (string, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}

	return token, nil
}

// UpsertDiscordUser resolves a Discord profile to a local user, creating
// the user and the discord_connections link on first login. The profile's
// name and avatar refresh the stored row on every login.
func UpsertDiscordUser(ctx context.Context, profile *auth.DiscordProfile) (*models.User, error) {
	var userID uuid.UUID
	err := DB.QueryRow(ctx,
		`SELECT user_id FROM discord_connections WHERE discord_id=$1`,
		profile.ID,
	).Scan(&userID)

	if errors.Is(err, pgx.ErrNoRows) {
		user := &models.User{
			Email:     profile.Email,
			Name:      profile.Username,
			AvatarURL: profile.AvatarURL(),
		}
		if err := CreateUser(ctx, user); err != nil {
			return nil, err
		}
		err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
			_, execErr := tx.Exec(ctx,
				`INSERT INTO discord_connections (discord_id, user_id) VALUES ($1, $2)`,
				profile.ID, user.ID,
			)
			return execErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to link discord account: %w", err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up discord connection: %w", err)
	}

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx,
			`UPDATE users SET name=$1, avatar_url=$2 WHERE id=$3`,
			profile.Username, profile.AvatarURL(), userID,
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh user profile: %w", err)
	}
	return GetUserByID(ctx, userID)
}
