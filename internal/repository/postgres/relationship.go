package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yepcord/server-sub002/internal/model"
)

var _ model.RelationshipStore = (*RelationshipRepository)(nil)

type RelationshipRepository struct {
	db *Connection
}

func NewRelationshipRepository(db *Connection) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

func scanRelationship(row pgx.Row) (model.Relationship, error) {
	var (
		rel model.Relationship
		t   int
	)
	err := row.Scan(&rel.User1, &rel.User2, &t)
	rel.Type = model.RelationshipType(t)
	return rel, err
}

// Get returns the row between two users. A shared row wins over a block, and
// a block placed by userA wins over one placed by userB.
func (r *RelationshipRepository) Get(ctx context.Context, userA, userB int64) (model.Relationship, error) {
	const query = `SELECT user1, user2, type FROM relationships
		WHERE (user1 = $1 AND user2 = $2) OR (user1 = $2 AND user2 = $1)
		ORDER BY type = 2, user1 <> $1
		LIMIT 1`

	rel, err := scanRelationship(r.db.QueryRow(ctx, query, userA, userB))
	if err != nil {
		return model.Relationship{}, notFound(err, "relationship")
	}
	return rel, nil
}

func (r *RelationshipRepository) GetAll(ctx context.Context, userID int64) ([]model.Relationship, error) {
	const query = `SELECT user1, user2, type FROM relationships WHERE user1 = $1 OR user2 = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	defer rows.Close()

	var rels []model.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rels, nil
}

// Blocked reports whether blocker has blocked target, regardless of any block
// in the other direction.
func (r *RelationshipRepository) Blocked(ctx context.Context, blocker, target int64) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM relationships WHERE user1 = $1 AND user2 = $2 AND type = $3
	)`

	var blocked bool
	if err := r.db.QueryRow(ctx, query, blocker, target, int(model.RelationshipBlock)).Scan(&blocked); err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return blocked, nil
}

func (r *RelationshipRepository) Request(ctx context.Context, from, to int64) error {
	const query = `INSERT INTO relationships (user1, user2, type) VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(ctx, query, from, to, int(model.RelationshipPending)); err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

// Accept turns the pending request from -> to into a friendship.
func (r *RelationshipRepository) Accept(ctx context.Context, from, to int64) error {
	const query = `UPDATE relationships SET type = $3 WHERE user1 = $1 AND user2 = $2 AND type = $4`

	cmd, err := r.db.Exec(ctx, query, from, to, int(model.RelationshipFriend), int(model.RelationshipPending))
	if err != nil {
		return fmt.Errorf("failed to accept friend request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes the shared row between the users, or the block userA placed
// on userB, and returns what was removed.
func (r *RelationshipRepository) Delete(ctx context.Context, userA, userB int64) (model.Relationship, error) {
	const query = `DELETE FROM relationships
		WHERE (type <> 2 AND ((user1 = $1 AND user2 = $2) OR (user1 = $2 AND user2 = $1)))
		   OR (type = 2 AND user1 = $1 AND user2 = $2)
		RETURNING user1, user2, type`

	rel, err := scanRelationship(r.db.QueryRow(ctx, query, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Relationship{}, model.ErrNotFound
		}
		return model.Relationship{}, fmt.Errorf("failed to delete relationship: %w", err)
	}
	return rel, nil
}

// Block drops any friendship or pending request and records the block.
func (r *RelationshipRepository) Block(ctx context.Context, blocker, target int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM relationships
			WHERE type <> 2 AND ((user1 = $1 AND user2 = $2) OR (user1 = $2 AND user2 = $1))`,
			blocker, target,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `INSERT INTO relationships (user1, user2, type) VALUES ($1, $2, $3)
			ON CONFLICT (user1, user2) DO UPDATE SET type = EXCLUDED.type`,
			blocker, target, int(model.RelationshipBlock),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}
	return nil
}

func (r *RelationshipRepository) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT CASE WHEN user1 = $1 THEN user2 ELSE user1 END FROM relationships
		WHERE (user1 = $1 OR user2 = $1) AND type = $2`

	ids, err := collectIDs(r.db.Query(ctx, query, userID, int(model.RelationshipFriend)))
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	return ids, nil
}
