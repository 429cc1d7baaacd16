package cards_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/makerhall/makerhall/internal/cards"
	"github.com/makerhall/makerhall/internal/platform/db/dbtest"
	"github.com/makerhall/makerhall/internal/shared"
	_ "github.com/makerhall/makerhall/testing"
)

func TestCreateUserCardBrokenReferenceCommitsNothing(t *testing.T) {
	conn := &dbtest.Conn{FailOn: map[string]error{
		"users_x_cards": &pgconn.PgError{
			Code:           "23503",
			ConstraintName: "users_x_cards_user_id_fkey",
		},
	}}
	store := cards.NewStore(conn)

	_, err := store.Create(context.Background(), cards.Card{
		ID:     9001,
		Type:   cards.TypeUser,
		UserID: 77,
	})

	var invalid *shared.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if conn.Commits != 0 {
		t.Fatalf("variant insert failed yet commits=%d", conn.Commits)
	}
	if conn.Rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", conn.Rollbacks)
	}
}

func TestCreateDuplicateCardCommitsNothing(t *testing.T) {
	conn := &dbtest.Conn{FailOn: map[string]error{
		"INSERT INTO cards": &pgconn.PgError{Code: "23505"},
	}}
	store := cards.NewStore(conn)

	_, err := store.Create(context.Background(), cards.Card{
		ID:   9002,
		Type: cards.TypeShutdown,
	})

	if !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if conn.Commits != 0 {
		t.Fatalf("duplicate insert failed yet commits=%d", conn.Commits)
	}
}

func TestCreateTrainingCardCommitsOnce(t *testing.T) {
	conn := &dbtest.Conn{}
	store := cards.NewStore(conn)

	card, err := store.Create(context.Background(), cards.Card{
		ID:              9003,
		Type:            cards.TypeTraining,
		EquipmentTypeID: 4,
	})
	if err != nil {
		t.Fatalf("create training card: %v", err)
	}
	if card.ID != 9003 {
		t.Fatalf("expected card 9003 back, got %d", card.ID)
	}
	if conn.Commits != 1 || conn.Rollbacks != 0 {
		t.Fatalf("expected a single commit, got commits=%d rollbacks=%d", conn.Commits, conn.Rollbacks)
	}
}
