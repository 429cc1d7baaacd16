package cards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/makerhall/makerhall/internal/platform/db"
	"github.com/makerhall/makerhall/internal/shared"
)

// Postgres error codes inspected to classify statement failures.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// Store persists cards across the base table and the variant join tables.
// Every multi-statement write runs inside one transaction: the base row must
// never exist without the variant row its type requires, because the access
// decision downstream depends on resolving the card to its reference.
type Store struct {
	pool db.Conn
}

// NewStore constructs a Store.
func NewStore(pool db.Conn) *Store {
	return &Store{pool: pool}
}

// Create inserts the base row and, for training/user cards, the variant join
// row. Any statement failure rolls the whole write back; no partial card is
// ever visible.
func (s *Store) Create(ctx context.Context, card Card) (Card, error) {
	if err := card.Validate(); err != nil {
		return Card{}, err
	}
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO cards (id, type_id) VALUES ($1, $2)`,
			card.ID, int(card.Type)); err != nil {
			return classifyCardError("cards.create", err)
		}
		switch card.Type {
		case TypeTraining:
			if _, err := tx.Exec(ctx,
				`INSERT INTO equipment_type_x_cards (equipment_type_id, card_id) VALUES ($1, $2)`,
				card.EquipmentTypeID, card.ID); err != nil {
				return classifyCardError("cards.create training", err)
			}
		case TypeUser:
			if _, err := tx.Exec(ctx,
				`INSERT INTO users_x_cards (user_id, card_id) VALUES ($1, $2)`,
				card.UserID, card.ID); err != nil {
				return classifyCardError("cards.create user", err)
			}
		case TypeShutdown, TypeProxy:
			// No variant row.
		}
		return nil
	})
	if err != nil {
		return Card{}, err
	}
	return card, nil
}

// Read reconstructs the variant from one left-join query. A missing base row
// is ErrNotFound, not a storage failure.
func (s *Store) Read(ctx context.Context, id int64) (Card, error) {
	return readCard(ctx, s.pool, id)
}

// Delete removes the variant join row (if any) and the base row in one
// transaction, returning the deleted card as confirmation.
func (s *Store) Delete(ctx context.Context, id int64) (Card, error) {
	card, err := s.Read(ctx, id)
	if err != nil {
		return Card{}, err
	}
	err = db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		switch card.Type {
		case TypeTraining:
			if _, err := tx.Exec(ctx,
				`DELETE FROM equipment_type_x_cards WHERE card_id = $1`, id); err != nil {
				return &shared.DatabaseError{Op: "cards.delete training", Err: err}
			}
		case TypeUser:
			if _, err := tx.Exec(ctx,
				`DELETE FROM users_x_cards WHERE card_id = $1`, id); err != nil {
				return &shared.DatabaseError{Op: "cards.delete user", Err: err}
			}
		case TypeShutdown, TypeProxy:
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id); err != nil {
			return &shared.DatabaseError{Op: "cards.delete", Err: err}
		}
		return nil
	})
	if err != nil {
		return Card{}, err
	}
	return card, nil
}

// Search lists cards matching the filter; an empty filter returns all cards.
func (s *Store) Search(ctx context.Context, filter Filter) ([]Card, error) {
	query := `SELECT c.id, c.type_id, ec.equipment_type_id, uc.user_id
	          FROM cards c
	          LEFT JOIN equipment_type_x_cards ec ON ec.card_id = c.id
	          LEFT JOIN users_x_cards uc ON uc.card_id = c.id`
	var (
		clauses []string
		args    []any
	)
	if filter.EquipmentTypeID != 0 {
		args = append(args, filter.EquipmentTypeID)
		clauses = append(clauses, fmt.Sprintf("ec.equipment_type_id = $%d", len(args)))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("uc.user_id = $%d", len(args)))
	}
	if filter.IDFragment != "" {
		args = append(args, "%"+filter.IDFragment+"%")
		clauses = append(clauses, fmt.Sprintf("c.id::text LIKE $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY c.id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &shared.DatabaseError{Op: "cards.search", Err: err}
	}
	defer rows.Close()
	var out []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, &shared.DatabaseError{Op: "cards.search rows", Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func readCard(ctx context.Context, pool db.Conn, id int64) (Card, error) {
	row := pool.QueryRow(ctx,
		`SELECT c.id, c.type_id, ec.equipment_type_id, uc.user_id
		 FROM cards c
		 LEFT JOIN equipment_type_x_cards ec ON ec.card_id = c.id
		 LEFT JOIN users_x_cards uc ON uc.card_id = c.id
		 WHERE c.id = $1`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, shared.ErrNotFound
		}
		return Card{}, err
	}
	return card, nil
}

func scanCard(row rowScanner) (Card, error) {
	var (
		card            Card
		typeID          int
		equipmentTypeID *int64
		userID          *int64
	)
	if err := row.Scan(&card.ID, &typeID, &equipmentTypeID, &userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, err
		}
		return Card{}, &shared.DatabaseError{Op: "cards.scan", Err: err}
	}
	card.Type = CardType(typeID)
	if equipmentTypeID != nil {
		card.EquipmentTypeID = *equipmentTypeID
	}
	if userID != nil {
		card.UserID = *userID
	}
	return card, nil
}

// classifyCardError maps constraint violations to caller faults; everything
// else stays a DatabaseError carrying the driver diagnostic.
func classifyCardError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.ErrDuplicate
		case pgForeignKeyViolation:
			return &shared.InvalidInputError{
				Field:  pgErr.ConstraintName,
				Reason: "referenced record does not exist",
			}
		}
	}
	return &shared.DatabaseError{Op: op, Err: err}
}
