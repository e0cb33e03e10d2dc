package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// NumberSequences maps a document number prefix to its Postgres sequence.
// Numbers are allocated server side so a prefix can never collide, unlike
// client-generated timestamp suffixes.
var numberSequences = map[string]string{
	"RCP": "doc_seq_receipt",
	"DEL": "doc_seq_delivery",
	"TRF": "doc_seq_transfer",
	"ADJ": "doc_seq_adjustment",
}

// ErrUnknownNumberPrefix indicates a prefix without a backing sequence.
var ErrUnknownNumberPrefix = errors.New("unknown document number prefix")

// NextDocumentNumber allocates a formatted document number from the sequence
// bound to prefix, inside the caller's transaction.
func NextDocumentNumber(ctx context.Context, tx pgx.Tx, prefix string) (string, error) {
	seq, ok := numberSequences[prefix]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownNumberPrefix, prefix)
	}
	var n int64
	if err := tx.QueryRow(ctx, `SELECT nextval($1)`, seq).Scan(&n); err != nil {
		return "", fmt.Errorf("numbering: nextval %s: %w", seq, err)
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}
