package repository

import (
	"context"

	"frontdesk/internal/domain"
)

// TimestampLayout is the wall-clock format used for interaction timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// ReadWriter is the interaction log contract shared by every backend.
type ReadWriter interface {
	Append(ctx context.Context, rec domain.Interaction) error
	// Read returns up to limit of the most recent records for sender, oldest first.
	// A non-positive limit returns every record; an empty sender matches all senders.
	Read(ctx context.Context, sender string, limit int) ([]domain.Interaction, error)
}

func tail(recs []domain.Interaction, limit int) []domain.Interaction {
	if limit > 0 && len(recs) > limit {
		return recs[len(recs)-limit:]
	}
	return recs
}
