package game

import (
	"time"

	"omega/internal/domain/sgf"
)

// ArchiveGame is a recorded game kept for position search.
type ArchiveGame struct {
	ID         string       `json:"id" bson:"_id"`
	Name       string       `json:"name" bson:"name"`
	Path       string       `json:"path,omitempty" bson:"path"`
	Info       sgf.GameInfo `json:"info" bson:"info"`
	Moves      int          `json:"moves" bson:"moves"`
	SGF        string       `json:"sgf,omitempty" bson:"sgf"`
	ImportedAt time.Time    `json:"imported_at" bson:"imported_at"`
}

type ArchiveResponse struct {
	PageNum    int           `json:"page_num" bson:"page_num"`
	TotalPages int           `json:"total_pages" bson:"total_pages"`
	Games      []ArchiveGame `json:"games" bson:"games"`
}

type ArchiveImportResponse struct {
	Imported int `json:"imported"`
}
