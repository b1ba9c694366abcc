package member

import (
	"database/sql"
	"time"
)

// Member is a clan member on the roster.
// JoinDate and RankTitle are optional: the roster source may not know them.
type Member struct {
	ID        int64
	Name      string
	JoinDate  sql.NullTime
	RankTitle sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
