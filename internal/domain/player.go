package domain

import "time"

// Sentinel author ids used in chat messages that don't belong to a real player.
const (
	SystemAuthorID = "system"
	OracleAuthorID = "ai"
)

// OracleName and OracleColor identify the answerer in chat.
const (
	OracleName  = "The Oracle"
	OracleColor = "#a78bfa"
)

// Player represents a connected player in a session
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a player with the cosmetic identity for the given join index
func NewPlayer(id string, joinIndex int) *Player {
	name, color := CosmeticIdentity(joinIndex)
	return &Player{
		ID:       id,
		Name:     name,
		Color:    color,
		Score:    0,
		JoinedAt: time.Now(),
	}
}

// Snapshot returns a copy safe to hand to encoders and timers
func (p *Player) Snapshot() Player {
	return *p
}

// namePalette and colorPalette are cycled by join order. Both are sized to the
// session capacity so concurrent players never share an identity.
var namePalette = []string{
	"Crimson Fox",
	"Golden Owl",
	"Azure Wolf",
	"Emerald Crow",
	"Violet Lynx",
	"Amber Bear",
	"Silver Heron",
	"Coral Viper",
}

var colorPalette = []string{
	"#e74c3c",
	"#f1c40f",
	"#3498db",
	"#2ecc71",
	"#9b59b6",
	"#e67e22",
	"#95a5a6",
	"#ff6b81",
}

// CosmeticIdentity returns the display name and color for a join index
func CosmeticIdentity(joinIndex int) (name, color string) {
	if joinIndex < 0 {
		joinIndex = 0
	}
	return namePalette[joinIndex%len(namePalette)], colorPalette[joinIndex%len(colorPalette)]
}
