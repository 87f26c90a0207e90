package events

// ActionPayload is attached to FEED/PLAY/CLEAN/TRAIN and ACTION_REJECTED events.
type ActionPayload struct {
	Action    string `json:"action"`
	Notice    string `json:"notice,omitempty"` // notice key, if any
	Pooped    bool   `json:"pooped,omitempty"`
	ExpGained int    `json:"exp_gained,omitempty"`
}

// TickPayload is attached to TIME_TICK events.
type TickPayload struct {
	Hunger    int `json:"hunger"`
	Happiness int `json:"happiness"`
	PoopCount int `json:"poop_count"`
}

// LevelUpPayload is attached to LEVEL_UP events.
type LevelUpPayload struct {
	Level          int `json:"level"`
	ExpToNextLevel int `json:"exp_to_next_level"`
	Atk            int `json:"atk"`
	Def            int `json:"def"`
	Spd            int `json:"spd"`
}

// GameOverPayload is attached to GAME_OVER events.
type GameOverPayload struct {
	Cause string `json:"cause"`
	Level int    `json:"level"`
}
