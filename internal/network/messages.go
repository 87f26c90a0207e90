package network

import (
	"github.com/MRamiBalles/pocketmonster/internal/engine"
)

// Server → client message types.
const (
	MsgState    = "STATE"
	MsgNotice   = "NOTICE"
	MsgCue      = "CUE"
	MsgGameOver = "GAME_OVER"
	MsgError    = "ERROR"
)

// ClientMessage is an incoming command from the front-end:
// FEED, PLAY, CLEAN, TRAIN or SAVE.
type ClientMessage struct {
	Type string `json:"type"`
}

// MsgSave asks for a manual save.
const MsgSave = "SAVE"

type StateMessage struct {
	Type string `json:"type"`
	engine.Snapshot
}

type NoticeMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Text     string `json:"text"`
	TTLMs    int64  `json:"ttl_ms,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`
}

type CueMessage struct {
	Type string `json:"type"`
	engine.Cue
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
