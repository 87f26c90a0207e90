package engine

import (
	"path"
	"strings"
)

// Animation is the front-end effect played for an action.
type Animation string

const (
	AnimationBounce Animation = "bounce"
	AnimationShake  Animation = "shake"
)

// Cue tells the front-end what to animate. It never affects the simulation.
type Cue struct {
	Action    Action    `json:"action"`
	Animation Animation `json:"animation"`
	Sprite    string    `json:"sprite"`
}

const (
	spriteIdle     = "idle"
	spriteGameOver = "gameover"
	spriteLevelUp  = "levelup"
	assetRoot      = "assets"
)

var actionAnimations = map[Action]Animation{
	ActionFeed:  AnimationBounce,
	ActionPlay:  AnimationShake,
	ActionClean: AnimationBounce,
	ActionTrain: AnimationShake,
}

// CueFor returns the cue for a successful action. A level-up overrides train's shake.
func CueFor(name string, action Action, leveledUp bool) *Cue {
	if leveledUp {
		return &Cue{Action: action, Animation: AnimationBounce, Sprite: SpritePath(name, spriteLevelUp)}
	}
	anim, ok := actionAnimations[action]
	if !ok {
		return nil
	}
	return &Cue{Action: action, Animation: anim, Sprite: SpritePath(name, string(action))}
}

// IdleSprite and GameOverSprite are the resting sprites.
func IdleSprite(name string) string     { return SpritePath(name, spriteIdle) }
func GameOverSprite(name string) string { return SpritePath(name, spriteGameOver) }

// SpritePath builds assets/<slug>/<sprite>.gif.
func SpritePath(name, sprite string) string {
	return path.Join(assetRoot, Slug(name), sprite+".gif")
}

// Slug lowercases name and joins its words with "-".
func Slug(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return "monster"
	}
	return strings.Join(fields, "-")
}
