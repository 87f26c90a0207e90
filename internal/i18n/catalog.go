// Package i18n renders player-facing notices in the monster's languages.
package i18n

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// Key identifies a notice independent of language.
type Key string

const (
	KeyTooTiredEat     Key = "too_tired_eat"
	KeyTooTiredPlay    Key = "too_tired_play"
	KeyCleaned         Key = "cleaned"
	KeyNothingToClean  Key = "nothing_to_clean"
	KeyNotEnoughEnergy Key = "not_enough_energy"
	KeyGainedExp       Key = "gained_exp" // arg: amount
	KeyLeveledUp       Key = "leveled_up" // arg: new level
	KeyBusy            Key = "busy"
	KeyGameOverHunger  Key = "game_over_hunger"
	KeyGameOverSadness Key = "game_over_sadness"
	KeyWelcome         Key = "welcome"
	KeyLoaded          Key = "loaded"
	KeySaved           Key = "saved"
	KeySaveFailed      Key = "save_failed"
)

var thai = map[Key]string{
	KeyTooTiredEat:     "มันเหนื่อยเกินไปที่จะกิน",
	KeyTooTiredPlay:    "มันเหนื่อยเกินไปที่จะเล่น",
	KeyCleaned:         "สะอาดแล้ว!",
	KeyNothingToClean:  "ไม่เห็นมีอะไรให้ทำความสะอาดเลย",
	KeyNotEnoughEnergy: "พลังงานไม่พอสำหรับการฝึก",
	KeyGainedExp:       "ได้รับ %d EXP!",
	KeyLeveledUp:       "เลเวลอัป! ตอนนี้เลเวล %d แล้ว!",
	KeyBusy:            "รอแป๊บนึง เจ้ามอนยังยุ่งอยู่",
	KeyGameOverHunger:  "เจ้ามอนหิวจนหมดแรง...",
	KeyGameOverSadness: "เจ้ามอนเศร้าจนหนีออกจากบ้าน...",
	KeyWelcome:         "สวัสดี! ฉันคือดิจิมอนคู่หูของนาย!",
	KeyLoaded:          "โหลดข้อมูลล่าสุดจ้า!",
	KeySaved:           "เกมถูกบันทึกแล้ว!",
	KeySaveFailed:      "บันทึกเกมไม่สำเร็จ",
}

var english = map[Key]string{
	KeyTooTiredEat:     "It's too tired to eat.",
	KeyTooTiredPlay:    "It's too tired to play.",
	KeyCleaned:         "All clean!",
	KeyNothingToClean:  "There's nothing to clean.",
	KeyNotEnoughEnergy: "Not enough energy to train.",
	KeyGainedExp:       "Gained %d EXP!",
	KeyLeveledUp:       "Level up! Now level %d!",
	KeyBusy:            "Hold on, your monster is busy.",
	KeyGameOverHunger:  "Your monster collapsed from hunger...",
	KeyGameOverSadness: "Your monster got so sad it ran away...",
	KeyWelcome:         "Hi! I'm your partner monster!",
	KeyLoaded:          "Loaded your last save!",
	KeySaved:           "Game saved!",
	KeySaveFailed:      "Could not save the game.",
}

// Catalog holds the notice tables and negotiates which one a client gets.
type Catalog struct {
	mu       sync.RWMutex
	tags     []language.Tag
	tables   map[language.Tag]map[Key]string
	matcher  language.Matcher
	fallback language.Tag
}

// NewCatalog returns the built-in Thai and English tables with fallback as
// the default language. An unparsable fallback means Thai.
func NewCatalog(fallback string) *Catalog {
	c := &Catalog{tables: make(map[language.Tag]map[Key]string)}

	def, err := language.Parse(fallback)
	if err != nil {
		def = language.Thai
	}

	// The first tag registered is what the matcher returns on no match.
	first, second := language.Thai, language.English
	if base, _ := def.Base(); base.String() == "en" {
		first, second = language.English, language.Thai
	}
	c.add(first, tableFor(first))
	c.add(second, tableFor(second))
	c.fallback = first
	return c
}

func tableFor(tag language.Tag) map[Key]string {
	if tag == language.English {
		return english
	}
	return thai
}

func (c *Catalog) add(tag language.Tag, table map[Key]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tags = append(c.tags, tag)
	c.tables[tag] = table
	c.matcher = language.NewMatcher(c.tags)
}

// Default returns the catalog's fallback language.
func (c *Catalog) Default() language.Tag {
	return c.fallback
}

// Match picks the best supported language for an explicit choice (e.g. ?lang=)
// and an Accept-Language header. Either may be empty.
func (c *Catalog) Match(explicit, acceptLanguage string) language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var wanted []language.Tag
	if explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			wanted = append(wanted, tag)
		}
	}
	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
			wanted = append(wanted, tags...)
		}
	}
	if len(wanted) == 0 {
		return c.fallback
	}

	_, idx, conf := c.matcher.Match(wanted...)
	if conf == language.No {
		return c.fallback
	}
	return c.tags[idx]
}

// Render formats key in tag's table. Unknown keys render as the key itself.
func (c *Catalog) Render(tag language.Tag, key Key, args ...any) string {
	c.mu.RLock()
	table, ok := c.tables[tag]
	if !ok {
		table = c.tables[c.fallback]
	}
	tmpl, ok := table[key]
	c.mu.RUnlock()

	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
