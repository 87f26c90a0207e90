package storage

import (
	"github.com/invopop/jsonschema"

	"github.com/MRamiBalles/pocketmonster/internal/domain/monster"
)

// SaveSchema describes the JSON stored under SaveKey. Extra properties are
// allowed because older and newer front-ends write different field sets.
func SaveSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(monster.Monster))
	schema.Title = "Pocket Monster save record"
	schema.Description = "Stored under the " + SaveKey + " key; missing fields are back-filled with defaults on load"
	return schema
}
