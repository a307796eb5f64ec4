package explorer

import (
	"embed"
)

//go:embed assets/index.html assets/swagger-ui.css assets/swagger-ui-bundle.js assets/swagger-ui-standalone-preset.js
var embedded embed.FS

// Assets holds the static files of the explorer UI.
type Assets struct {
	Index  []byte
	CSS    []byte
	Bundle []byte
	Preset []byte
}

// DefaultAssets returns the embedded UI, which loads swagger-ui from a CDN.
func DefaultAssets() Assets {
	return Assets{
		Index:  mustRead("assets/index.html"),
		CSS:    mustRead("assets/swagger-ui.css"),
		Bundle: mustRead("assets/swagger-ui-bundle.js"),
		Preset: mustRead("assets/swagger-ui-standalone-preset.js"),
	}
}

func mustRead(name string) []byte {
	data, err := embedded.ReadFile(name)
	if err != nil {
		panic("explorer: missing embedded asset " + name)
	}
	return data
}

// withDefaults fills empty slots from the embedded assets.
func (a Assets) withDefaults() Assets {
	def := DefaultAssets()
	if len(a.Index) == 0 {
		a.Index = def.Index
	}
	if len(a.CSS) == 0 {
		a.CSS = def.CSS
	}
	if len(a.Bundle) == 0 {
		a.Bundle = def.Bundle
	}
	if len(a.Preset) == 0 {
		a.Preset = def.Preset
	}
	return a
}
