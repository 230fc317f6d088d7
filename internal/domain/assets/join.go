package assets

import (
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
)

// Keys lists the alternate spellings probed in asset records, most preferred
// first.
type Keys struct {
	// Name keys are probed in list-shaped items.
	Name []string

	// URL keys are probed in list-shaped items.
	URL []string

	// ObjectURL keys are probed in object values of map-shaped sources.
	ObjectURL []string
}

// DefaultKeys returns the spellings seen in the coach image sheets.
func DefaultKeys() Keys {
	return Keys{
		Name: []string{"coach", "Coach", "allenatore", "Allenatore", "Allenatore 1", "Nome", "Name"},
		URL: []string{
			"image", "Image", "immagine", "Immagine", "foto", "Foto",
			"photo", "Photo", "url", "URL", "link", "Link",
		},
		ObjectURL: []string{"url", "URL", "image", "Image", "immagine", "Immagine", "link", "Link"},
	}
}

// WithDefaults fills empty key lists from DefaultKeys.
func (k Keys) WithDefaults() Keys {
	d := DefaultKeys()
	if len(k.Name) == 0 {
		k.Name = d.Name
	}
	if len(k.URL) == 0 {
		k.URL = d.URL
	}
	if len(k.ObjectURL) == 0 {
		k.ObjectURL = d.ObjectURL
	}
	return k
}

// Index maps folded names to image URLs.
type Index map[string]string

// Lookup returns the URL registered for a display name.
func (ix Index) Lookup(name string) (string, bool) {
	key := normalize.FoldName(name)
	if key == "" {
		return "", false
	}
	url, ok := ix[key]
	return url, ok
}

// BuildIndex reduces any source shape to a folded-name index. Items without a
// usable name or URL are skipped; later items overwrite earlier ones.
func BuildIndex(src Source, keys Keys) Index {
	keys = keys.WithDefaults()
	ix := make(Index, src.Len())
	switch src.shape {
	case ShapeList:
		for _, item := range src.items {
			obj, ok := asObject(item)
			if !ok {
				continue
			}
			ix.register(firstPresent(obj, keys.Name), firstPresent(obj, keys.URL))
		}
	case ShapeMap:
		for _, p := range src.pairs {
			switch v := p.Value.(type) {
			case string:
				ix.register(p.Name, v)
			default:
				if obj, ok := asObject(v); ok {
					ix.register(p.Name, firstPresent(obj, keys.ObjectURL))
				}
			}
		}
	}
	return ix
}

func (ix Index) register(name, url any) {
	key := normalize.FoldName(name)
	u := normalize.Value(url)
	if key == "" || u.IsEmpty() {
		return
	}
	ix[key] = u.String()
}

func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, x != nil
	case model.RawRecord:
		return x, x != nil
	default:
		return nil, false
	}
}

// firstPresent returns the value of the first key holding a non-nil value.
func firstPresent(obj map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Attach returns a copy of entries with ImageURL set from the index. Entries
// with no match get an empty ImageURL. Neither argument is modified.
func Attach(entries []model.LeaderboardEntry, ix Index) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(entries))
	for i, e := range entries {
		e.ImageURL, _ = ix.Lookup(e.DisplayName)
		out[i] = e
	}
	return out
}
