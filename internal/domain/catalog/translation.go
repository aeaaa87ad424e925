package catalog

import (
	"strings"

	"golang.org/x/text/language"
)

// Translation is one per-language name record on a source entity.
type Translation struct {
	Lang string `json:"lang"`
	Name string `json:"name"`
}

// NameMap is a language → name map, fully rebuilt from source detail records
// on every config sync (never merged).
type NameMap map[string]string

// BuildNameMap flattens per-language name records into a NameMap. Later
// records for the same language win, matching source detail ordering.
func BuildNameMap(translations []Translation) NameMap {
	m := make(NameMap, len(translations))
	for _, t := range translations {
		lang := NormalizeLang(t.Lang)
		if lang == "" {
			continue
		}
		m[lang] = t.Name
	}
	return m
}

// NormalizeLang canonicalizes a language tag to its lowercase base form
// ("en-US" → "en"). Unparseable tags are lowercased as-is.
func NormalizeLang(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	base, _ := tag.Base()
	return base.String()
}

// Resolve picks a name by the ordered language preference list, falling back
// to the first available translation in the order the languages were
// recorded. Returns ("", false) only for an empty map.
func (m NameMap) Resolve(preferred []string) (string, bool) {
	if len(m) == 0 {
		return "", false
	}
	for _, lang := range preferred {
		if name, ok := m[NormalizeLang(lang)]; ok && name != "" {
			return name, true
		}
	}
	for _, name := range m {
		if name != "" {
			return name, true
		}
	}
	return "", false
}

// ResolveTranslations applies the preference order directly to a record list,
// preserving array order for the fallback case.
func ResolveTranslations(translations []Translation, preferred []string) (string, bool) {
	for _, lang := range preferred {
		want := NormalizeLang(lang)
		for _, t := range translations {
			if NormalizeLang(t.Lang) == want && t.Name != "" {
				return t.Name, true
			}
		}
	}
	for _, t := range translations {
		if t.Name != "" {
			return t.Name, true
		}
	}
	return "", false
}
