package transform

import (
	"github.com/syncbridge/backend/internal/domain/catalog"
	"github.com/syncbridge/backend/internal/infrastructure/sourceapi"
)

// Texts is the resolved name and description for one variation.
type Texts struct {
	Name        string
	Description string
}

// ResolveTexts picks the variation's display texts by the tenant's language
// preference. Name and description resolve independently: each falls back to
// the parent item's texts when the variation has no usable record, then to
// empty.
func ResolveTexts(variation sourceapi.Variation, preferred []string) Texts {
	var itemTexts []sourceapi.VariationText
	if variation.Item != nil {
		itemTexts = variation.Item.Texts
	}
	return Texts{
		Name:        resolveTextField(variation.Texts, itemTexts, preferred, textName),
		Description: resolveTextField(variation.Texts, itemTexts, preferred, textDescription),
	}
}

type textField int

const (
	textName textField = iota
	textDescription
)

func resolveTextField(primary, fallback []sourceapi.VariationText, preferred []string, field textField) string {
	if value, ok := catalog.ResolveTranslations(textTranslations(primary, field), preferred); ok {
		return value
	}
	if value, ok := catalog.ResolveTranslations(textTranslations(fallback, field), preferred); ok {
		return value
	}
	return ""
}

func textTranslations(texts []sourceapi.VariationText, field textField) []catalog.Translation {
	out := make([]catalog.Translation, 0, len(texts))
	for _, t := range texts {
		value := t.Name
		if field == textDescription {
			value = t.Description
		}
		out = append(out, catalog.Translation{Lang: t.Lang, Name: value})
	}
	return out
}
