package inspection

import (
	"sort"
	"strings"
)

// Data is the nested checklist state: section key -> item key -> value,
// plus a top-level "notes" string.
type Data map[string]any

const notesKey = "notes"

// Normalize maps a product category to one of the checklist categories.
func Normalize(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "camera", "camera_body", "lens":
		return CategoryCamera
	case "watch", "timepiece":
		return CategoryWatch
	default:
		return CategoryOther
	}
}

// Structure returns a copy of the checklist catalog for category.
func Structure(category string) Category {
	switch Normalize(category) {
	case CategoryCamera:
		return cameraChecklist.clone()
	case CategoryWatch:
		return watchChecklist.clone()
	default:
		return otherChecklist.clone()
	}
}

func (c Category) clone() Category {
	out := c
	out.Sections = make([]Section, len(c.Sections))
	for i, section := range c.Sections {
		section.Items = append([]Item(nil), section.Items...)
		out.Sections[i] = section
	}
	return out
}

// Initialize returns an empty checklist for category with every flag unset.
func Initialize(category string) Data {
	structure := Structure(category)
	data := make(Data, len(structure.Sections)+1)
	for _, section := range structure.Sections {
		values := make(map[string]any, len(section.Items))
		for _, item := range section.Items {
			values[item.Key] = false
			if item.HasOtherInput {
				values[item.Key+"_text"] = ""
			}
		}
		data[section.Key] = values
	}
	data[notesKey] = ""
	return data
}

// Flatten converts nested data into "{section}_{item}" keys.
func Flatten(data Data) map[string]any {
	flat := make(map[string]any)
	for sectionKey, sectionValue := range data {
		if sectionKey == notesKey {
			flat[notesKey] = sectionValue
			continue
		}
		values, ok := sectionValue.(map[string]any)
		if !ok {
			continue
		}
		for itemKey, v := range values {
			flat[sectionKey+"_"+itemKey] = v
		}
	}
	return flat
}

// Unflatten rebuilds nested data from flat keys using the category's section
// keys as prefixes. Keys matching no section are dropped.
func Unflatten(category string, flat map[string]any) Data {
	structure := Structure(category)
	data := make(Data, len(structure.Sections)+1)
	prefixes := make([]string, 0, len(structure.Sections))
	for _, section := range structure.Sections {
		data[section.Key] = map[string]any{}
		prefixes = append(prefixes, section.Key)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for key, value := range flat {
		if key == notesKey {
			data[notesKey] = value
			continue
		}
		for _, prefix := range prefixes {
			itemKey, ok := strings.CutPrefix(key, prefix+"_")
			if !ok || itemKey == "" {
				continue
			}
			data[prefix].(map[string]any)[itemKey] = value
			break
		}
	}
	return data
}
