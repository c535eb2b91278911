package inspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"camera":      CategoryCamera,
		"Camera_Body": CategoryCamera,
		"lens":        CategoryCamera,
		"watch":       CategoryWatch,
		"timepiece":   CategoryWatch,
		"accessory":   CategoryOther,
		"":            CategoryOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestStructureAliases(t *testing.T) {
	require.Equal(t, Structure("camera"), Structure("camera_body"))
	require.Equal(t, Structure("camera"), Structure("lens"))
	require.Equal(t, Structure("watch"), Structure("timepiece"))
	require.Equal(t, "カメラ", Structure("camera").Name)
	require.Len(t, Structure("camera").Sections, 8)
	require.Len(t, Structure("watch").Sections, 7)
	require.Len(t, Structure("unknown").Sections, 4)
}

func TestStructureReturnsIndependentCopy(t *testing.T) {
	first := Structure("camera")
	wantSection := first.Sections[0].Key
	wantItem := first.Sections[0].Items[0].Label

	first.Sections[0].Key = "mutated"
	first.Sections[0].Items[0].Label = "mutated"
	first.Sections = append(first.Sections[:1], first.Sections[2:]...)

	again := Structure("camera")
	require.Len(t, again.Sections, 8)
	require.Equal(t, wantSection, again.Sections[0].Key)
	require.Equal(t, wantItem, again.Sections[0].Items[0].Label)
	require.Equal(t, wantSection, cameraChecklist.Sections[0].Key)
}

func TestCatalogKeysUniqueWithinSection(t *testing.T) {
	for _, category := range []Category{cameraChecklist, watchChecklist, otherChecklist} {
		seenSections := map[string]bool{}
		for _, section := range category.Sections {
			require.False(t, seenSections[section.Key], section.Key)
			seenSections[section.Key] = true
			seen := map[string]bool{}
			for _, item := range section.Items {
				require.False(t, seen[item.Key], "%s.%s", section.Key, item.Key)
				require.NotEmpty(t, item.Label)
				seen[item.Key] = true
			}
		}
	}
}

func TestInitialize(t *testing.T) {
	data := Initialize("watch")
	require.Equal(t, "", data["notes"])

	exterior, ok := data["watch_exterior"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, false, exterior["scratches"])
	require.Equal(t, false, exterior["other_exterior_watch"])
	require.Equal(t, "", exterior["other_exterior_watch_text"])
	_, hasText := exterior["scratches_text"]
	require.False(t, hasText)

	for _, section := range Structure("watch").Sections {
		values := data[section.Key].(map[string]any)
		want := len(section.Items)
		for _, item := range section.Items {
			if item.HasOtherInput {
				want++
			}
		}
		require.Len(t, values, want, section.Key)
	}
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	data := Initialize("camera")
	data["lens_exterior"].(map[string]any)["lens_scratches"] = true
	data["others"].(map[string]any)["other_issues_text"] = "シャッター音が大きい"
	data["notes"] = "要確認"

	flat := Flatten(data)
	require.Equal(t, true, flat["lens_exterior_lens_scratches"])
	require.Equal(t, false, flat["camera_body_exterior_scratches"])
	require.Equal(t, "シャッター音が大きい", flat["others_other_issues_text"])
	require.Equal(t, "要確認", flat["notes"])

	require.Equal(t, data, Unflatten("camera", flat))
}

func TestUnflattenPrefersLongestSection(t *testing.T) {
	flat := map[string]any{
		"accessories_watch_box_watch":     true,
		"others_watch_other_issues_watch": true,
		"bogus_key":                       true,
	}
	data := Unflatten("watch", flat)
	require.Equal(t, true, data["accessories_watch"].(map[string]any)["box_watch"])
	require.Equal(t, true, data["others_watch"].(map[string]any)["other_issues_watch"])
	_, hasNotes := data["notes"]
	require.False(t, hasNotes)
	for key, v := range data {
		require.NotContains(t, v.(map[string]any), "key", key)
	}
}
