// Package inspection holds the per-category inspection checklist catalog and
// the per-product checklist state stored alongside products.
package inspection

// Item is a single checklist flag.
type Item struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	Description   string `json:"description,omitempty"`
	HasOtherInput bool   `json:"hasOtherInput,omitempty"`
}

// Section groups related items.
type Section struct {
	Key   string `json:"sectionKey"`
	Name  string `json:"sectionName"`
	Items []Item `json:"items"`
}

// Category is the ordered checklist of one product category.
type Category struct {
	Key      string    `json:"category"`
	Name     string    `json:"categoryName"`
	Sections []Section `json:"sections"`
}

// Canonical category keys.
const (
	CategoryCamera = "camera"
	CategoryWatch  = "watch"
	CategoryOther  = "other"
)

func exterior(otherKey string, desc [8]string) []Item {
	return []Item{
		{Key: "scratches", Label: "傷", Description: desc[0]},
		{Key: "scuffs", Label: "スレ", Description: desc[1]},
		{Key: "dents", Label: "凹み", Description: desc[2]},
		{Key: "cracks", Label: "ひび", Description: desc[3]},
		{Key: "breaks", Label: "割れ", Description: desc[4]},
		{Key: "paint_peeling", Label: "塗装剥がれ", Description: desc[5]},
		{Key: "stains", Label: "汚れ", Description: desc[6]},
		{Key: "stickiness", Label: "ベタつき", Description: desc[7]},
		{Key: otherKey, Label: "その他", HasOtherInput: true},
	}
}

var cameraChecklist = Category{
	Key:  CategoryCamera,
	Name: "カメラ",
	Sections: []Section{
		{Key: "camera_body_exterior", Name: "カメラボディ外観", Items: exterior("other_exterior", [8]string{
			"目立つ傷がある場合チェック", "擦り傷がある場合チェック", "凹みがある場合チェック", "ひび割れがある場合チェック",
			"割れがある場合チェック", "塗装が剥がれている場合チェック", "汚れがある場合チェック", "ベタつきがある場合チェック",
		})},
		{Key: "viewfinder", Name: "ファインダー", Items: []Item{
			{Key: "mold", Label: "カビ", Description: "カビが見える場合チェック"},
			{Key: "dust", Label: "ホコリ", Description: "ホコリが見える場合チェック"},
			{Key: "scratches_vf", Label: "傷", Description: "ファインダー内の傷"},
			{Key: "stains_vf", Label: "汚れ", Description: "ファインダー内の汚れ"},
			{Key: "cloudiness", Label: "クモリ", Description: "クモリがある場合チェック"},
			{Key: "corrosion", Label: "腐食", Description: "腐食がある場合チェック"},
			{Key: "balsam_separation", Label: "バルサム切れ", Description: "バルサム切れがある場合チェック"},
		}},
		{Key: "film_chamber", Name: "フィルム室", Items: []Item{
			{Key: "film_chamber_condition", Label: "フィルム室内部の状況", Description: "フィルム室の状態"},
			{Key: "light_seal_deterioration", Label: "モルトの劣化", Description: "モルト（遮光材）の劣化"},
			{Key: "shutter_curtain_operation", Label: "シャッター幕動作", Description: "シャッター幕の動作確認"},
		}},
		{Key: "lens_exterior", Name: "レンズ", Items: []Item{
			{Key: "lens_scratches", Label: "傷", Description: "レンズ表面の傷"},
			{Key: "lens_scuffs", Label: "スレ", Description: "レンズ表面のスレ"},
			{Key: "lens_dents", Label: "凹み", Description: "レンズの凹み"},
			{Key: "lens_cracks", Label: "ひび", Description: "レンズのひび割れ"},
			{Key: "lens_breaks", Label: "割れ", Description: "レンズの割れ"},
			{Key: "lens_paint_peeling", Label: "塗装剥がれ", Description: "レンズ鏡筒の塗装剥がれ"},
			{Key: "lens_stains", Label: "汚れ", Description: "レンズの汚れ"},
			{Key: "lens_stickiness", Label: "ベタつき", Description: "レンズのベタつき"},
			{Key: "other_lens", Label: "その他", HasOtherInput: true},
		}},
		{Key: "optics", Name: "光学", Items: []Item{
			{Key: "dust_particles", Label: "チリホコリ", Description: "レンズ内のチリ・ホコリ"},
			{Key: "cloudiness_optics", Label: "クモリ", Description: "レンズ内のクモリ"},
			{Key: "mold_optics", Label: "カビ", Description: "レンズ内のカビ"},
			{Key: "balsam_separation_optics", Label: "バルサム切れ", Description: "レンズのバルサム切れ"},
			{Key: "scratches_optics", Label: "キズ", Description: "レンズ表面のキズ"},
			{Key: "stains_optics", Label: "汚れ", Description: "レンズ表面の汚れ"},
			{Key: "other_optics", Label: "その他", HasOtherInput: true},
		}},
		{Key: "exposure_function", Name: "露出機能", Items: []Item{
			{Key: "working", Label: "作動", Description: "露出機能が正常に作動する"},
			{Key: "not_working", Label: "不動", Description: "露出機能が作動しない"},
			{Key: "weak", Label: "弱い", Description: "露出機能が弱い・不安定"},
		}},
		{Key: "accessories", Name: "付属品", Items: []Item{
			{Key: "battery", Label: "バッテリー", Description: "バッテリーの有無"},
			{Key: "manual", Label: "説明書", Description: "取扱説明書の有無"},
			{Key: "case", Label: "ケース", Description: "ケース・バッグの有無"},
			{Key: "box", Label: "箱", Description: "外箱の有無"},
			{Key: "strap", Label: "ストラップ", Description: "ストラップの有無"},
			{Key: "lens_cap", Label: "レンズキャップ", Description: "レンズキャップの有無"},
		}},
		{Key: "others", Name: "その他", Items: []Item{
			{Key: "other_issues", Label: "その他", Description: "上記以外の問題や特記事項", HasOtherInput: true},
		}},
	},
}

var watchChecklist = Category{
	Key:  CategoryWatch,
	Name: "腕時計",
	Sections: []Section{
		{Key: "watch_exterior", Name: "時計本体外観", Items: exterior("other_exterior_watch", [8]string{
			"ケース・ベルトの傷", "ケース・ベルトのスレ", "ケース・ベルトの凹み", "ケース・ガラスのひび",
			"ガラス・部品の割れ", "ケースの塗装剥がれ", "汚れ・変色", "ベルト等のベタつき",
		})},
		{Key: "dial_hands", Name: "文字盤・針", Items: []Item{
			{Key: "hand_discoloration", Label: "針の変色", Description: "針の変色・腐食"},
			{Key: "dial_stains", Label: "文字盤の汚れ", Description: "文字盤の汚れ・シミ"},
			{Key: "index_damage", Label: "インデックスの欠け", Description: "インデックス・数字の欠け"},
			{Key: "luminous_deterioration", Label: "夜光の劣化", Description: "夜光塗料の劣化・剥がれ"},
			{Key: "dial_cracks", Label: "クラック", Description: "文字盤のひび・クラック"},
		}},
		{Key: "movement_function", Name: "ムーブメント機能", Items: []Item{
			{Key: "time_accuracy", Label: "時刻精度", Description: "時刻の精度・進み遅れ"},
			{Key: "winding_function", Label: "巻き上げ機能", Description: "巻き上げ機能の動作"},
			{Key: "crown_operation", Label: "リューズ動作", Description: "リューズの動作・操作感"},
			{Key: "pushbutton_operation", Label: "プッシュボタン動作", Description: "プッシュボタンの動作"},
			{Key: "date_function", Label: "日付機能", Description: "日付表示・切替機能"},
		}},
		{Key: "case_bracelet", Name: "ケース・ブレスレット", Items: []Item{
			{Key: "case_corrosion", Label: "ケースの腐食", Description: "ケースの腐食・錆"},
			{Key: "bracelet_stretch", Label: "ブレスレットの伸び", Description: "ブレスレットの伸び・ガタつき"},
			{Key: "buckle_malfunction", Label: "バックルの不具合", Description: "バックル・クラスプの不具合"},
			{Key: "link_missing", Label: "コマの欠損", Description: "ブレスレットコマの欠損"},
			{Key: "belt_deterioration", Label: "ベルトの劣化", Description: "革ベルト等の劣化・ひび割れ"},
		}},
		{Key: "waterproof_special", Name: "防水・特殊機能", Items: []Item{
			{Key: "waterproof_performance", Label: "防水性能", Description: "防水性能の確認"},
			{Key: "chronograph_function", Label: "クロノグラフ機能", Description: "クロノグラフ機能の動作"},
			{Key: "gmt_function", Label: "GMT機能", Description: "GMT・第2時間帯機能"},
			{Key: "rotating_bezel", Label: "回転ベゼル", Description: "回転ベゼルの動作"},
			{Key: "other_functions", Label: "その他機能", Description: "その他特殊機能", HasOtherInput: true},
		}},
		{Key: "accessories_watch", Name: "付属品", Items: []Item{
			{Key: "box_watch", Label: "箱", Description: "外箱・内箱の有無"},
			{Key: "warranty", Label: "保証書", Description: "保証書・ギャランティの有無"},
			{Key: "manual_watch", Label: "説明書", Description: "取扱説明書の有無"},
			{Key: "extra_links", Label: "余りコマ", Description: "余りコマの有無"},
			{Key: "tools", Label: "工具", Description: "専用工具の有無"},
			{Key: "original_belt", Label: "純正ベルト", Description: "純正ベルト・ブレスレットの有無"},
		}},
		{Key: "others_watch", Name: "その他", Items: []Item{
			{Key: "other_issues_watch", Label: "その他", Description: "上記以外の問題や特記事項", HasOtherInput: true},
		}},
	},
}

var otherChecklist = Category{
	Key:  CategoryOther,
	Name: "その他",
	Sections: []Section{
		{Key: "general_exterior", Name: "外観", Items: exterior("other_exterior_general", [8]string{
			"目立つ傷", "擦り傷", "凹み・変形", "ひび割れ", "割れ・破損", "塗装の剥がれ", "汚れ・シミ", "ベタつき・劣化",
		})},
		{Key: "function", Name: "機能", Items: []Item{
			{Key: "power_on", Label: "電源ON", Description: "電源が入るか"},
			{Key: "operation", Label: "動作", Description: "基本動作の確認"},
			{Key: "buttons", Label: "ボタン", Description: "ボタン・操作系の動作"},
			{Key: "display", Label: "表示", Description: "画面・表示の確認"},
			{Key: "connectivity", Label: "接続性", Description: "接続・通信機能"},
		}},
		{Key: "accessories_general", Name: "付属品", Items: []Item{
			{Key: "manual_general", Label: "説明書", Description: "取扱説明書の有無"},
			{Key: "box_general", Label: "箱", Description: "外箱の有無"},
			{Key: "cables", Label: "ケーブル", Description: "付属ケーブル類"},
			{Key: "adapters", Label: "アダプタ", Description: "電源アダプタ等"},
			{Key: "other_accessories", Label: "その他付属品", HasOtherInput: true},
		}},
		{Key: "others_general", Name: "その他", Items: []Item{
			{Key: "other_issues_general", Label: "その他", Description: "上記以外の問題や特記事項", HasOtherInput: true},
		}},
	},
}
