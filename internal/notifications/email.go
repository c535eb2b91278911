package notifications

import (
	"bytes"
	"html/template"
	"strings"
)

// Email is a rendered message ready to be queued.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type emailTemplate struct {
	Subject string
	Heading string
	Lead    string
	Color   string
	Tint    string
	Path    string
	Button  string
}

var emailTemplates = map[Type]emailTemplate{
	TypeProductSold:        {Subject: "🎉 商品が売れました！", Heading: "商品販売通知", Lead: "おめでとうございます！商品が売れました。", Color: "#2563eb", Tint: "#f3f4f6", Path: "/sales", Button: "売上を確認"},
	TypeInventoryAlert:     {Subject: "⚠️ 在庫アラート", Heading: "在庫アラート", Color: "#dc2626", Tint: "#fef2f2", Path: "/inventory", Button: "在庫を確認"},
	TypeReturnRequest:      {Subject: "🔄 返品要求通知", Heading: "返品要求", Color: "#d97706", Tint: "#fffbeb", Path: "/returns", Button: "返品を確認"},
	TypePaymentIssue:       {Subject: "💳 支払い問題通知", Heading: "支払い問題", Color: "#dc2626", Tint: "#fef2f2", Path: "/billing", Button: "支払いを確認"},
	TypeProductIssue:       {Subject: "📦 商品問題通知", Heading: "商品問題", Color: "#dc2626", Tint: "#fef2f2", Path: "/products", Button: "商品を確認"},
	TypeShippingIssue:      {Subject: "🚚 配送問題通知", Heading: "配送問題", Color: "#dc2626", Tint: "#fef2f2", Path: "/shipping", Button: "配送を確認"},
	TypeInspectionComplete: {Subject: "✅ 検品完了通知", Heading: "検品完了", Color: "#16a34a", Tint: "#f0fdf4", Path: "/inspection", Button: "検品結果を確認"},
	TypePaymentReceived:    {Subject: "💰 入金確認通知", Heading: "入金確認", Color: "#16a34a", Tint: "#f0fdf4", Path: "/billing", Button: "入金を確認"},
	TypeReportReady:        {Subject: "📊 レポート準備完了", Heading: "レポート準備完了", Color: "#2563eb", Tint: "#eff6ff", Path: "/reports", Button: "レポートを確認"},
	TypeSystemUpdate:       {Subject: "🔧 システム更新通知", Heading: "システム更新", Color: "#6366f1", Tint: "#f0f9ff", Path: "/"},
	TypePromotionAvailable: {Subject: "🎁 プロモーション情報", Heading: "プロモーション情報", Color: "#ec4899", Tint: "#fdf2f8", Path: "/"},
	TypeMonthlySummary:     {Subject: "📈 月次サマリー", Heading: "月次サマリー", Color: "#059669", Tint: "#ecfdf5", Path: "/reports", Button: "詳細を確認"},
}

var emailLayout = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: {{.Color}};">{{.Heading}}</h2>
  {{- if .Lead}}
  <p>{{.Lead}}</p>
  {{- end}}
  <div style="background: {{.Tint}}; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid {{.Color}};">
    <h3>{{.Title}}</h3>
    <p>{{.Message}}</p>
  </div>
  {{- if .Button}}
  <a href="{{.Link}}" style="background: {{.Color}}; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">{{.Button}}</a>
  {{- end}}
</div>
`))

// LandingPath returns the dashboard path an email of type t links to.
func LandingPath(t Type) string {
	if tpl, ok := emailTemplates[t]; ok {
		return tpl.Path
	}
	return "/"
}

// RenderEmail builds the email for a notification of type t. Unknown types
// fall back to a plain layout titled with the notification title.
func RenderEmail(t Type, baseURL, to, title, message string) (Email, error) {
	tpl, ok := emailTemplates[t]
	if !ok {
		tpl = emailTemplate{Subject: title, Heading: title, Color: "#111827", Tint: "#f9fafb", Path: "/"}
	}
	data := struct {
		emailTemplate
		Title   string
		Message string
		Link    string
	}{
		emailTemplate: tpl,
		Title:         title,
		Message:       message,
		Link:          strings.TrimRight(baseURL, "/") + tpl.Path,
	}
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, data); err != nil {
		return Email{}, err
	}
	return Email{
		To:      to,
		Subject: tpl.Subject,
		HTML:    buf.String(),
		Text:    title + "\n\n" + message,
	}, nil
}
