package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Simplified renderings of the storefront's transactional emails. Layout
// fidelity is not a goal; the fields shown are.

var deliveryTmpl = template.Must(template.New("delivery").Parse(`
<div style="font-family: -apple-system, sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px; color: #1d1d1f;">
  <h1 style="font-size: 32px; font-weight: 700;">Ihr Key ist da!</h1>
  <p style="font-size: 16px; color: #86868b;">Vielen Dank für Ihre Bestellung. Hier ist Ihr Lizenzschlüssel für <strong>{{.Order.Product}}</strong>:</p>
  <div style="background: #f5f5f7; border-radius: 12px; padding: 24px; text-align: center; margin: 32px 0;">
    <p style="font-size: 12px; text-transform: uppercase; color: #86868b;">Produktschlüssel &amp; Download</p>
    <code style="font-size: 20px; font-weight: 700; color: #0071e3; letter-spacing: 1px;">{{.LicenseKey}}</code>
    {{if .DownloadLink}}<p style="margin-top: 16px;"><a href="{{.DownloadLink}}" style="color: #0071e3; font-weight: 600;">Installer herunterladen</a></p>{{end}}
  </div>
  <p style="font-size: 14px; color: #86868b;">Bestellnummer: {{if .Order.OrderNumber}}{{.Order.OrderNumber}}{{else}}N/A{{end}}</p>
  <p style="font-size: 12px; color: #86868b; text-align: center; margin-top: 60px;">&copy; 2026 Softcrate Digital Solutions</p>
</div>`))

var backorderTmpl = template.Must(template.New("backorder").Parse(`
<div style="font-family: -apple-system, sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px; color: #1d1d1f;">
  <h1 style="font-size: 32px; font-weight: 700;">Bestellung erhalten</h1>
  <p style="font-size: 16px; color: #86868b;">Vielen Dank für Ihre Bestellung. Ihre Zahlung war erfolgreich.</p>
  <div style="background: #fffbeb; border: 1px solid #fcd34d; border-radius: 8px; padding: 20px; margin: 20px 0; color: #92400e;">
    <strong>Aktuell hohe Nachfrage:</strong> Wir bereiten gerade neue Lizenzschlüssel für dieses Produkt vor.
    Sobald die neuen Schlüssel im System sind, erhalten Sie Ihren Key automatisch per E-Mail.
  </div>
  <p style="font-size: 14px;"><strong>Produkt:</strong> {{.Order.Product}}</p>
  <p style="font-size: 14px;"><strong>Status:</strong> <span style="color: #d97706; font-weight: bold;">Wartet auf Zuweisung</span></p>
  <p style="font-size: 12px; color: #86868b; text-align: center; margin-top: 60px;">&copy; 2026 Softcrate Digital Solutions</p>
</div>`))

var refundTmpl = template.Must(template.New("refund").Parse(`
<div style="font-family: -apple-system, sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px; color: #1d1d1f;">
  <h1 style="font-size: 32px; font-weight: 600;">Ihre Bestellung wurde storniert.</h1>
  <p style="font-size: 16px; color: #86868b;">Der Betrag wird in Kürze auf Ihr PayPal-Konto zurückerstattet.</p>
  <div style="background: #f5f5f7; border-radius: 12px; padding: 24px; margin-bottom: 32px;">
    <p style="font-size: 14px;">Bestellnummer: {{if .Order.OrderNumber}}{{.Order.OrderNumber}}{{else}}N/A{{end}}</p>
    <p style="font-size: 14px;">Produkt: {{.Order.Product}}</p>
    <p style="font-size: 14px;">Betrag: {{.Order.Amount}} {{.Order.Currency}}</p>
  </div>
  <p style="font-size: 14px; color: #86868b;">Die Rückerstattung kann 3-5 Werktage dauern.</p>
  <p style="font-size: 12px; color: #86868b; text-align: center; margin-top: 60px;">&copy; 2026 Softcrate Digital Solutions</p>
</div>`))

var cancellationTmpl = template.Must(template.New("cancellation").Parse(`
<div style="font-family: -apple-system, sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px; color: #1d1d1f;">
  <h1 style="font-size: 32px; font-weight: 600;">Bestellung storniert</h1>
  <p style="font-size: 16px; color: #86868b;">Ihre Bestellung wurde storniert.</p>
  <div style="background: #f5f5f7; border-radius: 12px; padding: 24px; margin-bottom: 32px;">
    <p style="font-size: 14px;">Bestellnummer: {{if .Order.OrderNumber}}{{.Order.OrderNumber}}{{else}}N/A{{end}}</p>
    <p style="font-size: 14px;">Produkt: {{.Order.Product}}</p>
  </div>
  <p style="font-size: 14px; color: #86868b;">Bei Fragen kontaktieren Sie uns unter support@softcrate.de</p>
  <p style="font-size: 12px; color: #86868b; text-align: center; margin-top: 60px;">&copy; 2026 Softcrate Digital Solutions</p>
</div>`))

var voucherReviewTmpl = template.Must(template.New("voucher_review").Parse(`
<div style="font-family: sans-serif; max-width: 600px; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #0071e3;">Neuer {{.VoucherLabel}} erhalten</h2>
  <p>Es wurde eine neue Bestellung mit <strong>{{.VoucherLabel}}</strong> aufgegeben.</p>
  <div style="background: #f5f5f7; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 0; font-size: 12px; color: #666; text-transform: uppercase;">Gutscheincode / PIN:</p>
    <p style="margin: 5px 0 0 0; font-size: 24px; font-weight: bold; letter-spacing: 1px;">{{.Order.VoucherCode}}</p>
  </div>
  <p>Bestellung: <strong>{{.Order.OrderNumber}}</strong></p>
  <p>Kunde: {{.Order.Email}}</p>
  <p>Betrag: {{.Order.Amount}} {{.Order.Currency}}</p>
  <p>Produkt: {{.Order.Product}}</p>
  <p style="font-size: 12px; color: #999; margin-top: 20px;">Sobald du den Code eingelöst hast, weise den Key im Dashboard zu.</p>
</div>`))

var templates = map[Kind]*template.Template{
	KindDelivery:      deliveryTmpl,
	KindBackorder:     backorderTmpl,
	KindRefund:        refundTmpl,
	KindCancellation:  cancellationTmpl,
	KindVoucherReview: voucherReviewTmpl,
}

func render(kind Kind, data TemplateData) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("unknown mail template %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", kind, err)
	}
	return buf.String(), nil
}

func subject(kind Kind, data TemplateData) string {
	switch kind {
	case KindDelivery:
		return "🎉 Ihr Lizenzschlüssel ist da - Softcrate"
	case KindBackorder:
		return "📦 Wir haben Ihre Bestellung erhalten (Warteliste)"
	case KindRefund:
		return "💰 Rückerstattung bestätigt - Softcrate"
	case KindCancellation:
		return "❌ Bestellung storniert - Softcrate"
	case KindVoucherReview:
		return fmt.Sprintf("[%s] %s€ - %s", strings.ToUpper(data.Order.VoucherType), data.Order.Amount, data.Order.OrderNumber)
	}
	return "Softcrate"
}
