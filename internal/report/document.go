package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"expensetracker/internal/core"
)

const (
	reportTitle     = "Expense Report"
	dailyHeading    = "Daily Summary"
	categoryHeading = "Category Breakdown"

	chartWidthRatio = 0.8
	rowHeight       = 8.0
	unicodeFamily   = "report-unicode"

	// PDFDateLayout is used for the date column of the daily table.
	PDFDateLayout = "Jan 02, 2006"
)

// symbolFallbacks replaces currency symbols the built-in cp1252 fonts cannot draw.
var symbolFallbacks = map[string]string{
	"₹": "Rs.",
	"₽": "RUB",
	"₩": "KRW",
	"₺": "TRY",
	"₪": "ILS",
	"₫": "VND",
	"₱": "PHP",
	"₴": "UAH",
	"₦": "NGN",
	"₿": "BTC",
	"฿": "THB",
	"৳": "BDT",
	"₨": "Rs",
}

// genericCurrencySign stands in for symbols with no known text code.
const genericCurrencySign = "¤"

// Chart is a rendered raster image to embed in the document.
type Chart struct {
	Name string
	PNG  []byte
}

// DocumentBuilder renders report payloads as A4 PDF documents.
type DocumentBuilder struct {
	currency    string
	fontPath    string
	compression bool
	now         func() time.Time
}

// Option configures a DocumentBuilder.
type Option func(*DocumentBuilder)

// WithUnicodeFont embeds the TrueType font at path so any currency symbol renders as is.
func WithUnicodeFont(path string) Option {
	return func(b *DocumentBuilder) { b.fontPath = path }
}

// WithCompression toggles stream compression. Enabled by default.
func WithCompression(on bool) Option {
	return func(b *DocumentBuilder) { b.compression = on }
}

// WithClock sets the clock used for the document creation date.
func WithClock(now func() time.Time) Option {
	return func(b *DocumentBuilder) { b.now = now }
}

// NewDocumentBuilder creates a builder prefixing amounts with currencySymbol.
func NewDocumentBuilder(currencySymbol string, opts ...Option) *DocumentBuilder {
	b := &DocumentBuilder{
		currency:    currencySymbol,
		compression: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render writes the document for payload to w. Either chart may be nil, in
// which case its section is omitted. Nothing is written to w unless the whole
// document was produced.
func (b *DocumentBuilder) Render(ctx context.Context, w io.Writer, payload core.ReportPayload, daily, category *Chart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(b.compression)
	pdf.SetCreationDate(b.now())
	pdf.SetTitle(reportTitle, true)

	family, tr, symbol := "Helvetica", pdf.UnicodeTranslatorFromDescriptor(""), b.currency
	if b.fontPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", b.fontPath)
		pdf.AddUTF8Font(unicodeFamily, "B", b.fontPath)
		family, tr = unicodeFamily, func(s string) string { return s }
	} else {
		symbol = latinSymbol(symbol)
	}
	if err := pdf.Error(); err != nil {
		return &core.ReportError{Stage: "font", Err: err}
	}

	r := &renderer{pdf: pdf, family: family, tr: tr, symbol: symbol}
	pdf.AddPage()

	r.title()
	r.headline(payload)
	r.dailyTable(payload.Daily)
	if err := ctx.Err(); err != nil {
		return err
	}
	r.categoryTable(payload.Categories)
	for _, c := range []*Chart{daily, category} {
		if c == nil || len(c.PNG) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r.image(c)
	}
	if err := pdf.Error(); err != nil {
		return &core.ReportError{Stage: "render", Err: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return &core.ReportError{Stage: "render", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &core.ReportError{Stage: "write", Err: err}
	}
	return nil
}

func latinSymbol(symbol string) string {
	if v, ok := symbolFallbacks[symbol]; ok {
		return v
	}
	for _, r := range symbol {
		// cp1252 covers Latin-1 plus the euro sign
		if r > 0xFF && r != '€' {
			return genericCurrencySign
		}
	}
	return symbol
}

type renderer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	symbol string
}

func (r *renderer) money(m core.Money) string {
	return m.Format(r.symbol)
}

func (r *renderer) contentWidth() float64 {
	pageW, _ := r.pdf.GetPageSize()
	left, _, right, _ := r.pdf.GetMargins()
	return pageW - left - right
}

func (r *renderer) title() {
	r.pdf.SetFont(r.family, "B", 20)
	r.pdf.CellFormat(0, 12, r.tr(reportTitle), "", 1, "C", false, 0, "")
	r.pdf.Ln(4)
}

func (r *renderer) headline(p core.ReportPayload) {
	r.pdf.SetFont(r.family, "", 12)
	lines := []string{
		"Total Amount: " + r.money(p.Total),
		"Total Expenses: " + strconv.Itoa(p.Count),
		"Daily Average: " + r.money(p.AverageDaily),
	}
	for _, l := range lines {
		r.pdf.CellFormat(0, rowHeight, r.tr(l), "", 1, "L", false, 0, "")
	}
	r.pdf.Ln(4)
}

func (r *renderer) heading(text string) {
	r.pdf.SetFont(r.family, "B", 14)
	r.pdf.CellFormat(0, 10, r.tr(text), "", 1, "L", false, 0, "")
}

func (r *renderer) table(header []string, rows [][]string) {
	w := r.contentWidth() / float64(len(header))
	r.pdf.SetFont(r.family, "B", 11)
	r.pdf.SetFillColor(230, 230, 230)
	for _, h := range header {
		r.pdf.CellFormat(w, rowHeight, r.tr(h), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)

	r.pdf.SetFont(r.family, "", 11)
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i > 0 {
				align = "R"
			}
			r.pdf.CellFormat(w, rowHeight, r.tr(cell), "1", 0, align, false, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(6)
}

func (r *renderer) dailyTable(days []core.DailySummary) {
	r.heading(dailyHeading)
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{d.Date.Format(PDFDateLayout), strconv.Itoa(d.Count), r.money(d.Total)})
	}
	r.table([]string{"Date", "Expenses", "Amount"}, rows)
}

func (r *renderer) categoryTable(cats []core.CategorySummary) {
	r.heading(categoryHeading)
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{c.Category.DisplayName(), strconv.Itoa(c.Count), r.money(c.Total)})
	}
	r.table([]string{"Category", "Expenses", "Amount"}, rows)
}

// image places c centered at 80% of the content width, starting a new page
// when it would overflow the current one.
func (r *renderer) image(c *Chart) {
	name := c.Name
	if name == "" {
		name = fmt.Sprintf("chart-%d", len(c.PNG))
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := r.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(c.PNG))
	if info == nil || r.pdf.Err() {
		if !r.pdf.Err() {
			r.pdf.SetError(errors.New("chart " + strings.TrimSpace(name) + " could not be decoded"))
		}
		return
	}

	w := r.contentWidth() * chartWidthRatio
	h := w * info.Height() / info.Width()
	_, pageH := r.pdf.GetPageSize()
	_, _, _, bottom := r.pdf.GetMargins()
	if r.pdf.GetY()+h > pageH-bottom {
		r.pdf.AddPage()
	}
	left, _, _, _ := r.pdf.GetMargins()
	x := left + (r.contentWidth()-w)/2
	r.pdf.ImageOptions(name, x, r.pdf.GetY(), w, h, false, opts, 0, "")
	r.pdf.SetY(r.pdf.GetY() + h + 6)
}
