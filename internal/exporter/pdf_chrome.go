package exporter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 24px; color: #000; }
h1 { color: darkblue; text-align: center; font-size: 22px; }
h2 { font-size: 16px; margin-top: 24px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #000; padding: 6px; text-align: center; }
th { background: grey; color: whitesmoke; }
td { background: beige; }
footer { margin-top: 32px; font-size: 10px; color: grey; text-align: center; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<h2>Executive Summary</h2>
<p>{{.Summary}}</p>
<h2>Key Performance Indicators</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range .Metrics}}<tr><td>{{.Metric}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
<h2>District Performance Summary</h2>
<table>
<tr>{{range .DistrictHeader}}<th>{{.}}</th>{{end}}</tr>
{{range .Districts}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
<h2>Recommendations</h2>
<ol>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}</ol>
<footer>Generated {{.Generated}}</footer>
</body>
</html>
`))

type reportView struct {
	Title           string
	Summary         string
	Metrics         []metricRow
	DistrictHeader  []string
	Districts       [][]string
	Recommendations []string
	Generated       string
}

// renderHTML renders the report content as a standalone HTML document.
func renderHTML(c reportContent) ([]byte, error) {
	view := reportView{
		Title:           c.title(),
		Summary:         c.executiveSummary(),
		Metrics:         c.keyMetrics(),
		DistrictHeader:  districtHeader,
		Recommendations: c.Recommendations,
		Generated:       c.GeneratedAt.Format("2006-01-02 15:04:05"),
	}
	for _, d := range c.Districts {
		view.Districts = append(view.Districts, districtRow(d))
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.Bytes(), nil
}

// chromeRenderer prints the HTML report through a headless Chrome.
type chromeRenderer struct {
	timeout time.Duration
}

func (r chromeRenderer) render(ctx context.Context, c reportContent) ([]byte, error) {
	html, err := renderHTML(c)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", true))
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(timeoutCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf rendering failed: %w", err)
	}
	return pdf, nil
}
