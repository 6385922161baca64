// Package printing renders payment receipts for paid bills.
//
// ReceiptRenderer fills an html/template with the bill, its transaction and
// the provider's company settings. A PDFRenderer (headless Chrome through
// chromedp) turns that HTML into a PDF when PDF output is enabled.
//
//	html, err := receipts.RenderHTML(data)
//	pdf, err := chrome.Render(ctx, &RenderRequest{HTML: string(html), PaperSize: PaperSizeA5})
package printing
