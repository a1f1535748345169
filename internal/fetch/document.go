package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/course-designer/internal/logger"
	"github.com/jonathan/course-designer/internal/netguard"
)

// Document is a reference document reduced to text.
type Document struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	Rendered bool   `json:"rendered"`
}

// Fetcher retrieves reference documents. When a renderer is configured,
// pages whose plain HTTP text is too short are rendered in a browser.
type Fetcher struct {
	opts   *Options
	render RenderFunc
	log    *logger.Logger
}

// NewFetcher creates a Fetcher. render may be nil to disable browser fallback.
func NewFetcher(opts *Options, render RenderFunc, log *logger.Logger) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{opts: opts, render: render, log: log}
}

// Document fetches url and extracts its main text.
func (f *Fetcher) Document(ctx context.Context, url string) (*Document, error) {
	result, err := URL(ctx, url, f.opts)
	if err != nil {
		return nil, err
	}

	if ct := result.ContentType; ct != "" && strings.HasPrefix(ct, "text/plain") {
		return &Document{URL: url, Text: cleanWhitespace(result.HTML)}, nil
	}

	text, err := ExtractMainText(result.HTML, CourseMaterialSelectors())
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to extract text", Cause: err}
	}
	doc := &Document{URL: url, Title: ExtractTitle(result.HTML), Text: text}

	if f.render != nil && ShouldUseBrowser(text) {
		f.log.Debug("falling back to browser rendering", "url", url, "text_length", len(text))
		html, renderErr := f.renderChecked(ctx, url)
		if renderErr != nil {
			f.log.Warn("browser rendering failed, keeping HTTP text", "url", url, "error", renderErr)
		} else if rendered, extractErr := ExtractMainText(html, CourseMaterialSelectors()); extractErr == nil && len(rendered) > len(text) {
			doc.Text = rendered
			doc.Rendered = true
			if title := ExtractTitle(html); title != "" {
				doc.Title = title
			}
		}
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, &Error{URL: url, Message: "no text content"}
	}
	return doc, nil
}

// renderChecked runs the browser renderer after the host passes the address
// check. The browser dials on its own, outside the guarded HTTP client.
func (f *Fetcher) renderChecked(ctx context.Context, url string) (string, error) {
	if !f.opts.AllowPrivateNetworks {
		if err := netguard.CheckURL(ctx, url, nil); err != nil {
			return "", err
		}
	}
	return f.render(ctx, url)
}

// Documents fetches every url in order. Failures are logged and skipped; the
// successfully fetched documents are returned.
func (f *Fetcher) Documents(ctx context.Context, urls []string) []Document {
	docs := make([]Document, 0, len(urls))
	for _, u := range urls {
		doc, err := f.Document(ctx, u)
		if err != nil {
			f.log.Warn("skipping reference document", "url", u, "error", err)
			continue
		}
		f.log.Info("fetched reference document", "url", u, "chars", len(doc.Text), "rendered", doc.Rendered)
		docs = append(docs, *doc)
	}
	return docs
}

// Summary renders a document as a markdown section, truncating its text to maxChars.
func (d Document) Summary(maxChars int) string {
	text := d.Text
	if maxChars > 0 && len([]rune(text)) > maxChars {
		text = string([]rune(text)[:maxChars]) + "..."
	}
	heading := d.Title
	if heading == "" {
		heading = d.URL
	}
	return fmt.Sprintf("### %s\nSource : %s\n%s\n", heading, d.URL, text)
}
