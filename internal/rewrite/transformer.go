package rewrite

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagemirror/internal/model"
)

// tagAttribute pairs an element name with the attribute that may carry a
// resource reference on it.
type tagAttribute struct {
	tag  string
	attr string
}

// linkAttributes is the fixed set of element kinds the transformer inspects
// and the single link-bearing attribute for each. The table is iterated in
// order, elements within a kind in document order, so the resource sequence
// a transform produces is stable.
var linkAttributes = []tagAttribute{
	{tag: "img", attr: "src"},
	{tag: "link", attr: "href"},
	{tag: "script", attr: "src"},
}

// Transformer rewrites same-origin references in a page to local paths and
// collects the resources those references denote.
//
// The parse tree is owned exclusively by the transformer for the duration
// of a Transform call; nothing else reads or mutates it.
type Transformer struct {
	// classifier resolves and classifies references against the page URL.
	classifier *Classifier

	// assetDir is the relative directory rewritten references point into.
	assetDir string
}

// NewTransformer creates a Transformer for the given page URL.
func NewTransformer(pageURL string) (*Transformer, error) {
	classifier, err := NewClassifier(pageURL)
	if err != nil {
		return nil, err
	}
	return &Transformer{
		classifier: classifier,
		assetDir:   AssetDirName(classifier.PageURL()),
	}, nil
}

// AssetDir returns the resource subdirectory name rewritten references use.
func (t *Transformer) AssetDir() string {
	return t.assetDir
}

// PageFile returns the filename the rewritten document is stored under.
func (t *Transformer) PageFile() string {
	return PageFileName(t.classifier.PageURL())
}

// Transform parses htmlText, rewrites every non-empty same-origin reference
// in the linkAttributes table to "<assetDir>/<name>" (forward slash
// regardless of host filesystem), and returns the serialized document
// together with the ordered resource sequence.
//
// Remote references, empty attributes, and references whose host cannot be
// established pass through untouched. Parse failures are propagated
// unchanged; the transformer has no error conditions of its own.
func (t *Transformer) Transform(htmlText string) (*model.TransformResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	resources := make([]model.Resource, 0)
	for _, ta := range linkAttributes {
		doc.Find(ta.tag).Each(func(_ int, sel *goquery.Selection) {
			raw, ok := sel.Attr(ta.attr)
			if !ok || strings.TrimSpace(raw) == "" {
				return
			}

			resolved := t.classifier.Resolve(raw)
			if !t.classifier.IsLocal(resolved) {
				return
			}

			name := ResourceName(resolved)
			sel.SetAttr(ta.attr, t.assetDir+"/"+name)

			resources = append(resources, model.Resource{
				SourceURL: resolved.String(),
				LocalName: name,
				Tag:       ta.tag,
				Attr:      ta.attr,
			})
		})
	}

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize page: %w", err)
	}

	return &model.TransformResult{
		HTML:      html,
		AssetDir:  t.assetDir,
		Resources: resources,
	}, nil
}
