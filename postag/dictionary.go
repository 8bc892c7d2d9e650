package postag

import (
	"encoding/xml"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/gomlx/go-seqtag/tagger/validator"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dictionary lists the tags allowed for known words. It's safe for concurrent lookups.
//
// Its XML format is:
//
//	<dictionary case_sensitive="false">
//	  <entry tags="NN VB"><token>run</token></entry>
//	</dictionary>
type Dictionary struct {
	caseSensitive bool
	entries       map[string][]string
}

var _ validator.TagLookup = (*Dictionary)(nil)

var (
	dictionaryExpr = xpath.MustCompile("/dictionary")
	entriesExpr    = xpath.MustCompile("entry")
	tokensExpr     = xpath.MustCompile("token")
)

// NewDictionary creates an empty Dictionary.
func NewDictionary(caseSensitive bool) *Dictionary {
	return &Dictionary{caseSensitive: caseSensitive, entries: make(map[string][]string)}
}

func (d *Dictionary) key(word string) string {
	if d.caseSensitive {
		return word
	}
	return cases.Lower(language.Und).String(word)
}

// CaseSensitive reports whether lookups distinguish case.
func (d *Dictionary) CaseSensitive() bool {
	return d.caseSensitive
}

// Put sets the tags allowed for word, replacing previous ones.
func (d *Dictionary) Put(word string, tags ...string) {
	d.entries[d.key(word)] = tags
}

// Tags implements validator.TagLookup: it returns nil for unknown words.
func (d *Dictionary) Tags(word string) []string {
	return d.entries[d.key(word)]
}

// Len returns the number of words in the dictionary.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// LoadDictionary reads a Dictionary in XML format. Case sensitivity defaults to true if the
// case_sensitive attribute is missing.
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "postag: parsing tag dictionary")
	}
	root := xmlquery.QuerySelector(doc, dictionaryExpr)
	if root == nil {
		return nil, errors.New("postag: tag dictionary has no <dictionary> root element")
	}
	caseSensitive := true
	if attr := root.SelectAttr("case_sensitive"); attr != "" {
		caseSensitive, err = strconv.ParseBool(attr)
		if err != nil {
			return nil, errors.Wrapf(err, "postag: invalid case_sensitive attribute %q", attr)
		}
	}
	d := NewDictionary(caseSensitive)
	for ii, entry := range xmlquery.QuerySelectorAll(root, entriesExpr) {
		tokens := xmlquery.QuerySelectorAll(entry, tokensExpr)
		if len(tokens) != 1 {
			return nil, errors.Errorf("postag: dictionary entry #%d must have exactly one token, it has %d", ii, len(tokens))
		}
		tags := strings.Fields(entry.SelectAttr("tags"))
		if len(tags) == 0 {
			return nil, errors.Errorf("postag: dictionary entry #%d (%q) has no tags", ii, tokens[0].InnerText())
		}
		d.Put(tokens[0].InnerText(), tags...)
	}
	return d, nil
}

// LoadDictionaryFile reads a Dictionary from an XML file.
func LoadDictionaryFile(filePath string) (*Dictionary, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open tag dictionary %q", filePath)
	}
	defer func() { _ = f.Close() }()
	d, err := LoadDictionary(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", filePath)
	}
	return d, nil
}

// WriteXML writes the dictionary in the format read by LoadDictionary, with words sorted.
func (d *Dictionary) WriteXML(w io.Writer) error {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	xmlquery.AddChild(doc, &xmlquery.Node{Type: xmlquery.DeclarationNode, Data: "xml",
		Attr: []xmlquery.Attr{{Name: xml.Name{Local: "version"}, Value: "1.0"}, {Name: xml.Name{Local: "encoding"}, Value: "UTF-8"}}})
	root := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "dictionary"}
	root.SetAttr("case_sensitive", strconv.FormatBool(d.caseSensitive))
	xmlquery.AddChild(doc, root)
	for _, word := range slices.Sorted(maps.Keys(d.entries)) {
		entry := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "entry"}
		entry.SetAttr("tags", strings.Join(d.entries[word], " "))
		token := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "token"}
		xmlquery.AddChild(token, &xmlquery.Node{Type: xmlquery.TextNode, Data: word})
		xmlquery.AddChild(entry, token)
		xmlquery.AddChild(root, entry)
	}
	_, err := io.WriteString(w, doc.OutputXML(true))
	return errors.Wrap(err, "postag: writing tag dictionary")
}
