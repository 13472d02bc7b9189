package builder

import (
	"fmt"

	"github.com/metakb-transform/internal/cache"
	"github.com/metakb-transform/internal/domain"
)

// DocumentBuilder builds MOA's source/citation records into Documents,
// grounded on moa.py's _add_documents. CIViC documents are instead built
// inline per evidence item by the statement assembler (civic.py's
// _add_eid_document gates on source_type before a Document exists at all,
// so there is nothing to pre-populate upfront).
type DocumentBuilder struct {
	cache *cache.Cache
}

func NewDocumentBuilder(c *cache.Cache) *DocumentBuilder {
	return &DocumentBuilder{cache: c}
}

// BuildMoaDocuments caches one Document per MOA source record, keyed by
// "moa.source:<id>".
func (b *DocumentBuilder) BuildMoaDocuments(sources []MoaSource) {
	for _, s := range sources {
		id := fmt.Sprintf("moa.source:%d", s.ID)
		doc := domain.Document{ID: id, Title: s.Citation}
		if s.URL != "" {
			doc.URLs = []string{s.URL}
		}
		if s.PMID != "" {
			doc.PMID = s.PMID
		}
		if s.DOI != "" {
			doc.DOI = s.DOI
		}
		if s.SourceType != "" {
			doc.Extensions = append(doc.Extensions, domain.Extension{Name: "source_type", Value: s.SourceType})
		}
		b.cache.PutDocument(id, doc)
	}
}
