package catalog

import (
	"strings"
	"testing"
)

const sampleDoc = `
Opções Protetor solar - planilha exportada

"Gel de Limpeza Facial": {
name: ""Gel de Limpeza Facial"",
description: ""Limpeza suave para pele oleosa"",
sku: ""DG-101"",
category: ""Limpeza"",
image: ""https://cdn.example.com/dg-101.jpg"",
url: ""https://shop.example.com/dg-101""
}

"Sérum Vitamina C": {
name: ""Sérum Vitamina C"",
description: ""Antioxidante diário"",
sku: ""DG-202"",
category: ""Tratamento"",
image: ""https://cdn.example.com/dg-202.jpg"",
url: ""https://shop.example.com/dg-202""
}
`

func TestParse_WellFormedDocument(t *testing.T) {
	products := Parse(sampleDoc)
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	first := products[0]
	if first.Name != "Gel de Limpeza Facial" {
		t.Errorf("unexpected name: %q", first.Name)
	}
	if first.SKU != "DG-101" {
		t.Errorf("unexpected sku: %q", first.SKU)
	}
	if first.Category != "Limpeza" {
		t.Errorf("unexpected category: %q", first.Category)
	}
	if first.ImageURL != "https://cdn.example.com/dg-101.jpg" {
		t.Errorf("unexpected image: %q", first.ImageURL)
	}
	if first.ProductURL != "https://shop.example.com/dg-101" {
		t.Errorf("unexpected url: %q", first.ProductURL)
	}

	// Document order is preserved.
	if products[1].SKU != "DG-202" {
		t.Errorf("expected DG-202 second, got %q", products[1].SKU)
	}
}

func TestParse_MalformedEntriesAreIsolated(t *testing.T) {
	doc := `
"Produto Bom": {
name: ""Produto Bom"",
sku: ""OK-1"",
category: ""Limpeza""
}

"Produto Quebrado": {
name: ""Produto Quebrado,
sku missing colon and quotes everywhere
}

"Outro Bom": {
name: ""Outro Bom"",
sku: ""OK-2"",
category: ""Hidratante""
}
`
	products := Parse(doc)
	if len(products) != 2 {
		t.Fatalf("expected 2 parseable products, got %d", len(products))
	}
	if products[0].SKU != "OK-1" || products[1].SKU != "OK-2" {
		t.Errorf("relative order not preserved: %+v", products)
	}
}

func TestParse_EmptyAndWhitespaceOnly(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Errorf("empty input: expected no products, got %d", len(got))
	}
	if got := Parse("   \n\n\t  \n"); len(got) != 0 {
		t.Errorf("whitespace input: expected no products, got %d", len(got))
	}
}

func TestParse_HeaderLineIgnored(t *testing.T) {
	doc := "Opções Protetor solar\n" + strings.TrimSpace(sampleDoc)
	if got := Parse(doc); len(got) != 2 {
		t.Errorf("expected 2 products with header present, got %d", len(got))
	}
}

func TestParse_ZeroParseableProducts(t *testing.T) {
	doc := `
"Tudo Quebrado": {
this is not even close
}
`
	if got := Parse(doc); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestIsolateFragment(t *testing.T) {
	block := `"Produto": {
name: ""Produto""
}`
	frag, err := isolateFragment(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(frag, "{") {
		t.Errorf("fragment must re-prepend the opening brace: %q", frag)
	}
	if strings.Contains(frag, `"Produto": {`) {
		t.Errorf("product key must be dropped: %q", frag)
	}

	if _, err := isolateFragment("no product key here"); err == nil {
		t.Error("expected error for block without product key")
	}
}

func TestCollapseDoubledQuotes(t *testing.T) {
	if got := collapseDoubledQuotes(`name: ""Produto""`); got != `name: "Produto"` {
		t.Errorf("got %q", got)
	}
}

func TestQuoteBareKeys(t *testing.T) {
	in := "{\nname: \"a\",\nsku: \"b\"\n}"
	got := quoteBareKeys(in)
	if !strings.Contains(got, `"name":`) || !strings.Contains(got, `"sku":`) {
		t.Errorf("keys not quoted: %q", got)
	}

	// First key immediately after the brace.
	if got := quoteBareKeys(`{name: "a"}`); !strings.Contains(got, `{"name":`) {
		t.Errorf("inline first key not quoted: %q", got)
	}
}
