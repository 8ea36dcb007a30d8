package bpmn

import (
	"strings"
	"testing"
)

func TestTemplateForKeywordRouting(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"simple pt", "Crie um processo simples", TemplateSimple},
		{"simple en", "make me a SIMPLE flow", TemplateSimple},
		{"approval", "Quero um fluxo de aprovação de documentos", TemplateApproval},
		{"gateway", "Processo com decisão e dois caminhos", TemplateGateway},
		{"purchasing", "Fluxo de compras da empresa", TemplatePurchasing},
		{"no match", "alguma outra coisa qualquer", TemplateDefault},
		{"empty", "", TemplateDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TemplateFor(tt.message); got != tt.want {
				t.Errorf("TemplateFor(%q) picked the wrong template", tt.message)
			}
		})
	}
}

func TestSimpleTemplateIsSingleTaskSkeleton(t *testing.T) {
	doc, err := ParseDocument(TemplateFor("processo simples"))
	if err != nil {
		t.Fatalf("Failed to parse template: %v", err)
	}

	var tasks int
	for _, n := range doc.Nodes {
		if strings.Contains(n.Type, "task") || strings.Contains(n.Type, "Task") {
			tasks++
		}
	}
	if tasks != 1 {
		t.Errorf("Expected a single task, got %d", tasks)
	}
	if doc.StartNodeID() != "StartEvent_1" {
		t.Errorf("Expected StartEvent_1 as start node, got %q", doc.StartNodeID())
	}
}

func TestAllTemplatesAreValidDocuments(t *testing.T) {
	templates := map[string]string{
		"simple":     TemplateSimple,
		"approval":   TemplateApproval,
		"gateway":    TemplateGateway,
		"purchasing": TemplatePurchasing,
		"default":    TemplateDefault,
	}

	for name, xml := range templates {
		t.Run(name, func(t *testing.T) {
			doc, err := ParseDocument(xml)
			if err != nil {
				t.Fatalf("Failed to parse: %v", err)
			}
			if err := doc.Validate(); err != nil {
				t.Errorf("Template is not a valid diagram: %v", err)
			}
			if !LooksLikeDiagram(xml) {
				t.Error("LooksLikeDiagram rejected a template")
			}
		})
	}
}

// Element ids must survive a parse round trip unchanged so forms bound to
// them keep resolving.
func TestTemplateElementIDsStable(t *testing.T) {
	first, err := ParseDocument(TemplateApproval)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	second, err := ParseDocument(TemplateApproval)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	a, b := first.ElementIDs(), second.ElementIDs()
	if len(a) == 0 {
		t.Fatal("Expected element ids")
	}
	if len(a) != len(b) {
		t.Fatalf("Element id count changed: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Element id changed: %q vs %q", a[i], b[i])
		}
	}
}
