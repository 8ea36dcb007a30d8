package completion

import (
	"context"

	"github.com/fluxobpm/fluxo/internal/bpmn"
	"github.com/fluxobpm/fluxo/internal/domain"
)

// LocalGenerator answers chat turns from keyword-matched diagram templates
// without calling any backend. It satisfies the same contract as Client and
// is selected with GENERATOR_MODE=template.
type LocalGenerator struct{}

// NewLocalGenerator creates a template-based generator.
func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

// Configured always returns true; no credential is involved.
func (g *LocalGenerator) Configured() bool {
	return true
}

// Model identifies the generator in the health probe.
func (g *LocalGenerator) Model() string {
	return "template"
}

// Complete picks a template from the latest user message and wraps it in the
// sentinel markers, mirroring the shape of a backend reply so the extraction
// path stays identical.
func (g *LocalGenerator) Complete(_ context.Context, history []domain.Message, _ string) (string, error) {
	var latest string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			latest = history[i].Content
			break
		}
	}

	xml := bpmn.TemplateFor(latest)
	return "Aqui está um diagrama de processo para a sua solicitação.\n\n" +
		bpmn.StartMarker + "\n" + xml + "\n" + bpmn.EndMarker, nil
}
