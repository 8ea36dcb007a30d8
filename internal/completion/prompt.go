package completion

import (
	"strings"

	"github.com/fluxobpm/fluxo/internal/bpmn"
)

const promptHeader = `Você é um especialista em BPMN (Business Process Model and Notation) que ajuda usuários a criar e modificar diagramas de processos de negócio.

Suas respostas devem:
1. Ser em português brasileiro
2. Gerar XML BPMN válido e bem formatado
3. Usar a estrutura <BPMN_START>XML_AQUI<BPMN_END> para delimitar o XML
4. SEMPRE incluir o XML BPMN na resposta quando o resultado for um diagrama.`

const promptInstructions = `INSTRUÇÕES IMPORTANTES:
- Se o usuário pedir para criar um NOVO diagrama (ex: "crie um processo do zero", "faça um diagrama simples"): IGNORE o diagrama atual (se existir) e gere um XML BPMN completamente novo a partir do pedido.
- Se o usuário pedir para MODIFICAR o diagrama atual (ex: "adicione uma tarefa", "remova o evento"): use o DIAGRAMA ATUAL como base e aplique as modificações.
- SEMPRE responda com o XML BPMN completo e válido, não apenas fragmentos.

Lembre-se: demarque o início e o fim do código XML com ` + bpmn.StartMarker + ` e ` + bpmn.EndMarker + `.`

// SystemPrompt builds the system instruction for a chat turn, embedding the
// current diagram verbatim when one exists.
func SystemPrompt(currentXML string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	if currentXML != "" {
		b.WriteString("DIAGRAMA ATUAL:\n")
		b.WriteString(currentXML)
	} else {
		b.WriteString("Nenhum diagrama BPMN foi fornecido. Comece um novo.")
	}
	b.WriteString("\n\n")
	b.WriteString(promptInstructions)
	return b.String()
}
