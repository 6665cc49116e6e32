package chat

import (
	"fmt"
	"strings"

	"github.com/olprint/storefront/catalog"
)

// Greeting is the assistant's opening message
const Greeting = "Olá! 👋 Sou o assistente virtual da OL Print. Como posso ajudar com a sua impressora hoje?"

// apologyMessage is the single generic error reply; any turn failure
// surfaces as this, and the assistant stays usable.
const apologyMessage = "Desculpe, tive um problema técnico. Por favor tente novamente."

// BuildSystemInstruction renders the assistant persona with the current
// product inventory. Rebuilt whenever the catalog changes.
func BuildSystemInstruction(products []catalog.Product) string {
	var lines []string
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- [%s] %s (%s): €%.2f. %s", p.ID, p.Name, p.Category, p.Price, p.Description))
	}
	productContext := strings.Join(lines, "\n")

	return fmt.Sprintf(`Você é o "OL Bot", um assistente virtual especializado e amigável da loja OL Print em Portugal.
O seu objetivo é ajudar os clientes a escolher impressoras, encontrar consumíveis (tinteiros/toners) e resolver dúvidas técnicas simples.

Aqui está a lista de produtos que vendemos atualmente (o código entre parêntesis retos é o identificador do produto):
%s

Regras:
1. Responda sempre em Português de Portugal (PT-PT).
2. Seja conciso e útil.
3. Se o cliente perguntar por um produto que temos, sugira-o com o preço.
4. Se perguntarem por algo que não temos, sugira uma alternativa da lista ou diga educadamente que não temos stock no momento.
5. Pode dar conselhos gerais sobre manutenção de impressoras (como limpar cabeças de impressão, desatolar papel).
6. Utilize formatação Markdown para listar produtos ou passos (bold, listas).
7. Quando o cliente pedir para adicionar um produto ao carrinho, use a função add_to_cart com o identificador do produto.`, productContext)
}
