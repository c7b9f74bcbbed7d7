package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lunoxdev/mai-store/internal/domain"
)

// shareLink builds the wa.me deep link carrying the order summary. There is
// no delivery confirmation; opening the link is the whole integration.
func (s *Service) shareLink(cart *domain.Cart) string {
	lines := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, fmt.Sprintf("%s (x%d) - %s%s",
			item.Product.Name, item.Quantity, s.cfg.CurrencySymbol, item.Subtotal()))
	}

	message := fmt.Sprintf("¡Hola %s! Me gustaría confirmar mi pedido:\n\n%s\n\nTotal: %s%s\n\n¡Gracias!",
		s.cfg.StoreName, strings.Join(lines, "\n"), s.cfg.CurrencySymbol, cart.Total())

	return fmt.Sprintf("https://wa.me/%s?text=%s", s.cfg.WhatsAppNumber, encodeURIComponent(message))
}

// encodeURIComponent escapes like its JavaScript namesake: spaces become
// %20, not '+'.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
