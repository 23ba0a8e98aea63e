package chat

import (
	"fmt"
	"strings"

	"github.com/rabiehflowers/storefront/internal/domain"
)

// SystemInstruction builds the assistant's priming text from the business
// name, phone number, and the full catalog listing. It is built once when the
// upstream session is created; later catalog edits show up after a restart.
func SystemInstruction(shopName, phone string, flowers []domain.Flower) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the virtual assistant for %q, a family-owned flower shop.\n", shopName)
	b.WriteString("Your goal is to help customers choose flowers based on their occasion, feelings, or preferences.\n")
	fmt.Fprintf(&b, "We do NOT display prices online. If they ask for prices, politely ask them to call us at %s.\n", phone)
	b.WriteString("We have the following flowers in our catalog:\n")
	for _, f := range flowers {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.Category, f.Description)
	}
	b.WriteString("\nKeep your answers brief, warm, and helpful.\n")
	b.WriteString("If a user asks about something we don't have, suggest something similar or ask them to call for a custom order.\n")
	fmt.Fprintf(&b, "Always encourage them to call %s to place an order.\n", phone)

	return b.String()
}
