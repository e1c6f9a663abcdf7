package integrations

import (
	"github.com/julianshen/docgen/internal/dialog"
	"github.com/julianshen/docgen/internal/docgen"
)

// DialogAssistant exposes the dialog backend as a docgen.Assistant. Every
// conversation is a fresh backend dialog.
type DialogAssistant struct {
	client *dialog.Client
}

// NewDialogAssistant creates a new DialogAssistant.
func NewDialogAssistant(client *dialog.Client) *DialogAssistant {
	return &DialogAssistant{client: client}
}

// NewConversation starts a new dialog.
func (a *DialogAssistant) NewConversation() docgen.Conversation {
	return a.client.NewDialog()
}
