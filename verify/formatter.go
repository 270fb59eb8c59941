package verify

import (
	"fmt"
	"strings"

	"github.com/anchorageoss/visualsign-kadena/apdu"
	"github.com/anchorageoss/visualsign-kadena/ui"
)

// Formatter formats verification results and prompt transcripts for display
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatTranscript lists the prompts a device showed, one per line
func (f *Formatter) FormatTranscript(events []ui.Event, indent string) string {
	var sb strings.Builder
	for i, e := range events {
		if e.Final {
			sb.WriteString(fmt.Sprintf("%s[%d] %s (final)\n", indent, i+1, e.Title))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s[%d] %s: %s\n", indent, i+1, e.Title, e.Text))
	}
	return sb.String()
}

// FormatTransfer formats the fields of a transfer for display
func (f *Formatter) FormatTransfer(t *apdu.Transfer, indent string) string {
	var sb strings.Builder
	token := "KDA"
	if t.Namespace != "" {
		token = t.Namespace + "." + t.Module
	}
	sb.WriteString(fmt.Sprintf("%sToken: %s\n", indent, token))
	sb.WriteString(fmt.Sprintf("%sRecipient: k:%s\n", indent, t.Recipient))
	if t.Kind == 2 {
		sb.WriteString(fmt.Sprintf("%sRecipient Chain: %s\n", indent, t.RecipientChain))
	}
	sb.WriteString(fmt.Sprintf("%sAmount: %s\n", indent, t.Amount))
	sb.WriteString(fmt.Sprintf("%sNetwork: %s\n", indent, t.Network))
	sb.WriteString(fmt.Sprintf("%sChain: %s\n", indent, t.ChainID))
	sb.WriteString(fmt.Sprintf("%sGas: at most %s at price %s\n", indent, t.GasLimit, t.GasPrice))
	return sb.String()
}

// FormatVerificationResult formats a verification result for display
func (f *Formatter) FormatVerificationResult(result *VerifyResult) map[string]interface{} {
	output := map[string]interface{}{
		"valid":          result.Valid,
		"signatureValid": result.SignatureValid,
		"publicKey":      result.PublicKeyHex,
		"signature":      result.SignatureHex,
	}

	// Add optional fields if present
	if result.HashB64 != "" {
		output["hash"] = result.HashB64
		output["hashHex"] = result.HashHex
	}
	if result.BlindSigned {
		output["blindSigned"] = true
	}
	if result.Message != "" {
		output["message"] = result.Message
	}

	return output
}
