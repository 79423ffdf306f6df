// Package render turns handshake notices and verification results into the
// panel's display state.
package render

import (
	"fmt"

	"nftconnect/internal/models"
)

const (
	TextVerifying          = "Verifying wallet..."
	TextAckWarning         = "Verification submission acknowledged with warnings."
	TextSubmitFailed       = "Error: Could not submit proof for verification."
	TextIncompleteProof    = "Error: Incomplete data received from wallet."
	TextWalletProofError   = "Wallet connection error or proof rejected."
	TextSessionDataInvalid = "Error: Could not retrieve session data."
	TextSessionDataFailed  = "Error: Failed to fetch session data."
	TextPending            = "Verification submitted. Waiting for results..."
	TextVerifiedHeader     = "Wallet Verified! Your NFTs:"
	TextVerifiedNoNFTs     = "Wallet Verified! No relevant NFTs found in your wallet based on server configuration."
	TextRewardsProcessing  = "Rewards are being processed!"
	TextNoRewards          = "No specific rewards found for these NFTs based on server config."

	defaultNFTName     = "Unnamed NFT"
	defaultFailReason  = "Unknown reason"
	defaultFailMessage = "Unknown error"
	defaultInitError   = "Could not set up wallet connection."
	addressPrefixLen   = 6
)

func Clear() models.Display {
	return models.Display{}
}

func Notice(tone models.Tone, text string) models.Display {
	return models.Display{Elements: []models.Element{paragraph(tone, text)}}
}

func InitializationError(reason string) models.Display {
	if reason == "" {
		reason = defaultInitError
	}
	return Notice(models.ToneError, "Initialization Error: "+reason)
}

func VerificationFailed(message string) models.Display {
	if message == "" {
		message = defaultFailMessage
	}
	return Notice(models.ToneError, "Verification Failed: "+message)
}

// Result projects a verification result. A result whose Verified flag is
// unset renders as still pending.
func Result(result models.VerificationResult) models.Display {
	if result.Verified == nil {
		return Notice(models.TonePlain, TextPending)
	}

	if !*result.Verified {
		reason := result.Reason
		if reason == "" {
			reason = defaultFailReason
		}
		return Notice(models.ToneError, "Verification Failed: "+reason)
	}

	if len(result.NFTs) == 0 {
		return Notice(models.TonePlain, TextVerifiedNoNFTs)
	}

	elements := []models.Element{paragraph(models.TonePlain, TextVerifiedHeader)}
	for _, nft := range result.NFTs {
		name := defaultNFTName
		image := ""
		if nft.Metadata != nil {
			if nft.Metadata.Name != "" {
				name = nft.Metadata.Name
			}
			image = nft.Metadata.Image
		}

		elements = append(elements, models.Element{
			Kind: models.ElementItem,
			Text: fmt.Sprintf("%s (%s...)", name, ShortAddress(nft.Address)),
		})
		if image != "" {
			elements = append(elements, models.Element{Kind: models.ElementImage, Src: image, Alt: name})
		}
	}

	if len(result.Rewards) > 0 {
		elements = append(elements, paragraph(models.ToneSuccess, TextRewardsProcessing))
	} else {
		elements = append(elements, paragraph(models.ToneNotice, TextNoRewards))
	}

	return models.Display{Elements: elements}
}

func ShortAddress(address string) string {
	runes := []rune(address)
	if len(runes) <= addressPrefixLen {
		return address
	}
	return string(runes[:addressPrefixLen])
}

func paragraph(tone models.Tone, text string) models.Element {
	return models.Element{Kind: models.ElementParagraph, Tone: tone, Text: text}
}
